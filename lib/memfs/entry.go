// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package memfs

// Entry binds a name to an inode within a parent directory's child
// list. Extended attributes live on the Entry, not the inode, so
// hard-linked entries (same inode, different Entry) have independent
// xattr sets. Note this differs from Linux, which keeps xattrs
// per-inode.
type Entry struct {
	name  string
	inode *inode

	attrNames  []string // insertion order, for ListXattr
	attrValues map[string][]byte
}

// Name returns the entry's name within its parent directory. The
// root entry's name is empty.
func (e *Entry) Name() string { return e.name }

// IsDir reports whether e is bound to a directory inode.
func (e *Entry) IsDir() bool { return e.inode.isDir() }

// child returns the direct child Entry named name, or nil.
func (dir *inode) child(name string) *Entry {
	for _, entry := range dir.entries {
		if entry.name == name {
			return entry
		}
	}
	return nil
}

// removeChild deletes the named child from dir's entry list,
// preserving the order of the remaining entries.
func (dir *inode) removeChild(name string) {
	for i, entry := range dir.entries {
		if entry.name == name {
			dir.entries = append(dir.entries[:i], dir.entries[i+1:]...)
			return
		}
	}
}

func (e *Entry) setXattr(name string, value []byte) {
	if e.attrValues == nil {
		e.attrValues = make(map[string][]byte)
	}
	if _, exists := e.attrValues[name]; !exists {
		e.attrNames = append(e.attrNames, name)
	}
	e.attrValues[name] = value
}

func (e *Entry) getXattr(name string) ([]byte, bool) {
	value, ok := e.attrValues[name]
	return value, ok
}

func (e *Entry) listXattr() []string {
	names := make([]string, len(e.attrNames))
	copy(names, e.attrNames)
	return names
}

func (e *Entry) removeXattr(name string) {
	if _, exists := e.attrValues[name]; !exists {
		return
	}
	delete(e.attrValues, name)
	for i, n := range e.attrNames {
		if n == name {
			e.attrNames = append(e.attrNames[:i], e.attrNames[i+1:]...)
			break
		}
	}
}
