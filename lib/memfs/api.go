// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package memfs

import (
	"time"

	"github.com/memfs-foundation/memfs/lib/memfs/oflag"
)

// This file is the FileSystem's exported surface. Every method locks
// fs.mu for its full duration and then delegates to the unexported,
// lock-free core logic in filesystem.go.
//
// Two shapes of the same operations are exposed:
//
//   - Path-addressed methods (Stat, Mkdir, Open, ...) resolve a path
//     string against the root on every call. These are the natural
//     shape for tests and direct embedders.
//
//   - Entry-addressed methods (StatEntry, MkdirEntry, OpenEntry, ...)
//     operate on an already-resolved *Entry. The FUSE bridge uses
//     these directly, since go-fuse's own node tree already performs
//     path walking one component at a time and hands the bridge an
//     Entry pointer at each step — re-splitting and re-resolving a
//     path string there would be redundant work.

// InodeCount returns the number of inodes ever allocated, including
// the root and any since removed. Used by the mount CLI's startup
// banner.
func (fs *FileSystem) InodeCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return int(fs.nextIno)
}

// Lookup resolves path from the root. Fails with ENOENT if any
// component is missing, ENOTDIR if a non-terminal component is not
// a directory.
func (fs *FileSystem) Lookup(path string) (*Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return resolve(fs.root, SplitPath(path), "lookup")
}

// LookupChild resolves a single child name under an already-resolved
// directory Entry.
func (fs *FileSystem) LookupChild(parent *Entry, name string) (*Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !parent.IsDir() {
		return nil, newError(KindNotDir, "lookup", name)
	}
	child := parent.inode.child(name)
	if child == nil {
		return nil, newError(KindNotExist, "lookup", name)
	}
	return child, nil
}

// Stat returns metadata for the entry at path.
func (fs *FileSystem) Stat(path string) (Stat, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry, err := resolve(fs.root, SplitPath(path), "stat")
	if err != nil {
		return Stat{}, err
	}
	return statOf(entry.inode), nil
}

// StatEntry returns metadata for an already-resolved entry.
func (fs *FileSystem) StatEntry(entry *Entry) Stat {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return statOf(entry.inode)
}

// Readdir returns the ordered child names of the directory at path.
func (fs *FileSystem) Readdir(path string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	dir, err := resolve(fs.root, SplitPath(path), "readdir")
	if err != nil {
		return nil, err
	}
	if !dir.IsDir() {
		return nil, newError(KindNotDir, "readdir", path)
	}
	return fs.readdir(dir), nil
}

// ReaddirEntry returns the ordered child names of an already-resolved
// directory entry.
func (fs *FileSystem) ReaddirEntry(dir *Entry) []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.readdir(dir)
}

// Mkdir creates a new directory at path.
func (fs *FileSystem) Mkdir(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, name, err := resolveParent(fs.root, path, "mkdir")
	if err != nil {
		return err
	}
	_, err = fs.mkdir(parent, name)
	return err
}

// MkdirEntry creates a new directory named name under parent.
func (fs *FileSystem) MkdirEntry(parent *Entry, name string) (*Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.mkdir(parent, name)
}

// Create creates (or resets, if an entry by that name already
// exists) a regular file at path. mode is accepted but ignored; new
// files always get the default permission bits.
func (fs *FileSystem) Create(path string, mode uint32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, name, err := resolveParent(fs.root, path, "create")
	if err != nil {
		return err
	}
	_, err = fs.create(parent, name, mode)
	return err
}

// CreateEntry creates (or resets) a regular file named name under
// parent.
func (fs *FileSystem) CreateEntry(parent *Entry, name string, mode uint32) (*Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.create(parent, name, mode)
}

// Unlink removes a non-directory entry at path.
func (fs *FileSystem) Unlink(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, name, err := resolveParent(fs.root, path, "unlink")
	if err != nil {
		return err
	}
	return fs.unlink(parent, name)
}

// UnlinkEntry removes the named non-directory child of parent.
func (fs *FileSystem) UnlinkEntry(parent *Entry, name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.unlink(parent, name)
}

// Rmdir removes an empty directory at path.
func (fs *FileSystem) Rmdir(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, name, err := resolveParent(fs.root, path, "rmdir")
	if err != nil {
		return err
	}
	return fs.rmdir(parent, name)
}

// RmdirEntry removes the named empty directory child of parent.
func (fs *FileSystem) RmdirEntry(parent *Entry, name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.rmdir(parent, name)
}

// Truncate sets the size of the regular file at path.
func (fs *FileSystem) Truncate(path string, size int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry, err := resolve(fs.root, SplitPath(path), "truncate")
	if err != nil {
		return err
	}
	if !entry.inode.isFile() {
		return newError(KindIsDir, "truncate", path)
	}
	fs.truncate(entry, size)
	return nil
}

// TruncateEntry sets the size of an already-resolved regular-file
// entry.
func (fs *FileSystem) TruncateEntry(entry *Entry, size int64) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.truncate(entry, size)
}

// Ftruncate sets the size of the regular file bound to fd.
func (fs *FileSystem) Ftruncate(fd int, size int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d, err := fs.descriptorAt(fd)
	if err != nil {
		return err
	}
	fs.truncate(d.entry, size)
	return nil
}

// Link creates a new hard link at to, bound to the same inode as
// from. Fails with EISDIR if from names a directory.
func (fs *FileSystem) Link(from, to string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	source, err := resolve(fs.root, SplitPath(from), "link")
	if err != nil {
		return err
	}
	toParent, toName, err := resolveParent(fs.root, to, "link")
	if err != nil {
		return err
	}
	_, err = fs.link(source, toParent, toName)
	return err
}

// LinkEntry creates a new hard link named toName under toParent,
// bound to target's inode.
func (fs *FileSystem) LinkEntry(target *Entry, toParent *Entry, toName string) (*Entry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.link(target, toParent, toName)
}

// Rename moves the entry at from to to. An existing binding at to is
// replaced when the types agree; a non-empty directory target fails
// with ENOTEMPTY.
func (fs *FileSystem) Rename(from, to string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fromParent, fromName, err := resolveParent(fs.root, from, "rename")
	if err != nil {
		return err
	}
	toParent, toName, err := resolveParent(fs.root, to, "rename")
	if err != nil {
		return err
	}
	return fs.rename(fromParent, fromName, toParent, toName)
}

// RenameEntry moves fromName under fromParent to toName under
// toParent.
func (fs *FileSystem) RenameEntry(fromParent *Entry, fromName string, toParent *Entry, toName string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.rename(fromParent, fromName, toParent, toName)
}

// SetXattr sets an extended attribute on the entry at path.
func (fs *FileSystem) SetXattr(path, name string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry, err := resolve(fs.root, SplitPath(path), "setxattr")
	if err != nil {
		return err
	}
	fs.setXattr(entry, name, value)
	return nil
}

// SetXattrEntry sets an extended attribute on an already-resolved
// entry.
func (fs *FileSystem) SetXattrEntry(entry *Entry, name string, value []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.setXattr(entry, name, value)
}

// GetXattr returns the value of an extended attribute on the entry
// at path. ok is false if the attribute is absent.
func (fs *FileSystem) GetXattr(path, name string) (value []byte, ok bool, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry, err := resolve(fs.root, SplitPath(path), "getxattr")
	if err != nil {
		return nil, false, err
	}
	value, ok = fs.getXattr(entry, name)
	return value, ok, nil
}

// GetXattrEntry returns the value of an extended attribute on an
// already-resolved entry.
func (fs *FileSystem) GetXattrEntry(entry *Entry, name string) ([]byte, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.getXattr(entry, name)
}

// ListXattr returns the attribute names set on the entry at path, in
// insertion order.
func (fs *FileSystem) ListXattr(path string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry, err := resolve(fs.root, SplitPath(path), "listxattr")
	if err != nil {
		return nil, err
	}
	return fs.listXattr(entry), nil
}

// ListXattrEntry returns the attribute names set on an already-
// resolved entry.
func (fs *FileSystem) ListXattrEntry(entry *Entry) []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.listXattr(entry)
}

// RemoveXattr deletes an extended attribute on the entry at path.
// Silently succeeds if the attribute is absent.
func (fs *FileSystem) RemoveXattr(path, name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry, err := resolve(fs.root, SplitPath(path), "removexattr")
	if err != nil {
		return err
	}
	fs.removeXattr(entry, name)
	return nil
}

// RemoveXattrEntry deletes an extended attribute on an already-
// resolved entry.
func (fs *FileSystem) RemoveXattrEntry(entry *Entry, name string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.removeXattr(entry, name)
}

// Open resolves path and opens it, creating the file when O_CREAT
// allows, and returns a descriptor id >= 20.
func (fs *FileSystem) Open(path string, flag int, mode uint32) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	parent, name, err := resolveParent(fs.root, path, "open")
	if err != nil {
		return 0, err
	}
	return fs.openEntry(parent, name, flag, mode)
}

// OpenEntry opens (creating if needed) name under parent. Used by
// the FUSE bridge's "create" path, where the kernel supplies the
// parent directory and the not-yet-existing name together.
func (fs *FileSystem) OpenEntry(parent *Entry, name string, flag int, mode uint32) (*Entry, int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fd, err := fs.openEntry(parent, name, flag, mode)
	if err != nil {
		return nil, 0, err
	}
	return fs.fds[fd-minDescriptorID].entry, fd, nil
}

// OpenExisting opens an already-resolved entry directly, without a
// parent/name lookup. Used by the FUSE bridge's "open" path, where
// go-fuse has already resolved the node via an earlier Lookup.
func (fs *FileSystem) OpenExisting(entry *Entry, flag int) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	decoded := oflag.Decode(fs.flags, flag)
	return fs.openResolved(entry, decoded)
}

// Close releases a descriptor. Trailing null slots in the descriptor
// table are trimmed.
func (fs *FileSystem) Close(fd int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.closeDescriptor(fd)
}

// Read reads from fd into buf. If position is non-nil, the
// descriptor's cursor is set to *position first (pread semantics).
// The cursor advances by the number of bytes read.
func (fs *FileSystem) Read(fd int, buf []byte, position *int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.readDescriptor(fd, buf, position)
}

// Write writes buf to fd. If position is non-nil, the descriptor's
// cursor is set to *position first (pwrite semantics). The cursor
// advances by len(buf).
func (fs *FileSystem) Write(fd int, buf []byte, position *int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.writeDescriptor(fd, buf, position)
}

// Fstat returns metadata for the entry bound to fd.
func (fs *FileSystem) Fstat(fd int) (Stat, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	d, err := fs.descriptorAt(fd)
	if err != nil {
		return Stat{}, err
	}
	return statOf(d.entry.inode), nil
}

// Chmod rewrites the permission bits of the entry at path, preserving
// its type bit.
func (fs *FileSystem) Chmod(path string, mode uint32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry, err := resolve(fs.root, SplitPath(path), "chmod")
	if err != nil {
		return err
	}
	fs.chmod(entry, mode)
	return nil
}

// ChmodEntry rewrites the permission bits of an already-resolved
// entry.
func (fs *FileSystem) ChmodEntry(entry *Entry, mode uint32) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.chmod(entry, mode)
}

// Chown sets ownership of the entry at path.
func (fs *FileSystem) Chown(path string, uid, gid uint32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry, err := resolve(fs.root, SplitPath(path), "chown")
	if err != nil {
		return err
	}
	fs.chown(entry, uid, gid)
	return nil
}

// ChownEntry sets ownership of an already-resolved entry.
func (fs *FileSystem) ChownEntry(entry *Entry, uid, gid uint32) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.chown(entry, uid, gid)
}

// Utimes sets the access and modification times of the entry at
// path.
func (fs *FileSystem) Utimes(path string, atime, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry, err := resolve(fs.root, SplitPath(path), "utimes")
	if err != nil {
		return err
	}
	fs.utimes(entry, atime, mtime)
	return nil
}

// UtimesEntry sets the access and modification times of an already-
// resolved entry.
func (fs *FileSystem) UtimesEntry(entry *Entry, atime, mtime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.utimes(entry, atime, mtime)
}
