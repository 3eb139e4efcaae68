// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package memfs

import (
	"sync"
	"time"

	"github.com/memfs-foundation/memfs/lib/clock"
	"github.com/memfs-foundation/memfs/lib/memfs/oflag"
)

// Options configures a new [FileSystem].
type Options struct {
	// Flags is the injected platform constant table. The zero value
	// selects [oflag.POSIX].
	Flags oflag.Set

	// Clock provides timestamps. Nil selects [clock.Real].
	Clock clock.Clock
}

// FileSystem is the top-level owner of the namespace: the root
// directory, the inode counter, and the descriptor table. It is the
// single logical executor for the whole namespace — every exported
// method holds an internal lock for its full duration, so operations
// from any number of goroutines never interleave or observe a
// partially-applied mutation.
type FileSystem struct {
	mu sync.Mutex

	flags oflag.Set
	clock clock.Clock

	root    *Entry
	nextIno uint64

	// fds is indexed by (id - minDescriptorID). A nil slot is a
	// closed (or never-allocated) descriptor. Open always appends;
	// Close trims trailing nil slots so id growth stays bounded
	// under open/close churn.
	fds []*descriptor
}

// New creates an empty FileSystem: a root directory with no children.
func New(options Options) *FileSystem {
	if options.Flags == (oflag.Set{}) {
		options.Flags = oflag.POSIX
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}

	fs := &FileSystem{flags: options.Flags, clock: options.Clock}
	rootInode := fs.newInode(kindDir, options.Flags.IFDIR|0o555|0o333)
	fs.root = &Entry{name: "", inode: rootInode}
	return fs
}

// Root returns the filesystem's root entry. Useful for callers (like
// the FUSE bridge) that traverse the tree directly via Entry-level
// methods instead of path strings.
func (fs *FileSystem) Root() *Entry { return fs.root }

func (fs *FileSystem) newInode(k kind, mode uint32) *inode {
	fs.nextIno++
	now := fs.clock.Now()
	i := &inode{
		ino:   fs.nextIno,
		kind:  k,
		mode:  mode,
		nlink: 1,
		atime: now,
		mtime: now,
		ctime: now,
	}
	if k == kindDir {
		i.size = 512
	} else {
		i.blocks = make(map[int64][]byte)
	}
	return i
}

// ----------------------------------------------------------------
// Directory operations. Entry-level variants are used directly by
// the FUSE bridge, which already holds the parent Entry from its
// own node tree; path-level variants resolve a path first.
// ----------------------------------------------------------------

func (fs *FileSystem) mkdir(parent *Entry, name string) (*Entry, error) {
	if parent.inode.child(name) != nil {
		return nil, newError(KindExist, "mkdir", name)
	}
	child := &Entry{name: name, inode: fs.newInode(kindDir, fs.flags.IFDIR|0o555|0o333)}
	parent.inode.entries = append(parent.inode.entries, child)
	parent.inode.mtime = fs.clock.Now()
	return child, nil
}

func (fs *FileSystem) create(parent *Entry, name string, _ uint32) (*Entry, error) {
	if existing := parent.inode.child(name); existing != nil {
		if existing.IsDir() {
			return nil, newError(KindIsDir, "create", name)
		}
		existing.inode.blocks = make(map[int64][]byte)
		existing.inode.size = 0
		existing.inode.mtime = fs.clock.Now()
		return existing, nil
	}

	child := &Entry{name: name, inode: fs.newInode(kindRegular, fs.flags.IFREG|0o444|0o222)}
	parent.inode.entries = append(parent.inode.entries, child)
	parent.inode.mtime = fs.clock.Now()
	return child, nil
}

func (fs *FileSystem) unlink(parent *Entry, name string) error {
	target := parent.inode.child(name)
	if target == nil {
		return newError(KindNotExist, "unlink", name)
	}
	if target.IsDir() {
		return newError(KindPermission, "unlink", name)
	}
	parent.inode.removeChild(name)
	target.inode.nlink--
	parent.inode.mtime = fs.clock.Now()
	return nil
}

func (fs *FileSystem) rmdir(parent *Entry, name string) error {
	target := parent.inode.child(name)
	if target == nil {
		return newError(KindNotExist, "rmdir", name)
	}
	if !target.IsDir() {
		return newError(KindNotDir, "rmdir", name)
	}
	if len(target.inode.entries) > 0 {
		return newError(KindNotEmpty, "rmdir", name)
	}
	parent.inode.removeChild(name)
	target.inode.nlink--
	parent.inode.mtime = fs.clock.Now()
	return nil
}

func (fs *FileSystem) readdir(dir *Entry) []string {
	names := make([]string, len(dir.inode.entries))
	for i, entry := range dir.inode.entries {
		names[i] = entry.name
	}
	return names
}

// ----------------------------------------------------------------
// File I/O.
// ----------------------------------------------------------------

func (fs *FileSystem) readAt(file *Entry, dest []byte, offset int64) int {
	size := file.inode.size
	if offset >= size || len(dest) == 0 {
		return 0
	}
	end := offset + int64(len(dest))
	if end > size {
		end = size
	}
	n := end - offset
	file.inode.readAt(dest[:n], offset)
	file.inode.atime = fs.clock.Now()
	return int(n)
}

func (fs *FileSystem) writeAt(file *Entry, src []byte, offset int64) int {
	end := offset + int64(len(src))
	if end > file.inode.size {
		file.inode.size = end
	}
	file.inode.writeAt(src, offset)
	file.inode.mtime = fs.clock.Now()
	return len(src)
}

func (fs *FileSystem) truncate(file *Entry, newSize int64) {
	file.inode.size = newSize
	file.inode.truncateBlocks(newSize)
	file.inode.mtime = fs.clock.Now()
}

// ----------------------------------------------------------------
// Hard links and rename.
// ----------------------------------------------------------------

func (fs *FileSystem) link(target *Entry, toParent *Entry, toName string) (*Entry, error) {
	if target.IsDir() {
		return nil, newError(KindIsDir, "link", toName)
	}
	if toParent.inode.child(toName) != nil {
		return nil, newError(KindExist, "link", toName)
	}
	linked := &Entry{name: toName, inode: target.inode}
	toParent.inode.entries = append(toParent.inode.entries, linked)
	target.inode.nlink++
	toParent.inode.mtime = fs.clock.Now()
	return linked, nil
}

func (fs *FileSystem) rename(fromParent *Entry, fromName string, toParent *Entry, toName string) error {
	source := fromParent.inode.child(fromName)
	if source == nil {
		return newError(KindNotExist, "rename", fromName)
	}

	target := toParent.inode.child(toName)
	if target == source {
		// Renaming an entry onto itself is a no-op; falling through
		// would unlink the entry and then re-append it, leaving nlink
		// one short of the live binding count.
		return nil
	}
	if target != nil {
		switch {
		case target.IsDir() && !source.IsDir():
			return newError(KindIsDir, "rename", toName)
		case !target.IsDir() && source.IsDir():
			return newError(KindNotDir, "rename", toName)
		case target.IsDir() && len(target.inode.entries) > 0:
			return newError(KindNotEmpty, "rename", toName)
		}
		toParent.inode.removeChild(toName)
		target.inode.nlink--
	}

	// Atomic from any single operation's perspective: the old
	// binding is removed and the new one appended before any other
	// FileSystem method can run, because the caller holds fs.mu for
	// the whole rename.
	fromParent.inode.removeChild(fromName)
	source.name = toName
	toParent.inode.entries = append(toParent.inode.entries, source)

	now := fs.clock.Now()
	fromParent.inode.mtime = now
	toParent.inode.mtime = now
	return nil
}

// ----------------------------------------------------------------
// Extended attributes.
// ----------------------------------------------------------------

func (fs *FileSystem) setXattr(entry *Entry, name string, value []byte) {
	entry.setXattr(name, value)
}

func (fs *FileSystem) getXattr(entry *Entry, name string) ([]byte, bool) {
	return entry.getXattr(name)
}

func (fs *FileSystem) listXattr(entry *Entry) []string {
	return entry.listXattr()
}

func (fs *FileSystem) removeXattr(entry *Entry, name string) {
	entry.removeXattr(name)
}

// ----------------------------------------------------------------
// FileDescriptor and open.
// ----------------------------------------------------------------

// openEntry applies the POSIX open decision table to a parent
// directory and a last-component name.
func (fs *FileSystem) openEntry(parent *Entry, name string, flag int, mode uint32) (int, error) {
	decoded := oflag.Decode(fs.flags, flag)
	existing := parent.inode.child(name)

	if existing == nil {
		if !decoded.Writable {
			return 0, newError(KindNotExist, "open", name)
		}
		if !decoded.Creating {
			return 0, newError(KindNotExist, "open", name)
		}
		created, err := fs.create(parent, name, mode)
		if err != nil {
			return 0, err
		}
		// A freshly created file is already empty and cannot collide
		// with O_EXCL, so it skips openResolved's existing-entry rules.
		return fs.allocateDescriptor(created, decoded), nil
	}

	return fs.openResolved(existing, decoded)
}

// openResolved applies the reset-on-write-open rule and allocates a
// descriptor for an Entry that is already known to exist. Opening an
// existing file writable without O_APPEND empties it even when
// O_TRUNC is not set, which differs from POSIX open. Used both
// by openEntry's existing-entry branch and directly by the FUSE
// bridge, which already holds the Entry from its own node tree.
func (fs *FileSystem) openResolved(existing *Entry, decoded oflag.Decoded) (int, error) {
	if !existing.inode.isFile() {
		return 0, newError(KindPermission, "open", existing.name)
	}
	if decoded.Exclusive {
		return 0, newError(KindExist, "open", existing.name)
	}
	if decoded.Writable && !decoded.Appending {
		existing.inode.blocks = make(map[int64][]byte)
		existing.inode.size = 0
		existing.inode.mtime = fs.clock.Now()
	}
	return fs.allocateDescriptor(existing, decoded), nil
}

func (fs *FileSystem) allocateDescriptor(entry *Entry, decoded oflag.Decoded) int {
	d := &descriptor{
		entry:     entry,
		readable:  decoded.Readable,
		writable:  decoded.Writable,
		appending: decoded.Appending,
		exclusive: decoded.Exclusive,
		creating:  decoded.Creating,
	}
	if decoded.Appending {
		d.position = entry.inode.size
	}
	fs.fds = append(fs.fds, d)
	return len(fs.fds) - 1 + minDescriptorID
}

func (fs *FileSystem) descriptorAt(id int) (*descriptor, error) {
	index := id - minDescriptorID
	if index < 0 || index >= len(fs.fds) || fs.fds[index] == nil {
		return nil, newError(KindBadDescriptor, "fd", "")
	}
	return fs.fds[index], nil
}

func (fs *FileSystem) closeDescriptor(id int) error {
	index := id - minDescriptorID
	if index < 0 || index >= len(fs.fds) || fs.fds[index] == nil {
		return newError(KindBadDescriptor, "close", "")
	}
	fs.fds[index] = nil
	for len(fs.fds) > 0 && fs.fds[len(fs.fds)-1] == nil {
		fs.fds = fs.fds[:len(fs.fds)-1]
	}
	return nil
}

func (fs *FileSystem) readDescriptor(id int, buf []byte, position *int64) (int, error) {
	d, err := fs.descriptorAt(id)
	if err != nil {
		return 0, err
	}
	if position != nil {
		d.position = *position
	}
	n := fs.readAt(d.entry, buf, d.position)
	d.position += int64(n)
	return n, nil
}

func (fs *FileSystem) writeDescriptor(id int, buf []byte, position *int64) (int, error) {
	d, err := fs.descriptorAt(id)
	if err != nil {
		return 0, err
	}
	if position != nil {
		d.position = *position
	}
	n := fs.writeAt(d.entry, buf, d.position)
	d.position += int64(n)
	return n, nil
}

// ----------------------------------------------------------------
// Metadata operations.
// ----------------------------------------------------------------

func (fs *FileSystem) chmod(entry *Entry, mode uint32) {
	typeBits := entry.inode.mode &^ 0o7777
	entry.inode.mode = typeBits | (mode & 0o7777)
	entry.inode.ctime = fs.clock.Now()
}

func (fs *FileSystem) chown(entry *Entry, uid, gid uint32) {
	entry.inode.uid = uid
	entry.inode.gid = gid
	entry.inode.ctime = fs.clock.Now()
}

func (fs *FileSystem) utimes(entry *Entry, atime, mtime time.Time) {
	entry.inode.atime = atime
	entry.inode.mtime = mtime
}
