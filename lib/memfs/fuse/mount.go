// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/memfs-foundation/memfs/lib/memfs"
)

// attrTimeout and entryTimeout bound how long the kernel caches
// attributes and directory-entry bindings before re-asking this
// bridge. Short timeouts keep the in-memory filesystem's mutations
// (rename, truncate, write) visible promptly to other processes
// sharing the mount.
const (
	attrTimeout  = 1 * time.Second
	entryTimeout = 1 * time.Second
)

// Options configures a FUSE mount of a [memfs.FileSystem].
type Options struct {
	// Mountpoint is the directory the filesystem is mounted at. It
	// is created if it does not already exist.
	Mountpoint string

	// FS is the filesystem to expose. Required.
	FS *memfs.FileSystem

	// AllowOther permits other users (including root) to access the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostics for conditions that are not a
	// well-formed *memfs.Error (a programmer mistake, not a POSIX
	// condition) before they are reported to the kernel as EIO. If
	// nil, a text handler at LevelError writing to stderr is used.
	Logger *slog.Logger
}

// Mount mounts fs at options.Mountpoint and returns the running
// server. The caller must call server.Unmount() when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.FS == nil {
		return nil, fmt.Errorf("fs is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &node{fsys: options.FS, entry: options.FS.Root(), logger: options.Logger}

	entryTO := entryTimeout
	attrTO := attrTimeout
	negativeTO := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTO,
		AttrTimeout:     &attrTO,
		NegativeTimeout: &negativeTO,
		MountOptions: fuse.MountOptions{
			FsName:     "memfs",
			Name:       "memfs",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("memfs mounted", "mountpoint", options.Mountpoint)
	return server, nil
}

// node is the sole InodeEmbedder this bridge uses, for directories
// and regular files alike. It carries the *memfs.Entry the kernel
// path component currently resolves to and dispatches every callback
// straight to the matching memfs.FileSystem method.
type node struct {
	gofuse.Inode
	fsys   *memfs.FileSystem
	entry  *memfs.Entry
	logger *slog.Logger
}

var (
	_ gofuse.InodeEmbedder     = (*node)(nil)
	_ gofuse.NodeLookuper      = (*node)(nil)
	_ gofuse.NodeReaddirer     = (*node)(nil)
	_ gofuse.NodeGetattrer     = (*node)(nil)
	_ gofuse.NodeSetattrer     = (*node)(nil)
	_ gofuse.NodeOpener        = (*node)(nil)
	_ gofuse.NodeReader        = (*node)(nil)
	_ gofuse.NodeWriter        = (*node)(nil)
	_ gofuse.NodeCreater       = (*node)(nil)
	_ gofuse.NodeMkdirer       = (*node)(nil)
	_ gofuse.NodeUnlinker      = (*node)(nil)
	_ gofuse.NodeRmdirer       = (*node)(nil)
	_ gofuse.NodeRenamer       = (*node)(nil)
	_ gofuse.NodeLinker        = (*node)(nil)
	_ gofuse.NodeReleaser      = (*node)(nil)
	_ gofuse.NodeGetxattrer    = (*node)(nil)
	_ gofuse.NodeSetxattrer    = (*node)(nil)
	_ gofuse.NodeListxattrer   = (*node)(nil)
	_ gofuse.NodeRemovexattrer = (*node)(nil)
)

// fileHandle is the FileHandle this bridge hands the kernel for an
// open file: the memfs descriptor id, nothing more. memfs.FileSystem
// owns the actual position/flags state behind that id.
type fileHandle int

func (n *node) wrap(entry *memfs.Entry) *node {
	return &node{fsys: n.fsys, entry: entry, logger: n.logger}
}

func (n *node) stableAttr() gofuse.StableAttr {
	st := n.fsys.StatEntry(n.entry)
	mode := uint32(syscall.S_IFREG)
	if n.entry.IsDir() {
		mode = syscall.S_IFDIR
	}
	return gofuse.StableAttr{Mode: mode, Ino: st.Ino}
}

// Lookup implements gofuse.NodeLookuper.
func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	child, err := n.fsys.LookupChild(n.entry, name)
	if err != nil {
		return nil, errno(n, "lookup", err)
	}
	fillEntryOut(out, n.fsys.StatEntry(child))
	out.SetEntryTimeout(entryTimeout)
	out.SetAttrTimeout(attrTimeout)
	childNode := n.wrap(child)
	return n.NewInode(ctx, childNode, childNode.stableAttr()), 0
}

// Readdir implements gofuse.NodeReaddirer.
func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	names := n.fsys.ReaddirEntry(n.entry)
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		child, err := n.fsys.LookupChild(n.entry, name)
		if err != nil {
			continue
		}
		mode := uint32(syscall.S_IFREG)
		if child.IsDir() {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode})
	}
	return &sliceDirStream{entries: entries}, 0
}

// Getattr implements gofuse.NodeGetattrer.
func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fillAttrOut(out, n.fsys.StatEntry(n.entry))
	return 0
}

// Setattr implements gofuse.NodeSetattrer: size changes truncate,
// mode changes chmod, uid/gid changes chown, and atime/mtime changes
// utimes — each delegating to the matching memfs operation.
func (n *node) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		n.fsys.TruncateEntry(n.entry, int64(size))
	}
	if mode, ok := in.GetMode(); ok {
		n.fsys.ChmodEntry(n.entry, mode)
	}
	uid, hasUID := in.GetUID()
	gid, hasGID := in.GetGID()
	if hasUID || hasGID {
		st := n.fsys.StatEntry(n.entry)
		if !hasUID {
			uid = st.Uid
		}
		if !hasGID {
			gid = st.Gid
		}
		n.fsys.ChownEntry(n.entry, uid, gid)
	}
	atime, hasAtime := in.GetATime()
	mtime, hasMtime := in.GetMTime()
	if hasAtime || hasMtime {
		st := n.fsys.StatEntry(n.entry)
		if !hasAtime {
			atime = st.Atime
		}
		if !hasMtime {
			mtime = st.Mtime
		}
		n.fsys.UtimesEntry(n.entry, atime, mtime)
	}
	fillAttrOut(out, n.fsys.StatEntry(n.entry))
	return 0
}

// Open implements gofuse.NodeOpener. The parent/name pairing needed
// by memfs's O_CREAT path is handled by Create instead — by the time
// Open is called, go-fuse has already resolved this node via Lookup,
// so it always targets an existing entry.
func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	fd, err := n.fsys.OpenExisting(n.entry, int(flags))
	if err != nil {
		return nil, 0, errno(n, "open", err)
	}
	return fileHandle(fd), 0, 0
}

// Create implements gofuse.NodeCreater: the kernel supplies the
// not-yet-existing name directly, so this calls memfs's
// parent+name Open path rather than resolving through Lookup first.
func (n *node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	child, fd, err := n.fsys.OpenEntry(n.entry, name, int(flags), mode)
	if err != nil {
		return nil, nil, 0, errno(n, "create", err)
	}
	fillEntryOut(out, n.fsys.StatEntry(child))
	out.SetEntryTimeout(entryTimeout)
	out.SetAttrTimeout(attrTimeout)
	childNode := n.wrap(child)
	inode := n.NewInode(ctx, childNode, childNode.stableAttr())
	return inode, fileHandle(fd), 0, 0
}

// Mkdir implements gofuse.NodeMkdirer.
func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	child, err := n.fsys.MkdirEntry(n.entry, name)
	if err != nil {
		return nil, errno(n, "mkdir", err)
	}
	fillEntryOut(out, n.fsys.StatEntry(child))
	out.SetEntryTimeout(entryTimeout)
	out.SetAttrTimeout(attrTimeout)
	childNode := n.wrap(child)
	return n.NewInode(ctx, childNode, childNode.stableAttr()), 0
}

// Unlink implements gofuse.NodeUnlinker. go-fuse removes the child
// from its own tree automatically once this returns OK.
func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	if err := n.fsys.UnlinkEntry(n.entry, name); err != nil {
		return errno(n, "unlink", err)
	}
	return 0
}

// Rmdir implements gofuse.NodeRmdirer.
func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	if err := n.fsys.RmdirEntry(n.entry, name); err != nil {
		return errno(n, "rmdir", err)
	}
	return 0
}

// Rename implements gofuse.NodeRenamer.
func (n *node) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	toNode, ok := newParent.(*node)
	if !ok {
		n.logger.Error("rename: new parent is not a memfs node")
		return syscall.EIO
	}
	if err := n.fsys.RenameEntry(n.entry, name, toNode.entry, newName); err != nil {
		return errno(n, "rename", err)
	}
	return 0
}

// Link implements gofuse.NodeLinker: target is the existing node
// being hard-linked into this directory under name.
func (n *node) Link(ctx context.Context, target gofuse.InodeEmbedder, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	sourceNode, ok := target.(*node)
	if !ok {
		n.logger.Error("link: target is not a memfs node")
		return nil, syscall.EIO
	}
	linked, err := n.fsys.LinkEntry(sourceNode.entry, n.entry, name)
	if err != nil {
		return nil, errno(n, "link", err)
	}
	fillEntryOut(out, n.fsys.StatEntry(linked))
	out.SetEntryTimeout(entryTimeout)
	out.SetAttrTimeout(attrTimeout)
	childNode := n.wrap(linked)
	return n.NewInode(ctx, childNode, childNode.stableAttr()), 0
}

// Read implements gofuse.NodeReader.
func (n *node) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	fd, ok := f.(fileHandle)
	if !ok {
		n.logger.Error("read: file handle is not a memfs descriptor")
		return nil, syscall.EIO
	}
	position := off
	read, err := n.fsys.Read(int(fd), dest, &position)
	if err != nil {
		return nil, errno(n, "read", err)
	}
	return fuse.ReadResultData(dest[:read]), 0
}

// Write implements gofuse.NodeWriter.
func (n *node) Write(ctx context.Context, f gofuse.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	fd, ok := f.(fileHandle)
	if !ok {
		n.logger.Error("write: file handle is not a memfs descriptor")
		return 0, syscall.EIO
	}
	position := off
	written, err := n.fsys.Write(int(fd), data, &position)
	if err != nil {
		return 0, errno(n, "write", err)
	}
	return uint32(written), 0
}

// Release implements gofuse.NodeReleaser, closing the bound memfs
// descriptor. memfs itself keeps the descriptor's entry (and its
// inode) alive until this runs, regardless of nlink — POSIX
// unlink-then-keep-reading behavior.
func (n *node) Release(ctx context.Context, f gofuse.FileHandle) syscall.Errno {
	fd, ok := f.(fileHandle)
	if !ok {
		return 0
	}
	if err := n.fsys.Close(int(fd)); err != nil {
		return errno(n, "close", err)
	}
	return 0
}

// Getxattr implements gofuse.NodeGetxattrer.
func (n *node) Getxattr(ctx context.Context, attr string, dest []byte) (uint32, syscall.Errno) {
	value, ok := n.fsys.GetXattrEntry(n.entry, attr)
	if !ok {
		return 0, syscall.ENODATA
	}
	if len(dest) < len(value) {
		return uint32(len(value)), syscall.ERANGE
	}
	copy(dest, value)
	return uint32(len(value)), 0
}

// Setxattr implements gofuse.NodeSetxattrer.
func (n *node) Setxattr(ctx context.Context, attr string, data []byte, flags uint32) syscall.Errno {
	n.fsys.SetXattrEntry(n.entry, attr, append([]byte(nil), data...))
	return 0
}

// Removexattr implements gofuse.NodeRemovexattrer. Silently succeeds
// if the attribute is absent.
func (n *node) Removexattr(ctx context.Context, attr string) syscall.Errno {
	n.fsys.RemoveXattrEntry(n.entry, attr)
	return 0
}

// Listxattr implements gofuse.NodeListxattrer.
func (n *node) Listxattr(ctx context.Context, dest []byte) (uint32, syscall.Errno) {
	names := n.fsys.ListXattrEntry(n.entry)
	var joined []byte
	for _, name := range names {
		joined = append(joined, name...)
		joined = append(joined, 0)
	}
	if len(dest) < len(joined) {
		return uint32(len(joined)), syscall.ERANGE
	}
	copy(dest, joined)
	return uint32(len(joined)), 0
}

func fillAttrOut(out *fuse.AttrOut, st memfs.Stat) {
	fillAttr(&out.Attr, st)
}

func fillEntryOut(out *fuse.EntryOut, st memfs.Stat) {
	fillAttr(&out.Attr, st)
}

func fillAttr(attr *fuse.Attr, st memfs.Stat) {
	attr.Ino = st.Ino
	attr.Size = uint64(st.Size)
	attr.Blocks = uint64(st.Blocks)
	attr.Mode = st.Mode
	attr.Nlink = uint32(st.Nlink)
	attr.Uid = st.Uid
	attr.Gid = st.Gid
	attr.Blksize = 4096

	attr.Atime, attr.Atimensec = secondsAndNanos(st.Atime)
	attr.Mtime, attr.Mtimensec = secondsAndNanos(st.Mtime)
	attr.Ctime, attr.Ctimensec = secondsAndNanos(st.Ctime)
}

func secondsAndNanos(t time.Time) (uint64, uint32) {
	if t.IsZero() {
		return 0, 0
	}
	return uint64(t.Unix()), uint32(t.Nanosecond())
}

// sliceDirStream implements gofuse.DirStream from a fixed slice of
// entries.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool { return s.index < len(s.entries) }

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.entries[s.index]
	s.index++
	return entry, 0
}

func (s *sliceDirStream) Close() {}

// errno converts a memfs error to the syscall.Errno the kernel
// expects. A non-*memfs.Error is a programmer mistake, not a POSIX
// condition — it is logged and reported as EIO.
func errno(n *node, op string, err error) syscall.Errno {
	switch memfs.Errno(err) {
	case -2:
		return syscall.ENOENT
	case -1:
		return syscall.EPERM
	case -9:
		return syscall.EBADF
	case -17:
		return syscall.EEXIST
	case -20:
		return syscall.ENOTDIR
	case -21:
		return syscall.EISDIR
	case -23:
		return syscall.EINVAL
	case -66:
		return syscall.ENOTEMPTY
	default:
		n.logger.Error("unexpected memfs error", "op", op, "error", err)
		return syscall.EIO
	}
}
