// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package memfs implements an in-memory POSIX-style filesystem core.
//
// A [FileSystem] owns a tree of [Entry] values rooted at a directory
// with no name. Each Entry binds a name to an inode; multiple Entries
// may share one inode (a hard link). Directory inodes hold an ordered
// list of child Entries. Regular-file inodes hold a sparse vector of
// fixed-size blocks plus a logical size that may be smaller than the
// allocated block span.
//
// FileSystem is safe for concurrent use by multiple goroutines
// without external synchronization: every exported FileSystem method
// takes an internal lock for its entire duration, so the filesystem
// behaves as a single
// logical executor — callers may invoke it from many goroutines, but
// operations never interleave.
//
// Failures are reported as *[Error], which carries a symbolic [Kind]
// and the negative errno value a FUSE-style bridge should return to
// the kernel. See the package-level Is* helpers for testing error
// kinds without importing the Kind constants directly.
//
// This package has no disk, network, or persistence behavior: all
// state lives in RAM and is lost when the FileSystem value is
// dropped. See lib/memfs/fuse for the bridge that exposes a
// FileSystem to a kernel through github.com/hanwen/go-fuse.
package memfs
