// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package memfs

import "time"

// Stat is the metadata snapshot returned by [FileSystem.Stat] and
// [FileSystem.Fstat], modeled on the POSIX stat struct.
type Stat struct {
	Ino    uint64
	Mode   uint32
	Uid    uint32
	Gid    uint32
	Nlink  int
	Size   int64
	Blocks int64 // ceil(Size / 512), matching POSIX st_blocks semantics
	Dev    uint64
	Rdev   uint64

	Atime time.Time
	Mtime time.Time
	Ctime time.Time
}

func statOf(i *inode) Stat {
	return Stat{
		Ino:    i.ino,
		Mode:   i.mode,
		Uid:    i.uid,
		Gid:    i.gid,
		Nlink:  i.nlink,
		Size:   i.size,
		Blocks: (i.size + 511) / 512,
		Atime:  i.atime,
		Mtime:  i.mtime,
		Ctime:  i.ctime,
	}
}
