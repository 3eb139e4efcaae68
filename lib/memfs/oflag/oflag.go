// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package oflag provides the injected, platform-sourced numeric
// constants memfs needs for file-type bits and open flags, plus a
// parser from the textual flag forms POSIX tools use ("r", "rw+",
// "a", ...) to a numeric flag set.
//
// Values are sourced from golang.org/x/sys/unix rather than copied
// as literals, so they track the host build target the way the
// standard library itself does.
package oflag

import "golang.org/x/sys/unix"

// Set is the constant table a [memfs.FileSystem] (or anything
// decoding open flags) needs. A single instance, [POSIX], is built
// from golang.org/x/sys/unix and used as the default everywhere;
// the type exists separately so tests can substitute a table with
// deliberately different bit positions to catch accidental
// hard-coding of POSIX's actual values.
type Set struct {
	IFDIR uint32
	IFREG uint32

	RDONLY  int
	WRONLY  int
	RDWR    int
	ACCMODE int

	APPEND int
	CREAT  int
	EXCL   int
}

// POSIX is the constant table for the host build target, sourced
// from golang.org/x/sys/unix.
var POSIX = Set{
	IFDIR: unix.S_IFDIR,
	IFREG: unix.S_IFREG,

	RDONLY:  unix.O_RDONLY,
	WRONLY:  unix.O_WRONLY,
	RDWR:    unix.O_RDWR,
	ACCMODE: unix.O_ACCMODE,

	APPEND: unix.O_APPEND,
	CREAT:  unix.O_CREAT,
	EXCL:   unix.O_EXCL,
}

// Decoded is the result of parsing a numeric or textual flag value
// against a [Set].
type Decoded struct {
	Readable  bool
	Writable  bool
	Appending bool
	Exclusive bool
	Creating  bool
}

// Decode extracts access-mode and behavior bits from a numeric flag
// value using the given constant table.
func Decode(set Set, flag int) Decoded {
	var decoded Decoded
	switch flag & set.ACCMODE {
	case set.RDONLY:
		decoded.Readable = true
	case set.WRONLY:
		decoded.Writable = true
	case set.RDWR:
		decoded.Readable = true
		decoded.Writable = true
	}
	decoded.Appending = flag&set.APPEND != 0
	decoded.Exclusive = flag&set.EXCL != 0
	decoded.Creating = flag&set.CREAT != 0
	return decoded
}

// Parse maps a textual flag form to a numeric flag set using the
// given constant table. Recognized forms: "r" (O_RDONLY), "r+"
// (O_RDWR), "w" (O_WRONLY|O_CREAT), "w+" (O_RDWR|O_CREAT), "wx" or
// "xw" (O_WRONLY|O_CREAT|O_EXCL), "a" (O_WRONLY|O_CREAT|O_APPEND), "a+"
// (O_RDWR|O_CREAT|O_APPEND). Unrecognized forms return ok=false.
func Parse(set Set, flag string) (value int, ok bool) {
	switch flag {
	case "r":
		return set.RDONLY, true
	case "r+":
		return set.RDWR, true
	case "w":
		return set.WRONLY | set.CREAT, true
	case "w+":
		return set.RDWR | set.CREAT, true
	case "wx", "xw":
		return set.WRONLY | set.CREAT | set.EXCL, true
	case "a":
		return set.WRONLY | set.CREAT | set.APPEND, true
	case "a+":
		return set.RDWR | set.CREAT | set.APPEND, true
	default:
		return 0, false
	}
}
