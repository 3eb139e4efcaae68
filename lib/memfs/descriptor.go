// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package memfs

// minDescriptorID is the lowest id ever handed out by Open. Starting
// above the platform's reserved low descriptor numbers avoids
// collisions with anything the FUSE bridge synthesizes for stdio-like
// purposes.
const minDescriptorID = 20

// descriptor is an open file handle: a bound Entry, a cursor
// position, and the access/behavior flags decoded at Open time.
type descriptor struct {
	entry *Entry

	position int64

	readable  bool
	writable  bool
	appending bool
	exclusive bool
	creating  bool
}
