// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse bridges a [memfs.FileSystem] to the kernel through
// github.com/hanwen/go-fuse/v2. It translates go-fuse node callbacks
// into memfs calls and converts the *memfs.Error values memfs raises
// into syscall.Errno.
//
// A single node type backs every entry in the tree, directory or
// file alike — it carries the bound *memfs.Entry and dispatches to
// whichever memfs operation the callback needs. memfs.Entry already
// distinguishes directories from files, so splitting the bridge into
// separate directory and file node types would duplicate that check
// without changing behavior.
package fuse
