// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/memfs-foundation/memfs/lib/memfs"
	"golang.org/x/sys/unix"
)

// fuseAvailable checks whether /dev/fuse is accessible. Tests that
// need a real FUSE mount call this and skip if the device is absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	_, err := os.Stat("/dev/fuse")
	if err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

// testMount creates an empty memfs.FileSystem, mounts it, and returns
// the mountpoint. The mount is unmounted automatically at test end.
func testMount(t *testing.T) string {
	t.Helper()
	fuseAvailable(t)

	root := t.TempDir()
	mountpoint := filepath.Join(root, "mnt")

	fsys := memfs.New(memfs.Options{})
	server, err := Mount(Options{Mountpoint: mountpoint, FS: fsys})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("Unmount: %v", err)
		}
	})

	return mountpoint
}

func TestMountEmptyRootIsEmptyDirectory(t *testing.T) {
	mountpoint := testMount(t)

	entries, err := os.ReadDir(mountpoint)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("ReadDir(root) = %d entries, want 0", len(entries))
	}
}

func TestMountMkdirAndReaddir(t *testing.T) {
	mountpoint := testMount(t)

	if err := os.Mkdir(filepath.Join(mountpoint, "a"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.Mkdir(filepath.Join(mountpoint, "a", "b"), 0o755); err != nil {
		t.Fatalf("Mkdir nested: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(mountpoint, "a"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "b" || !entries[0].IsDir() {
		t.Fatalf("ReadDir(a) = %v, want single dir entry 'b'", entries)
	}
}

func TestMountWriteThenReadFile(t *testing.T) {
	mountpoint := testMount(t)

	path := filepath.Join(mountpoint, "greeting")
	content := []byte("hello through the kernel")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("ReadFile = %q, want %q", got, content)
	}
}

func TestMountLargeFileSpanningBlocks(t *testing.T) {
	mountpoint := testMount(t)

	content := bytes.Repeat([]byte("0123456789abcdef"), 1<<17) // 2 MiB
	path := filepath.Join(mountpoint, "big")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("large file content mismatch through FUSE")
	}
}

func TestMountUnlinkRemovesFile(t *testing.T) {
	mountpoint := testMount(t)

	path := filepath.Join(mountpoint, "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Stat after Remove = %v, want IsNotExist", err)
	}
}

func TestMountRmdirRequiresEmpty(t *testing.T) {
	mountpoint := testMount(t)

	dir := filepath.Join(mountpoint, "dir")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "child"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := os.Remove(dir); err == nil {
		t.Fatal("Remove(non-empty dir) = nil, want error")
	}

	if err := os.Remove(filepath.Join(dir, "child")); err != nil {
		t.Fatalf("Remove(child): %v", err)
	}
	if err := os.Remove(dir); err != nil {
		t.Fatalf("Remove(emptied dir): %v", err)
	}
}

func TestMountRenameOverwritesTarget(t *testing.T) {
	mountpoint := testMount(t)

	from := filepath.Join(mountpoint, "from")
	to := filepath.Join(mountpoint, "to")
	if err := os.WriteFile(from, []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteFile(from): %v", err)
	}
	if err := os.WriteFile(to, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile(to): %v", err)
	}

	if err := os.Rename(from, to); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	if _, err := os.Stat(from); !os.IsNotExist(err) {
		t.Fatalf("Stat(from) after rename = %v, want IsNotExist", err)
	}
	got, err := os.ReadFile(to)
	if err != nil {
		t.Fatalf("ReadFile(to): %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("ReadFile(to) = %q, want %q", got, "new")
	}
}

func TestMountHardLinkSharesContent(t *testing.T) {
	mountpoint := testMount(t)

	a := filepath.Join(mountpoint, "a")
	b := filepath.Join(mountpoint, "b")
	if err := os.WriteFile(a, []byte("shared"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Link(a, b); err != nil {
		t.Fatalf("Link: %v", err)
	}

	infoA, err := os.Stat(a)
	if err != nil {
		t.Fatalf("Stat(a): %v", err)
	}
	infoB, err := os.Stat(b)
	if err != nil {
		t.Fatalf("Stat(b): %v", err)
	}
	if !os.SameFile(infoA, infoB) {
		t.Fatal("Stat(a) and Stat(b) are not the same inode after Link")
	}
}

func TestMountTruncateAndReread(t *testing.T) {
	mountpoint := testMount(t)

	path := filepath.Join(mountpoint, "file")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Truncate(path, 4); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "0123" {
		t.Fatalf("ReadFile after truncate = %q, want %q", got, "0123")
	}
}

func TestMountXattrRoundTrip(t *testing.T) {
	mountpoint := testMount(t)

	path := filepath.Join(mountpoint, "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := unix.Setxattr(path, "user.tag", []byte("value"), 0); err != nil {
		t.Fatalf("Setxattr: %v", err)
	}

	buf := make([]byte, 64)
	n, err := unix.Getxattr(path, "user.tag", buf)
	if err != nil {
		t.Fatalf("Getxattr: %v", err)
	}
	if string(buf[:n]) != "value" {
		t.Fatalf("Getxattr = %q, want %q", buf[:n], "value")
	}

	if err := unix.Removexattr(path, "user.tag"); err != nil {
		t.Fatalf("Removexattr: %v", err)
	}
	if _, err := unix.Getxattr(path, "user.tag", buf); err == nil {
		t.Fatal("Getxattr after Removexattr = nil error, want ENODATA")
	}
}

func TestMountExclCreateCollisionFails(t *testing.T) {
	mountpoint := testMount(t)

	path := filepath.Join(mountpoint, "file")
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		t.Fatalf("first OpenFile(O_EXCL): %v", err)
	}
	f.Close()

	_, err = os.OpenFile(path, flags, 0o644)
	if !os.IsExist(err) {
		t.Fatalf("second OpenFile(O_EXCL) = %v, want IsExist", err)
	}
}
