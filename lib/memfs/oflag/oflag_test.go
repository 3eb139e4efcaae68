// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package oflag

import "testing"

func TestDecodeAccessModes(t *testing.T) {
	cases := []struct {
		name     string
		flag     int
		readable bool
		writable bool
	}{
		{"rdonly", POSIX.RDONLY, true, false},
		{"wronly", POSIX.WRONLY, false, true},
		{"rdwr", POSIX.RDWR, true, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Decode(POSIX, c.flag)
			if d.Readable != c.readable || d.Writable != c.writable {
				t.Fatalf("Decode(%#o) = readable %v writable %v, want %v %v",
					c.flag, d.Readable, d.Writable, c.readable, c.writable)
			}
		})
	}
}

func TestDecodeBehaviorBits(t *testing.T) {
	d := Decode(POSIX, POSIX.WRONLY|POSIX.CREAT|POSIX.EXCL|POSIX.APPEND)
	if !d.Creating || !d.Exclusive || !d.Appending {
		t.Fatalf("Decode = %+v, want creating, exclusive, and appending all set", d)
	}

	d = Decode(POSIX, POSIX.RDONLY)
	if d.Creating || d.Exclusive || d.Appending {
		t.Fatalf("Decode(O_RDONLY) = %+v, want no behavior bits", d)
	}
}

func TestParseTextualForms(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"r", POSIX.RDONLY},
		{"r+", POSIX.RDWR},
		{"w", POSIX.WRONLY | POSIX.CREAT},
		{"w+", POSIX.RDWR | POSIX.CREAT},
		{"wx", POSIX.WRONLY | POSIX.CREAT | POSIX.EXCL},
		{"a", POSIX.WRONLY | POSIX.CREAT | POSIX.APPEND},
		{"a+", POSIX.RDWR | POSIX.CREAT | POSIX.APPEND},
	}
	for _, c := range cases {
		got, ok := Parse(POSIX, c.in)
		if !ok {
			t.Errorf("Parse(%q) not recognized", c.in)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %#o, want %#o", c.in, got, c.want)
		}
	}

	if _, ok := Parse(POSIX, "bogus"); ok {
		t.Error("Parse(bogus) recognized, want ok=false")
	}
}
