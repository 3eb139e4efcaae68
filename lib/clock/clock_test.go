// Copyright 2026 The Memfs Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeStandsStillUntilAdvanced(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := Fake(start)

	if !fake.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", fake.Now(), start)
	}
	if !fake.Now().Equal(start) {
		t.Fatal("Now() moved without Advance")
	}

	fake.Advance(90 * time.Second)
	want := start.Add(90 * time.Second)
	if !fake.Now().Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", fake.Now(), want)
	}
}

func TestFakeSetPinsTime(t *testing.T) {
	fake := Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	want := time.Date(2026, 6, 15, 12, 30, 0, 0, time.UTC)

	fake.Set(want)
	if !fake.Now().Equal(want) {
		t.Fatalf("Now() after Set = %v, want %v", fake.Now(), want)
	}
}
