// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"testing"
)

func TestSegListBuckets(t *testing.T) {
	h, err := New(make([]byte, 1024), SegList)
	if err != nil {
		t.Fatal(err)
	}

	l := h.idx.(*segList)
	tab := []struct {
		sz     int64
		bucket int
	}{
		{24, 0},
		{32, 1},
		{40, 2},
		{48, 3},
		{56, 4},
		{64, 5},
		{72, 6},
		{80, 7},
		{120, 7},
		{128, 8},
		{255, 8},
		{256, 9},
		{1 << 15, 16},
		{65528, 16},
		{65536, 17},
		{1 << 20, 17},
	}
	for i, test := range tab {
		if g, e := l.bucket(test.sz), test.bucket; g != e {
			t.Fatalf("%d: bucket(%d) == %d, expected %d", i, test.sz, g, e)
		}
	}
}

// Head insertion makes the most recently freed block of a class the first
// candidate.
func TestSegListHeadOrder(t *testing.T) {
	p := newPHeap(t, 1<<14, SegList)
	a := p.alloc(64)
	g1 := p.alloc(48)
	b := p.alloc(64)
	g2 := p.alloc(48)
	p.free(a)
	p.free(b) // b is now the head of the 64 byte class
	if off := p.alloc(64); off != b {
		t.Fatalf("picked %#x, expected the list head %#x", off, b)
	}

	if off := p.alloc(64); off != a {
		t.Fatalf("picked %#x, expected %#x", off, a)
	}

	p.free(g1)
	p.free(g2)
}

// A request larger than everything in its own class falls through to the
// next classes.
func TestSegListFallThrough(t *testing.T) {
	p := newPHeap(t, 1<<14, SegList)
	small := p.alloc(80)
	g1 := p.alloc(48)
	big := p.alloc(400)
	g2 := p.alloc(48)
	p.free(small)
	p.free(big)

	// 120 maps into the class still holding the 80 byte block, which is
	// too small; the 400 byte block must serve it.
	off := p.alloc(120)
	if g, e := off, big; g != e {
		t.Fatalf("picked %#x, expected %#x", g, e)
	}

	p.free(off)
	p.free(g1)
	p.free(g2)
	if g, e := p.FreeCount(), int64(1); g != e {
		t.Fatal(g, e)
	}
}
