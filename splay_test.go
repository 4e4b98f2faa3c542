// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"math/rand"
	"testing"
)

var splayKinds = []Kind{Splay, SplayTopdown}

func forSplayKinds(t *testing.T, f func(t *testing.T, kind Kind)) {
	for _, kind := range splayKinds {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) { f(t, kind) })
	}
}

// Sorted request sequences drive a splay tree into its degenerate shapes;
// the amortization must still leave every operation correct.
func TestSplaySorted(t *testing.T) {
	forSplayKinds(t, func(t *testing.T, kind Kind) {
		for _, descending := range []bool{false, true} {
			p := newPHeap(t, 1<<16, kind)
			var sizes []int64
			for n := int64(32); n <= 512; n += 16 {
				sizes = append(sizes, n)
			}
			if descending {
				for i, j := 0, len(sizes)-1; i < j; i, j = i+1, j-1 {
					sizes[i], sizes[j] = sizes[j], sizes[i]
				}
			}

			var hold, freed []int64
			for _, n := range sizes {
				freed = append(freed, p.alloc(n))
				hold = append(hold, p.alloc(48))
			}
			for _, off := range freed {
				p.free(off)
			}
			for _, off := range hold {
				p.free(off)
			}
			if g, e := p.FreeCount(), int64(1); g != e {
				t.Fatal(g, e)
			}
		}
	})
}

// A request falling between two indexed sizes must be served by the larger
// one. For the top-down variant this exercises the re-splay to the recorded
// best fit after the first splay settles on the smaller key.
func TestSplayBestFitCeiling(t *testing.T) {
	forSplayKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1<<14, kind)
		small := p.alloc(48)
		g1 := p.alloc(48)
		big := p.alloc(104)
		g2 := p.alloc(48)
		p.free(small)
		p.free(big)

		// 48 and 104 are indexed; 64 must take the 104 block.
		off := p.alloc(64)
		if g, e := off, big; g != e {
			t.Fatalf("best fit picked %#x, expected %#x", g, e)
		}

		p.free(off)
		p.free(g1)
		p.free(g2)
		if g, e := p.FreeCount(), int64(1); g != e {
			t.Fatal(g, e)
		}
	})
}

func TestSplayExactFit(t *testing.T) {
	forSplayKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1<<14, kind)
		a := p.alloc(64)
		g1 := p.alloc(48)
		b := p.alloc(128)
		g2 := p.alloc(48)
		p.free(a)
		p.free(b)
		if off := p.alloc(128); off != b {
			t.Fatalf("exact fit picked %#x, expected %#x", off, b)
		}

		if off := p.alloc(64); off != a {
			t.Fatalf("exact fit picked %#x, expected %#x", off, a)
		}

		p.free(g1)
		p.free(g2)
	})
}

func TestSplayDuplicateCoalesce(t *testing.T) {
	forSplayKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1<<14, kind)
		var blocks, guards []int64
		for i := 0; i < 5; i++ {
			blocks = append(blocks, p.alloc(72))
			guards = append(guards, p.alloc(72))
		}
		for _, off := range blocks {
			p.free(off)
		}
		if g, e := p.FreeCount(), int64(6); g != e { // 5 + the tail
			t.Fatal(g, e)
		}

		for _, off := range guards {
			p.free(off)
		}
		if g, e := p.FreeCount(), int64(1); g != e {
			t.Fatal(g, e)
		}
	})
}

func TestSplayRandomChurn(t *testing.T) {
	forSplayKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1<<15, kind)
		rng := rand.New(rand.NewSource(11))
		var live []int64
		for i := 0; i < *testN; i++ {
			if rng.Intn(3) != 0 || len(live) == 0 {
				if off := p.alloc(int64(rng.Intn(500) + 1)); off != 0 {
					live = append(live, off)
					continue
				}
			}
			if len(live) == 0 {
				continue
			}

			i := rng.Intn(len(live))
			p.free(live[i])
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		}
		for _, off := range live {
			p.free(off)
		}
		if g, e := p.FreeCount(), int64(1); g != e {
			t.Fatal(g, e)
		}
	})
}
