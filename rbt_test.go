// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"math/rand"
	"testing"
)

var rbKinds = []Kind{RBClrs, RBUnified, RBStack, RBTopdown}

func forRBKinds(t *testing.T, f func(t *testing.T, kind Kind)) {
	for _, kind := range rbKinds {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) { f(t, kind) })
	}
}

// TestRBMixedSizes builds an index holding many distinct sizes by allocating a
// ladder of growing requests and freeing every other one. The paranoid
// wrapper verifies the tree shape after every step.
func TestRBMixedSizes(t *testing.T) {
	forRBKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1<<16, kind)
		var offs []int64
		for n := int64(40); n <= 1000; n += 24 {
			off := p.alloc(n)
			if off == 0 {
				t.Fatal("unexpected out of space")
			}

			offs = append(offs, off)
		}
		for i := 0; i < len(offs); i += 2 {
			p.free(offs[i])
		}

		var st Stats
		if err := p.Heap.Verify(nil, &st); err != nil {
			t.Fatal(err)
		}

		if st.BlackHeight == 0 {
			t.Fatal("zero black-height on a populated tree")
		}

		for i := 1; i < len(offs); i += 2 {
			p.free(offs[i])
		}
		if g, e := p.FreeCount(), int64(1); g != e {
			t.Fatal(g, e)
		}
	})
}

func TestRBAscendingDescending(t *testing.T) {
	forRBKinds(t, func(t *testing.T, kind Kind) {
		for _, descending := range []bool{false, true} {
			p := newPHeap(t, 1<<16, kind)
			var sizes []int64
			for n := int64(40); n <= 520; n += 16 {
				sizes = append(sizes, n)
			}
			if descending {
				for i, j := 0, len(sizes)-1; i < j; i, j = i+1, j-1 {
					sizes[i], sizes[j] = sizes[j], sizes[i]
				}
			}

			// Two interleaved ladders: the held one keeps the freed
			// one's blocks from coalescing.
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

// Freeing the middle of three same sized blocks exercises removal of
// duplicate list members by address during coalescing.
func TestRBDuplicateCoalesce(t *testing.T) {
	forRBKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1<<14, kind)
		var blocks, guards []int64
		for i := 0; i < 6; i++ {
			blocks = append(blocks, p.alloc(64))
			guards = append(guards, p.alloc(64))
		}

		// Six free blocks of one size: a representative and five
		// duplicates.
		for _, off := range blocks {
			p.free(off)
		}
		if g, e := p.FreeCount(), int64(7); g != e { // 6 + the tail
			t.Fatal(g, e)
		}

		// Each guard free coalesces with its free neighbors, plucking
		// them out of the tree or the duplicate list by address.
		for _, off := range guards {
			p.free(off)
		}
		if g, e := p.FreeCount(), int64(1); g != e {
			t.Fatal(g, e)
		}
	})
}

func TestRBBestFitDuplicatesFirst(t *testing.T) {
	forRBKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1<<14, kind)
		a := p.alloc(64)
		g1 := p.alloc(64)
		b := p.alloc(64)
		g2 := p.alloc(64)
		p.free(a)
		p.free(b)

		// Two indexed 64 byte blocks; both allocations below must be
		// served from them, not by splitting the tail.
		cap0 := p.Capacity()
		o1 := p.alloc(64)
		o2 := p.alloc(64)
		if o1 != a && o1 != b {
			t.Fatalf("%#x not served from the freed blocks", o1)
		}

		if o2 != a && o2 != b || o2 == o1 {
			t.Fatalf("%#x not served from the freed blocks", o2)
		}

		if g, e := p.Capacity(), cap0-128; g != e {
			t.Fatal(g, e)
		}

		p.free(g1)
		p.free(g2)
	})
}

func TestRBRandomChurn(t *testing.T) {
	forRBKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1<<15, kind)
		rng := rand.New(rand.NewSource(7))
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
