// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"bytes"
	"testing"
)

// collect runs Verify gathering every reported error.
func collect(h *Heap) (errs []error, err error) {
	err = h.Verify(func(e error) bool {
		errs = append(errs, e)
		return len(errs) < 100
	}, nil)
	return errs, err
}

func TestVerifyClean(t *testing.T) {
	forKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 4096, kind)
		var st Stats
		if err := p.Heap.Verify(nil, &st); err != nil {
			t.Fatal(err)
		}

		if g, e := st.FreeBlocks, int64(1); g != e {
			t.Fatal(g, e)
		}

		if g, e := st.FreeBytes, p.Capacity(); g != e {
			t.Fatal(g, e)
		}

		if g, e := st.IndexEntries, int64(1); g != e {
			t.Fatal(g, e)
		}
	})
}

func TestVerifyBadJump(t *testing.T) {
	forKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1024, kind)
		off := p.alloc(40)
		b := p.blockOf(off)
		p.setHdr(b, tagAlloc|tagLeftAlloc) // size 0 mid segment
		errs, err := collect(p.Heap)
		if err == nil {
			t.Fatal("expected error")
		}

		if !ilseqType(errs, ErrBadJump) {
			t.Fatalf("no bad jump report in %v", errs)
		}
	})
}

func TestVerifyFooter(t *testing.T) {
	forKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1024, kind)
		p.free(p.alloc(40))
		// the whole heap is one free block again; smash its footer
		p.setWord(0+p.size(0), 0)
		errs, err := collect(p.Heap)
		if err == nil {
			t.Fatal("expected error")
		}

		if !ilseqType(errs, ErrFooter) {
			t.Fatalf("no footer report in %v", errs)
		}
	})
}

func TestVerifyLeftBit(t *testing.T) {
	forKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1024, kind)
		off := p.alloc(40)
		guard := p.alloc(40)
		_ = guard
		b := p.blockOf(off)
		r := p.rightNbr(b)
		p.setHdr(r, p.hdr(r)&^tagLeftAlloc) // lie about the left neighbor
		errs, err := collect(p.Heap)
		if err == nil {
			t.Fatal("expected error")
		}

		if !ilseqType(errs, ErrLeftBit) {
			t.Fatalf("no left bit report in %v", errs)
		}
	})
}

func TestVerifyAdjacentFree(t *testing.T) {
	forKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1024, kind)
		p1 := p.alloc(40)
		p2 := p.alloc(40)
		_ = p2
		p.free(p1)

		// Forge p2 into a free block behind the allocator's back: the
		// walker sees two adjacent free blocks and an unindexed one.
		b := p.blockOf(p2)
		p.initFree(b, p.size(b), p.hdr(b)&tagLeftAlloc)
		errs, err := collect(p.Heap)
		if err == nil {
			t.Fatal("expected error")
		}

		if !ilseqType(errs, ErrAdjacentFree) {
			t.Fatalf("no adjacent free report in %v", errs)
		}

		if !ilseqType(errs, ErrIndexCount) {
			t.Fatalf("no index count report in %v", errs)
		}
	})
}

func TestVerifyIndexCount(t *testing.T) {
	forKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 1024, kind)
		p.idx.remove(0) // steal the only indexed block
		errs, err := collect(p.Heap)
		if err == nil {
			t.Fatal("expected error")
		}

		if !ilseqType(errs, ErrIndexCount) {
			t.Fatalf("no index count report in %v", errs)
		}
	})
}

func TestVerifyRedRed(t *testing.T) {
	forRBKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 4096, kind)
		p1 := p.alloc(40)
		g1 := p.alloc(40)
		p2 := p.alloc(56)
		g2 := p.alloc(40)
		_, _ = g1, g2
		p.free(p1)
		p.free(p2)

		// Force a red root with a red child.
		var root int64
		switch x := p.idx.(type) {
		case *rbtClrs:
			root = x.root
		case *rbtUnified:
			root = x.root
		case *rbtStack:
			root = x.root
		case *rbtTopdown:
			root = x.root
		}
		p.setRed(root, true)
		child := p.field(root, slotL)
		if child == p.end {
			child = p.field(root, slotR)
		}
		p.setRed(child, true)
		errs, err := collect(p.Heap)
		if err == nil {
			t.Fatal("expected error")
		}

		if !ilseqType(errs, ErrRedRed) {
			t.Fatalf("no red-red report in %v", errs)
		}
	})
}

func TestVerifyDupParent(t *testing.T) {
	forRBKinds(t, func(t *testing.T, kind Kind) {
		p := newPHeap(t, 4096, kind)
		a := p.alloc(64)
		g1 := p.alloc(64)
		b := p.alloc(64)
		g2 := p.alloc(64)
		_, _ = g1, g2
		p.free(a)
		p.free(b) // b duplicates a's size

		// Find the representative of the duplicated size and poison the
		// parent cached in its list head.
		rep := p.blockOf(a)
		var tr *tree
		switch x := p.idx.(type) {
		case *rbtClrs:
			tr = &x.tree
		case *rbtUnified:
			tr = &x.tree
		case *rbtStack:
			tr = &x.tree
		case *rbtTopdown:
			tr = &x.tree
		}
		if tr.ls(rep) == p.end {
			rep = p.blockOf(b)
		}
		head := tr.ls(rep)
		if head == p.end {
			t.Fatal("no duplicate list found")
		}

		tr.setLs(head, rep) // certainly not the representative's parent
		errs, err := collect(p.Heap)
		if err == nil {
			t.Fatal("expected error")
		}

		if !ilseqType(errs, ErrDupParent) {
			t.Fatalf("no duplicate parent report in %v", errs)
		}
	})
}

func TestVerifyStopsOnNilLog(t *testing.T) {
	p := newPHeap(t, 1024, SegList)
	off := p.alloc(40)
	p.setHdr(p.blockOf(off), tagAlloc|tagLeftAlloc)
	if err := p.Heap.Verify(nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestDumpCorrupt(t *testing.T) {
	p := newPHeap(t, 1024, SegList)
	off := p.alloc(40)
	p.setHdr(p.blockOf(off), tagAlloc|tagLeftAlloc)
	var b bytes.Buffer
	if err := p.Dump(&b); err != nil {
		t.Fatal(err)
	}

	if !bytes.Contains(b.Bytes(), []byte("bad jump")) {
		t.Fatalf("no bad jump report in dump:\n%s", b.Bytes())
	}
}
