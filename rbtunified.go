// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The red-black tree index with the symmetric cases collapsed: children are
// addressed by a direction d in {0, 1} and the mirrored fixups share one
// body operating on d and opp(d).

package heap

import (
	"io"
)

const (
	uniSlotPar = 2
	uniSlotLs  = 3

	uniMinPayload = 5 * wordSize
)

// opp returns the opposite direction.
func opp(d int) int { return 1 - d }

type rbtUnified struct {
	tree
}

func newRbtUnified(h *Heap) *rbtUnified {
	t := &rbtUnified{tree{h: h, lsSlot: uniSlotLs, parSlot: uniSlotPar}}
	t.reset()
	return t
}

func (t *rbtUnified) minPayload() int64 { return uniMinPayload }

func (t *rbtUnified) parent(b int64) int64 { return t.h.field(b, uniSlotPar) }

// rotate lifts x's opp(d) child over x, pushing x toward d. The parent field
// locates the reattachment point.
func (t *rbtUnified) rotate(x int64, d int) int64 {
	return t.rot(x, d, t.parent(x))
}

func (t *rbtUnified) insert(b int64) {
	h := t.h
	key := h.size(b)
	par := h.end
	d := 0
	for x := t.root; x != h.end; {
		k := h.size(x)
		if key == k {
			t.pushDup(x, b, t.parent(x))
			return
		}

		par = x
		d = 0
		if key > k {
			d = 1
		}
		x = h.field(x, d)
	}

	h.setField(b, slotL, h.end)
	h.setField(b, slotR, h.end)
	t.setLs(b, h.end)
	t.setPar(b, par)
	if par == h.end {
		t.root = b
	} else {
		h.setField(par, d, b)
	}
	h.setRed(b, true)
	t.insertFixup(b)
	t.n++
}

func (t *rbtUnified) insertFixup(z int64) {
	h := t.h
	for h.isRed(t.parent(z)) {
		p := t.parent(z)
		g := t.parent(p)
		pd := t.dirOf(g, p)
		u := h.field(g, opp(pd))
		if h.isRed(u) {
			h.setRed(p, false)
			h.setRed(u, false)
			h.setRed(g, true)
			z = g
			continue
		}

		if t.dirOf(p, z) == opp(pd) {
			z = p
			t.rotate(z, pd)
			p = t.parent(z)
		}
		h.setRed(p, false)
		h.setRed(g, true)
		t.rotate(g, opp(pd))
	}
	h.setRed(t.root, false)
}

// extreme returns the d-most node of the subtree rooted at b.
func (t *rbtUnified) extreme(b int64, d int) int64 {
	h := t.h
	for h.field(b, d) != h.end {
		b = h.field(b, d)
	}
	return b
}

func (t *rbtUnified) deleteNode(z int64) {
	h := t.h
	y := z
	yRed := h.isRed(y)
	var x int64
	switch {
	case h.field(z, slotL) == h.end:
		x = h.field(z, slotR)
		t.attach(t.parent(z), z, x)
	case h.field(z, slotR) == h.end:
		x = h.field(z, slotL)
		t.attach(t.parent(z), z, x)
	default:
		y = t.extreme(h.field(z, slotR), slotL)
		yRed = h.isRed(y)
		x = h.field(y, slotR)
		if t.parent(y) == z {
			t.setPar(x, y)
		} else {
			t.attach(t.parent(y), y, x)
			h.setField(y, slotR, h.field(z, slotR))
			t.setPar(h.field(y, slotR), y)
		}
		t.attach(t.parent(z), z, y)
		h.setField(y, slotL, h.field(z, slotL))
		t.setPar(h.field(y, slotL), y)
		h.setRed(y, h.isRed(z))
	}
	if !yRed {
		t.deleteFixup(x)
	}
	t.n--
}

func (t *rbtUnified) deleteFixup(x int64) {
	h := t.h
	for x != t.root && !h.isRed(x) {
		p := t.parent(x)
		d := t.dirOf(p, x)
		s := h.field(p, opp(d))
		if h.isRed(s) {
			h.setRed(s, false)
			h.setRed(p, true)
			t.rotate(p, d)
			s = h.field(p, opp(d))
		}

		if !h.isRed(h.field(s, slotL)) && !h.isRed(h.field(s, slotR)) {
			h.setRed(s, true)
			x = p
			continue
		}

		if !h.isRed(h.field(s, opp(d))) {
			h.setRed(h.field(s, d), false)
			h.setRed(s, true)
			t.rotate(s, opp(d))
			s = h.field(p, opp(d))
		}
		h.setRed(s, h.isRed(p))
		h.setRed(p, false)
		h.setRed(h.field(s, opp(d)), false)
		t.rotate(p, d)
		x = t.root
	}
	h.setRed(x, false)
}

func (t *rbtUnified) bestFit(rq int64) int64 {
	h := t.h
	best := h.end
	for x := t.root; x != h.end; {
		sz := h.size(x)
		if sz == rq {
			best = x
			break
		}

		if sz < rq {
			x = h.field(x, slotR)
		} else {
			best = x
			x = h.field(x, slotL)
		}
	}
	if best == h.end {
		return h.end
	}

	if t.ls(best) != h.end {
		return t.popDup(best)
	}

	t.deleteNode(best)
	return best
}

func (t *rbtUnified) remove(b int64) {
	rep, head, dup := t.classify(b)
	if dup {
		t.unlinkDup(rep, head, b)
		return
	}

	if t.ls(b) != t.h.end {
		t.promote(b, t.parent(b))
		return
	}

	t.deleteNode(b)
}

func (t *rbtUnified) audit(log func(error) bool) (cnt, bytes, bh int64, sizes []int64, err error) {
	bh, ok := t.auditTree(t.root, t.h.end, 0, -1, true, &cnt, &bytes, &sizes, log)
	if !ok {
		err = &ErrILSEQ{Type: ErrOther, More: "audit aborted"}
	}
	return cnt, bytes, bh, sizes, err
}

func (t *rbtUnified) print(w io.Writer, verbose bool) error {
	if verbose {
		return t.printTree(w, t.root, 0, true)
	}
	return t.printFlat(w, t.root)
}

func (t *rbtUnified) blackHeight() int64 { return t.spine() }
