// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The red-black tree index, textbook form: parent fields and the left/right
// insertion and deletion fixup cases written out.

package heap

import (
	"io"
)

const (
	clrsSlotPar = 2
	clrsSlotLs  = 3

	clrsMinPayload = 5 * wordSize // left + right + parent + list start + footer
)

type rbtClrs struct {
	tree
}

func newRbtClrs(h *Heap) *rbtClrs {
	t := &rbtClrs{tree{h: h, lsSlot: clrsSlotLs, parSlot: clrsSlotPar}}
	t.reset()
	return t
}

func (t *rbtClrs) minPayload() int64 { return clrsMinPayload }

func (t *rbtClrs) parent(b int64) int64 { return t.h.field(b, clrsSlotPar) }

func (t *rbtClrs) insert(b int64) {
	h := t.h
	key := h.size(b)
	par := h.end
	x := t.root
	for x != h.end {
		k := h.size(x)
		if key == k {
			t.pushDup(x, b, t.parent(x))
			return
		}

		par = x
		if key < k {
			x = h.field(x, slotL)
		} else {
			x = h.field(x, slotR)
		}
	}

	h.setField(b, slotL, h.end)
	h.setField(b, slotR, h.end)
	t.setLs(b, h.end)
	t.setPar(b, par)
	switch {
	case par == h.end:
		t.root = b
	case key < h.size(par):
		h.setField(par, slotL, b)
	default:
		h.setField(par, slotR, b)
	}
	h.setRed(b, true)
	t.insertFixup(b)
	t.n++
}

func (t *rbtClrs) rotateLeft(x int64) {
	h := t.h
	y := h.field(x, slotR)
	h.setField(x, slotR, h.field(y, slotL))
	t.setPar(h.field(y, slotL), x)
	t.attach(t.parent(x), x, y)
	h.setField(y, slotL, x)
	t.setPar(x, y)
}

func (t *rbtClrs) rotateRight(x int64) {
	h := t.h
	y := h.field(x, slotL)
	h.setField(x, slotL, h.field(y, slotR))
	t.setPar(h.field(y, slotR), x)
	t.attach(t.parent(x), x, y)
	h.setField(y, slotR, x)
	t.setPar(x, y)
}

func (t *rbtClrs) insertFixup(z int64) {
	h := t.h
	for h.isRed(t.parent(z)) {
		p := t.parent(z)
		g := t.parent(p)
		if p == h.field(g, slotL) {
			u := h.field(g, slotR)
			switch {
			case h.isRed(u):
				h.setRed(p, false)
				h.setRed(u, false)
				h.setRed(g, true)
				z = g
			default:
				if z == h.field(p, slotR) {
					z = p
					t.rotateLeft(z)
					p = t.parent(z)
				}
				h.setRed(p, false)
				h.setRed(g, true)
				t.rotateRight(g)
			}
		} else {
			u := h.field(g, slotL)
			switch {
			case h.isRed(u):
				h.setRed(p, false)
				h.setRed(u, false)
				h.setRed(g, true)
				z = g
			default:
				if z == h.field(p, slotL) {
					z = p
					t.rotateRight(z)
					p = t.parent(z)
				}
				h.setRed(p, false)
				h.setRed(g, true)
				t.rotateLeft(g)
			}
		}
	}
	h.setRed(t.root, false)
}

// transplant replaces the subtree rooted at u with the subtree rooted at v.
// v may be the sentinel; its parent is still recorded, which the deletion
// fixup relies on.
func (t *rbtClrs) transplant(u, v int64) {
	t.attach(t.parent(u), u, v)
}

func (t *rbtClrs) minimum(b int64) int64 {
	h := t.h
	for h.field(b, slotL) != h.end {
		b = h.field(b, slotL)
	}
	return b
}

// deleteNode removes the tree node z, which has no duplicates.
func (t *rbtClrs) deleteNode(z int64) {
	h := t.h
	y := z
	yRed := h.isRed(y)
	var x int64
	switch {
	case h.field(z, slotL) == h.end:
		x = h.field(z, slotR)
		t.transplant(z, x)
	case h.field(z, slotR) == h.end:
		x = h.field(z, slotL)
		t.transplant(z, x)
	default:
		y = t.minimum(h.field(z, slotR))
		yRed = h.isRed(y)
		x = h.field(y, slotR)
		if t.parent(y) == z {
			t.setPar(x, y)
		} else {
			t.transplant(y, x)
			h.setField(y, slotR, h.field(z, slotR))
			t.setPar(h.field(y, slotR), y)
		}
		t.transplant(z, y)
		h.setField(y, slotL, h.field(z, slotL))
		t.setPar(h.field(y, slotL), y)
		h.setRed(y, h.isRed(z))
	}
	if !yRed {
		t.deleteFixup(x)
	}
	t.n--
}

func (t *rbtClrs) deleteFixup(x int64) {
	h := t.h
	for x != t.root && !h.isRed(x) {
		p := t.parent(x)
		if x == h.field(p, slotL) {
			s := h.field(p, slotR)
			if h.isRed(s) {
				h.setRed(s, false)
				h.setRed(p, true)
				t.rotateLeft(p)
				s = h.field(p, slotR)
			}
			if !h.isRed(h.field(s, slotL)) && !h.isRed(h.field(s, slotR)) {
				h.setRed(s, true)
				x = p
				continue
			}

			if !h.isRed(h.field(s, slotR)) {
				h.setRed(h.field(s, slotL), false)
				h.setRed(s, true)
				t.rotateRight(s)
				s = h.field(p, slotR)
			}
			h.setRed(s, h.isRed(p))
			h.setRed(p, false)
			h.setRed(h.field(s, slotR), false)
			t.rotateLeft(p)
			x = t.root
		} else {
			s := h.field(p, slotL)
			if h.isRed(s) {
				h.setRed(s, false)
				h.setRed(p, true)
				t.rotateRight(p)
				s = h.field(p, slotL)
			}
			if !h.isRed(h.field(s, slotL)) && !h.isRed(h.field(s, slotR)) {
				h.setRed(s, true)
				x = p
				continue
			}

			if !h.isRed(h.field(s, slotL)) {
				h.setRed(h.field(s, slotR), false)
				h.setRed(s, true)
				t.rotateLeft(s)
				s = h.field(p, slotL)
			}
			h.setRed(s, h.isRed(p))
			h.setRed(p, false)
			h.setRed(h.field(s, slotL), false)
			t.rotateRight(p)
			x = t.root
		}
	}
	h.setRed(x, false)
}

func (t *rbtClrs) bestFit(rq int64) int64 {
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

func (t *rbtClrs) remove(b int64) {
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

func (t *rbtClrs) audit(log func(error) bool) (cnt, bytes, bh int64, sizes []int64, err error) {
	bh, ok := t.auditTree(t.root, t.h.end, 0, -1, true, &cnt, &bytes, &sizes, log)
	if !ok {
		err = &ErrILSEQ{Type: ErrOther, More: "audit aborted"}
	}
	return cnt, bytes, bh, sizes, err
}

func (t *rbtClrs) print(w io.Writer, verbose bool) error {
	if verbose {
		return t.printTree(w, t.root, 0, true)
	}
	return t.printFlat(w, t.root)
}

func (t *rbtClrs) blackHeight() int64 { return t.spine() }
