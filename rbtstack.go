// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The red-black tree index without parent fields. Every operation records
// its root-to-node path in an ancestor stack of bounded depth and the fixups
// walk the stack instead of parent links. Deletion swaps in the inorder
// predecessor and patches the predecessor's stack slot in place.

package heap

import (
	"io"
)

const (
	stkSlotLs = 2

	stkMinPayload = 4 * wordSize // left + right + list start + footer
)

type rbtStack struct {
	tree
	path [maxTreeDepth]int64
}

func newRbtStack(h *Heap) *rbtStack {
	t := &rbtStack{tree: tree{h: h, lsSlot: stkSlotLs, parSlot: -1}}
	t.reset()
	return t
}

func (t *rbtStack) minPayload() int64 { return stkMinPayload }

func (t *rbtStack) parentAt(i int) int64 {
	if i <= 0 {
		return t.h.end
	}
	return t.path[i-1]
}

func (t *rbtStack) insert(b int64) {
	h := t.h
	key := h.size(b)
	top := -1
	d := 0
	for x := t.root; x != h.end; {
		k := h.size(x)
		if key == k {
			t.pushDup(x, b, t.parentAt(top+1))
			return
		}

		top++
		t.path[top] = x
		d = 0
		if key > k {
			d = 1
		}
		x = h.field(x, d)
	}

	h.setField(b, slotL, h.end)
	h.setField(b, slotR, h.end)
	t.setLs(b, h.end)
	if top < 0 {
		t.root = b
	} else {
		h.setField(t.path[top], d, b)
	}
	h.setRed(b, true)
	top++
	t.path[top] = b
	t.insertFixup(top)
	t.n++
}

func (t *rbtStack) insertFixup(i int) {
	h := t.h
	for i >= 1 && h.isRed(t.path[i-1]) {
		z := t.path[i]
		p := t.path[i-1]
		g := t.path[i-2] // a red p is never the root
		pd := 0
		if h.field(g, slotL) != p {
			pd = 1
		}
		u := h.field(g, opp(pd))
		if h.isRed(u) {
			h.setRed(p, false)
			h.setRed(u, false)
			h.setRed(g, true)
			i -= 2
			continue
		}

		if h.field(p, pd) != z {
			t.rot(p, pd, g)
			t.path[i-1] = z
			t.path[i] = p
		}
		h.setRed(t.path[i-1], false)
		h.setRed(g, true)
		t.rot(g, opp(pd), t.parentAt(i-2))
		break
	}
	h.setRed(t.root, false)
}

// search records the root-to-node path of the tree node carrying key, which
// must be present, and returns its stack index.
func (t *rbtStack) search(key int64) int {
	h := t.h
	top := -1
	for x := t.root; ; {
		top++
		t.path[top] = x
		k := h.size(x)
		if k == key {
			return top
		}

		if key < k {
			x = h.field(x, slotL)
		} else {
			x = h.field(x, slotR)
		}
	}
}

func (t *rbtStack) deleteNode(z int64) {
	h := t.h
	zi := t.search(h.size(z))
	top := zi
	yRed := h.isRed(z)
	var x int64
	switch {
	case h.field(z, slotL) == h.end || h.field(z, slotR) == h.end:
		x = h.field(z, slotL)
		if x == h.end {
			x = h.field(z, slotR)
		}
		t.attach(t.parentAt(zi), z, x)
		t.path[zi] = x
	default:
		// Swap in the inorder predecessor: the rightmost node of the
		// left subtree.
		i := zi
		for b := h.field(z, slotL); ; b = h.field(b, slotR) {
			i++
			t.path[i] = b
			if h.field(b, slotR) == h.end {
				break
			}
		}
		y := t.path[i]
		yi := i
		yRed = h.isRed(y)
		x = h.field(y, slotL)
		rc := h.field(z, slotR)
		if yi == zi+1 {
			// y is z's left child; it keeps its own left subtree.
			h.setField(y, slotR, rc)
			t.setPar(rc, y)
			t.path[zi] = y
			t.path[zi+1] = x
			top = zi + 1
		} else {
			h.setField(t.path[yi-1], slotR, x)
			t.setPar(x, t.path[yi-1])
			lc := h.field(z, slotL)
			h.setField(y, slotL, lc)
			t.setPar(lc, y)
			h.setField(y, slotR, rc)
			t.setPar(rc, y)
			t.path[zi] = y
			t.path[yi] = x
			top = yi
		}
		t.attach(t.parentAt(zi), z, y)
		h.setRed(y, h.isRed(z))
	}
	if !yRed {
		t.fixup(top)
	}
	t.n--
}

func (t *rbtStack) fixup(i int) {
	h := t.h
	for i > 0 && !h.isRed(t.path[i]) {
		x := t.path[i]
		p := t.path[i-1]
		d := 0
		if h.field(p, slotL) != x {
			d = 1
		}
		s := h.field(p, opp(d))
		if h.isRed(s) {
			h.setRed(s, false)
			h.setRed(p, true)
			t.rot(p, d, t.parentAt(i-1))
			t.path[i+1] = x
			t.path[i] = p
			t.path[i-1] = s
			i++
			continue
		}

		if !h.isRed(h.field(s, slotL)) && !h.isRed(h.field(s, slotR)) {
			h.setRed(s, true)
			i--
			continue
		}

		if !h.isRed(h.field(s, opp(d))) {
			h.setRed(h.field(s, d), false)
			h.setRed(s, true)
			t.rot(s, opp(d), p)
			s = h.field(p, opp(d))
		}
		h.setRed(s, h.isRed(p))
		h.setRed(p, false)
		h.setRed(h.field(s, opp(d)), false)
		t.rot(p, d, t.parentAt(i-1))
		h.setRed(t.root, false)
		return
	}
	h.setRed(t.path[i], false)
}

func (t *rbtStack) bestFit(rq int64) int64 {
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

func (t *rbtStack) remove(b int64) {
	rep, head, dup := t.classify(b)
	if dup {
		t.unlinkDup(rep, head, b)
		return
	}

	if d := t.ls(b); d != t.h.end {
		t.promote(b, t.ls(d)) // the head duplicate caches b's parent
		return
	}

	t.deleteNode(b)
}

func (t *rbtStack) audit(log func(error) bool) (cnt, bytes, bh int64, sizes []int64, err error) {
	bh, ok := t.auditTree(t.root, t.h.end, 0, -1, true, &cnt, &bytes, &sizes, log)
	if !ok {
		err = &ErrILSEQ{Type: ErrOther, More: "audit aborted"}
	}
	return cnt, bytes, bh, sizes, err
}

func (t *rbtStack) print(w io.Writer, verbose bool) error {
	if verbose {
		return t.printTree(w, t.root, 0, true)
	}
	return t.printFlat(w, t.root)
}

func (t *rbtStack) blackHeight() int64 { return t.spine() }
