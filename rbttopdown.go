// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The top-down red-black tree index. Rebalancing happens during the descent,
// so insertion and deletion cost a single pass. The end sentinel stands in
// for both nil and the dummy tree head; its shadow words absorb the dummy's
// child link.

package heap

import (
	"io"
)

const (
	tdSlotLs = 2

	tdMinPayload = 4 * wordSize
)

type rbtTopdown struct {
	tree
	found int64 // node carrying the key of an ongoing delete
	fp    int64 // its current parent, maintained across rotations
}

func newRbtTopdown(h *Heap) *rbtTopdown {
	t := &rbtTopdown{tree: tree{h: h, lsSlot: tdSlotLs, parSlot: -1}}
	t.reset()
	t.found = h.end
	t.fp = h.end
	return t
}

func (t *rbtTopdown) minPayload() int64 { return tdMinPayload }

// link makes c the d child of par and keeps the duplicate parent caches and
// the tracked delete target's parent up to date.
func (t *rbtTopdown) link(par int64, d int, c int64) {
	t.h.setField(par, d, c)
	t.setPar(c, par)
	if c == t.found {
		t.fp = par
	}
}

// rotSingle lifts x's opp(d) child over x, pushing x toward d, recoloring
// the two the way the top-down passes expect: x red, the lifted child black.
// The caller attaches the returned subtree root.
func (t *rbtTopdown) rotSingle(x int64, d int) int64 {
	h := t.h
	y := h.field(x, opp(d))
	t.link(x, opp(d), h.field(y, d))
	t.link(y, d, x)
	h.setRed(x, true)
	h.setRed(y, false)
	return y
}

func (t *rbtTopdown) rotDouble(x int64, d int) int64 {
	t.link(x, opp(d), t.rotSingle(t.h.field(x, opp(d)), opp(d)))
	return t.rotSingle(x, d)
}

func (t *rbtTopdown) insert(b int64) {
	h := t.h
	key := h.size(b)
	h.setField(b, slotL, h.end)
	h.setField(b, slotR, h.end)
	t.setLs(b, h.end)

	if t.root == h.end {
		t.root = b
		h.setRed(b, false)
		t.n++
		return
	}

	t.found = h.end
	h.setField(h.end, slotR, t.root) // dummy head
	var (
		tt   = h.end // great-grandparent, initially the head
		g, p = h.end, h.end
		q    = t.root
		dir  = 0
		last = 0
	)
	for {
		if q == h.end {
			q = b
			t.link(p, dir, b)
			h.setRed(b, true)
		} else if h.isRed(h.field(q, slotL)) && h.isRed(h.field(q, slotR)) {
			h.setRed(q, true)
			h.setRed(h.field(q, slotL), false)
			h.setRed(h.field(q, slotR), false)
		}

		if h.isRed(q) && h.isRed(p) {
			d2 := 0
			if h.field(tt, slotR) == g {
				d2 = 1
			}
			if q == h.field(p, last) {
				t.link(tt, d2, t.rotSingle(g, opp(last)))
			} else {
				t.link(tt, d2, t.rotDouble(g, opp(last)))
				p = tt // the double rotation lifted q; tt is its parent now
			}
		}

		if q == b {
			break
		}

		if k := h.size(q); k == key {
			// Existing representative: the tree keeps its shape, the
			// block joins the duplicate side list.
			t.root = h.field(h.end, slotR)
			h.setRed(t.root, false)
			t.pushDup(q, b, p)
			return
		}

		last = dir
		dir = 0
		if key > h.size(q) {
			dir = 1
		}

		if g != h.end {
			tt = g
		}
		g = p
		p = q
		q = h.field(q, dir)
	}

	t.root = h.field(h.end, slotR)
	h.setRed(t.root, false)
	t.n++
}

// deleteKey removes and returns the tree node carrying key, pushing a red
// node down the search path so the removal at the bottom never needs an
// upward fixup. The bottom node is the key node itself or its inorder
// predecessor, which is then transplanted into the key node's position.
func (t *rbtTopdown) deleteKey(key int64) int64 {
	h := t.h
	if t.root == h.end {
		return h.end
	}

	h.setField(h.end, slotL, h.end) // the dummy head has no left child
	h.setField(h.end, slotR, t.root)
	t.found = h.end
	t.fp = h.end
	var (
		g, p int64 = h.end, h.end
		q          = h.end // starts at the head
		dir        = 1
	)
	for h.field(q, dir) != h.end {
		last := dir
		g = p
		p = q
		q = h.field(q, dir)
		k := h.size(q)
		dir = 0
		if key > k {
			dir = 1
		}

		if !h.isRed(q) && !h.isRed(h.field(q, dir)) {
			switch {
			case h.isRed(h.field(q, opp(dir))):
				r := t.rotSingle(q, dir)
				t.link(p, last, r)
				p = r
			default:
				s := h.field(p, opp(last))
				if s == h.end {
					break
				}

				if !h.isRed(h.field(s, opp(last))) && !h.isRed(h.field(s, last)) {
					h.setRed(p, false)
					h.setRed(s, true)
					h.setRed(q, true)
					break
				}

				d2 := 0
				if h.field(g, slotR) == p {
					d2 = 1
				}
				var r int64
				if h.isRed(h.field(s, last)) {
					r = t.rotDouble(p, last)
				} else {
					r = t.rotSingle(p, last)
				}
				t.link(g, d2, r)
				h.setRed(q, true)
				h.setRed(r, true)
				h.setRed(h.field(r, slotL), false)
				h.setRed(h.field(r, slotR), false)
			}
		}

		if k == key {
			t.found = q
			t.fp = p
		}
	}

	ret := t.found
	if ret != h.end {
		// Unlink the bottom node, then let it assume the key node's
		// position.
		qd := 0
		if h.field(p, slotR) == q {
			qd = 1
		}
		c := h.field(q, slotR)
		if h.field(q, slotL) != h.end {
			c = h.field(q, slotL)
		}
		t.link(p, qd, c)

		if ret != q {
			fp := t.fp
			fd := 0
			if h.field(fp, slotR) == ret {
				fd = 1
			}
			t.link(q, slotL, h.field(ret, slotL))
			t.link(q, slotR, h.field(ret, slotR))
			t.link(fp, fd, q)
			h.setRed(q, h.isRed(ret))
		}
		t.n--
	}

	t.root = h.field(h.end, slotR)
	h.setRed(t.root, false)
	t.found = h.end
	return ret
}

func (t *rbtTopdown) bestFit(rq int64) int64 {
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

	return t.deleteKey(h.size(best))
}

func (t *rbtTopdown) remove(b int64) {
	rep, head, dup := t.classify(b)
	if dup {
		t.unlinkDup(rep, head, b)
		return
	}

	if d := t.ls(b); d != t.h.end {
		t.promote(b, t.ls(d)) // the head duplicate caches b's parent
		return
	}

	t.deleteKey(t.h.size(b))
}

func (t *rbtTopdown) audit(log func(error) bool) (cnt, bytes, bh int64, sizes []int64, err error) {
	bh, ok := t.auditTree(t.root, t.h.end, 0, -1, true, &cnt, &bytes, &sizes, log)
	if !ok {
		err = &ErrILSEQ{Type: ErrOther, More: "audit aborted"}
	}
	return cnt, bytes, bh, sizes, err
}

func (t *rbtTopdown) print(w io.Writer, verbose bool) error {
	if verbose {
		return t.printTree(w, t.root, 0, true)
	}
	return t.printFlat(w, t.root)
}

func (t *rbtTopdown) blackHeight() int64 { return t.spine() }
