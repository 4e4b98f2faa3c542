// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The top-down splay tree index. A single descent splays the accessed key to
// the root, hanging rotated-away subtrees onto left and right assembly trees
// that grow off the end sentinel's shadow words, then reassembling. Because a
// splay targets exact keys, a best fit search remembers the smallest
// sufficient key met during the descent and re-splays to it when the first
// splay settles on a smaller one.

package heap

import (
	"io"
)

const (
	tspSlotLs = 2

	tspMinPayload = 4 * wordSize

	// splayMax is a key above every block size; splaying it accesses the
	// tree maximum.
	splayMax = int64(1) << 62
)

type splayTD struct {
	tree
}

func newSplayTopdown(h *Heap) *splayTD {
	t := &splayTD{tree{h: h, lsSlot: tspSlotLs, parSlot: -1}}
	t.reset()
	return t
}

func (t *splayTD) minPayload() int64 { return tspMinPayload }

// rotFree lifts x's opp(d) child over x and returns it. The subtree is in
// hand during a descent, so nothing is reattached.
func (t *splayTD) rotFree(x int64, d int) int64 {
	h := t.h
	y := h.field(x, opp(d))
	c := h.field(y, d)
	h.setField(x, opp(d), c)
	t.setPar(c, x)
	h.setField(y, d, x)
	t.setPar(x, y)
	return y
}

// splay moves the node with the given key to the root, or, when the key is
// absent, a neighboring node. It returns the smallest key > key met during
// the descent, or -1 when no greater key was met.
func (t *splayTD) splay(key int64) (cand int64) {
	cand = -1
	h := t.h
	if t.root == h.end {
		return cand
	}

	note := func(sz int64) {
		if cand < 0 || sz < cand {
			cand = sz
		}
	}

	// The shadow words of the sentinel form the assembly header: its left
	// shadow collects the tree of greater keys, its right shadow the tree
	// of lesser keys.
	h.setField(h.end, slotL, h.end)
	h.setField(h.end, slotR, h.end)
	l, r := h.end, h.end
	x := t.root
	for {
		k := h.size(x)
		if key < k {
			note(k)
			cl := h.field(x, slotL)
			if cl == h.end {
				break
			}

			if clk := h.size(cl); key < clk {
				note(clk)
				x = t.rotFree(x, slotR)
				if h.field(x, slotL) == h.end {
					break
				}
			}

			// link right
			h.setField(r, slotL, x)
			t.setPar(x, r)
			r = x
			x = h.field(x, slotL)
			continue
		}

		if key > k {
			cr := h.field(x, slotR)
			if cr == h.end {
				break
			}

			if key > h.size(cr) {
				x = t.rotFree(x, slotL)
				if h.field(x, slotR) == h.end {
					break
				}
			}

			// link left
			h.setField(l, slotR, x)
			t.setPar(x, l)
			l = x
			x = h.field(x, slotR)
			continue
		}

		break
	}

	// reassemble
	h.setField(l, slotR, h.field(x, slotL))
	t.setPar(h.field(x, slotL), l)
	h.setField(r, slotL, h.field(x, slotR))
	t.setPar(h.field(x, slotR), r)
	h.setField(x, slotL, h.field(h.end, slotR))
	t.setPar(h.field(x, slotL), x)
	h.setField(x, slotR, h.field(h.end, slotL))
	t.setPar(h.field(x, slotR), x)
	t.root = x
	t.setPar(x, h.end)
	return cand
}

func (t *splayTD) insert(b int64) {
	h := t.h
	key := h.size(b)
	h.setField(b, slotL, h.end)
	h.setField(b, slotR, h.end)
	t.setLs(b, h.end)

	if t.root == h.end {
		t.root = b
		t.n++
		return
	}

	t.splay(key)
	k := h.size(t.root)
	if k == key {
		t.pushDup(t.root, b, h.end)
		return
	}

	old := t.root
	if key < k {
		h.setField(b, slotL, h.field(old, slotL))
		t.setPar(h.field(b, slotL), b)
		h.setField(b, slotR, old)
		h.setField(old, slotL, h.end)
	} else {
		h.setField(b, slotR, h.field(old, slotR))
		t.setPar(h.field(b, slotR), b)
		h.setField(b, slotL, old)
		h.setField(old, slotR, h.end)
	}
	t.setPar(old, b)
	t.root = b
	t.setPar(b, h.end)
	t.n++
}

func (t *splayTD) bestFit(rq int64) int64 {
	h := t.h
	if t.root == h.end {
		return h.end
	}

	cand := t.splay(rq)
	if h.size(t.root) < rq {
		if cand < 0 {
			return h.end
		}
		t.splay(cand) // settle on the recorded best fit
	}

	best := t.root
	if t.ls(best) != h.end {
		return t.popDup(best)
	}

	t.deleteRoot()
	return best
}

// deleteRoot removes the tree root: the lesser subtree is splayed around the
// maximal key, bringing its maximum on top with a free right child slot, and
// the greater subtree is hung there.
func (t *splayTD) deleteRoot() {
	h := t.h
	x := t.root
	lt := h.field(x, slotL)
	rt := h.field(x, slotR)
	if lt == h.end {
		t.root = rt
		t.setPar(rt, h.end)
		t.n--
		return
	}

	t.root = lt
	t.setPar(lt, h.end)
	t.splay(splayMax)
	h.setField(t.root, slotR, rt)
	t.setPar(rt, t.root)
	t.n--
}

func (t *splayTD) remove(b int64) {
	rep, head, dup := t.classify(b)
	if dup {
		t.unlinkDup(rep, head, b)
		return
	}

	if d := t.ls(b); d != t.h.end {
		t.promote(b, t.ls(d)) // the head duplicate caches b's parent
		return
	}

	t.splay(t.h.size(b)) // exact key: the splay settles on b itself
	t.deleteRoot()
}

func (t *splayTD) audit(log func(error) bool) (cnt, bytes, bh int64, sizes []int64, err error) {
	_, ok := t.auditTree(t.root, t.h.end, 0, -1, false, &cnt, &bytes, &sizes, log)
	if !ok {
		err = &ErrILSEQ{Type: ErrOther, More: "audit aborted"}
	}
	return cnt, bytes, 0, sizes, err
}

func (t *splayTD) print(w io.Writer, verbose bool) error {
	if verbose {
		return t.printTree(w, t.root, 0, false)
	}
	return t.printFlat(w, t.root)
}

func (t *splayTD) blackHeight() int64 { return 0 }
