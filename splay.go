// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The bottom-up splay tree index. Descents record their path in an ancestor
// stack; the accessed node is then rotated to the root by zig, zig-zig and
// zig-zag steps applied back up the stack. Deletion splays the victim to the
// root, splits the tree and joins the halves through the maximum of the
// lesser half.

package heap

import (
	"io"
)

const (
	spSlotLs = 2

	spMinPayload = 4 * wordSize
)

type splay struct {
	tree
	path []int64
}

func newSplay(h *Heap) *splay {
	t := &splay{tree: tree{h: h, lsSlot: spSlotLs, parSlot: -1}}
	t.reset()
	return t
}

func (t *splay) minPayload() int64 { return spMinPayload }

func (t *splay) parentAt(i int) int64 {
	if i <= 0 {
		return t.h.end
	}
	return t.path[i-1]
}

// splayPath rotates the node at path[top] to the root. path[0] must be the
// tree root.
func (t *splay) splayPath(top int) {
	for top >= 2 {
		x := t.path[top]
		p := t.path[top-1]
		g := t.path[top-2]
		gg := t.parentAt(top - 2)
		dx := t.dirOf(p, x)
		dp := t.dirOf(g, p)
		if dx == dp { // zig-zig
			t.rot(g, opp(dp), gg)
			t.rot(p, opp(dx), gg)
		} else { // zig-zag
			t.rot(p, opp(dx), g)
			t.rot(g, opp(dp), gg)
		}
		top -= 2
		t.path[top] = x
	}
	if top == 1 { // zig
		x := t.path[1]
		p := t.path[0]
		t.rot(p, opp(t.dirOf(p, x)), t.h.end)
		t.path[0] = x
	}
}

func (t *splay) insert(b int64) {
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

	t.path = t.path[:0]
	for x := t.root; ; {
		t.path = append(t.path, x)
		k := h.size(x)
		if k == key {
			t.pushDup(x, b, t.parentAt(len(t.path)-1))
			return
		}

		d := 0
		if key > k {
			d = 1
		}
		nx := h.field(x, d)
		if nx == h.end {
			h.setField(x, d, b)
			t.path = append(t.path, b)
			t.splayPath(len(t.path) - 1)
			t.n++
			return
		}

		x = nx
	}
}

func (t *splay) bestFit(rq int64) int64 {
	h := t.h
	besti := -1
	t.path = t.path[:0]
	for x := t.root; x != h.end; {
		t.path = append(t.path, x)
		sz := h.size(x)
		if sz == rq {
			besti = len(t.path) - 1
			break
		}

		if sz < rq {
			x = h.field(x, slotR)
		} else {
			besti = len(t.path) - 1
			x = h.field(x, slotL)
		}
	}
	if besti < 0 {
		return h.end
	}

	t.path = t.path[:besti+1]
	t.splayPath(besti)
	best := t.root
	if t.ls(best) != h.end {
		return t.popDup(best)
	}

	t.deleteRoot()
	return best
}

// deleteRoot removes the tree root: the maximum of the lesser subtree is
// splayed to its top, which leaves it without a right child, and the greater
// subtree is hung there.
func (t *splay) deleteRoot() {
	h := t.h
	lt := h.field(t.root, slotL)
	rt := h.field(t.root, slotR)
	if lt == h.end {
		t.root = rt
		t.setPar(rt, h.end)
		t.n--
		return
	}

	t.root = lt
	t.setPar(lt, h.end)
	t.path = t.path[:0]
	for x := lt; ; {
		t.path = append(t.path, x)
		nx := h.field(x, slotR)
		if nx == h.end {
			break
		}
		x = nx
	}
	t.splayPath(len(t.path) - 1)
	h.setField(t.root, slotR, rt)
	t.setPar(rt, t.root)
	t.n--
}

func (t *splay) remove(b int64) {
	rep, head, dup := t.classify(b)
	if dup {
		t.unlinkDup(rep, head, b)
		return
	}

	if d := t.ls(b); d != t.h.end {
		t.promote(b, t.ls(d)) // the head duplicate caches b's parent
		return
	}

	// Searching b's own size lands exactly on b: the tree holds one node
	// per size.
	t.path = t.path[:0]
	h := t.h
	key := h.size(b)
	for x := t.root; ; {
		t.path = append(t.path, x)
		k := h.size(x)
		if k == key {
			break
		}

		if key < k {
			x = h.field(x, slotL)
		} else {
			x = h.field(x, slotR)
		}
	}
	t.splayPath(len(t.path) - 1)
	t.deleteRoot()
}

func (t *splay) audit(log func(error) bool) (cnt, bytes, bh int64, sizes []int64, err error) {
	_, ok := t.auditTree(t.root, t.h.end, 0, -1, false, &cnt, &bytes, &sizes, log)
	if !ok {
		err = &ErrILSEQ{Type: ErrOther, More: "audit aborted"}
	}
	return cnt, bytes, 0, sizes, err
}

func (t *splay) print(w io.Writer, verbose bool) error {
	if verbose {
		return t.printTree(w, t.root, 0, false)
	}
	return t.printFlat(w, t.root)
}

func (t *splay) blackHeight() int64 { return 0 }
