// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The free block index contract and the machinery shared by the tree
// variants: link field access, the duplicate side lists and the structural
// audit.

package heap

import (
	"fmt"
	"io"
)

// maxSlots is the number of link fields any variant stores in a free block's
// payload.
const maxSlots = 4

// maxTreeDepth bounds the ancestor stacks of the parent-less red-black
// variant: 2 lg n for the deepest segment the header can address.
const maxTreeDepth = 96

// An index is an ordered container of free blocks keyed by payload size.
// Implementations store their node fields inside the free blocks themselves;
// the container value only roots the structure.
type index interface {
	// reset empties the index.
	reset()

	// insert indexes the free block at b under its header size.
	insert(b int64)

	// bestFit removes and returns the free block with the smallest size
	// >= rq, or the heap's end sentinel when no such block exists.
	bestFit(rq int64) int64

	// remove removes the specific free block at b, known to be indexed.
	remove(b int64)

	// free returns the number of indexed blocks, duplicates included.
	free() int64

	// minPayload returns the smallest payload able to hold the variant's
	// node fields and the footer.
	minPayload() int64

	// audit traverses the structure, reporting any inconsistency to log,
	// and returns the number of indexed blocks, their total payload bytes,
	// the sizes met and the black-height (zero for uncolored variants).
	audit(log func(error) bool) (cnt, bytes, bh int64, sizes []int64, err error)

	// blackHeight recomputes the black-height by an independent method,
	// counting black nodes down the leftmost spine. Uncolored variants
	// return 0.
	blackHeight() int64

	// print renders the index to w.
	print(w io.Writer, verbose bool) error
}

// Link field slots. Tree nodes use slotL/slotR for their children; duplicate
// list nodes reuse the same words as slotN/slotP. The remaining slots differ
// per variant.
const (
	slotL = 0 // left child
	slotR = 1 // right child
	slotN = 0 // next duplicate
	slotP = 1 // previous duplicate, or the representative for the head
)

// field reads link field slot of the block at b. The end sentinel's fields
// live in the shadow words.
func (h *Heap) field(b int64, slot int) int64 {
	if b == h.end {
		return h.shadow[slot]
	}
	return h.word(b + wordSize + int64(slot)*wordSize)
}

// setField writes link field slot of the block at b, shadowing the end
// sentinel.
func (h *Heap) setField(b int64, slot int, v int64) {
	if b == h.end {
		h.shadow[slot] = v
		return
	}
	h.setWord(b+wordSize+int64(slot)*wordSize, v)
}

// tree carries what the tree variants share: the heap, the root, the entry
// count and the variant's field geometry. lsSlot is the slot of the
// list_start word; parSlot is the slot of the parent word or -1 when the
// variant keeps no parent fields.
//
// A free block under a tree index is read in one of three ways. A
// representative is a tree node: slotL/slotR are children, lsSlot points at
// the head of its duplicate side list or at the sentinel when it has none. A
// duplicate is a member of such a list: slotN/slotP are its neighbors and its
// lsSlot word is the tree parent of the representative when the duplicate is
// the list head, the sentinel otherwise. classify tells the readings apart.
type tree struct {
	h       *Heap
	root    int64
	n       int64
	lsSlot  int
	parSlot int
}

func (t *tree) reset() {
	t.root = t.h.end
	t.n = 0
}

func (t *tree) free() int64 { return t.n }

// ls returns b's list_start word.
func (t *tree) ls(b int64) int64 { return t.h.field(b, t.lsSlot) }

func (t *tree) setLs(b, v int64) { t.h.setField(b, t.lsSlot, v) }

// setPar records p as the tree parent of x: in x's parent field when the
// variant has one, and in the head of x's duplicate list, which caches the
// parent of its representative. Writing the sentinel's parent lands in the
// shadow words, so callers never test for it.
func (t *tree) setPar(x, p int64) {
	h := t.h
	if x == h.end {
		if t.parSlot >= 0 {
			h.shadow[t.parSlot] = p
		}
		return
	}

	if t.parSlot >= 0 {
		h.setField(x, t.parSlot, p)
	}
	if d := t.ls(x); d != h.end {
		t.setLs(d, p)
	}
}

// attach replaces old with b as the child of par; a sentinel par replaces
// the root.
func (t *tree) attach(par, old, b int64) {
	h := t.h
	if par == h.end {
		t.root = b
	} else if h.field(par, slotL) == old {
		h.setField(par, slotL, b)
	} else {
		h.setField(par, slotR, b)
	}
	t.setPar(b, par)
}

// spine counts the black nodes on the leftmost root-to-sentinel path.
func (t *tree) spine() int64 {
	h := t.h
	var n int64
	for b := t.root; b != h.end; b = h.field(b, slotL) {
		if !h.isRed(b) {
			n++
		}
	}
	return n
}

// dirOf returns the direction under which x hangs off p.
func (t *tree) dirOf(p, x int64) int {
	if t.h.field(p, slotL) == x {
		return slotL
	}
	return slotR
}

// rot lifts x's opp(d) child over x, pushing x toward d, and reattaches the
// rotated subtree under par.
func (t *tree) rot(x int64, d int, par int64) int64 {
	h := t.h
	y := h.field(x, opp(d))
	c := h.field(y, d)
	h.setField(x, opp(d), c)
	t.setPar(c, x)
	h.setField(y, d, x)
	t.setPar(x, y)
	t.attach(par, x, y)
	return y
}

// pushDup prepends b to the duplicate side list of the representative rep,
// whose tree parent is par. The tree structure is not touched. The new head
// caches par; the old head's cache slot is cleared to the sentinel.
func (t *tree) pushDup(rep, b, par int64) {
	h := t.h
	old := t.ls(rep)
	h.setField(b, slotN, old)
	h.setField(b, slotP, rep)
	if old != h.end {
		h.setField(old, slotP, b)
		t.setLs(old, h.end)
	}
	t.setLs(b, par)
	t.setLs(rep, b)
	t.n++
}

// popDup unlinks and returns the head duplicate of rep. The list must be non
// empty. The next duplicate, if any, becomes the head and inherits the cached
// parent.
func (t *tree) popDup(rep int64) int64 {
	h := t.h
	d := t.ls(rep)
	nd := h.field(d, slotN)
	t.setLs(rep, nd)
	if nd != h.end {
		h.setField(nd, slotP, rep)
		t.setLs(nd, t.ls(d))
	}
	t.n--
	return d
}

// classify decides how the free block at b is held by the index without
// searching: as a tree node, as the head of a duplicate list (rep is then its
// representative) or as an interior duplicate (rep is then its list
// predecessor).
//
// The decision reads b's slotP word. A duplicate's predecessor is never the
// sentinel, so a sentinel there means a tree node. Otherwise the predecessor
// is either a representative whose list head is b, a duplicate whose next is
// b, or, when b is a tree node after all, b's right child, which can satisfy
// neither test: a child's list head is a duplicate and a child's left child
// cannot be its own parent.
func (t *tree) classify(b int64) (rep int64, head, dup bool) {
	h := t.h
	p := h.field(b, slotP)
	if p == h.end {
		return h.end, false, false
	}

	switch {
	case t.ls(p) == b:
		return p, true, true
	case h.field(p, slotN) == b:
		return p, false, true
	}
	return h.end, false, false
}

// promote replaces the representative rep, whose tree parent is par, with
// the head of its non empty duplicate list. The promoted block takes rep's
// children, color and remaining list; no rotation and no search happens.
func (t *tree) promote(rep, par int64) {
	h := t.h
	d := t.ls(rep)
	nd := h.field(d, slotN)

	l := h.field(rep, slotL)
	r := h.field(rep, slotR)
	h.setField(d, slotL, l)
	h.setField(d, slotR, r)
	t.setLs(d, nd)
	if nd != h.end {
		h.setField(nd, slotP, d)
		t.setLs(nd, par)
	}
	if l != h.end {
		t.setPar(l, d)
	}
	if r != h.end {
		t.setPar(r, d)
	}
	h.setRed(d, h.isRed(rep))
	t.attach(par, rep, d)
	t.n--
}

// unlinkDup removes the classified duplicate b from its list in constant
// time.
func (t *tree) unlinkDup(rep int64, head bool, b int64) {
	h := t.h
	nx := h.field(b, slotN)
	if head {
		t.setLs(rep, nx)
		if nx != h.end {
			h.setField(nx, slotP, rep)
			t.setLs(nx, t.ls(b))
		}
	} else {
		h.setField(rep, slotN, nx)
		if nx != h.end {
			h.setField(nx, slotP, rep)
		}
	}
	t.n--
}

// auditTree checks the binary search order, the duplicate lists and, for
// colored variants, the red-black shape of the subtree under b. It reports
// defects to log and accumulates the multiset of indexed sizes. It returns
// the subtree's black-height counting b itself when b is black; for
// uncolored variants it returns the subtree's height.
func (t *tree) auditTree(b, par, lo, hi int64, colored bool, cnt, bytes *int64, sizes *[]int64, log func(error) bool) (bh int64, ok bool) {
	h := t.h
	if b == h.end {
		return 0, true
	}

	sz := h.size(b)
	if sz < lo || hi >= 0 && sz > hi {
		bound := lo
		if hi >= 0 && sz > hi {
			bound = hi
		}
		if !log(&ErrILSEQ{Type: ErrBSTOrder, Off: b, Arg: sz, Arg2: bound}) {
			return 0, false
		}
	}

	if t.parSlot >= 0 {
		if g := h.field(b, t.parSlot); g != par {
			if !log(&ErrILSEQ{Type: ErrParentLink, Off: b, Arg: g, Arg2: par}) {
				return 0, false
			}
		}
	}

	if colored && h.isRed(b) {
		for _, c := range []int64{h.field(b, slotL), h.field(b, slotR)} {
			if c != h.end && h.isRed(c) {
				if !log(&ErrILSEQ{Type: ErrRedRed, Off: b, Arg: c}) {
					return 0, false
				}
			}
		}
	}
	if !colored && h.isRed(b) {
		if !log(&ErrILSEQ{Type: ErrTreeColor, Off: b}) {
			return 0, false
		}
	}

	*cnt++
	*bytes += sz
	*sizes = append(*sizes, sz)
	if !t.auditDups(b, par, sizes, cnt, bytes, log) {
		return 0, false
	}

	lbh, ok := t.auditTree(h.field(b, slotL), b, lo, sz, colored, cnt, bytes, sizes, log)
	if !ok {
		return 0, false
	}

	rbh, ok := t.auditTree(h.field(b, slotR), b, sz, hi, colored, cnt, bytes, sizes, log)
	if !ok {
		return 0, false
	}

	if colored && lbh != rbh {
		if !log(&ErrILSEQ{Type: ErrBlackHeight, Off: b, Arg: lbh, Arg2: rbh}) {
			return 0, false
		}
	}

	bh = lbh
	if !colored {
		if rbh > bh {
			bh = rbh
		}
		bh++
		return bh, true
	}
	if !h.isRed(b) {
		bh++
	}
	return bh, true
}

// auditDups walks the duplicate side list of the representative b, whose
// tree parent is par.
func (t *tree) auditDups(b, par int64, sizes *[]int64, cnt, bytes *int64, log func(error) bool) bool {
	h := t.h
	sz := h.size(b)
	prev := b
	for d := t.ls(b); d != h.end; prev, d = d, h.field(d, slotN) {
		if h.field(d, slotP) != prev {
			if !log(&ErrILSEQ{Type: ErrDupList, Off: d}) {
				return false
			}
		}

		switch {
		case prev == b: // head caches the representative's parent
			if got := t.ls(d); got != par {
				if !log(&ErrILSEQ{Type: ErrDupParent, Off: d, Arg: got, Arg2: par}) {
					return false
				}
			}
		default:
			if got := t.ls(d); got != h.end {
				if !log(&ErrILSEQ{Type: ErrDupList, Off: d}) {
					return false
				}
			}
		}

		if dsz := h.size(d); dsz != sz {
			if !log(&ErrILSEQ{Type: ErrDupSize, Off: d, Arg: dsz, Arg2: sz}) {
				return false
			}
		}

		*cnt++
		*bytes += sz
		*sizes = append(*sizes, sz)
	}
	return true
}

// printTree renders the subtree under b to w, one node per line, children
// indented under their parent.
func (t *tree) printTree(w io.Writer, b int64, depth int, colored bool) error {
	h := t.h
	if b == h.end {
		return nil
	}

	if err := t.printTree(w, h.field(b, slotR), depth+1, colored); err != nil {
		return err
	}

	color := ""
	if colored {
		color = "(b)"
		if h.isRed(b) {
			color = "(r)"
		}
	}
	dups := int64(0)
	for d := t.ls(b); d != h.end; d = h.field(d, slotN) {
		dups++
	}
	dup := ""
	if dups != 0 {
		dup = fmt.Sprintf(" x%d", dups+1)
	}
	if _, err := fmt.Fprintf(w, "%*s%d%s @%#x%s\n", 4*depth, "", h.size(b), color, b, dup); err != nil {
		return err
	}

	return t.printTree(w, h.field(b, slotL), depth+1, colored)
}

// printFlat renders the indexed sizes in ascending order, one line per size
// with the number of blocks of that size, duplicates included.
func (t *tree) printFlat(w io.Writer, b int64) error {
	h := t.h
	if b == h.end {
		return nil
	}

	if err := t.printFlat(w, h.field(b, slotL)); err != nil {
		return err
	}

	n := int64(1)
	for d := t.ls(b); d != h.end; d = h.field(d, slotN) {
		n++
	}
	if _, err := fmt.Fprintf(w, "%d x%d\n", h.size(b), n); err != nil {
		return err
	}

	return t.printFlat(w, h.field(b, slotR))
}
