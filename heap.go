// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package heap implements a family of general purpose allocators managing a
// single contiguous byte segment supplied at initialization time.
//
// Every allocator in the family services the same malloc/realloc/free style
// interface from within the segment; they differ only in the data structure
// indexing the free blocks. Available are a segregated free list, four
// red-black tree flavors (CLRS with parent fields, a direction-indexed
// variant, a parent-less variant driven by an ancestor stack and a top-down
// single pass variant) and two splay trees (bottom-up and top-down).
//
// The package is not safe for concurrent use. All methods of a Heap mutate
// process visible state and must be externally synchronized when used from
// more than one goroutine.
package heap

import "io"

// Kind selects the free block index of a Heap.
type Kind int

// Index kinds for New.
const (
	SegList      Kind = iota // segregated free lists
	RBClrs                   // red-black tree, parent fields, explicit left/right cases
	RBUnified                // red-black tree, parent fields, direction indexed cases
	RBStack                  // red-black tree, no parent fields, ancestor stack
	RBTopdown                // red-black tree, single top-down pass
	Splay                    // splay tree, bottom-up with ancestor stack
	SplayTopdown             // splay tree, top-down
	invalidKind
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case SegList:
		return "seglist"
	case RBClrs:
		return "rbclrs"
	case RBUnified:
		return "rbunified"
	case RBStack:
		return "rbstack"
	case RBTopdown:
		return "rbtopdown"
	case Splay:
		return "splay"
	case SplayTopdown:
		return "splaytopdown"
	}
	return "invalid"
}

// MaxAlloc is the limit of a single allocation request in bytes.
const MaxAlloc = 1 << 48

/*

Heap is an allocator over a caller supplied byte segment. The segment is a
linear, contiguous sequence of variable size blocks. Client space is addressed
by int64 byte offsets into the segment; offset 0 refers to no space (the first
payload byte of the first block sits at offset 8, so 0 is never a valid client
address).

Block format

Every block starts with one 8 byte header word

	[size:61 | color:1 | leftAlloc:1 | alloc:1]

where size is the payload byte count (a multiple of 8, the header itself
excluded), alloc flags an allocated block, leftAlloc mirrors the alloc bit of
the immediate left neighbor and color is used by the tree indexes while the
block is free. A free block additionally carries a footer in its last payload
word, an exact copy of the header:

	|<- header  ...      payload     ... ->|
	+--------++------+--  ...  --+---------+
	|  size  || ...  index links | size    |
	|  bits  || ...              | bits    |
	+--------++------+--  ...  --+---------+
	                               ^footer

The footer lets a right neighbor locate a free left neighbor in constant
time, which makes coalescing O(1) per side. Allocated blocks have no footer;
their whole payload belongs to the client.

The index links (child pointers, duplicate list pointers) of a free block are
stored in its leading payload words. Their number depends on the index kind,
which is why the minimal payload differs between variants; Align reports the
effective rounding.

End sentinel

The topmost word of the segment is the end sentinel: a header with size 0 and
the alloc bit set. Walking the headers left to right from the segment base
terminates exactly there. The sentinel also serves as the universal nil of the
tree indexes and as the tail of all lists. Its link fields are backed by
scratch words outside the segment, so writing them is always permitted, which
keeps the index fixup paths free of nil checks; reading its children is
undefined and never done.

No two adjacent free blocks survive any public operation, every free block is
indexed, and the index and the segment agree on the multiset of free sizes.
Verify checks all of it.

*/
type Heap struct {
	seg    []byte
	end    int64 // offset of the end sentinel header; doubles as the index nil
	idx    index
	kind   Kind
	shadow [maxSlots]int64 // link fields of the end sentinel
}

// New returns a Heap managing seg, indexed by kind. The usable size is
// len(seg) rounded down to the alignment. New fails if the segment cannot
// hold at least one minimal block and the end sentinel.
func New(seg []byte, kind Kind) (*Heap, error) {
	if kind < 0 || kind >= invalidKind {
		return nil, &ErrINVAL{"heap.New: invalid index kind", int(kind)}
	}

	h := &Heap{seg: seg, kind: kind}
	switch kind {
	case SegList:
		h.idx = newSegList(h)
	case RBClrs:
		h.idx = newRbtClrs(h)
	case RBUnified:
		h.idx = newRbtUnified(h)
	case RBStack:
		h.idx = newRbtStack(h)
	case RBTopdown:
		h.idx = newRbtTopdown(h)
	case Splay:
		h.idx = newSplay(h)
	case SplayTopdown:
		h.idx = newSplayTopdown(h)
	}

	sz := int64(len(seg)) &^ (align - 1)
	if sz < wordSize+h.idx.minPayload()+wordSize {
		return nil, &ErrINVAL{"heap.New: segment too small", len(seg)}
	}

	h.end = sz - wordSize
	h.Init()
	return h, nil
}

// Init resets the heap to its initial state: a single maximal free block
// covering the whole segment below the end sentinel. All previously returned
// client offsets become invalid.
func (h *Heap) Init() {
	h.setHdr(h.end, tagAlloc)
	h.initFree(0, h.end-wordSize, tagLeftAlloc)
	h.idx.reset()
	h.idx.insert(0)
}

// Kind returns the index kind selected at New.
func (h *Heap) Kind() Kind { return h.kind }

// Size returns the usable segment size in bytes, including all headers and
// the end sentinel.
func (h *Heap) Size() int64 { return h.end + wordSize }

// Align returns n rounded the way allocation requests are rounded: up to the
// alignment and to no less than the minimal payload of the active index
// kind.
func (h *Heap) Align(n int64) int64 { return h.roundUp(n) }

// Alloc allocates n bytes and returns the offset of the client space, or an
// error, if any. The offset is valid until a matching Free or Realloc. The
// result is (0, *ErrNOMEM) when no free block can satisfy the request and
// (0, *ErrINVAL) when n is not positive or exceeds MaxAlloc; in both cases
// the heap is unchanged.
func (h *Heap) Alloc(n int64) (int64, error) {
	if n <= 0 || n > MaxAlloc {
		return 0, &ErrINVAL{"heap.Alloc: invalid request size", n}
	}

	rq := h.roundUp(n)
	b := h.idx.bestFit(rq)
	if b == h.end {
		return 0, &ErrNOMEM{Rq: rq}
	}

	h.place(b, h.size(b), rq)
	return h.client(b), nil
}

// Free deallocates the block whose client space starts at off. A zero off is
// a nop. Freeing an offset not obtained from Alloc or Realloc, or freeing it
// twice, fails with *ErrINVAL when the damage is detectable.
func (h *Heap) Free(off int64) error {
	if off == 0 {
		return nil
	}

	b, err := h.checkUsed(off, "heap.Free")
	if err != nil {
		return err
	}

	h.insertFree(h.coalesce(b))
	return nil
}

// Realloc resizes the block whose client space starts at off to n bytes and
// returns the offset of the resized space, which may differ from off. A zero
// off behaves as Alloc(n). A zero n with a non zero off behaves as Free(off)
// and returns offset 0. Growing prefers extending the block in place over the
// free right neighbor; when only a free left neighbor provides enough room
// the client bytes are moved down. Otherwise a fresh block is allocated, the
// client bytes are copied and the old block is freed. On ErrNOMEM the old
// block and its content are left untouched.
func (h *Heap) Realloc(off, n int64) (int64, error) {
	if off == 0 {
		return h.Alloc(n)
	}

	if n == 0 {
		return 0, h.Free(off)
	}

	if n < 0 || n > MaxAlloc {
		return 0, &ErrINVAL{"heap.Realloc: invalid request size", n}
	}

	b, err := h.checkUsed(off, "heap.Realloc")
	if err != nil {
		return 0, err
	}

	rq := h.roundUp(n)
	old := h.size(b)

	// In place, possibly absorbing the free right neighbor. The block does
	// not move.
	have := old
	r := h.rightNbr(b)
	rFree := !h.allocated(r)
	if rFree {
		have += wordSize + h.size(r)
	}
	if have >= rq {
		if rFree {
			h.idx.remove(r)
		}
		h.place(b, have, rq)
		return off, nil
	}

	// Moving down into the free left neighbor keeps the operation in
	// place in the sense that no second block is consumed.
	if !h.leftAlloc(b) {
		if have+wordSize+h.size(h.leftNbr(b)) >= rq {
			c := h.coalesce(b)
			copy(h.seg[c+wordSize:c+wordSize+old], h.seg[off:off+old])
			h.place(c, h.size(c), rq)
			return h.client(c), nil
		}
	}

	// Relocate.
	noff, err := h.Alloc(n)
	if err != nil {
		return 0, err
	}

	copy(h.seg[noff:noff+old], h.seg[off:off+old])
	h.Free(off)
	return noff, nil
}

// Bytes returns the client space of the allocated block at off as a slice
// aliasing the segment. The slice is valid until the block is freed or
// relocated by Realloc.
func (h *Heap) Bytes(off int64) []byte {
	b := h.blockOf(off)
	return h.seg[off : off+h.size(b)]
}

// Capacity returns the total free payload bytes, measured by walking the
// segment.
func (h *Heap) Capacity() (free int64) {
	h.walk(func(b, sz int64, alloc bool) bool {
		if !alloc {
			free += sz
		}
		return true
	})
	return free
}

// FreeCount returns the number of blocks held by the free block index,
// duplicates included.
func (h *Heap) FreeCount() int64 { return h.idx.free() }

// PrintFree renders the free block index to w. With verbose set, tree
// variants render the tree shape and colors, otherwise a flat listing of the
// indexed sizes is produced.
func (h *Heap) PrintFree(w io.Writer, verbose bool) error {
	return h.idx.print(w, verbose)
}

// place marks the free block at b, spanning have payload bytes and already
// removed from the index, as allocated with rq payload bytes. A remainder
// large enough to form a block is split off and reindexed, otherwise the
// whole block is handed out.
func (h *Heap) place(b, have, rq int64) {
	lbit := h.hdr(b) & tagLeftAlloc
	if have-rq >= wordSize+h.idx.minPayload() {
		h.setHdr(b, rq|lbit|tagAlloc)
		rem := b + wordSize + rq
		h.initFree(rem, have-rq-wordSize, tagLeftAlloc)
		h.setLeftAlloc(h.rightNbr(rem), false)
		h.idx.insert(rem)
		return
	}

	h.setHdr(b, have|lbit|tagAlloc)
	h.setLeftAlloc(h.rightNbr(b), true)
}

// coalesce fuses the block at b with its free right and left neighbors,
// removing the absorbed neighbors from the index, and writes the fused free
// header. The footer is not written here: Realloc preserves client bytes
// across the old footer location. Returns the address of the fused block.
func (h *Heap) coalesce(b int64) int64 {
	sz := h.size(b)
	if r := b + wordSize + sz; !h.allocated(r) {
		h.idx.remove(r)
		sz += wordSize + h.size(r)
	}
	if b != 0 && !h.leftAlloc(b) {
		l := h.leftNbr(b)
		h.idx.remove(l)
		sz += wordSize + h.size(l)
		b = l
	}
	h.setHdr(b, sz|h.hdr(b)&tagLeftAlloc)
	return b
}

// insertFree completes the freeing of the coalesced block at b: the footer is
// written, the right neighbor learns about its free left edge and the block
// enters the index.
func (h *Heap) insertFree(b int64) {
	h.writeFooter(b)
	h.setLeftAlloc(h.rightNbr(b), false)
	h.idx.insert(b)
}

// checkUsed validates a client offset and returns its block.
func (h *Heap) checkUsed(off int64, src string) (int64, error) {
	if off < wordSize || off >= h.end || off&(align-1) != 0 {
		return 0, &ErrINVAL{src + ": client offset out of limits", off}
	}

	b := h.blockOf(off)
	if !h.allocated(b) {
		return 0, &ErrINVAL{src + ": attempt to use a free block at", off}
	}

	return b, nil
}

// walk visits every block of the segment left to right, passing the block
// address, payload size and allocation state to f until f returns false or
// the end sentinel is reached. It returns an error when a header with size 0
// is met before the sentinel or a block spans past it.
func (h *Heap) walk(f func(b, sz int64, alloc bool) bool) error {
	for b := int64(0); b != h.end; {
		sz := h.size(b)
		if sz == 0 {
			return &ErrILSEQ{Type: ErrBadJump, Off: b}
		}

		next := b + wordSize + sz
		if next > h.end {
			return &ErrILSEQ{Type: ErrOvershoot, Off: b, Arg: h.end}
		}

		if !f(b, sz, h.allocated(b)) {
			return nil
		}

		b = next
	}
	return nil
}
