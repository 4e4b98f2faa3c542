// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Block level encoding: header and footer words, neighbor arithmetic,
// request rounding.

package heap

import (
	"encoding/binary"
)

const (
	// align is the alignment of every block address and payload size.
	align = 8

	// wordSize is the size of a header, footer or link field.
	wordSize = 8

	tagAlloc     = 1 << 0 // block is allocated
	tagLeftAlloc = 1 << 1 // the immediate left neighbor is allocated
	tagRed       = 1 << 2 // node color while indexed, tree variants only

	tagMask = tagAlloc | tagLeftAlloc | tagRed
	szMask  = ^int64(tagMask)
)

// word reads the machine word at off.
func (h *Heap) word(off int64) int64 {
	return int64(binary.LittleEndian.Uint64(h.seg[off:]))
}

// setWord writes the machine word at off.
func (h *Heap) setWord(off, w int64) {
	binary.LittleEndian.PutUint64(h.seg[off:], uint64(w))
}

// hdr returns the raw header word of the block at b.
func (h *Heap) hdr(b int64) int64 { return h.word(b) }

// setHdr writes the raw header word of the block at b.
func (h *Heap) setHdr(b, w int64) { h.setWord(b, w) }

// size returns the payload size recorded in b's header. The header word of a
// block is excluded.
func (h *Heap) size(b int64) int64 { return h.hdr(b) & szMask }

func (h *Heap) allocated(b int64) bool { return h.hdr(b)&tagAlloc != 0 }

func (h *Heap) leftAlloc(b int64) bool { return h.hdr(b)&tagLeftAlloc != 0 }

func (h *Heap) isRed(b int64) bool { return h.hdr(b)&tagRed != 0 }

// setRed flips b's color bit. Free blocks mirror the change into the footer
// so that the footer copy stays exact at all times. The end sentinel is
// ignored: the universal nil stays black no matter what a fixup writes.
func (h *Heap) setRed(b int64, red bool) {
	if b == h.end {
		return
	}
	w := h.hdr(b) &^ tagRed
	if red {
		w |= tagRed
	}
	h.setHdr(b, w)
	if w&tagAlloc == 0 {
		h.setWord(b+(w&szMask), w)
	}
}

// setLeftAlloc records the allocation state of b's left neighbor in b's
// header. b is normally an allocated block or the end sentinel; if it happens
// to be free the footer mirror is maintained.
func (h *Heap) setLeftAlloc(b int64, on bool) {
	w := h.hdr(b) &^ tagLeftAlloc
	if on {
		w |= tagLeftAlloc
	}
	h.setHdr(b, w)
	if w&tagAlloc == 0 {
		h.setWord(b+(w&szMask), w)
	}
}

// writeFooter copies b's header into the last payload word of b. Valid only
// for free blocks; the trailing word of an allocated block belongs to the
// client.
func (h *Heap) writeFooter(b int64) {
	h.setWord(b+h.size(b), h.hdr(b))
}

// footer returns the footer word of the free block at b.
func (h *Heap) footer(b int64) int64 {
	return h.word(b + h.size(b))
}

// initFree writes a free block header at b with payload size sz, the given
// extra tag bits and a matching footer.
func (h *Heap) initFree(b, sz, tags int64) {
	w := sz | tags&^tagAlloc
	h.setHdr(b, w)
	h.setWord(b+sz, w)
}

// rightNbr returns the address of the block immediately right of b. For the
// last block it returns the end sentinel.
func (h *Heap) rightNbr(b int64) int64 {
	return b + wordSize + h.size(b)
}

// leftNbr returns the address of the block immediately left of b. It is
// defined only when that neighbor is free: the word just left of b is then
// that block's footer. The footer records the neighbor's payload size, which
// positions its header.
func (h *Heap) leftNbr(b int64) int64 {
	return b - wordSize - h.word(b-wordSize)&szMask
}

// roundUp returns the smallest aligned payload size not less than
// max(n, the active variant's minimal payload).
func (h *Heap) roundUp(n int64) int64 {
	if min := h.idx.minPayload(); n < min {
		n = min
	}
	return (n + align - 1) &^ (align - 1)
}

// client returns the address of b's payload.
func (h *Heap) client(b int64) int64 { return b + wordSize }

// blockOf returns the block whose payload starts at p.
func (h *Heap) blockOf(p int64) int64 { return p - wordSize }
