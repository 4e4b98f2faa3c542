// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Structural and quantitative heap verification.

package heap

import (
	"sort"

	"github.com/cznic/sortutil"
)

// Stats records quantities measured by a successful Verify.
type Stats struct {
	Blocks       int64 // blocks reachable by the segment walker, sentinel excluded
	AllocBlocks  int64
	FreeBlocks   int64
	AllocBytes   int64 // payload bytes of allocated blocks
	FreeBytes    int64 // payload bytes of free blocks
	IndexEntries int64 // blocks held by the free block index, duplicates included
	IndexBytes   int64 // payload bytes held by the index
	BlackHeight  int64 // red-black variants only, 0 otherwise
}

var nolog = func(error) bool { return false }

// Verify attempts to find any structural error in the heap: the segment walk
// invariants (alignment, footer mirrors, no adjacent free blocks, left bit
// consistency, closure at the end sentinel), the index structure (search
// order, red-black shape, duplicate lists and their cached parents) and the
// agreement between the two (matching free counts, byte totals and size
// multisets).
//
// Problems found are reported to log; a false return from log stops the
// scan. Passing a nil log works like providing a log function always
// returning false. Verify returns nil only if it completed without detecting
// any error. Statistics are returned via stats if non nil; they are valid
// only when Verify succeeds.
func (h *Heap) Verify(log func(error) bool, stats *Stats) (err error) {
	if log == nil {
		log = nolog
	}

	stop := false
	fail := func(e error) {
		if err == nil {
			err = e
		}
		if !log(e) {
			stop = true
		}
	}

	var st Stats
	var walkSizes []int64
	prevOff := int64(-1)
	prevAlloc := true
	werr := h.walk(func(b, sz int64, alloc bool) bool {
		if b&(align-1) != 0 || sz&(align-1) != 0 {
			fail(&ErrILSEQ{Type: ErrAlign, Off: b, Arg: sz})
		}

		switch {
		case prevOff < 0:
			if !h.leftAlloc(b) {
				fail(&ErrILSEQ{Type: ErrFirstBlock, Off: b})
			}
		default:
			if h.leftAlloc(b) != prevAlloc {
				fail(&ErrILSEQ{Type: ErrLeftBit, Off: b, Arg: prevOff})
			}
		}

		if !alloc {
			if prevOff >= 0 && !prevAlloc {
				fail(&ErrILSEQ{Type: ErrAdjacentFree, Off: prevOff, Arg: b})
			}
			if f, w := h.footer(b), h.hdr(b); f != w {
				fail(&ErrILSEQ{Type: ErrFooter, Off: b, Arg: w, Arg2: f})
			}
			st.FreeBlocks++
			st.FreeBytes += sz
			walkSizes = append(walkSizes, sz)
		} else {
			st.AllocBlocks++
			st.AllocBytes += sz
		}

		st.Blocks++
		prevOff, prevAlloc = b, alloc
		return !stop
	})
	if werr != nil {
		fail(werr)
	}
	if stop {
		return err
	}

	if w := h.hdr(h.end); w&szMask != 0 || w&tagAlloc == 0 {
		fail(&ErrILSEQ{Type: ErrEndSentinel, Off: h.end, Arg: w})
	}
	if h.leftAlloc(h.end) != prevAlloc && prevOff >= 0 {
		fail(&ErrILSEQ{Type: ErrLeftBit, Off: h.end, Arg: prevOff})
	}
	if stop {
		return err
	}

	cnt, bytes, bh, idxSizes, aerr := h.idx.audit(func(e error) bool {
		fail(e)
		return !stop
	})
	if aerr != nil && err == nil {
		err = aerr
	}
	if stop {
		return err
	}

	if cnt != st.FreeBlocks {
		fail(&ErrILSEQ{Type: ErrIndexCount, Arg: cnt, Arg2: st.FreeBlocks})
	}
	if n := h.idx.free(); n != cnt {
		fail(&ErrILSEQ{Type: ErrIndexCount, Arg: n, Arg2: cnt})
	}
	if bytes != st.FreeBytes {
		fail(&ErrILSEQ{Type: ErrIndexBytes, Arg: bytes, Arg2: st.FreeBytes})
	}
	if stop {
		return err
	}

	sort.Sort(sortutil.Int64Slice(walkSizes))
	sort.Sort(sortutil.Int64Slice(idxSizes))
	if len(walkSizes) == len(idxSizes) {
		for i, sz := range walkSizes {
			if idxSizes[i] != sz {
				fail(&ErrILSEQ{Type: ErrIndexSizes, Arg: sz, Arg2: idxSizes[i]})
				break
			}
		}
	}
	if stop {
		return err
	}

	switch h.kind {
	case RBClrs, RBUnified, RBStack, RBTopdown:
		bh2 := h.idx.blackHeight()
		if bh != bh2 {
			fail(&ErrILSEQ{Type: ErrBlackHeight, Arg: bh, Arg2: bh2})
		}
		if cnt != 0 && bh == 0 {
			fail(&ErrILSEQ{Type: ErrBlackHeight, Arg: bh, Arg2: bh2})
		}
		st.BlackHeight = bh
	}

	st.IndexEntries = cnt
	st.IndexBytes = bytes
	if err == nil && stats != nil {
		*stats = st
	}
	return err
}
