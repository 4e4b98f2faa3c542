// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The segregated free list index.

package heap

import (
	"fmt"
	"io"
	"sort"

	"github.com/cznic/mathutil"
	"github.com/cznic/sortutil"
)

// Bucket geometry. The first nExact buckets hold exactly one size each,
// starting at the minimal payload and stepping by the alignment. The
// remaining buckets hold power-of-two ranges [1<<k, 1<<(k+1)); the final
// bucket absorbs everything above the last range.
const (
	slMinPayload = 3 * wordSize // prev + next + footer

	nExact    = 7
	firstLog2 = 6  // smallest power-of-two range holding sizes above the exact run
	lastLog2  = 15 // [1<<15, 65535] is the last bounded range
	nBuckets  = nExact + lastLog2 - firstLog2 + 1 + 1
)

// segList is an array of doubly linked free lists bucketed by size class.
// Blocks link through their leading payload words (slotN, slotP). Insertion
// is at the head of the class, so classes are only loosely sorted; best fit
// scans the class of the request and falls through to the next classes.
type segList struct {
	h     *Heap
	heads [nBuckets]int64
	mins  [nBuckets]int64
	n     int64
}

func newSegList(h *Heap) *segList {
	l := &segList{h: h}
	for i := 0; i < nExact; i++ {
		l.mins[i] = slMinPayload + int64(i)*align
	}
	for k := firstLog2; k <= lastLog2; k++ {
		l.mins[nExact+k-firstLog2] = 1 << uint(k)
	}
	l.mins[nBuckets-1] = 65535
	l.reset()
	return l
}

func (l *segList) reset() {
	for i := range l.heads {
		l.heads[i] = l.h.end
	}
	l.n = 0
}

func (l *segList) minPayload() int64 { return slMinPayload }

func (l *segList) free() int64 { return l.n }

// bucket maps a block size to its size class.
func (l *segList) bucket(sz int64) int {
	if sz <= l.mins[nExact-1] {
		return int((sz - slMinPayload) / align)
	}

	k := mathutil.Log2Uint64(uint64(sz))
	if k > lastLog2 {
		return nBuckets - 1
	}
	return nExact + k - firstLog2
}

func (l *segList) insert(b int64) {
	h := l.h
	i := l.bucket(h.size(b))
	h.setField(b, slotN, l.heads[i])
	h.setField(b, slotP, h.end)
	if l.heads[i] != h.end {
		h.setField(l.heads[i], slotP, b)
	}
	l.heads[i] = b
	l.n++
}

func (l *segList) remove(b int64) {
	h := l.h
	prev := h.field(b, slotP)
	next := h.field(b, slotN)
	if prev == h.end {
		l.heads[l.bucket(h.size(b))] = next
	} else {
		h.setField(prev, slotN, next)
	}
	if next != h.end {
		h.setField(next, slotP, prev)
	}
	l.n--
}

func (l *segList) bestFit(rq int64) int64 {
	h := l.h
	for i := l.bucket(rq); i < nBuckets; i++ {
		for b := l.heads[i]; b != h.end; b = h.field(b, slotN) {
			if h.size(b) >= rq {
				l.remove(b)
				return b
			}
		}
	}
	return h.end
}

func (l *segList) audit(log func(error) bool) (cnt, bytes, bh int64, sizes []int64, err error) {
	h := l.h
	for i, b := range l.heads {
		prev := h.end
		for ; b != h.end; prev, b = b, h.field(b, slotN) {
			sz := h.size(b)
			if l.bucket(sz) != i {
				if !log(&ErrILSEQ{Type: ErrBucketRange, Off: b, Arg: sz, Arg2: l.mins[i]}) {
					return 0, 0, 0, nil, &ErrILSEQ{Type: ErrBucketRange, Off: b}
				}
			}

			if h.field(b, slotP) != prev {
				if !log(&ErrILSEQ{Type: ErrListLink, Off: b}) {
					return 0, 0, 0, nil, &ErrILSEQ{Type: ErrListLink, Off: b}
				}
			}

			if h.isRed(b) {
				if !log(&ErrILSEQ{Type: ErrTreeColor, Off: b}) {
					return 0, 0, 0, nil, &ErrILSEQ{Type: ErrTreeColor, Off: b}
				}
			}

			cnt++
			bytes += sz
			sizes = append(sizes, sz)
		}
	}
	return cnt, bytes, 0, sizes, nil
}

func (l *segList) print(w io.Writer, verbose bool) error {
	h := l.h
	if !verbose {
		var sizes []int64
		for _, b := range l.heads {
			for ; b != h.end; b = h.field(b, slotN) {
				sizes = append(sizes, h.size(b))
			}
		}
		sort.Sort(sortutil.Int64Slice(sizes))
		for _, sz := range sizes {
			if _, err := fmt.Fprintf(w, "%d\n", sz); err != nil {
				return err
			}
		}
		return nil
	}

	for i, b := range l.heads {
		if b == h.end {
			continue
		}

		if _, err := fmt.Fprintf(w, "bucket %d, min %d:", i, l.mins[i]); err != nil {
			return err
		}

		for ; b != h.end; b = h.field(b, slotN) {
			if _, err := fmt.Fprintf(w, " %d@%#x", h.size(b), b); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func (l *segList) blackHeight() int64 { return 0 }
