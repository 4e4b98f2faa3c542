// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Comparing the segment against an expected block sequence.

package heap

// NA in an Expect entry accepts any payload size.
const NA = -1

// Expect describes one block a caller expects to find while walking the
// segment left to right. Off is the client offset of the block's payload, or
// 0 to assert only that the block is free. Payload is the exact payload byte
// count, or NA to accept any.
type Expect struct {
	Off     int64
	Payload int64
}

// DiffCode classifies one Diff entry.
type DiffCode int

// Diff entry codes.
const (
	DiffOK          DiffCode = iota
	DiffError                // the block contradicts its Expect entry
	DiffContinues            // the expected list ended before the segment did
	DiffOutOfBounds          // the expected list is longer than the segment
)

// String implements fmt.Stringer.
func (c DiffCode) String() string {
	switch c {
	case DiffOK:
		return "OK"
	case DiffError:
		return "ERROR"
	case DiffContinues:
		return "HEAP_CONTINUES"
	case DiffOutOfBounds:
		return "OUT_OF_BOUNDS"
	}
	return "invalid"
}

// DiffEntry reports one block met while diffing: its client offset, payload
// size, allocation state and the comparison outcome.
type DiffEntry struct {
	Off     int64
	Payload int64
	Alloc   bool
	Code    DiffCode
}

// Diff walks the segment in order and compares each block against the
// corresponding want entry. A want entry with a zero Off flags an error when
// its block turns out allocated; a non zero Off must equal the block's client
// offset; a payload of NA matches anything, any other payload must match
// exactly. When want is shorter than the segment the last returned entry is
// marked DiffContinues; when it is longer the surplus entries are marked
// DiffOutOfBounds.
func (h *Heap) Diff(want []Expect) []DiffEntry {
	got := make([]DiffEntry, 0, len(want))
	i := 0
	h.walk(func(b, sz int64, alloc bool) bool {
		if i >= len(want) {
			got = append(got, DiffEntry{Off: h.client(b), Payload: sz, Alloc: alloc, Code: DiffContinues})
			return false
		}

		w := want[i]
		e := DiffEntry{Off: h.client(b), Payload: sz, Alloc: alloc}
		switch {
		case w.Off == 0 && alloc:
			e.Code = DiffError
		case w.Off != 0 && w.Off != h.client(b):
			e.Code = DiffError
		case w.Payload == NA:
			// any payload accepted
		case w.Payload != sz:
			e.Code = DiffError
		}
		got = append(got, e)
		i++
		return true
	})
	for ; i < len(want); i++ {
		got = append(got, DiffEntry{Code: DiffOutOfBounds})
	}
	return got
}
