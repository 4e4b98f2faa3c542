// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Textual rendering of the heap.

package heap

import (
	"fmt"
	"io"
)

// Dump renders the segment to w, one line per block, followed by the free
// block index. It mutates nothing and is safe to call between any two public
// operations. A corrupted segment produces a bad jump report instead of
// running off the headers.
func (h *Heap) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "heap %s: %d bytes, end sentinel @%#x, %d indexed free blocks\n",
		h.kind, h.Size(), h.end, h.idx.free()); err != nil {
		return err
	}

	werr := h.walk(func(b, sz int64, alloc bool) bool {
		state := "free"
		if alloc {
			state = "used"
		}
		left := "left-used"
		if !h.leftAlloc(b) {
			left = "left-free"
		}
		mark := ""
		if !alloc && h.footer(b) != h.hdr(b) {
			mark = " footer!"
		}
		fmt.Fprintf(w, "@%08x %s %8d %s%s\n", b, state, sz, left, mark)
		return true
	})
	if werr != nil {
		if _, err := fmt.Fprintf(w, "bad jump: %v\n", werr); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "free index:"); err != nil {
		return err
	}
	return h.idx.print(w, true)
}
