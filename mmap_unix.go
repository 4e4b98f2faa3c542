// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package heap

import (
	"github.com/cznic/mathutil"
	"golang.org/x/sys/unix"
)

// MapSegment returns an anonymous, private, page aligned mapping of at least
// n bytes, suitable as a New segment living outside the Go heap. Release it
// with UnmapSegment; the Heap never does, it only borrows the memory.
func MapSegment(n int64) ([]byte, error) {
	if n <= 0 {
		return nil, &ErrINVAL{"heap.MapSegment: invalid size", n}
	}

	ps := int64(unix.Getpagesize())
	n = (mathutil.MaxInt64(n, ps) + ps - 1) &^ (ps - 1)
	return unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// UnmapSegment releases a MapSegment mapping. The segment, and any Heap
// using it, must not be touched afterwards.
func UnmapSegment(b []byte) error {
	return unix.Munmap(b)
}
