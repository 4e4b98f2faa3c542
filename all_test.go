// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package heap

import (
	"bytes"
	"flag"
	"fmt"
	"strings"
	"testing"
)

var (
	testN   = flag.Int("N", 256, "randomized test operation count")
	testLim = flag.Int("lim", 1024, "randomized test request size limit")
	oDump   = flag.Bool("dump", false, "dump the heap on randomized test failure")
)

var testKinds = []Kind{SegList, RBClrs, RBUnified, RBStack, RBTopdown, Splay, SplayTopdown}

func forKinds(t *testing.T, f func(t *testing.T, kind Kind)) {
	for _, kind := range testKinds {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) { f(t, kind) })
	}
}

// Paranoid Heap, automatically verifies after every mutation.
type pHeap struct {
	*Heap
	t      testing.TB
	errors []error
}

func newPHeap(t testing.TB, size int, kind Kind) *pHeap {
	h, err := New(make([]byte, size), kind)
	if err != nil {
		t.Fatal(err)
	}

	p := &pHeap{Heap: h, t: t}
	p.check("New")
	return p
}

func (p *pHeap) logger(err error) bool {
	p.errors = append(p.errors, err)
	return len(p.errors) < 100
}

func (p *pHeap) check(op string) {
	p.errors = p.errors[:0]
	if err := p.Heap.Verify(p.logger, nil); err != nil {
		s := make([]string, len(p.errors))
		for i, e := range p.errors {
			s[i] = e.Error()
		}
		var b bytes.Buffer
		if *oDump {
			p.Heap.Dump(&b)
		}
		p.t.Fatalf("%s: %v\n%s\n%s", op, err, strings.Join(s, "\n"), b.Bytes())
	}
}

func (p *pHeap) alloc(n int64) int64 {
	off, err := p.Heap.Alloc(n)
	if err != nil {
		if _, ok := err.(*ErrNOMEM); ok {
			p.check(fmt.Sprintf("Alloc(%d) nomem", n))
			return 0
		}

		p.t.Fatalf("Alloc(%d): %v", n, err)
	}

	p.check(fmt.Sprintf("Alloc(%d)", n))
	return off
}

func (p *pHeap) free(off int64) {
	if err := p.Heap.Free(off); err != nil {
		p.t.Fatalf("Free(%#x): %v", off, err)
	}

	p.check(fmt.Sprintf("Free(%#x)", off))
}

func (p *pHeap) realloc(off, n int64) int64 {
	noff, err := p.Heap.Realloc(off, n)
	if err != nil {
		if _, ok := err.(*ErrNOMEM); ok {
			p.check(fmt.Sprintf("Realloc(%#x, %d) nomem", off, n))
			return 0
		}

		p.t.Fatalf("Realloc(%#x, %d): %v", off, n, err)
	}

	p.check(fmt.Sprintf("Realloc(%#x, %d)", off, n))
	return noff
}

// fill writes a recognizable pattern into the client space at off.
func (p *pHeap) fill(off int64, seed byte) {
	b := p.Bytes(off)
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// verifyFill checks the first n pattern bytes at off.
func (p *pHeap) verifyFill(off, n int64, seed byte) {
	b := p.Bytes(off)
	if int64(len(b)) < n {
		n = int64(len(b))
	}
	for i := int64(0); i < n; i++ {
		if g, e := b[i], seed+byte(i); g != e {
			p.t.Fatalf("client data @%#x+%d: %#x != %#x", off, i, g, e)
		}
	}
}

// ilseqType reports whether a Verify error log holds an ErrILSEQ of type typ.
func ilseqType(errors []error, typ ErrType) bool {
	for _, e := range errors {
		if x, ok := e.(*ErrILSEQ); ok && x.Type == typ {
			return true
		}
	}
	return false
}
