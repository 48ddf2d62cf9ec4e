// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import "iter"

// Iter walks the children of a container value in order.  The iterator
// caches the last yielded child and releases it on the following Next, so
// callers that do not keep children past one step never touch the
// reference counts; a caller keeping a child must Ref it.  The container
// reference is dropped automatically on exhaustion.  An Iter is not safe
// for concurrent use.
type Iter struct {
	v         *Value
	cur       *Value
	n         int
	next      int
	cancelled bool
}

// NewIter returns an iterator over the children of container v.  An empty
// container takes no reference at all.
func NewIter(v *Value) *Iter {
	v.checkReal("NewIter")
	v.typ.checkKind("NewIter", Variant, Maybe, Array, Tuple, DictEntry)
	it := &Iter{n: v.NumChildren()}
	if it.n > 0 {
		it.v = v.Ref()
	}
	return it
}

// Len returns the total number of children.
func (it *Iter) Len() int { return it.n }

// Next returns the next child, or nil when the iteration is done.  The
// returned value stays valid until the next call to Next or Cancel; past
// the end, Next keeps returning nil.
func (it *Iter) Next() *Value {
	if it.cur != nil {
		it.cur.Unref()
		it.cur = nil
	}
	if it.v == nil || it.next >= it.n {
		it.release()
		return nil
	}
	it.cur = it.v.Child(it.next)
	it.next++
	if it.next == it.n {
		it.release()
	}
	return it.cur
}

// Cancel drops the cached child and the container reference immediately.
// Safe to call repeatedly and after exhaustion.
func (it *Iter) Cancel() {
	it.cancelled = true
	if it.cur != nil {
		it.cur.Unref()
		it.cur = nil
	}
	it.release()
	it.next = it.n
}

// WasCancelled reports whether Cancel has been called.
func (it *Iter) WasCancelled() bool { return it.cancelled }

func (it *Iter) release() {
	if it.v != nil {
		it.v.Unref()
		it.v = nil
	}
}

// Children returns a range-over-func iterator over the children of
// container v.  Each yielded child is released after its loop body, so a
// body keeping a child must Ref it.
func (v *Value) Children() iter.Seq2[int, *Value] {
	v.checkReal("Children")
	v.typ.checkKind("Children", Variant, Maybe, Array, Tuple, DictEntry)
	return func(yield func(int, *Value) bool) {
		n := v.NumChildren()
		for i := 0; i < n; i++ {
			c := v.Child(i)
			ok := yield(i, c)
			c.Unref()
			if !ok {
				return
			}
		}
	}
}

// Item returns a new reference to the child at index i of a tuple or dict
// entry value.
func (v *Value) Item(i int) *Value {
	v.checkReal("Item")
	v.typ.checkKind("Item", Tuple, DictEntry)
	return v.Child(i)
}
