// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Value is an instance of the binary value format.  A value holds exactly
// one of three payload shapes: a tree of child values (builder-constructed),
// a serialized byte span (loaded from wire bytes, or sliced out of a parent
// container whose buffer it borrows), or a release-callback sentinel.
//
// Values are reference counted.  A newly constructed value is floating; it
// is sunk when stored into a container or claimed with RefSink.  The
// condition set of a value (serialized form, byte order, trust, size,
// independence) is promoted lazily and monotonically; see state.go.
//
// A Value is safe for concurrent use by multiple goroutines holding
// independent references.
type Value struct {
	typ   *Type
	size  int // valid once condSizeKnown holds
	state atomic.Uint32
	rf    atomic.Uint32 // reference count plus the floating flag
	mu    sync.Mutex    // guards condition transitions and payload fields

	children []*Value
	bytes    []byte
	source   *Value // non-nil when bytes are borrowed
	notify   func() // release callback, condNotify sentinel only
}

const floatingFlag = 1 << 31

func newValue(t *Type, c condition) *Value {
	v := &Value{typ: t}
	v.rf.Store(floatingFlag | 1)
	v.state.Store(uint32(impliesClosure(c)))
	return v
}

// newSerialized wraps an independently owned byte buffer known to be in
// native byte order.  Trust is up to the caller.
func newSerialized(t *Type, data []byte, trusted bool) *Value {
	c := condSerialized | condIndependent | condSourceNative | condSizeKnown
	if trusted {
		c |= condSourceTrusted
	}
	if t.fixedSize > 0 {
		c |= condFixedSize
	}
	v := newValue(t, c)
	v.bytes = data
	v.size = len(data)
	return v
}

// newTree wraps an ordered set of non-floating child references.  Fresh
// trees are native by construction.
func newTree(t *Type, children []*Value, trusted bool) *Value {
	c := condIndependent | condNative
	if trusted {
		c |= condTrusted
	}
	if t.fixedSize > 0 {
		c |= condFixedSize | condSizeKnown | condSizeValid
	}
	v := newValue(t, c)
	v.children = children
	if t.fixedSize > 0 {
		v.size = t.fixedSize
	}
	return v
}

func (v *Value) checkReal(method string) {
	if v == nil || v.typ == nil {
		panic(fmt.Errorf("gvariant: %s on a non-value sentinel", method))
	}
}

// Type returns the type of v.
func (v *Value) Type() *Type {
	v.checkReal("Type")
	return v.typ
}

// Kind classifies v by its type class.
func (v *Value) Kind() Kind {
	v.checkReal("Kind")
	return v.typ.kind
}

// IsTrusted reports whether the value's content is already known to be in
// fully-normalized form.  This is a plain bit test; it never validates.
func (v *Value) IsTrusted() bool {
	return v.conditions()&condTrusted != 0
}

// IsNormalForm validates the value's content on demand, caching a positive
// answer forever.  Untrusted malformed data reports false and is otherwise
// untouched.
func (v *Value) IsNormalForm() bool {
	v.checkReal("IsNormalForm")
	return v.tryEnable(condTrusted)
}

// Ref adds a reference to v.
func (v *Value) Ref() *Value {
	for {
		old := v.rf.Load()
		if old&^floatingFlag == 0 {
			panic(fmt.Errorf("gvariant: Ref on a finalized value"))
		}
		if v.rf.CompareAndSwap(old, old+1) {
			return v
		}
	}
}

// RefSink claims a floating reference: if v is floating the flag is cleared
// and the implicit reference becomes the caller's, otherwise a new
// reference is added.  Idempotent with respect to the floating flag.
func (v *Value) RefSink() *Value {
	for {
		old := v.rf.Load()
		if old&^floatingFlag == 0 {
			panic(fmt.Errorf("gvariant: RefSink on a finalized value"))
		}
		if old&floatingFlag == 0 {
			if v.rf.CompareAndSwap(old, old+1) {
				return v
			}
			continue
		}
		if v.rf.CompareAndSwap(old, old&^floatingFlag) {
			return v
		}
	}
}

// Unref drops a reference.  When the last reference drops, tree children
// and the source reference are released recursively, and a release
// callback sentinel fires its callback.
func (v *Value) Unref() {
	for {
		old := v.rf.Load()
		if old&^floatingFlag == 0 {
			panic(fmt.Errorf("gvariant: Unref on a finalized value"))
		}
		if !v.rf.CompareAndSwap(old, old-1) {
			continue
		}
		if old&^floatingFlag == 1 {
			v.finalize()
		}
		return
	}
}

// IsFloating reports whether v is still floating (not yet owned).
func (v *Value) IsFloating() bool {
	return v.rf.Load()&floatingFlag != 0
}

func (v *Value) finalize() {
	v.mu.Lock()
	children, source, notify := v.children, v.source, v.notify
	v.children, v.source, v.notify = nil, nil, nil
	v.mu.Unlock()
	for _, c := range children {
		c.Unref()
	}
	if source != nil {
		source.Unref()
	}
	if notify != nil {
		notify()
	}
}

// NumChildren returns the number of children in a container value.
// Corrupt untrusted framing reports 0.
func (v *Value) NumChildren() int {
	v.checkReal("NumChildren")
	v.typ.checkKind("NumChildren", Variant, Maybe, Array, Tuple, DictEntry)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conditions()&condSerialized != 0 {
		return serializedNChildren(v.typ, v.bytes)
	}
	return len(v.children)
}

// Child returns the child value at the given index.  The returned value is
// a new reference owned by the caller.  The index must be in range of
// NumChildren; an out-of-range index is a programming error.
//
// For serialized containers the child borrows the parent's buffer and is
// materialized lazily; corrupt framing under a would-be fixed-size child
// substitutes a shared zero buffer of the right size, so callers always
// receive a validly-typed result from untrusted input.
func (v *Value) Child(index int) *Value {
	v.checkReal("Child")
	v.typ.checkKind("Child", Variant, Maybe, Array, Tuple, DictEntry)
	v.mu.Lock()
	if v.conditions()&condSerialized == 0 {
		if index < 0 || index >= len(v.children) {
			v.mu.Unlock()
			panic(fmt.Errorf("gvariant: Child index %d out of range on %q", index, v.typ))
		}
		c := v.children[index]
		v.mu.Unlock()
		return c.Ref()
	}
	data := v.bytes
	st := v.conditions()
	src := v.source
	if src == nil {
		src = v
	}
	v.mu.Unlock()

	if index < 0 || index >= serializedNChildren(v.typ, data) {
		panic(fmt.Errorf("gvariant: Child index %d out of range on %q", index, v.typ))
	}
	ct, start, end, ok := serializedChild(v.typ, data, index)
	if !ok || (ct.fixedSize > 0 && end-start != ct.fixedSize) {
		if fs := ct.fixedSize; fs > 0 {
			// Same-sized, all-zero stand-in for the broken child.
			return newSerialized(ct, zeroFill(fs), true).RefSink()
		}
		start, end = 0, 0
		data = nil
	}
	c := condSerialized | condSizeKnown
	if ct.fixedSize > 0 {
		c |= condFixedSize
	}
	if st&condNative != 0 {
		c |= condSourceNative
	}
	if st&condTrusted != 0 {
		c |= condSourceTrusted
	}
	child := newValue(ct, c)
	if data != nil {
		child.bytes = data[start:end]
		child.source = src.Ref()
	}
	child.size = end - start
	return child.RefSink()
}

// Size returns the serialized byte size of the value, computing and caching
// it if needed.
func (v *Value) Size() int {
	v.checkReal("Size")
	v.require(condSizeValid)
	return v.size
}

// Data returns the value's serialized bytes in native byte order,
// materializing them on first use.  The returned slice must be treated as
// read-only and not used after the last reference to v (or a value
// containing v) is dropped.
func (v *Value) Data() []byte {
	v.checkReal("Data")
	v.require(condSerialized | condNative | condSizeValid)
	if v.typ.kind == Array && v.typ.elem.fixedSize > 0 &&
		v.size%v.typ.elem.fixedSize != 0 {
		// Size inherited from a corrupt parent; re-derive a well-framed
		// private form so fixed-stride access stays sound.
		v.require(condReconstructed)
	}
	v.mu.Lock()
	b := v.bytes
	v.mu.Unlock()
	return b
}

// Store writes the value's serialized bytes into dst, which must be at
// least Size bytes long.  Tree values are written directly without
// materializing an intermediate buffer.
func (v *Value) Store(dst []byte) {
	v.checkReal("Store")
	v.require(condNative | condSizeValid)
	if len(dst) < v.size {
		panic(fmt.Errorf("gvariant: Store into %d bytes, need %d", len(dst), v.size))
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conditions()&condSerialized != 0 {
		copy(dst, v.bytes)
		return
	}
	ch := v.children
	// The serializer skips padding bytes, so the span must start zeroed.
	clear(dst[:v.size])
	serializeInto(dst[:v.size], v.typ, len(ch), func(i int) *Value { return ch[i] })
}

// Flatten forces the value into its serialized, native-order form and
// returns v.  A second Flatten is an O(1) no-op.
func (v *Value) Flatten() *Value {
	v.checkReal("Flatten")
	v.require(condSerialized | condNative | condSizeValid)
	return v
}

// DeepCopy returns a new floating value with the same type and content and
// no aliasing into any other value's buffer: leaves are copied out byte by
// byte and containers are rebuilt through a Builder.
func (v *Value) DeepCopy() *Value {
	v.checkReal("DeepCopy")
	if !v.typ.IsContainer() {
		v.require(condSerialized | condNative | condSizeValid)
		v.mu.Lock()
		b := make([]byte, len(v.bytes))
		copy(b, v.bytes)
		v.mu.Unlock()
		return newSerialized(v.typ, b, v.IsTrusted())
	}
	b := NewBuilder(v.typ)
	n := v.NumChildren()
	for i := 0; i < n; i++ {
		c := v.Child(i)
		cp := c.DeepCopy()
		b.Add(cp)
		c.Unref()
	}
	return b.End()
}

// Equal reports whether a and b have the same type and identical serialized
// content.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.typ != b.typ || a.Size() != b.Size() {
		return false
	}
	ab, bb := a.Data(), b.Data()
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}

// Condition enable functions; all run with v.mu held.

func (v *Value) enableNativeByteswap() bool {
	byteswapData(v.typ, v.bytes)
	v.setConditionsLocked(condBecameNative)
	return true
}

func (v *Value) enableTrustedValidate() bool {
	if !isNormal(v.typ, v.bytes) {
		return false
	}
	v.setConditionsLocked(condBecameTrusted)
	return true
}

func (v *Value) enableSizeFromType() bool {
	v.size = v.typ.fixedSize
	return true
}

func (v *Value) enableSizeFromBytes() bool {
	v.size = len(v.bytes)
	return true
}

func (v *Value) enableSizeFromTree() bool {
	if v.conditions()&(condSerialized|condNotify) != 0 || !v.typ.IsContainer() {
		return false
	}
	ch := v.children
	v.size = neededSize(v.typ, len(ch), func(i int) *Value { return ch[i] })
	return true
}

func (v *Value) enableSerialize() bool {
	if v.conditions()&condNotify != 0 || !v.typ.IsContainer() {
		return false
	}
	ch := v.children
	buf := make([]byte, v.size)
	serializeInto(buf, v.typ, len(ch), func(i int) *Value { return ch[i] })
	v.bytes = buf
	v.children = nil
	for _, c := range ch {
		c.Unref()
	}
	v.setConditionsLocked(condIndependent)
	return true
}

func (v *Value) enableIndependent() bool {
	buf := make([]byte, len(v.bytes))
	copy(buf, v.bytes)
	v.bytes = buf
	if v.source != nil {
		// The source's conditions may have grown since this value was
		// sliced out of it; in particular a byte-swap of the shared
		// buffer happens in place, so what was just copied is in
		// whatever order the source is in now, not the order seen at
		// slicing time.  Re-read the source and credit its current
		// NATIVE/TRUSTED state to the copy.
		st := v.conditions()
		srcSt := v.source.conditions()
		var add condition
		if srcSt&condNative != 0 && st&condNative == 0 {
			add |= condSourceNative
		}
		if srcSt&condTrusted != 0 && st&condTrusted == 0 {
			add |= condSourceTrusted
		}
		if add != 0 {
			v.setConditionsLocked(add)
		}
		v.source.Unref()
		v.source = nil
	}
	return true
}

func (v *Value) enableReconstruct() bool {
	if v.typ.kind != Array || v.typ.elem.fixedSize == 0 {
		return false
	}
	fs := v.typ.elem.fixedSize
	n := serializedNChildren(v.typ, v.bytes)
	buf := make([]byte, n*fs)
	for i := 0; i < n; i++ {
		if _, s, e, ok := serializedChild(v.typ, v.bytes, i); ok && e-s == fs {
			copy(buf[i*fs:], v.bytes[s:e])
		}
	}
	if v.source != nil {
		v.source.Unref()
		v.source = nil
	}
	v.bytes = buf
	v.size = len(buf)
	return true
}

// assertInvariant verifies the value against the condition lattice and the
// ownership rules, recursively.  It is meant for tests and debugging.
func (v *Value) assertInvariant() {
	if v.rf.Load()&^floatingFlag == 0 {
		panic(fmt.Errorf("gvariant: invariant: zero refcount"))
	}
	st := v.conditions()
	for i := 0; i < condCount; i++ {
		bit := condition(1 << i)
		rule := conditionRules[i]
		if st&bit != 0 {
			if st&rule.implies != rule.implies {
				panic(fmt.Errorf("gvariant: invariant: %v set without %v", bit, rule.implies))
			}
			if st&rule.forbids != 0 {
				panic(fmt.Errorf("gvariant: invariant: %v set with forbidden %v", bit, st&rule.forbids))
			}
		} else if st&rule.absenceImplies != rule.absenceImplies {
			panic(fmt.Errorf("gvariant: invariant: missing %v requires %v", bit, rule.absenceImplies))
		}
	}
	v.mu.Lock()
	children, source := v.children, v.source
	v.mu.Unlock()
	for _, c := range children {
		if c.IsFloating() {
			panic(fmt.Errorf("gvariant: invariant: floating tree child"))
		}
		if st&condTrusted != 0 && !c.IsTrusted() {
			panic(fmt.Errorf("gvariant: invariant: trusted parent with untrusted child"))
		}
		c.assertInvariant()
	}
	if source != nil {
		source.assertInvariant()
	}
}
