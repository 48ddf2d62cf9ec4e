// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Constructors.  Every constructor returns a new floating reference; store
// it in a container, sink it with RefSink, or pass it to a varargs helper
// to claim it.

// NewBool returns a new boolean value.
func NewBool(b bool) *Value {
	data := []byte{0}
	if b {
		data[0] = 1
	}
	return newSerialized(BoolType, data, true)
}

// NewByte returns a new byte value.
func NewByte(b byte) *Value {
	return newSerialized(ByteType, []byte{b}, true)
}

// NewInt16 returns a new int16 value.
func NewInt16(i int16) *Value {
	data := make([]byte, 2)
	binary.NativeEndian.PutUint16(data, uint16(i))
	return newSerialized(Int16Type, data, true)
}

// NewUint16 returns a new uint16 value.
func NewUint16(u uint16) *Value {
	data := make([]byte, 2)
	binary.NativeEndian.PutUint16(data, u)
	return newSerialized(Uint16Type, data, true)
}

// NewInt32 returns a new int32 value.
func NewInt32(i int32) *Value {
	data := make([]byte, 4)
	binary.NativeEndian.PutUint32(data, uint32(i))
	return newSerialized(Int32Type, data, true)
}

// NewUint32 returns a new uint32 value.
func NewUint32(u uint32) *Value {
	data := make([]byte, 4)
	binary.NativeEndian.PutUint32(data, u)
	return newSerialized(Uint32Type, data, true)
}

// NewInt64 returns a new int64 value.
func NewInt64(i int64) *Value {
	data := make([]byte, 8)
	binary.NativeEndian.PutUint64(data, uint64(i))
	return newSerialized(Int64Type, data, true)
}

// NewUint64 returns a new uint64 value.
func NewUint64(u uint64) *Value {
	data := make([]byte, 8)
	binary.NativeEndian.PutUint64(data, u)
	return newSerialized(Uint64Type, data, true)
}

// NewHandle returns a new handle-index value.
func NewHandle(h int32) *Value {
	data := make([]byte, 4)
	binary.NativeEndian.PutUint32(data, uint32(h))
	return newSerialized(HandleType, data, true)
}

// NewDouble returns a new double-precision float value.
func NewDouble(d float64) *Value {
	data := make([]byte, 8)
	binary.NativeEndian.PutUint64(data, math.Float64bits(d))
	return newSerialized(DoubleType, data, true)
}

func newStringValue(t *Type, s string) *Value {
	data := make([]byte, len(s)+1)
	copy(data, s)
	return newSerialized(t, data, true)
}

// NewString returns a new string value.  The string must be valid UTF-8
// and contain no NUL bytes.
func NewString(s string) *Value {
	if !validStringContent(s) {
		panic(fmt.Errorf("gvariant: NewString with invalid string %q", s))
	}
	return newStringValue(StringType, s)
}

// NewObjectPath returns a new object path value.  The string must satisfy
// the object path grammar.
func NewObjectPath(s string) *Value {
	if !isObjectPathString(s) {
		panic(fmt.Errorf("gvariant: NewObjectPath with invalid path %q", s))
	}
	return newStringValue(ObjectPathType, s)
}

// NewSignature returns a new signature value.  The string must be a
// concatenation of definite type strings.
func NewSignature(s string) *Value {
	if !isSignatureString(s) {
		panic(fmt.Errorf("gvariant: NewSignature with invalid signature %q", s))
	}
	return newStringValue(SignatureType, s)
}

// NewVariant boxes child inside a new variant value, sinking child's
// floating reference.
func NewVariant(child *Value) *Value {
	child.checkReal("NewVariant")
	if !child.typ.definite {
		panic(fmt.Errorf("gvariant: NewVariant on indefinitely-typed child %q", child.typ))
	}
	return newTree(VariantType, []*Value{child.RefSink()}, child.IsTrusted())
}

// NewMaybe returns a new maybe value.  Exactly one of elemType and child
// may be nil: a nil child makes Nothing of the given type, a nil elemType
// infers the type from the child.  The child's floating reference is sunk.
func NewMaybe(elemType *Type, child *Value) *Value {
	if child == nil {
		if elemType == nil || !elemType.definite {
			panic(fmt.Errorf("gvariant: NewMaybe(nil) needs a definite element type"))
		}
		return newTree(MaybeOf(elemType), nil, true)
	}
	child.checkReal("NewMaybe")
	if elemType != nil && elemType != child.typ {
		panic(fmt.Errorf("gvariant: NewMaybe type %q does not match child %q", elemType, child.typ))
	}
	if !child.typ.definite {
		panic(fmt.Errorf("gvariant: NewMaybe on indefinitely-typed child %q", child.typ))
	}
	return newTree(MaybeOf(child.typ), []*Value{child.RefSink()}, child.IsTrusted())
}

// NewDictEntry returns a new dictionary entry value.  The key must be of a
// basic type.  Both floating references are sunk.
func NewDictEntry(key, val *Value) *Value {
	key.checkReal("NewDictEntry")
	val.checkReal("NewDictEntry")
	if !key.typ.IsBasic() {
		panic(fmt.Errorf("gvariant: NewDictEntry with non-basic key type %q", key.typ))
	}
	if !val.typ.definite {
		panic(fmt.Errorf("gvariant: NewDictEntry on indefinitely-typed value %q", val.typ))
	}
	t := DictEntryOf(key.typ, val.typ)
	trusted := key.IsTrusted() && val.IsTrusted()
	return newTree(t, []*Value{key.RefSink(), val.RefSink()}, trusted)
}

// NewTuple returns a new tuple value over the given children, in order.
// All floating references are sunk.  NewTuple() is the unit value.
func NewTuple(children ...*Value) *Value {
	items := make([]*Type, len(children))
	sunk := make([]*Value, len(children))
	trusted := true
	for i, c := range children {
		c.checkReal("NewTuple")
		if !c.typ.definite {
			panic(fmt.Errorf("gvariant: NewTuple on indefinitely-typed child %q", c.typ))
		}
		items[i] = c.typ
		sunk[i] = c.RefSink()
		trusted = trusted && c.IsTrusted()
	}
	return newTree(TupleOf(items...), sunk, trusted)
}

// NewUnit returns the empty tuple value.
func NewUnit() *Value {
	return newTree(UnitType, nil, true)
}

// NewArray returns a new array value.  Exactly one of elemType and a
// non-empty children list may determine the element type: pass elemType
// for empty arrays, or nil to infer it from the children, which must all
// share one definite type.  All floating references are sunk.
func NewArray(elemType *Type, children ...*Value) *Value {
	if len(children) == 0 {
		if elemType == nil || !elemType.definite {
			panic(fmt.Errorf("gvariant: empty NewArray needs a definite element type"))
		}
		return newTree(ArrayOf(elemType), nil, true)
	}
	sunk := make([]*Value, len(children))
	trusted := true
	for i, c := range children {
		c.checkReal("NewArray")
		if elemType == nil {
			elemType = c.typ
		}
		if c.typ != elemType {
			panic(fmt.Errorf("gvariant: NewArray element %d has type %q, want %q", i, c.typ, elemType))
		}
		sunk[i] = c.RefSink()
		trusted = trusted && c.IsTrusted()
	}
	if !elemType.definite {
		panic(fmt.Errorf("gvariant: NewArray with indefinite element type %q", elemType))
	}
	return newTree(ArrayOf(elemType), sunk, trusted)
}

// NewFixedArray builds an array of a fixed-size element type directly from
// a flat native-order byte slice holding n elements back to back.
func NewFixedArray(elemType *Type, data []byte) *Value {
	fs := elemType.fixedSize
	if fs == 0 {
		panic(fmt.Errorf("gvariant: NewFixedArray of variable-size type %q", elemType))
	}
	if len(data)%fs != 0 {
		panic(fmt.Errorf("gvariant: NewFixedArray data length %d not a multiple of %d", len(data), fs))
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return newSerialized(ArrayOf(elemType), buf, false)
}

// Accessors.  Each accessor panics when called on a value of the wrong
// type class; content-level damage in untrusted data never panics and
// degrades to a zero result instead.

func (v *Value) nativeBytes() []byte {
	v.require(condSerialized | condNative)
	v.mu.Lock()
	b := v.bytes
	v.mu.Unlock()
	return b
}

// Bool returns the content of a boolean value.
func (v *Value) Bool() bool {
	v.checkReal("Bool")
	v.typ.checkKind("Bool", Bool)
	b := v.nativeBytes()
	return len(b) == 1 && b[0] != 0
}

// Uint returns the content of an unsigned integer value (byte, uint16,
// uint32 or uint64), widened to uint64.
func (v *Value) Uint() uint64 {
	v.checkReal("Uint")
	v.typ.checkKind("Uint", Byte, Uint16, Uint32, Uint64)
	b := v.nativeBytes()
	if len(b) != v.typ.fixedSize {
		return 0
	}
	switch v.typ.kind {
	case Byte:
		return uint64(b[0])
	case Uint16:
		return uint64(binary.NativeEndian.Uint16(b))
	case Uint32:
		return uint64(binary.NativeEndian.Uint32(b))
	default:
		return binary.NativeEndian.Uint64(b)
	}
}

// Int returns the content of a signed integer value (int16, int32, int64
// or handle), widened to int64.
func (v *Value) Int() int64 {
	v.checkReal("Int")
	v.typ.checkKind("Int", Int16, Int32, Int64, Handle)
	b := v.nativeBytes()
	if len(b) != v.typ.fixedSize {
		return 0
	}
	switch v.typ.kind {
	case Int16:
		return int64(int16(binary.NativeEndian.Uint16(b)))
	case Int32, Handle:
		return int64(int32(binary.NativeEndian.Uint32(b)))
	default:
		return int64(binary.NativeEndian.Uint64(b))
	}
}

// Double returns the content of a double value.
func (v *Value) Double() float64 {
	v.checkReal("Double")
	v.typ.checkKind("Double", Double)
	b := v.nativeBytes()
	if len(b) != 8 {
		return 0
	}
	return math.Float64frombits(binary.NativeEndian.Uint64(b))
}

// Str returns the content of a string, object path or signature value.
// Malformed untrusted content yields "".
func (v *Value) Str() string {
	v.checkReal("Str")
	v.typ.checkKind("Str", String, ObjectPath, Signature)
	if v.IsTrusted() || v.IsNormalForm() {
		b := v.nativeBytes()
		return string(b[:len(b)-1])
	}
	return ""
}

// VariantValue unboxes a variant, returning a new reference to the child.
// Corrupt untrusted variant data yields the unit value.
func (v *Value) VariantValue() *Value {
	v.checkReal("VariantValue")
	v.typ.checkKind("VariantValue", Variant)
	return v.Child(0)
}

// MaybeValue returns a new reference to the element of a Just value, or
// nil for Nothing.
func (v *Value) MaybeValue() *Value {
	v.checkReal("MaybeValue")
	v.typ.checkKind("MaybeValue", Maybe)
	if v.NumChildren() == 0 {
		return nil
	}
	return v.Child(0)
}

// FixedArray returns the flat bytes of an array of a fixed-size element
// type, one element every Elem().FixedSize() bytes.  The slice aliases the
// value's serialized form and must be treated as read-only.
func (v *Value) FixedArray() []byte {
	v.checkReal("FixedArray")
	v.typ.checkKind("FixedArray", Array)
	if v.typ.elem.fixedSize == 0 {
		panic(fmt.Errorf("gvariant: FixedArray on array of variable-size %q", v.typ.elem))
	}
	return v.Data()
}
