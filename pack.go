// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"fmt"
	"reflect"
	"sort"
)

// Pack converts a Go value into a Value of the given type, or of the
// natural type for x when t is nil.  The mapping is structural:
//
//	bool                    b
//	uint8/16/32/64          y q u t
//	int16/32/64             n i x
//	float64                 d
//	string                  s (o, g with an explicit t)
//	*T / nil pointer        mT
//	[]T                     aT   ([]byte of an ay goes in without boxing)
//	map[K]V                 a{KV}, entries in sorted key order
//	struct                  tuple of the exported fields in order
//	*Value                  taken as-is (must match t when t is given)
//
// A *Value is passed through unchanged, keeping whatever reference state
// it arrived with.  Newly built values are returned floating.
func Pack(t *Type, x any) (*Value, error) {
	if v, ok := x.(*Value); ok {
		if t != nil && !v.Type().Matches(t) {
			return nil, fmt.Errorf("gvariant: Pack: value type %q does not match %q", v.Type(), t)
		}
		return v, nil
	}
	return packReflect(t, reflect.ValueOf(x))
}

// MustPack is Pack that panics on conversion failure.
func MustPack(t *Type, x any) *Value {
	v, err := Pack(t, x)
	if err != nil {
		panic(err)
	}
	return v
}

func packReflect(t *Type, rv reflect.Value) (*Value, error) {
	if !rv.IsValid() {
		return nil, fmt.Errorf("gvariant: Pack: nil needs a maybe type, got %q", t)
	}
	if t != nil && !t.definite {
		// Narrow the pattern using the Go type, then re-check below.
		t = nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		return packed(t, NewBool(rv.Bool()))
	case reflect.Uint8:
		return packed(t, NewByte(byte(rv.Uint())))
	case reflect.Uint16:
		return packed(t, NewUint16(uint16(rv.Uint())))
	case reflect.Uint32:
		return packed(t, NewUint32(uint32(rv.Uint())))
	case reflect.Uint64, reflect.Uint:
		return packed(t, NewUint64(rv.Uint()))
	case reflect.Int16:
		return packed(t, NewInt16(int16(rv.Int())))
	case reflect.Int32:
		return packed(t, NewInt32(int32(rv.Int())))
	case reflect.Int64, reflect.Int:
		return packed(t, NewInt64(rv.Int()))
	case reflect.Float64, reflect.Float32:
		return packed(t, NewDouble(rv.Float()))
	case reflect.String:
		s := rv.String()
		if t != nil {
			switch t.kind {
			case ObjectPath:
				return NewObjectPath(s), nil
			case Signature:
				return NewSignature(s), nil
			}
		}
		if !validStringContent(s) {
			return nil, fmt.Errorf("gvariant: Pack: invalid string %q", s)
		}
		return packed(t, NewString(s))
	case reflect.Pointer:
		var et *Type
		if t != nil {
			if t.kind != Maybe {
				return nil, fmt.Errorf("gvariant: Pack: pointer needs a maybe type, got %q", t)
			}
			et = t.elem
		}
		if rv.IsNil() {
			if et == nil {
				var err error
				if et, err = naturalType(rv.Type().Elem()); err != nil {
					return nil, err
				}
			}
			return NewMaybe(et, nil), nil
		}
		child, err := packReflect(et, rv.Elem())
		if err != nil {
			return nil, err
		}
		return NewMaybe(nil, child), nil
	case reflect.Slice, reflect.Array:
		return packSlice(t, rv)
	case reflect.Map:
		return packMap(t, rv)
	case reflect.Struct:
		return packStruct(t, rv)
	default:
		return nil, fmt.Errorf("gvariant: Pack: unsupported Go kind %v", rv.Kind())
	}
}

// packed enforces an expected type on a freshly built value.
func packed(t *Type, v *Value) (*Value, error) {
	if t != nil && v.Type() != t {
		vt := v.Type()
		v.RefSink()
		v.Unref()
		return nil, fmt.Errorf("gvariant: Pack: built %q, want %q", vt, t)
	}
	return v, nil
}

func packSlice(t *Type, rv reflect.Value) (*Value, error) {
	var et *Type
	if t != nil {
		if t.kind != Array {
			return nil, fmt.Errorf("gvariant: Pack: slice needs an array type, got %q", t)
		}
		et = t.elem
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 &&
		(et == nil || et == ByteType) {
		// Flat path for ay.
		return NewFixedArray(ByteType, rv.Bytes()), nil
	}
	if et == nil {
		var err error
		if et, err = naturalType(rv.Type().Elem()); err != nil {
			return nil, err
		}
	}
	b := NewBuilder(ArrayOf(et))
	for i := 0; i < rv.Len(); i++ {
		c, err := packReflect(et, rv.Index(i))
		if err != nil {
			b.Cancel()
			return nil, err
		}
		b.Add(c)
	}
	return b.End(), nil
}

func packMap(t *Type, rv reflect.Value) (*Value, error) {
	var kt, vt *Type
	if t != nil {
		if t.kind != Array || t.elem.kind != DictEntry {
			return nil, fmt.Errorf("gvariant: Pack: map needs a dictionary type, got %q", t)
		}
		kt, vt = t.elem.key, t.elem.val
	} else {
		var err error
		if kt, err = naturalType(rv.Type().Key()); err != nil {
			return nil, err
		}
		if vt, err = naturalType(rv.Type().Elem()); err != nil {
			return nil, err
		}
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return mapKeyLess(keys[i], keys[j]) })
	b := NewBuilder(ArrayOf(DictEntryOf(kt, vt)))
	for _, k := range keys {
		kv, err := packReflect(kt, k)
		if err != nil {
			b.Cancel()
			return nil, err
		}
		vv, err := packReflect(vt, rv.MapIndex(k))
		if err != nil {
			kv.RefSink()
			kv.Unref()
			b.Cancel()
			return nil, err
		}
		b.Add(NewDictEntry(kv, vv))
	}
	return b.End(), nil
}

func mapKeyLess(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.String:
		return a.String() < b.String()
	case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() < b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return a.Uint() < b.Uint()
	case reflect.Bool:
		return !a.Bool() && b.Bool()
	default:
		return false
	}
}

func packStruct(t *Type, rv reflect.Value) (*Value, error) {
	rt := rv.Type()
	var fields []int
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).IsExported() {
			fields = append(fields, i)
		}
	}
	if t != nil && (t.kind != Tuple || len(t.items) != len(fields)) {
		return nil, fmt.Errorf("gvariant: Pack: struct %v does not fit %q", rt, t)
	}
	children := make([]*Value, 0, len(fields))
	for i, fi := range fields {
		var ft *Type
		if t != nil {
			ft = t.items[i]
		}
		c, err := packReflect(ft, rv.Field(fi))
		if err != nil {
			for _, done := range children {
				done.RefSink()
				done.Unref()
			}
			return nil, err
		}
		children = append(children, c)
	}
	return NewTuple(children...), nil
}

func naturalType(rt reflect.Type) (*Type, error) {
	switch rt.Kind() {
	case reflect.Bool:
		return BoolType, nil
	case reflect.Uint8:
		return ByteType, nil
	case reflect.Uint16:
		return Uint16Type, nil
	case reflect.Uint32:
		return Uint32Type, nil
	case reflect.Uint64, reflect.Uint:
		return Uint64Type, nil
	case reflect.Int16:
		return Int16Type, nil
	case reflect.Int32:
		return Int32Type, nil
	case reflect.Int64, reflect.Int:
		return Int64Type, nil
	case reflect.Float32, reflect.Float64:
		return DoubleType, nil
	case reflect.String:
		return StringType, nil
	case reflect.Pointer:
		et, err := naturalType(rt.Elem())
		if err != nil {
			return nil, err
		}
		return MaybeOf(et), nil
	case reflect.Slice, reflect.Array:
		et, err := naturalType(rt.Elem())
		if err != nil {
			return nil, err
		}
		return ArrayOf(et), nil
	case reflect.Map:
		kt, err := naturalType(rt.Key())
		if err != nil {
			return nil, err
		}
		vt, err := naturalType(rt.Elem())
		if err != nil {
			return nil, err
		}
		return ArrayOf(DictEntryOf(kt, vt)), nil
	case reflect.Struct:
		var items []*Type
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			ft, err := naturalType(f.Type)
			if err != nil {
				return nil, err
			}
			items = append(items, ft)
		}
		return TupleOf(items...), nil
	default:
		return nil, fmt.Errorf("gvariant: no value type for Go type %v", rt)
	}
}

// Unpack converts the value into the Go value pointed to by dst, the
// inverse of Pack.  Variants unbox transparently when dst is not a
// **Value.  Untrusted damaged content unpacks as zero values.
func (v *Value) Unpack(dst any) error {
	v.checkReal("Unpack")
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("gvariant: Unpack needs a non-nil pointer, got %T", dst)
	}
	return v.unpackReflect(rv.Elem())
}

func (v *Value) unpackReflect(rv reflect.Value) error {
	if rv.Type() == reflect.TypeOf((*Value)(nil)) {
		rv.Set(reflect.ValueOf(v.Ref()))
		return nil
	}
	if v.typ.kind == Variant && rv.Kind() != reflect.Pointer {
		child := v.VariantValue()
		defer child.Unref()
		return child.unpackReflect(rv)
	}
	switch rv.Kind() {
	case reflect.Bool:
		v.typ.checkKind("Unpack", Bool)
		rv.SetBool(v.Bool())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		v.typ.checkKind("Unpack", Byte, Uint16, Uint32, Uint64)
		rv.SetUint(v.Uint())
	case reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		v.typ.checkKind("Unpack", Int16, Int32, Int64, Handle)
		rv.SetInt(v.Int())
	case reflect.Float32, reflect.Float64:
		v.typ.checkKind("Unpack", Double)
		rv.SetFloat(v.Double())
	case reflect.String:
		v.typ.checkKind("Unpack", String, ObjectPath, Signature)
		rv.SetString(v.Str())
	case reflect.Pointer:
		v.typ.checkKind("Unpack", Maybe)
		child := v.MaybeValue()
		if child == nil {
			rv.SetZero()
			return nil
		}
		defer child.Unref()
		p := reflect.New(rv.Type().Elem())
		if err := child.unpackReflect(p.Elem()); err != nil {
			return err
		}
		rv.Set(p)
	case reflect.Slice:
		v.typ.checkKind("Unpack", Array)
		if rv.Type().Elem().Kind() == reflect.Uint8 && v.typ.elem == ByteType {
			b := v.FixedArray()
			out := make([]byte, len(b))
			copy(out, b)
			rv.SetBytes(out)
			return nil
		}
		n := v.NumChildren()
		out := reflect.MakeSlice(rv.Type(), n, n)
		for i := 0; i < n; i++ {
			c := v.Child(i)
			err := c.unpackReflect(out.Index(i))
			c.Unref()
			if err != nil {
				return err
			}
		}
		rv.Set(out)
	case reflect.Map:
		v.typ.checkKind("Unpack", Array)
		v.typ.elem.checkKind("Unpack", DictEntry)
		out := reflect.MakeMapWithSize(rv.Type(), v.NumChildren())
		n := v.NumChildren()
		for i := 0; i < n; i++ {
			entry := v.Child(i)
			k := reflect.New(rv.Type().Key()).Elem()
			val := reflect.New(rv.Type().Elem()).Elem()
			kc := entry.Child(0)
			err := kc.unpackReflect(k)
			kc.Unref()
			if err == nil {
				vc := entry.Child(1)
				err = vc.unpackReflect(val)
				vc.Unref()
			}
			entry.Unref()
			if err != nil {
				return err
			}
			out.SetMapIndex(k, val)
		}
		rv.Set(out)
	case reflect.Struct:
		v.typ.checkKind("Unpack", Tuple, DictEntry)
		rt := rv.Type()
		idx := 0
		for i := 0; i < rt.NumField(); i++ {
			if !rt.Field(i).IsExported() {
				continue
			}
			if idx >= v.NumChildren() {
				return fmt.Errorf("gvariant: Unpack: struct %v wants more fields than %q has", rt, v.typ)
			}
			c := v.Child(idx)
			err := c.unpackReflect(rv.Field(i))
			c.Unref()
			if err != nil {
				return err
			}
			idx++
		}
	default:
		return fmt.Errorf("gvariant: Unpack: unsupported Go kind %v", rv.Kind())
	}
	return nil
}
