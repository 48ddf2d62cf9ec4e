// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codec transcodes values between the native serialized form and
// deterministic CBOR, for interchange with systems that do not speak the
// native framing.  The transcoding is structural and lossy on type detail:
// object paths, signatures and strings all surface as CBOR text strings,
// and variants are flattened to their contents.  Decoding re-boxes variant
// contents by natural shape, with integers that fit boxed as int64.
package codec

import (
	"fmt"
	"math"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"gvariant.dev/gvariant"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Encode renders v as deterministic CBOR.
func Encode(v *gvariant.Value) ([]byte, error) {
	x, err := toGo(v)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(x)
}

// Decode parses CBOR and packs the result as a value of type t.
func Decode(t *gvariant.Type, data []byte) (*gvariant.Value, error) {
	var x any
	if err := cbor.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	v, err := fromGo(t, x)
	if err != nil {
		return nil, err
	}
	return v.RefSink(), nil
}

func toGo(v *gvariant.Value) (any, error) {
	switch v.Kind() {
	case gvariant.Bool:
		return v.Bool(), nil
	case gvariant.Byte, gvariant.Uint16, gvariant.Uint32, gvariant.Uint64:
		return v.Uint(), nil
	case gvariant.Int16, gvariant.Int32, gvariant.Int64, gvariant.Handle:
		return v.Int(), nil
	case gvariant.Double:
		return v.Double(), nil
	case gvariant.String, gvariant.ObjectPath, gvariant.Signature:
		return v.Str(), nil
	case gvariant.Variant:
		child := v.VariantValue()
		defer child.Unref()
		return toGo(child)
	case gvariant.Maybe:
		child := v.MaybeValue()
		if child == nil {
			return nil, nil
		}
		defer child.Unref()
		return toGo(child)
	case gvariant.Array:
		t := v.Type()
		if t.Elem().Kind() == gvariant.Byte {
			b := v.FixedArray()
			out := make([]byte, len(b))
			copy(out, b)
			return out, nil
		}
		if t.Elem().Kind() == gvariant.DictEntry {
			n := v.NumChildren()
			out := make(map[any]any, n)
			for i := 0; i < n; i++ {
				entry := v.Child(i)
				kc, vc := entry.Child(0), entry.Child(1)
				entry.Unref()
				k, err := toGo(kc)
				kc.Unref()
				if err != nil {
					vc.Unref()
					return nil, err
				}
				val, err := toGo(vc)
				vc.Unref()
				if err != nil {
					return nil, err
				}
				out[k] = val
			}
			return out, nil
		}
		return toGoList(v)
	default: // Tuple, DictEntry
		return toGoList(v)
	}
}

func toGoList(v *gvariant.Value) ([]any, error) {
	n := v.NumChildren()
	out := make([]any, n)
	for i := 0; i < n; i++ {
		c := v.Child(i)
		x, err := toGo(c)
		c.Unref()
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func fromGo(t *gvariant.Type, x any) (*gvariant.Value, error) {
	switch t.Kind() {
	case gvariant.Bool:
		b, ok := x.(bool)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewBool(b), nil
	case gvariant.Byte:
		u, ok := asUint(x)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewByte(byte(u)), nil
	case gvariant.Uint16:
		u, ok := asUint(x)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewUint16(uint16(u)), nil
	case gvariant.Uint32:
		u, ok := asUint(x)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewUint32(uint32(u)), nil
	case gvariant.Uint64:
		u, ok := asUint(x)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewUint64(u), nil
	case gvariant.Int16:
		i, ok := asInt(x)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewInt16(int16(i)), nil
	case gvariant.Int32:
		i, ok := asInt(x)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewInt32(int32(i)), nil
	case gvariant.Int64:
		i, ok := asInt(x)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewInt64(i), nil
	case gvariant.Handle:
		i, ok := asInt(x)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewHandle(int32(i)), nil
	case gvariant.Double:
		switch f := x.(type) {
		case float64:
			return gvariant.NewDouble(f), nil
		case float32:
			return gvariant.NewDouble(float64(f)), nil
		}
		return nil, typeErr(t, x)
	case gvariant.String:
		s, ok := x.(string)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewString(s), nil
	case gvariant.ObjectPath:
		s, ok := x.(string)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewObjectPath(s), nil
	case gvariant.Signature:
		s, ok := x.(string)
		if !ok {
			return nil, typeErr(t, x)
		}
		return gvariant.NewSignature(s), nil
	case gvariant.Variant:
		// Without type information, re-box using the natural shape.
		// CBOR erases integer signedness on the wire and Unmarshal hands
		// every non-negative integer back as uint64, so fold integers
		// that fit into int64: one canonical boxed type regardless of
		// which signed type was encoded.
		if u, ok := x.(uint64); ok && u <= math.MaxInt64 {
			x = int64(u)
		}
		child, err := gvariant.Pack(nil, x)
		if err != nil {
			return nil, err
		}
		return gvariant.NewVariant(child), nil
	case gvariant.Maybe:
		if x == nil {
			return gvariant.NewMaybe(t.Elem(), nil), nil
		}
		child, err := fromGo(t.Elem(), x)
		if err != nil {
			return nil, err
		}
		return gvariant.NewMaybe(nil, child), nil
	case gvariant.Array:
		return fromGoArray(t, x)
	case gvariant.Tuple, gvariant.DictEntry:
		items, ok := x.([]any)
		if !ok || len(items) != t.NumItems() {
			return nil, typeErr(t, x)
		}
		b := gvariant.NewBuilder(t)
		for i, item := range items {
			c, err := fromGo(t.Item(i), item)
			if err != nil {
				b.Cancel()
				return nil, err
			}
			b.Add(c)
		}
		return b.End(), nil
	}
	return nil, typeErr(t, x)
}

func fromGoArray(t *gvariant.Type, x any) (*gvariant.Value, error) {
	if t.Elem().Kind() == gvariant.Byte {
		if b, ok := x.([]byte); ok {
			return gvariant.MustPack(t, b), nil
		}
	}
	if t.Elem().Kind() == gvariant.DictEntry {
		m, ok := x.(map[any]any)
		if !ok {
			return nil, typeErr(t, x)
		}
		keys := make([]any, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		// Entry order must not depend on map iteration.
		sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })
		b := gvariant.NewBuilder(t)
		for _, k := range keys {
			val := m[k]
			kv, err := fromGo(t.Elem().Key(), k)
			if err != nil {
				b.Cancel()
				return nil, err
			}
			vv, err := fromGo(t.Elem().Val(), val)
			if err != nil {
				kv.RefSink()
				kv.Unref()
				b.Cancel()
				return nil, err
			}
			b.Add(gvariant.NewDictEntry(kv, vv))
		}
		return b.End(), nil
	}
	items, ok := x.([]any)
	if !ok {
		return nil, typeErr(t, x)
	}
	b := gvariant.NewBuilder(t)
	for _, item := range items {
		c, err := fromGo(t.Elem(), item)
		if err != nil {
			b.Cancel()
			return nil, err
		}
		b.Add(c)
	}
	return b.End(), nil
}

func keyLess(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case int64:
		bv, ok := b.(int64)
		return ok && av < bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av < bv
	case bool:
		bv, ok := b.(bool)
		return ok && !av && bv
	}
	return false
}

func asUint(x any) (uint64, bool) {
	switch n := x.(type) {
	case uint64:
		return n, true
	case int64:
		if n >= 0 {
			return uint64(n), true
		}
	}
	return 0, false
}

func asInt(x any) (int64, bool) {
	switch n := x.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func typeErr(t *gvariant.Type, x any) error {
	return fmt.Errorf("codec: cannot decode %T as %q", x, t)
}
