// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

// LookupValue searches a dictionary (an array of dict entries with string
// keys) for key and returns a new reference to the matching entry's value,
// or nil if the key is absent.  If expected is non-nil and the stored
// value is a variant whose child matches expected, the child is unboxed;
// a non-nil expected that the (unboxed) value does not match also yields
// nil.  Duplicate keys resolve to the first match.
func (v *Value) LookupValue(key string, expected *Type) *Value {
	v.checkReal("LookupValue")
	v.typ.checkKind("LookupValue", Array)
	v.typ.elem.checkKind("LookupValue", DictEntry)
	v.typ.elem.key.checkKind("LookupValue", String, ObjectPath, Signature)

	n := v.NumChildren()
	for i := 0; i < n; i++ {
		entry := v.Child(i)
		k := entry.Child(0)
		match := k.Str() == key
		k.Unref()
		if !match {
			entry.Unref()
			continue
		}
		val := entry.Child(1)
		entry.Unref()
		if expected == nil {
			return val
		}
		if val.typ.kind == Variant && !VariantType.Matches(expected) {
			inner := val.VariantValue()
			val.Unref()
			val = inner
		}
		if !val.typ.Matches(expected) {
			val.Unref()
			return nil
		}
		return val
	}
	return nil
}

// Lookup is LookupValue for dictionaries of variants holding strings: it
// returns the string stored under key, or ok=false when the key is absent
// or holds something other than a string.
func (v *Value) Lookup(key string) (s string, ok bool) {
	val := v.LookupValue(key, StringType)
	if val == nil {
		return "", false
	}
	s = val.Str()
	val.Unref()
	return s, true
}
