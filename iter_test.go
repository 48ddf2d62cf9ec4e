// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import "testing"

func TestIter(t *testing.T) {
	v := NewArray(nil, NewInt32(1), NewInt32(2), NewInt32(3)).RefSink()
	defer v.Unref()

	it := NewIter(v)
	if got, want := it.Len(), 3; got != want {
		t.Fatalf("Len got %d, want %d", got, want)
	}
	var got []int64
	for c := it.Next(); c != nil; c = it.Next() {
		got = append(got, c.Int())
	}
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("iterated %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d got %d, want %d", i, got[i], want[i])
		}
	}
	// Exhausted iterator keeps returning nil.
	if it.Next() != nil {
		t.Errorf("Next past the end did not return nil")
	}
	if it.WasCancelled() {
		t.Errorf("exhausted iterator reports cancelled")
	}
}

func TestIterCancel(t *testing.T) {
	v := NewArray(nil, NewString("a"), NewString("b")).RefSink()
	defer v.Unref()
	it := NewIter(v)
	c := it.Next()
	if got, want := c.Str(), "a"; got != want {
		t.Fatalf("first child got %q, want %q", got, want)
	}
	it.Cancel()
	if !it.WasCancelled() {
		t.Errorf("WasCancelled got false after Cancel")
	}
	if it.Next() != nil {
		t.Errorf("Next after Cancel did not return nil")
	}
	it.Cancel() // idempotent
}

func TestChildrenRange(t *testing.T) {
	v := NewArray(nil, NewString("a"), NewString("b"), NewString("c")).RefSink()
	defer v.Unref()
	var got string
	for i, c := range v.Children() {
		if i == 2 {
			break
		}
		got += c.Str()
	}
	if want := "ab"; got != want {
		t.Errorf("Children range got %q, want %q", got, want)
	}
}

func TestLookupValue(t *testing.T) {
	dict := NewArray(nil,
		NewDictEntry(NewString("name"), NewVariant(NewString("svc"))),
		NewDictEntry(NewString("port"), NewVariant(NewUint16(8080))),
		NewDictEntry(NewString("name"), NewVariant(NewString("shadowed"))),
	).RefSink()
	defer dict.Unref()

	// Unboxing on type match.
	v := dict.LookupValue("port", Uint16Type)
	if v == nil {
		t.Fatalf("LookupValue(port) got nil")
	}
	if got, want := v.Uint(), uint64(8080); got != want {
		t.Errorf("port got %d, want %d", got, want)
	}
	v.Unref()

	// nil expected type returns the variant as stored.
	v = dict.LookupValue("port", nil)
	if v == nil || v.Kind() != Variant {
		t.Fatalf("LookupValue(port, nil) got %v, want a variant", v)
	}
	v.Unref()

	// First of duplicate keys wins.
	s, ok := dict.Lookup("name")
	if !ok || s != "svc" {
		t.Errorf("Lookup(name) got %q, %v, want %q, true", s, ok, "svc")
	}

	// Absent key and type mismatch both miss.
	if v := dict.LookupValue("absent", nil); v != nil {
		t.Errorf("LookupValue(absent) got %v, want nil", v)
	}
	if v := dict.LookupValue("port", StringType); v != nil {
		t.Errorf("LookupValue(port, s) got %v, want nil", v)
	}
	if _, ok := dict.Lookup("port"); ok {
		t.Errorf("Lookup(port) found a string in a uint16 entry")
	}
}

func TestLookupOnSerializedDictionary(t *testing.T) {
	src := NewArray(nil,
		NewDictEntry(NewString("a"), NewInt32(1)),
		NewDictEntry(NewString("b"), NewInt32(2)),
	).RefSink()
	defer src.Unref()
	v := Load(src.Type(), src.Data(), 0)
	defer v.RefSink().Unref()
	got := v.LookupValue("b", Int32Type)
	if got == nil {
		t.Fatalf("LookupValue(b) got nil")
	}
	if n, want := got.Int(), int64(2); n != want {
		t.Errorf("b got %d, want %d", n, want)
	}
	got.Unref()
	if v.LookupValue("c", Int32Type) != nil {
		t.Errorf("LookupValue(c) found a value")
	}
}
