// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"errors"
	"testing"
)

func TestBuilderDefinite(t *testing.T) {
	b := NewBuilder(TypeOf("(isv)"))
	b.Add(NewInt32(40))
	b.Add(NewString("forty"))
	b.Add(NewVariant(NewBool(true)))
	v := b.End()
	defer v.RefSink().Unref()

	if got, want := v.Type(), TypeOf("(isv)"); got != want {
		t.Fatalf("End type got %q, want %q", got, want)
	}
	if got, want := v.NumChildren(), 3; got != want {
		t.Fatalf("NumChildren got %d, want %d", got, want)
	}
	c := v.Child(0)
	if got, want := c.Int(), int64(40); got != want {
		t.Errorf("child 0 got %d, want %d", got, want)
	}
	c.Unref()
	v.assertInvariant()
}

func TestBuilderObservedTypeTightening(t *testing.T) {
	b := NewBuilder(TypeOf("a*"))
	if err := b.CheckAdd(Int32Type); err != nil {
		t.Fatalf("CheckAdd(i) on empty a*: %v", err)
	}
	b.Add(NewInt32(1))
	// The first element pinned the element type.
	if err := b.CheckAdd(StringType); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("CheckAdd(s) after i got %v, want ErrTypeMismatch", err)
	}
	b.Add(NewInt32(2))
	v := b.End()
	defer v.RefSink().Unref()
	if got, want := v.Type(), TypeOf("ai"); got != want {
		t.Errorf("End type got %q, want %q", got, want)
	}
}

func TestBuilderCannotInferType(t *testing.T) {
	b := NewBuilder(TypeOf("a*"))
	if err := b.CheckEnd(); !errors.Is(err, ErrCannotInferType) {
		t.Fatalf("CheckEnd on empty a* got %v, want ErrCannotInferType", err)
	}
	b.Cancel()
}

func TestBuilderChildCountErrors(t *testing.T) {
	b := NewBuilder(TypeOf("{sv}"))
	if err := b.CheckEnd(); !errors.Is(err, ErrTooFewChildren) {
		t.Fatalf("CheckEnd on empty dict entry got %v, want ErrTooFewChildren", err)
	}
	b.Add(NewString("k"))
	b.Add(NewVariant(NewInt32(1)))
	if err := b.CheckAdd(Int32Type); !errors.Is(err, ErrTooManyChildren) {
		t.Fatalf("CheckAdd on full dict entry got %v, want ErrTooManyChildren", err)
	}
	v := b.End()
	v.RefSink()
	v.Unref()

	b = NewBuilder(TypeOf("(ii)"))
	b.Add(NewInt32(1))
	if err := b.CheckEnd(); !errors.Is(err, ErrTooFewChildren) {
		t.Fatalf("CheckEnd on half-filled tuple got %v, want ErrTooFewChildren", err)
	}
	b.Cancel()
}

func TestBuilderIndefiniteTuple(t *testing.T) {
	b := NewBuilder(AnyTupleType)
	b.Add(NewByte(1))
	b.Add(NewString("two"))
	v := b.End()
	defer v.RefSink().Unref()
	if got, want := v.Type(), TypeOf("(ys)"); got != want {
		t.Errorf("End type got %q, want %q", got, want)
	}
}

func TestBuilderMaybe(t *testing.T) {
	b := NewBuilder(TypeOf("mi"))
	b.Add(NewInt32(7))
	v := b.End()
	defer v.RefSink().Unref()
	elem := v.MaybeValue()
	if elem == nil {
		t.Fatalf("built maybe is nothing")
	}
	if got, want := elem.Int(), int64(7); got != want {
		t.Errorf("maybe content got %d, want %d", got, want)
	}
	elem.Unref()

	// Nothing of a definite maybe type ends fine.
	b = NewBuilder(TypeOf("mi"))
	nothing := b.End()
	defer nothing.RefSink().Unref()
	if nothing.MaybeValue() != nil {
		t.Errorf("empty mi builder did not end as nothing")
	}
}

func TestBuilderOpenClose(t *testing.T) {
	b := NewBuilder(TypeOf("a{sv}"))
	for _, kv := range []struct {
		k string
		v *Value
	}{{"a", NewInt32(1)}, {"b", NewString("two")}} {
		b = b.Open(TypeOf("{sv}")).
			Add(NewString(kv.k)).
			Add(NewVariant(kv.v)).
			Close()
	}
	v := b.End()
	defer v.RefSink().Unref()
	if got, want := v.NumChildren(), 2; got != want {
		t.Fatalf("NumChildren got %d, want %d", got, want)
	}
	s, ok := v.Lookup("b")
	if !ok || s != "two" {
		t.Errorf("Lookup(b) got %q, %v, want %q, true", s, ok, "two")
	}
}

func TestBuilderCancelReleasesChildren(t *testing.T) {
	c := NewString("x").RefSink()
	c.Ref() // builder takes this one
	b := NewBuilder(TypeOf("as"))
	b.Add(c)
	b.Cancel()
	// The builder's reference is gone; ours still works.
	if got, want := c.Str(), "x"; got != want {
		t.Errorf("after Cancel got %q, want %q", got, want)
	}
	c.Unref()
}

func TestBuilderTrustPropagation(t *testing.T) {
	bad := Load(StringType, []byte{'h', 'i'}, 0) // missing terminator
	b := NewBuilder(TypeOf("as"))
	b.Add(bad)
	b.Add(NewString("ok"))
	v := b.End()
	defer v.RefSink().Unref()
	if v.IsTrusted() {
		t.Errorf("container of untrusted child starts trusted")
	}
	if v.IsNormalForm() {
		t.Errorf("container of malformed string validated as normal")
	}
}
