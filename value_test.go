// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"
)

var errNotNormal = errors.New("observed incoherent content")

func TestScalarAccessors(t *testing.T) {
	tests := []struct {
		name  string
		v     *Value
		check func(t *testing.T, v *Value)
	}{
		{"bool", NewBool(true), func(t *testing.T, v *Value) {
			if !v.Bool() {
				t.Errorf("Bool got false, want true")
			}
		}},
		{"byte", NewByte(0xa5), func(t *testing.T, v *Value) {
			if got, want := v.Uint(), uint64(0xa5); got != want {
				t.Errorf("Uint got %d, want %d", got, want)
			}
		}},
		{"int16", NewInt16(-2), func(t *testing.T, v *Value) {
			if got, want := v.Int(), int64(-2); got != want {
				t.Errorf("Int got %d, want %d", got, want)
			}
		}},
		{"uint64", NewUint64(1 << 60), func(t *testing.T, v *Value) {
			if got, want := v.Uint(), uint64(1)<<60; got != want {
				t.Errorf("Uint got %d, want %d", got, want)
			}
		}},
		{"handle", NewHandle(-1), func(t *testing.T, v *Value) {
			if got, want := v.Int(), int64(-1); got != want {
				t.Errorf("Int got %d, want %d", got, want)
			}
		}},
		{"double", NewDouble(6.25), func(t *testing.T, v *Value) {
			if got, want := v.Double(), 6.25; got != want {
				t.Errorf("Double got %v, want %v", got, want)
			}
		}},
		{"string", NewString("héllo"), func(t *testing.T, v *Value) {
			if got, want := v.Str(), "héllo"; got != want {
				t.Errorf("Str got %q, want %q", got, want)
			}
		}},
		{"objectpath", NewObjectPath("/com/example"), func(t *testing.T, v *Value) {
			if got, want := v.Str(), "/com/example"; got != want {
				t.Errorf("Str got %q, want %q", got, want)
			}
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer test.v.RefSink().Unref()
			test.check(t, test.v)
			if !test.v.IsTrusted() {
				t.Errorf("fresh scalar is not trusted")
			}
			test.v.assertInvariant()
		})
	}
}

func TestConstructorValidation(t *testing.T) {
	mustPanic := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s did not panic", name)
			}
		}()
		f()
	}
	mustPanic("NewString with NUL", func() { NewString("a\x00b") })
	mustPanic("NewString bad UTF-8", func() { NewString("\xff") })
	mustPanic("NewObjectPath", func() { NewObjectPath("nope") })
	mustPanic("NewSignature", func() { NewSignature("*") })
	mustPanic("NewDictEntry non-basic key", func() {
		NewDictEntry(NewTuple(), NewInt32(1))
	})
	mustPanic("NewArray mixed", func() {
		NewArray(nil, NewInt32(1), NewString("x"))
	})
	mustPanic("empty NewArray without type", func() { NewArray(nil) })
	mustPanic("Bool on int", func() {
		v := NewInt32(1)
		defer v.RefSink().Unref()
		v.Bool()
	})
}

func TestFloatingAndRefSink(t *testing.T) {
	v := NewInt32(7)
	if !v.IsFloating() {
		t.Fatalf("fresh value is not floating")
	}
	if v.RefSink() != v {
		t.Fatalf("RefSink did not return the value")
	}
	if v.IsFloating() {
		t.Fatalf("value still floating after RefSink")
	}
	// Second sink takes a real reference.
	v.RefSink()
	v.Unref()
	v.Unref()

	// Containers sink their children.
	c := NewString("x")
	tup := NewTuple(c)
	if c.IsFloating() {
		t.Errorf("child still floating after NewTuple")
	}
	tup.RefSink()
	tup.Unref()
}

func TestReleaseCallback(t *testing.T) {
	released := false
	data := append(n32(42), 'h', 'i', 0)
	v := FromBytesWithRelease(TypeOf("(is)"), data, TrustedData, func() { released = true })
	v.RefSink()

	// A sliced child keeps the backing memory alive past the parent.
	c := v.Child(1)
	v.Unref()
	if released {
		t.Fatalf("released while a child still borrows the buffer")
	}
	if got, want := c.Str(), "hi"; got != want {
		t.Errorf("child got %q, want %q", got, want)
	}
	c.Unref()
	if !released {
		t.Fatalf("release callback never fired")
	}
}

func TestFlattenIdempotent(t *testing.T) {
	v := NewTuple(NewString("abc"), NewInt32(5))
	defer v.RefSink().Unref()
	first := v.Flatten().Data()
	second := v.Flatten().Data()
	if &first[0] != &second[0] {
		t.Errorf("second Flatten reallocated the serialized form")
	}
	v.assertInvariant()
}

func TestTrustMonotonic(t *testing.T) {
	v := Load(TypeOf("as"), []byte{'h', 'i', 0, 3}, 0)
	defer v.RefSink().Unref()
	if v.IsTrusted() {
		t.Fatalf("untrusted load starts trusted")
	}
	if !v.IsNormalForm() {
		t.Fatalf("normal input did not validate")
	}
	if !v.IsTrusted() {
		t.Fatalf("validation did not stick")
	}
	// Children sliced after validation inherit the trust.
	c := v.Child(0)
	if !c.IsTrusted() {
		t.Errorf("child of validated parent is not trusted")
	}
	c.Unref()
	v.assertInvariant()
}

func TestTreeSerializeReleasesChildren(t *testing.T) {
	c := NewString("x")
	tup := NewTuple(c)
	defer tup.RefSink().Unref()
	c.Ref() // keep the child observable past serialization
	tup.Flatten()
	if got, want := tup.NumChildren(), 1; got != want {
		t.Errorf("NumChildren after Flatten got %d, want %d", got, want)
	}
	if got, want := c.Str(), "x"; got != want {
		t.Errorf("child after parent serialization got %q, want %q", got, want)
	}
	c.Unref()
}

func TestDeepCopy(t *testing.T) {
	orig := NewTuple(
		NewArray(nil, NewString("a"), NewString("bc")),
		NewVariant(NewInt32(9)),
		NewMaybe(StringType, nil),
	)
	defer orig.RefSink().Unref()
	cp := orig.DeepCopy()
	defer cp.RefSink().Unref()
	if !Equal(orig, cp) {
		t.Fatalf("DeepCopy mismatch: got %v, want %v", cp, orig)
	}
	od, cd := orig.Data(), cp.Data()
	if len(od) > 0 && &od[0] == &cd[0] {
		t.Errorf("DeepCopy aliases the original buffer")
	}
	cp.assertInvariant()
}

func TestDeepCopyDropsSource(t *testing.T) {
	released := false
	src := NewArray(nil, NewString("hello")).RefSink()
	v := FromBytesWithRelease(TypeOf("as"), src.Data(), TrustedData, func() { released = true })
	v.RefSink()
	c := v.Child(0)
	cp := c.DeepCopy()
	cp.RefSink()
	c.Unref()
	v.Unref()
	if !released {
		t.Fatalf("copy still pins the source buffer")
	}
	if got, want := cp.Str(), "hello"; got != want {
		t.Errorf("copy got %q, want %q", got, want)
	}
	cp.Unref()
	src.Unref()
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Value
		want bool
	}{
		{"same int", NewInt32(4), NewInt32(4), true},
		{"diff int", NewInt32(4), NewInt32(5), false},
		{"diff type", NewInt32(4), NewUint32(4), false},
		{"tuples", NewTuple(NewString("x")), NewTuple(NewString("x")), true},
		{"empty arrays", NewArray(Int32Type), NewArray(Int32Type), true},
	}
	for _, test := range tests {
		if got := Equal(test.a, test.b); got != test.want {
			t.Errorf("%s: Equal got %v, want %v", test.name, got, test.want)
		}
		test.a.RefSink().Unref()
		test.b.RefSink().Unref()
	}
}

func TestConcurrentPromotion(t *testing.T) {
	// Many goroutines force the same lazy transitions at once; every one
	// must observe coherent content.
	inner := NewArray(nil, NewString("alpha"), NewString("beta"), NewString("gamma"))
	outer := NewArray(nil, inner, inner.Ref()).RefSink()
	v := Load(TypeOf("aas"), outer.Data(), 0)
	outer.Unref()
	v.RefSink()
	defer v.Unref()

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				if !v.IsNormalForm() {
					return errNotNormal
				}
				c := v.Child(j % 2)
				if got := c.NumChildren(); got != 3 {
					c.Unref()
					return errNotNormal
				}
				s := c.Child(2)
				if got := s.Str(); got != "gamma" {
					s.Unref()
					c.Unref()
					return errNotNormal
				}
				s.Unref()
				c.Unref()
				_ = v.Size()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	v.assertInvariant()
}
