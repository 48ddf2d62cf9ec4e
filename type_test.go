// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"strings"
	"testing"
)

func TestParseTypeValid(t *testing.T) {
	tests := []struct {
		s         string
		kind      Kind
		definite  bool
		fixedSize int
		align     int
	}{
		{"b", Bool, true, 1, 1},
		{"y", Byte, true, 1, 1},
		{"n", Int16, true, 2, 2},
		{"q", Uint16, true, 2, 2},
		{"i", Int32, true, 4, 4},
		{"u", Uint32, true, 4, 4},
		{"x", Int64, true, 8, 8},
		{"t", Uint64, true, 8, 8},
		{"h", Handle, true, 4, 4},
		{"d", Double, true, 8, 8},
		{"s", String, true, 0, 1},
		{"o", ObjectPath, true, 0, 1},
		{"g", Signature, true, 0, 1},
		{"v", Variant, true, 0, 8},
		{"mi", Maybe, true, 0, 4},
		{"ms", Maybe, true, 0, 1},
		{"ai", Array, true, 0, 4},
		{"as", Array, true, 0, 1},
		{"()", Tuple, true, 1, 1},
		{"(i)", Tuple, true, 4, 4},
		{"(yi)", Tuple, true, 8, 4},
		{"(iy)", Tuple, true, 8, 4},
		{"(is)", Tuple, true, 0, 4},
		{"(sss)", Tuple, true, 0, 1},
		{"{si}", DictEntry, true, 0, 4},
		{"{yy}", DictEntry, true, 2, 1},
		{"a{sv}", Array, true, 0, 8},
		{"(a(ii)mas)", Tuple, true, 0, 4},
		{"*", Any, false, 0, 0},
		{"?", AnyBasic, false, 0, 0},
		{"r", AnyTuple, false, 0, 0},
		{"a*", Array, false, 0, 0},
		{"m?", Maybe, false, 0, 0},
		{"(*s)", Tuple, false, 0, 0},
	}
	for _, test := range tests {
		typ, err := ParseType(test.s)
		if err != nil {
			t.Errorf("ParseType(%q) failed: %v", test.s, err)
			continue
		}
		if got, want := typ.String(), test.s; got != want {
			t.Errorf("ParseType(%q) String() got %q, want %q", test.s, got, want)
		}
		if got, want := typ.Kind(), test.kind; got != want {
			t.Errorf("ParseType(%q) Kind got %v, want %v", test.s, got, want)
		}
		if got, want := typ.IsDefinite(), test.definite; got != want {
			t.Errorf("ParseType(%q) IsDefinite got %v, want %v", test.s, got, want)
		}
		if !test.definite {
			continue
		}
		if got, want := typ.FixedSize(), test.fixedSize; got != want {
			t.Errorf("ParseType(%q) FixedSize got %v, want %v", test.s, got, want)
		}
		if got, want := typ.Alignment(), test.align; got != want {
			t.Errorf("ParseType(%q) Alignment got %v, want %v", test.s, got, want)
		}
	}
}

func TestParseTypeInvalid(t *testing.T) {
	tests := []string{
		"", "z", "a", "m", "(", ")", "(i", "i)", "{}", "{i}", "{sii}",
		"{vs}", "{as}i", "ii", "(i))", "aa",
		"(" + strings.Repeat("a", 64) + "i)",
	}
	for _, s := range tests {
		if typ, err := ParseType(s); err == nil {
			t.Errorf("ParseType(%q) got %q, want error", s, typ)
		}
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("TypeOf(\"z\") did not panic")
			}
		}()
		TypeOf("z")
	}()
}

func TestTypeInterning(t *testing.T) {
	a := TypeOf("a{s(iv)}")
	b := TypeOf("a{s(iv)}")
	if a != b {
		t.Errorf("interning broken: got distinct pointers for equal type strings")
	}
	if TypeOf("i") != Int32Type {
		t.Errorf("TypeOf(\"i\") is not the Int32Type singleton")
	}
	if ArrayOf(StringType) != TypeOf("as") {
		t.Errorf("ArrayOf(s) is not interned with TypeOf(\"as\")")
	}
	if TupleOf(Int32Type, StringType) != TypeOf("(is)") {
		t.Errorf("TupleOf(i, s) is not interned with TypeOf(\"(is)\")")
	}
	if DictEntryOf(StringType, VariantType) != TypeOf("{sv}") {
		t.Errorf("DictEntryOf(s, v) is not interned with TypeOf(\"{sv}\")")
	}
	if MaybeOf(Int32Type) != TypeOf("mi") {
		t.Errorf("MaybeOf(i) is not interned with TypeOf(\"mi\")")
	}
}

func TestTypeQueries(t *testing.T) {
	tup := TypeOf("(isay)")
	if got, want := tup.NumItems(), 3; got != want {
		t.Fatalf("NumItems got %d, want %d", got, want)
	}
	if got, want := tup.Item(0), Int32Type; got != want {
		t.Errorf("Item(0) got %q, want %q", got, want)
	}
	if got, want := tup.Item(2), TypeOf("ay"); got != want {
		t.Errorf("Item(2) got %q, want %q", got, want)
	}
	if got, want := TypeOf("aai").Elem(), TypeOf("ai"); got != want {
		t.Errorf("Elem got %q, want %q", got, want)
	}
	de := TypeOf("{sv}")
	if de.Key() != StringType || de.Val() != VariantType {
		t.Errorf("dict entry key/val got %q/%q", de.Key(), de.Val())
	}
	if !StringType.IsBasic() || VariantType.IsBasic() {
		t.Errorf("IsBasic misclassifies")
	}
	if !TypeOf("ai").IsContainer() || Int32Type.IsContainer() {
		t.Errorf("IsContainer misclassifies")
	}
}

func TestTypeMatches(t *testing.T) {
	tests := []struct {
		typ, pattern string
		want         bool
	}{
		{"i", "*", true},
		{"i", "?", true},
		{"i", "i", true},
		{"i", "u", false},
		{"v", "?", false},
		{"as", "a*", true},
		{"as", "a?", true},
		{"ai", "as", false},
		{"mi", "m*", true},
		{"(is)", "r", true},
		{"(is)", "(*s)", true},
		{"(is)", "(s*)", false},
		{"(is)", "(**)", true},
		{"(is)", "(***)", false},
		{"{sv}", "{?*}", true},
		{"{sv}", "{s*}", true},
		{"a{sv}", "a{?*}", true},
		{"ai", "r", false},
		{"()", "r", true},
	}
	for _, test := range tests {
		got := TypeOf(test.typ).Matches(TypeOf(test.pattern))
		if got != test.want {
			t.Errorf("Matches(%q, %q) got %v, want %v", test.typ, test.pattern, got, test.want)
		}
	}
}

func TestTupleFixedLayout(t *testing.T) {
	// (yi): y at 0, i padded to 4, total 8 with trailing alignment.
	typ := TypeOf("(yi)")
	if got, want := typ.FixedSize(), 8; got != want {
		t.Fatalf("(yi) FixedSize got %d, want %d", got, want)
	}
	// (iy): i at 0, y at 4, padded back out to alignment 4.
	typ = TypeOf("(iy)")
	if got, want := typ.FixedSize(), 8; got != want {
		t.Fatalf("(iy) FixedSize got %d, want %d", got, want)
	}
	// (yyy) stays tightly packed.
	if got, want := TypeOf("(yyy)").FixedSize(), 3; got != want {
		t.Fatalf("(yyy) FixedSize got %d, want %d", got, want)
	}
	if got, want := UnitType.FixedSize(), 1; got != want {
		t.Fatalf("unit FixedSize got %d, want %d", got, want)
	}
}

func TestSignatureAndPathGrammar(t *testing.T) {
	paths := []struct {
		s    string
		want bool
	}{
		{"/", true},
		{"/com/example/Obj1", true},
		{"", false},
		{"/trailing/", false},
		{"//double", false},
		{"/bad-char", false},
		{"relative/path", false},
	}
	for _, test := range paths {
		if got := isObjectPathString(test.s); got != test.want {
			t.Errorf("isObjectPathString(%q) got %v, want %v", test.s, got, test.want)
		}
	}
	sigs := []struct {
		s    string
		want bool
	}{
		{"", true},
		{"i", true},
		{"a{sv}(is)", true},
		{"*", false},
		{"a", false},
		{"(", false},
	}
	for _, test := range sigs {
		if got := isSignatureString(test.s); got != test.want {
			t.Errorf("isSignatureString(%q) got %v, want %v", test.s, got, test.want)
		}
	}
}
