// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"fmt"
	"strings"
	"sync"
)

// Type is the descriptor for a type signature string.  Types are
// hash-consed; each unique signature is represented by exactly one *Type
// instance, so to test for type equality you just compare the *Type
// instances.
//
// A Type is immutable after construction and may be shared freely between
// goroutines.
type Type struct {
	s         string
	kind      Kind
	definite  bool
	fixedSize int // 0 if variable-sized
	align     int
	depth     int
	elem      *Type    // Array, Maybe
	key, val  *Type    // DictEntry
	items     []*Type  // Tuple, DictEntry
	members   []member // serialized layout for Tuple, DictEntry
	nOffsets  int      // offset-table entries in serialized form
}

// member describes the serialized layout of one tuple or dict-entry item.
type member struct {
	// prevVar is the index of the nearest preceding variable-sized item,
	// or -1.  slot is that item's offset-table entry index, or -1.  The
	// items between prevVar and this one are all fixed-size, so locating
	// this member from a serialized buffer reads at most one table entry.
	prevVar int
	slot    int
	// fixedAt is the static start offset, valid only when the whole
	// container is fixed-size.
	fixedAt int
}

var (
	// typeReg holds the global set of hash-consed types, keyed by
	// signature string.
	typeReg   = map[string]*Type{}
	typeRegMu sync.Mutex
)

// ParseType parses and validates a type signature string, returning the
// shared descriptor for it.  Equal signature strings always return the
// identical *Type.  This is the only recoverable error path in the type
// layer; TypeOf is the panicking variant.
func ParseType(s string) (*Type, error) {
	if !isTypeString(s) {
		return nil, fmt.Errorf("gvariant: invalid type string %q", s)
	}
	typeRegMu.Lock()
	t := consLocked(s)
	typeRegMu.Unlock()
	return t, nil
}

// TypeOf returns the shared descriptor for a type signature string.  It
// panics if s is not a single complete type; passing an invalid signature
// is a programming error.
func TypeOf(s string) *Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// parseDefiniteType is used on signatures found inside untrusted serialized
// data; unlike TypeOf it rejects indefinite types and never panics.
func parseDefiniteType(s string) (*Type, bool) {
	if !isDefiniteTypeString(s) {
		return nil, false
	}
	typeRegMu.Lock()
	t := consLocked(s)
	typeRegMu.Unlock()
	return t, true
}

func consLocked(s string) *Type {
	if t := typeReg[s]; t != nil {
		return t
	}
	t := &Type{s: s, definite: true, depth: 1}
	switch s[0] {
	case 'b':
		t.kind, t.fixedSize, t.align = Bool, 1, 1
	case 'y':
		t.kind, t.fixedSize, t.align = Byte, 1, 1
	case 'n':
		t.kind, t.fixedSize, t.align = Int16, 2, 2
	case 'q':
		t.kind, t.fixedSize, t.align = Uint16, 2, 2
	case 'i':
		t.kind, t.fixedSize, t.align = Int32, 4, 4
	case 'u':
		t.kind, t.fixedSize, t.align = Uint32, 4, 4
	case 'x':
		t.kind, t.fixedSize, t.align = Int64, 8, 8
	case 't':
		t.kind, t.fixedSize, t.align = Uint64, 8, 8
	case 'h':
		t.kind, t.fixedSize, t.align = Handle, 4, 4
	case 'd':
		t.kind, t.fixedSize, t.align = Double, 8, 8
	case 's':
		t.kind, t.align = String, 1
	case 'o':
		t.kind, t.align = ObjectPath, 1
	case 'g':
		t.kind, t.align = Signature, 1
	case 'v':
		t.kind, t.align = Variant, 8
	case '*':
		t.kind, t.align, t.definite = Any, 1, false
	case '?':
		t.kind, t.align, t.definite = AnyBasic, 1, false
	case 'r':
		t.kind, t.align, t.definite = AnyTuple, 1, false
	case 'a':
		t.kind = Array
		t.elem = consLocked(s[1:])
		t.align = t.elem.align
		t.definite = t.elem.definite
		t.depth = t.elem.depth + 1
	case 'm':
		t.kind = Maybe
		t.elem = consLocked(s[1:])
		t.align = t.elem.align
		t.definite = t.elem.definite
		t.depth = t.elem.depth + 1
	case '(', '{':
		if s[0] == '(' {
			t.kind = Tuple
		} else {
			t.kind = DictEntry
		}
		for i := 1; i < len(s)-1; {
			next, _ := scanType(s, i, 0)
			it := consLocked(s[i:next])
			t.items = append(t.items, it)
			t.definite = t.definite && it.definite
			if it.depth >= t.depth {
				t.depth = it.depth + 1
			}
			i = next
		}
		if t.kind == DictEntry {
			t.key, t.val = t.items[0], t.items[1]
		}
		t.computeTupleLayout()
	}
	typeReg[s] = t
	return t
}

// computeTupleLayout fills in alignment, fixed size, offset-table shape and
// per-member location info for a Tuple or DictEntry.
func (t *Type) computeTupleLayout() {
	t.align = 1
	fixed := true
	for _, it := range t.items {
		if it.align > t.align {
			t.align = it.align
		}
		fixed = fixed && it.fixedSize > 0
	}
	t.members = make([]member, len(t.items))
	prevVar, entries := -1, 0
	for i, it := range t.items {
		t.members[i] = member{prevVar: prevVar, slot: entries - 1}
		if it.fixedSize == 0 {
			prevVar = i
			if i != len(t.items)-1 {
				entries++
			}
		}
	}
	t.nOffsets = entries
	if !t.definite {
		return
	}
	if fixed {
		pos := 0
		for i, it := range t.items {
			pos = alignUp(pos, it.align)
			t.members[i].fixedAt = pos
			pos += it.fixedSize
		}
		t.fixedSize = alignUp(pos, t.align)
		if t.fixedSize == 0 {
			// The unit tuple occupies a single zero byte.
			t.fixedSize = 1
		}
	}
}

func alignUp(x, align int) int {
	return (x + align - 1) &^ (align - 1)
}

// String returns the type signature string.
func (t *Type) String() string { return t.s }

// Kind returns the type class of t.
func (t *Type) Kind() Kind { return t.kind }

// IsDefinite returns true iff t contains no indefinite placeholders.  Only
// definite types can type a value.
func (t *Type) IsDefinite() bool { return t.definite }

// IsBasic returns true iff t is a basic (non-container) type.
func (t *Type) IsBasic() bool { return t.kind.IsBasic() }

// IsContainer returns true iff t is a container type.
func (t *Type) IsContainer() bool { return t.kind.IsContainer() }

// FixedSize returns the serialized byte size of t, or 0 if values of t are
// variable-sized.
func (t *Type) FixedSize() int { return t.fixedSize }

// Alignment returns the natural alignment of t inside a container.
func (t *Type) Alignment() int { return t.align }

// Elem returns the element type of an Array or Maybe.
func (t *Type) Elem() *Type {
	t.checkKind("Elem", Array, Maybe)
	return t.elem
}

// Key returns the key type of a DictEntry.
func (t *Type) Key() *Type {
	t.checkKind("Key", DictEntry)
	return t.key
}

// Val returns the value type of a DictEntry.
func (t *Type) Val() *Type {
	t.checkKind("Val", DictEntry)
	return t.val
}

// NumItems returns the number of items in a Tuple or DictEntry.
func (t *Type) NumItems() int {
	t.checkKind("NumItems", Tuple, DictEntry)
	return len(t.items)
}

// Item returns the Tuple or DictEntry item type at the given index.  Panics
// if the index is out of range.
func (t *Type) Item(index int) *Type {
	t.checkKind("Item", Tuple, DictEntry)
	return t.items[index]
}

// Matches returns true iff t is a subtype of the pattern type: every
// definite placeholder in pattern matches the corresponding part of t.
// A definite pattern matches only itself.
func (t *Type) Matches(pattern *Type) bool {
	if t == pattern || pattern.kind == Any {
		return true
	}
	switch pattern.kind {
	case AnyBasic:
		return t.IsBasic() && t.definite
	case AnyTuple:
		return t.kind == Tuple
	case Maybe, Array:
		return t.kind == pattern.kind && t.elem.Matches(pattern.elem)
	case Tuple, DictEntry:
		if t.kind != pattern.kind || len(t.items) != len(pattern.items) {
			return false
		}
		for i, it := range t.items {
			if !it.Matches(pattern.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (t *Type) errKind(method string, allowed ...Kind) error {
	return fmt.Errorf("gvariant: %s mismatched kind; got: %v, want: %v", method, t, allowed)
}

func (t *Type) checkKind(method string, allowed ...Kind) {
	if t != nil {
		for _, k := range allowed {
			if k == t.kind {
				return
			}
		}
	}
	panic(t.errKind(method, allowed...))
}

// Primitive types, the basis for all other types.
var (
	BoolType       = TypeOf("b")
	ByteType       = TypeOf("y")
	Int16Type      = TypeOf("n")
	Uint16Type     = TypeOf("q")
	Int32Type      = TypeOf("i")
	Uint32Type     = TypeOf("u")
	Int64Type      = TypeOf("x")
	Uint64Type     = TypeOf("t")
	HandleType     = TypeOf("h")
	DoubleType     = TypeOf("d")
	StringType     = TypeOf("s")
	ObjectPathType = TypeOf("o")
	SignatureType  = TypeOf("g")
	VariantType    = TypeOf("v")
	UnitType       = TypeOf("()")
	AnyType        = TypeOf("*")
	AnyBasicType   = TypeOf("?")
	AnyTupleType   = TypeOf("r")
	AnyArrayType   = TypeOf("a*")
	AnyMaybeType   = TypeOf("m*")
)

// ArrayOf is a helper to construct an array type with the given element.
func ArrayOf(elem *Type) *Type { return TypeOf("a" + elem.s) }

// MaybeOf is a helper to construct a maybe type with the given element.
func MaybeOf(elem *Type) *Type { return TypeOf("m" + elem.s) }

// DictEntryOf is a helper to construct a dict-entry type.  Panics if key is
// not a basic type.
func DictEntryOf(key, val *Type) *Type {
	if !key.IsBasic() {
		panic(fmt.Errorf("gvariant: dict-entry key %q is not basic", key))
	}
	return TypeOf("{" + key.s + val.s + "}")
}

// TupleOf is a helper to construct a tuple type with the given items.
func TupleOf(items ...*Type) *Type {
	var b strings.Builder
	b.WriteByte('(')
	for _, it := range items {
		b.WriteString(it.s)
	}
	b.WriteByte(')')
	return TypeOf(b.String())
}
