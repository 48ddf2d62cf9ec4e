// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import "fmt"

// Kind represents the type class of a Type.
type Kind uint

const (
	// Indefinite kinds; they only appear in type patterns used as
	// constraints, never in the type of a value.
	Any      Kind = iota // any type
	AnyBasic             // any basic (non-container) type
	AnyTuple             // any tuple type
	// Basic kinds
	Bool       // boolean, one byte, 0 or 1
	Byte       // 8 bit unsigned integer
	Int16      // 16 bit signed integer
	Uint16     // 16 bit unsigned integer
	Int32      // 32 bit signed integer
	Uint32     // 32 bit unsigned integer
	Int64      // 64 bit signed integer
	Uint64     // 64 bit unsigned integer
	Handle     // 32 bit index into an out-of-band handle table
	Double     // 64 bit IEEE 754 floating point
	String     // UTF-8 string
	ObjectPath // bus object path
	Signature  // concatenation of definite type strings
	// Container kinds
	Variant   // a value paired with its own type
	Maybe     // zero or one element
	Array     // ordered sequence of uniformly typed elements
	Tuple     // ordered sequence of heterogeneously typed items
	DictEntry // a key item paired with a value item
)

func (k Kind) String() string {
	switch k {
	case Any:
		return "any"
	case AnyBasic:
		return "anybasic"
	case AnyTuple:
		return "anytuple"
	case Bool:
		return "bool"
	case Byte:
		return "byte"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Handle:
		return "handle"
	case Double:
		return "double"
	case String:
		return "string"
	case ObjectPath:
		return "objectpath"
	case Signature:
		return "signature"
	case Variant:
		return "variant"
	case Maybe:
		return "maybe"
	case Array:
		return "array"
	case Tuple:
		return "tuple"
	case DictEntry:
		return "dictentry"
	}
	panic(fmt.Errorf("gvariant: unhandled kind: %d", uint(k)))
}

// IsBasic returns true iff k is a basic (non-container) kind.  Indefinite
// kinds are not basic, except AnyBasic which stands for all of them.
func (k Kind) IsBasic() bool {
	switch k {
	case Bool, Byte, Int16, Uint16, Int32, Uint32, Int64, Uint64,
		Handle, Double, String, ObjectPath, Signature, AnyBasic:
		return true
	}
	return false
}

// IsContainer returns true iff k is a container kind.
func (k Kind) IsContainer() bool {
	switch k {
	case Variant, Maybe, Array, Tuple, DictEntry, AnyTuple:
		return true
	}
	return false
}
