// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gvariant implements a self-describing, type-tagged binary value
// format and its in-memory representation.
//
// Every value is typed by a signature string such as "i", "as" or "a{sv}".
// Type descriptors are hash-consed; each unique signature is represented by
// exactly one *Type instance, so type equality is pointer equality.
//
// A *Value is either a tree of child values (built with a Builder) or a flat
// serialized byte span, possibly borrowed from a parent container.  Derived
// properties of a value - its serialized form, native byte order, trust and
// independence - are computed lazily on first demand and then cached forever;
// the condition set of a value only ever grows, so cached answers never
// invalidate.  Values are safe for concurrent use from multiple goroutines
// holding independent references.
//
// Data loaded from an untrusted source never causes a panic: malformed
// framing degrades to well-typed zero values, and IsTrusted/normalization is
// the only way to establish that content is in normal form.  Misusing the
// API - wrong-kind accessors, out-of-range tree indexes, builder misuse past
// a failed pre-flight check - is a programming error and panics.
package gvariant
