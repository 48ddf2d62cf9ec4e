// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"bytes"
	"unicode/utf8"
)

// maxTypeDepth bounds container nesting in a type string.  Signatures found
// inside untrusted serialized variants are parsed with the same bound, so a
// hostile buffer cannot drive the scanner into deep recursion.
const maxTypeDepth = 64

// scanType scans one complete type starting at s[i] and returns the index
// just past it.  Returns ok == false if s[i:] does not start with a complete
// type or nesting exceeds depth.
func scanType(s string, i, depth int) (int, bool) {
	if i >= len(s) || depth > maxTypeDepth {
		return 0, false
	}
	switch s[i] {
	case 'b', 'y', 'n', 'q', 'i', 'u', 'x', 't', 'h', 'd',
		's', 'o', 'g', 'v', '*', '?', 'r':
		return i + 1, true
	case 'a', 'm':
		return scanType(s, i+1, depth+1)
	case '(':
		i++
		for i < len(s) && s[i] != ')' {
			next, ok := scanType(s, i, depth+1)
			if !ok {
				return 0, false
			}
			i = next
		}
		if i >= len(s) {
			return 0, false
		}
		return i + 1, true
	case '{':
		// Exactly two items; the key must be basic.
		i++
		if i >= len(s) || !basicTypeChar(s[i]) {
			return 0, false
		}
		next, ok := scanType(s, i, depth+1)
		if !ok {
			return 0, false
		}
		next, ok = scanType(s, next, depth+1)
		if !ok || next >= len(s) || s[next] != '}' {
			return 0, false
		}
		return next + 1, true
	}
	return 0, false
}

func basicTypeChar(c byte) bool {
	switch c {
	case 'b', 'y', 'n', 'q', 'i', 'u', 'x', 't', 'h', 'd', 's', 'o', 'g', '?':
		return true
	}
	return false
}

// isTypeString returns true iff s is exactly one complete type.
func isTypeString(s string) bool {
	next, ok := scanType(s, 0, 0)
	return ok && next == len(s)
}

// isDefiniteTypeString returns true iff s is one complete type with no
// indefinite placeholders.
func isDefiniteTypeString(s string) bool {
	if !isTypeString(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', 'r':
			return false
		}
	}
	return true
}

// isSignatureString returns true iff s is a concatenation of zero or more
// definite complete types.  This is the content rule for Signature values.
func isSignatureString(s string) bool {
	for i := 0; i < len(s); {
		next, ok := scanType(s, i, 0)
		if !ok || !isDefiniteTypeString(s[i:next]) {
			return false
		}
		i = next
	}
	return true
}

// isObjectPathString returns true iff s is a well-formed object path: "/",
// or "/" followed by [A-Za-z0-9_]+ segments joined by "/", with no empty
// segment and no trailing slash.
func isObjectPathString(s string) bool {
	if s == "/" {
		return true
	}
	if len(s) == 0 || s[0] != '/' || s[len(s)-1] == '/' {
		return false
	}
	seg := 0
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '/':
			if seg == 0 {
				return false
			}
			seg = 0
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9', c == '_':
			seg++
		default:
			return false
		}
	}
	return seg > 0
}

// isNormalString validates the serialized form of a String value: UTF-8
// bytes with no interior NUL, followed by exactly one NUL terminator.
func isNormalString(data []byte) bool {
	if len(data) == 0 || data[len(data)-1] != 0 {
		return false
	}
	body := data[:len(data)-1]
	if bytes.IndexByte(body, 0) != -1 {
		return false
	}
	return utf8.Valid(body)
}

// validStringContent reports whether s may be used to construct a String
// value: valid UTF-8 with no NUL bytes.
func validStringContent(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return false
		}
	}
	return utf8.ValidString(s)
}
