// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"strconv"
	"strings"
)

// String renders the value in the conventional text notation: literal
// scalars, single-quoted strings, [..] arrays, (..) tuples, {k, v} dict
// entries, "just"/"nothing" maybes and <..> variants.  Rendering settles
// the value into serialized native form as a side effect.
func (v *Value) String() string {
	v.checkReal("String")
	var sb strings.Builder
	v.writeString(&sb, true)
	return sb.String()
}

func (v *Value) writeString(sb *strings.Builder, typeAnnotate bool) {
	switch v.typ.kind {
	case Bool:
		if v.Bool() {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case Byte:
		sb.WriteString("0x")
		sb.WriteString(strconv.FormatUint(v.Uint(), 16))
	case Uint16, Uint32, Uint64:
		sb.WriteString(strconv.FormatUint(v.Uint(), 10))
	case Int16, Int32, Int64:
		sb.WriteString(strconv.FormatInt(v.Int(), 10))
	case Handle:
		sb.WriteString("handle ")
		sb.WriteString(strconv.FormatInt(v.Int(), 10))
	case Double:
		d := v.Double()
		s := strconv.FormatFloat(d, 'g', -1, 64)
		sb.WriteString(s)
		if !strings.ContainsAny(s, ".eEnI") {
			sb.WriteString(".0")
		}
	case String:
		writeQuoted(sb, v.Str())
	case ObjectPath:
		sb.WriteString("objectpath ")
		writeQuoted(sb, v.Str())
	case Signature:
		sb.WriteString("signature ")
		writeQuoted(sb, v.Str())
	case Variant:
		child := v.VariantValue()
		sb.WriteByte('<')
		child.writeString(sb, true)
		sb.WriteByte('>')
		child.Unref()
	case Maybe:
		if child := v.MaybeValue(); child != nil {
			if child.typ.kind == Maybe {
				sb.WriteString("just ")
			}
			child.writeString(sb, typeAnnotate)
			child.Unref()
		} else if typeAnnotate {
			sb.WriteByte('@')
			sb.WriteString(v.typ.s)
			sb.WriteString(" nothing")
		} else {
			sb.WriteString("nothing")
		}
	case Array:
		n := v.NumChildren()
		if n == 0 && typeAnnotate {
			sb.WriteByte('@')
			sb.WriteString(v.typ.s)
			sb.WriteString(" []")
			return
		}
		sb.WriteByte('[')
		for i := 0; i < n; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			c := v.Child(i)
			c.writeString(sb, false)
			c.Unref()
		}
		sb.WriteByte(']')
	case DictEntry:
		sb.WriteByte('{')
		k := v.Child(0)
		k.writeString(sb, typeAnnotate)
		k.Unref()
		sb.WriteString(", ")
		val := v.Child(1)
		val.writeString(sb, typeAnnotate)
		val.Unref()
		sb.WriteByte('}')
	default: // Tuple
		n := v.NumChildren()
		sb.WriteByte('(')
		for i := 0; i < n; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			c := v.Child(i)
			c.writeString(sb, true)
			c.Unref()
		}
		if n == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	}
}

func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 {
				sb.WriteString(`\u`)
				sb.WriteString(strconv.FormatInt(int64(r), 16))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('\'')
}
