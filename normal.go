// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

// isNormal is the trust-establishing predicate: it reports whether data is
// the one fully-normalized serialization of a value of type t.  Trusted
// accessors may then consume the bytes without re-validation.
func isNormal(t *Type, data []byte) bool {
	switch t.kind {
	case Bool:
		return len(data) == 1 && data[0] <= 1
	case Byte:
		return len(data) == 1
	case Int16, Uint16, Int32, Uint32, Int64, Uint64, Handle, Double:
		return len(data) == t.fixedSize
	case String:
		return isNormalString(data)
	case ObjectPath:
		return isNormalString(data) && isObjectPathString(string(data[:len(data)-1]))
	case Signature:
		return isNormalString(data) && isSignatureString(string(data[:len(data)-1]))
	case Variant:
		ct, start, end, ok := variantChild(data)
		if !ok {
			return false
		}
		// The separator and type string account for everything after the
		// child; nothing may precede it either.
		if start != 0 || end+1+len(ct.s) != len(data) {
			return false
		}
		if ct.fixedSize > 0 && end != ct.fixedSize {
			return false
		}
		return isNormal(ct, data[start:end])
	case Maybe:
		if len(data) == 0 {
			return true
		}
		if fs := t.elem.fixedSize; fs > 0 {
			return len(data) == fs && isNormal(t.elem, data)
		}
		return data[len(data)-1] == 0 && isNormal(t.elem, data[:len(data)-1])
	case Array:
		if fs := t.elem.fixedSize; fs > 0 {
			if len(data)%fs != 0 {
				return false
			}
			for off := 0; off < len(data); off += fs {
				if !isNormal(t.elem, data[off:off+fs]) {
					return false
				}
			}
			return true
		}
		return isNormalVarArray(t, data)
	case Tuple, DictEntry:
		return isNormalTuple(t, data)
	}
	return false
}

func isNormalVarArray(t *Type, data []byte) bool {
	total := len(data)
	if total == 0 {
		return true
	}
	k := offsetSize(total)
	if total < k {
		return false
	}
	tableStart := readLE(data[total-k:])
	if tableStart > total-k || (total-tableStart)%k != 0 {
		return false
	}
	n := (total - tableStart) / k
	pos := 0
	for i := 0; i < n; i++ {
		start := alignUp(pos, t.elem.align)
		if !allZero(data[pos:start]) {
			return false
		}
		end := readLE(data[tableStart+i*k : tableStart+(i+1)*k])
		if end < start || end > tableStart {
			return false
		}
		if !isNormal(t.elem, data[start:end]) {
			return false
		}
		pos = end
	}
	return pos == tableStart
}

func isNormalTuple(t *Type, data []byte) bool {
	total := len(data)
	if len(t.items) == 0 {
		return total == 1 && data[0] == 0
	}
	if t.fixedSize > 0 {
		if total != t.fixedSize {
			return false
		}
		pos := 0
		for i, it := range t.items {
			start := t.members[i].fixedAt
			if !allZero(data[pos:start]) {
				return false
			}
			if !isNormal(it, data[start:start+it.fixedSize]) {
				return false
			}
			pos = start + it.fixedSize
		}
		return allZero(data[pos:])
	}
	k := offsetSize(total)
	body := total - t.nOffsets*k
	if body < 0 {
		return false
	}
	pos, entry := 0, 0
	for i, it := range t.items {
		start := alignUp(pos, it.align)
		if start > body || !allZero(data[pos:start]) {
			return false
		}
		var end int
		switch {
		case it.fixedSize > 0:
			end = start + it.fixedSize
		case i == len(t.items)-1:
			end = body
		default:
			end = readOffsetEntry(data, k, entry)
			entry++
		}
		if end < start || end > body {
			return false
		}
		if !isNormal(it, data[start:end]) {
			return false
		}
		pos = end
	}
	return pos == body
}

func allZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// byteswapData recursively flips multi-byte scalar payloads to the opposite
// byte order in place.  Framing offsets are always little-endian and are
// not touched.  Corrupt framing is tolerated: unreachable children are left
// as they are.
func byteswapData(t *Type, data []byte) {
	switch t.kind {
	case Int16, Uint16, Int32, Uint32, Int64, Uint64, Handle, Double:
		if len(data) == t.fixedSize {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}
	case Bool, Byte, String, ObjectPath, Signature:
		// Single bytes; nothing to swap.
	case Variant, Maybe, Array, Tuple, DictEntry:
		n := serializedNChildren(t, data)
		for i := 0; i < n; i++ {
			if ct, start, end, ok := serializedChild(t, data, i); ok {
				byteswapData(ct, data[start:end])
			}
		}
	}
}
