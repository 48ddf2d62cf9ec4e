// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import "fmt"

// The serializer is a pure, stateless codec over flat byte buffers.  Sizing
// and writing are driven by a child-source callback so the value engine can
// feed either tree children or already-serialized spans.  Reading never
// panics on corrupt input: out-of-range framing yields !ok results which
// the value engine degrades to zero filler.
//
// Wire framing: fixed-size children are packed at their natural alignment.
// Variable-sized children are followed by a trailing table of end offsets,
// one per variable child for arrays (all of them), and one per variable
// non-last item for tuples, stored in reverse order.  Offsets are always
// little-endian regardless of the payload byte order, and their width is
// the smallest of 1, 2, 4 or 8 bytes able to address the buffer.  Variants
// append a NUL separator and the child's type string.  Maybes indicate
// presence by size, with a NUL terminator for variable-sized elements.

// childSource yields the i'th child of a container being sized or written.
type childSource func(i int) *Value

// offsetSize returns the framing offset width for a container of the given
// total size.
func offsetSize(size int) int {
	switch {
	case size == 0:
		return 0
	case size <= 0xff:
		return 1
	case size <= 0xffff:
		return 2
	case size <= 0xffffffff:
		return 4
	default:
		return 8
	}
}

// calcTotalSize returns body plus the smallest offset table able to address
// the result.
func calcTotalSize(body, offsets int) int {
	if body+offsets <= 0xff {
		return body + offsets
	}
	if body+2*offsets <= 0xffff {
		return body + 2*offsets
	}
	if body+4*offsets <= 0xffffffff {
		return body + 4*offsets
	}
	return body + 8*offsets
}

func readLE(data []byte) int {
	v := 0
	for i := len(data) - 1; i >= 0; i-- {
		v = v<<8 | int(data[i])
	}
	return v
}

func writeLE(dst []byte, v int) {
	for i := range dst {
		dst[i] = byte(v)
		v >>= 8
	}
}

// readOffsetEntry reads framing offset entry e counted from the end of the
// buffer.  Returns -1 if the table does not reach that far.
func readOffsetEntry(data []byte, k, e int) int {
	off := len(data) - (e+1)*k
	if off < 0 {
		return -1
	}
	return readLE(data[off : off+k])
}

// neededSize computes the exact serialized length of a container with the
// given children, without writing any bytes.
func neededSize(t *Type, n int, child childSource) int {
	switch t.kind {
	case Variant:
		c := child(0)
		return c.Size() + 1 + len(c.Type().s)
	case Maybe:
		if n == 0 {
			return 0
		}
		if fs := t.elem.fixedSize; fs > 0 {
			return fs
		}
		return child(0).Size() + 1
	case Array:
		if fs := t.elem.fixedSize; fs > 0 {
			return n * fs
		}
		body := 0
		for i := 0; i < n; i++ {
			body = alignUp(body, t.elem.align) + child(i).Size()
		}
		if n == 0 {
			return 0
		}
		return calcTotalSize(body, n)
	case Tuple, DictEntry:
		if t.fixedSize > 0 {
			return t.fixedSize
		}
		body := 0
		for i, it := range t.items {
			body = alignUp(body, it.align)
			if it.fixedSize > 0 {
				body += it.fixedSize
			} else {
				body += child(i).Size()
			}
		}
		return calcTotalSize(body, t.nOffsets)
	}
	panic(fmt.Errorf("gvariant: neededSize on non-container %q", t))
}

// serializeInto writes the exact serialized bytes of a container into dst,
// whose length must equal neededSize for the same children.  dst must be
// zero-filled on entry; padding bytes are left untouched.
func serializeInto(dst []byte, t *Type, n int, child childSource) {
	switch t.kind {
	case Variant:
		c := child(0)
		cs := c.Size()
		c.Store(dst[:cs])
		copy(dst[cs+1:], c.Type().s)
		return
	case Maybe:
		if n == 0 {
			return
		}
		c := child(0)
		if t.elem.fixedSize > 0 {
			c.Store(dst)
		} else {
			c.Store(dst[:len(dst)-1])
		}
		return
	case Array:
		if fs := t.elem.fixedSize; fs > 0 {
			for i := 0; i < n; i++ {
				child(i).Store(dst[i*fs : (i+1)*fs])
			}
			return
		}
		k := offsetSize(len(dst))
		table := len(dst) - n*k
		pos := 0
		for i := 0; i < n; i++ {
			pos = alignUp(pos, t.elem.align)
			c := child(i)
			cs := c.Size()
			c.Store(dst[pos : pos+cs])
			pos += cs
			writeLE(dst[table+i*k:table+(i+1)*k], pos)
		}
		return
	case Tuple, DictEntry:
		k := offsetSize(len(dst))
		pos, entry := 0, 0
		for i, it := range t.items {
			pos = alignUp(pos, it.align)
			c := child(i)
			cs := it.fixedSize
			if cs == 0 {
				cs = c.Size()
			}
			c.Store(dst[pos : pos+cs])
			pos += cs
			if it.fixedSize == 0 && i != len(t.items)-1 {
				// Offset entries are stored in reverse order.
				off := len(dst) - (entry+1)*k
				writeLE(dst[off:off+k], pos)
				entry++
			}
		}
		return
	}
	panic(fmt.Errorf("gvariant: serializeInto on non-container %q", t))
}

// serializedNChildren reports how many children a serialized container has.
// Corrupt framing reports 0 rather than failing.
func serializedNChildren(t *Type, data []byte) int {
	switch t.kind {
	case Variant:
		return 1
	case Maybe:
		if fs := t.elem.fixedSize; fs > 0 {
			if len(data) == fs {
				return 1
			}
			return 0
		}
		if len(data) > 0 {
			return 1
		}
		return 0
	case Array:
		if fs := t.elem.fixedSize; fs > 0 {
			if fs > 0 && len(data)%fs == 0 {
				return len(data) / fs
			}
			return 0
		}
		total := len(data)
		if total == 0 {
			return 0
		}
		k := offsetSize(total)
		if total < k {
			return 0
		}
		lastEnd := readLE(data[total-k:])
		if lastEnd > total-k || (total-lastEnd)%k != 0 {
			return 0
		}
		return (total - lastEnd) / k
	case Tuple, DictEntry:
		return len(t.items)
	}
	panic(fmt.Errorf("gvariant: serializedNChildren on non-container %q", t))
}

// serializedChild locates child i in a serialized container, returning the
// child's type and byte span.  On corrupt framing it returns the child type
// with !ok; the caller decides how to degrade.  The index must be less than
// serializedNChildren.
func serializedChild(t *Type, data []byte, i int) (ct *Type, start, end int, ok bool) {
	total := len(data)
	switch t.kind {
	case Variant:
		return variantChild(data)
	case Maybe:
		if fs := t.elem.fixedSize; fs > 0 {
			return t.elem, 0, total, total == fs
		}
		if total == 0 {
			return t.elem, 0, 0, false
		}
		return t.elem, 0, total - 1, true
	case Array:
		if fs := t.elem.fixedSize; fs > 0 {
			if total%fs != 0 || (i+1)*fs > total {
				return t.elem, 0, 0, false
			}
			return t.elem, i * fs, (i + 1) * fs, true
		}
		k := offsetSize(total)
		n := serializedNChildren(t, data)
		if i >= n {
			return t.elem, 0, 0, false
		}
		tableStart := total - n*k
		end = readLE(data[tableStart+i*k : tableStart+(i+1)*k])
		if i > 0 {
			prev := readLE(data[tableStart+(i-1)*k : tableStart+i*k])
			start = alignUp(prev, t.elem.align)
		}
		if start > end || end > tableStart {
			return t.elem, 0, 0, false
		}
		return t.elem, start, end, true
	case Tuple, DictEntry:
		return tupleChild(t, data, i)
	}
	panic(fmt.Errorf("gvariant: serializedChild on non-container %q", t))
}

func tupleChild(t *Type, data []byte, i int) (ct *Type, start, end int, ok bool) {
	it := t.items[i]
	total := len(data)
	if t.fixedSize > 0 {
		start = t.members[i].fixedAt
		return it, start, start + it.fixedSize, total == t.fixedSize
	}
	k := offsetSize(total)
	body := total - t.nOffsets*k
	if body < 0 {
		return it, 0, 0, false
	}
	m := t.members[i]
	pos := 0
	if m.slot >= 0 {
		if pos = readOffsetEntry(data, k, m.slot); pos < 0 {
			return it, 0, 0, false
		}
	}
	for j := m.prevVar + 1; j < i; j++ {
		pos = alignUp(pos, t.items[j].align) + t.items[j].fixedSize
	}
	start = alignUp(pos, it.align)
	switch {
	case it.fixedSize > 0:
		end = start + it.fixedSize
	case i == len(t.items)-1:
		end = body
	default:
		if end = readOffsetEntry(data, k, m.slot+1); end < 0 {
			return it, 0, 0, false
		}
	}
	if start > end || end > body {
		return it, 0, 0, false
	}
	return it, start, end, true
}

// variantChild finds the embedded value of a serialized variant: the child
// bytes, a NUL separator, then the child's definite type string.  Invalid
// framing degrades to the unit type, whose zero value stands in for the
// broken child.
func variantChild(data []byte) (ct *Type, start, end int, ok bool) {
	for sep := len(data) - 1; sep >= 0; sep-- {
		if data[sep] != 0 {
			continue
		}
		if ct, ok := parseDefiniteType(string(data[sep+1:])); ok {
			return ct, 0, sep, true
		}
		break
	}
	return UnitType, 0, 0, false
}
