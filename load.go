// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import "fmt"

// LoadFlags adjust how serialized bytes are adopted.
type LoadFlags uint

const (
	// TrustedData marks the input as already known to be in normalized
	// form, skipping all later validation.  Only use for bytes this
	// process serialized itself.
	TrustedData LoadFlags = 1 << iota
	// Byteswapped marks the input as serialized in the opposite byte
	// order; it is swapped to native order immediately.
	Byteswapped
	// LazyByteswap defers the swap of Byteswapped input until native
	// order is first needed.
	LazyByteswap
)

func loadConds(t *Type, flags LoadFlags, independent bool) condition {
	c := condSerialized | condSizeKnown
	if independent {
		c |= condIndependent
	}
	if t.fixedSize > 0 {
		c |= condFixedSize
	}
	if flags&Byteswapped == 0 {
		c |= condSourceNative
	}
	if flags&TrustedData != 0 {
		c |= condSourceTrusted
	}
	return c
}

func checkLoadType(fn string, t *Type) {
	if t == nil || !t.definite {
		panic(fmt.Errorf("gvariant: %s needs a definite type, got %q", fn, t))
	}
}

// Load copies data and interprets the copy as a serialized value of the
// given definite type.  Any byte sequence is acceptable: damage surfaces
// as zero or empty content on access, never as a panic.  The returned
// value is floating.
func Load(t *Type, data []byte, flags LoadFlags) *Value {
	checkLoadType("Load", t)
	buf := make([]byte, len(data))
	copy(buf, data)
	return adopt(t, buf, flags, true, nil)
}

// FromBytes is Load without the copy: the value aliases data directly, and
// the caller must not mutate data afterwards.
func FromBytes(t *Type, data []byte, flags LoadFlags) *Value {
	checkLoadType("FromBytes", t)
	return adopt(t, data, flags, true, nil)
}

// FromBytesWithRelease is FromBytes for memory with an external owner:
// release is called exactly once, after the last reference into data is
// dropped.  Note that unvalidated access can hand out slices of data, so
// the callback is tied to the value graph, not to the outermost value.
func FromBytesWithRelease(t *Type, data []byte, flags LoadFlags, release func()) *Value {
	checkLoadType("FromBytesWithRelease", t)
	if release == nil {
		panic(fmt.Errorf("gvariant: FromBytesWithRelease with nil release"))
	}
	return adopt(t, data, flags, false, release)
}

// FromFile maps the named file read-only and interprets its contents as a
// serialized value of the given definite type, without copying.  The
// mapping is released when the last reference into it is dropped.  On
// platforms without memory mapping the file is read into memory instead.
func FromFile(t *Type, path string, flags LoadFlags) (*Value, error) {
	checkLoadType("FromFile", t)
	data, release, err := mapFile(path)
	if err != nil {
		return nil, fmt.Errorf("gvariant: mapping %s: %w", path, err)
	}
	if release == nil {
		return adopt(t, data, flags, true, nil), nil
	}
	return adopt(t, data, flags, false, release), nil
}

func adopt(t *Type, data []byte, flags LoadFlags, independent bool, release func()) *Value {
	if fs := t.fixedSize; fs > 0 && len(data) != fs {
		// Wrong-size fixed input has no interpretation; substitute zeros.
		if release != nil {
			release()
		}
		return newSerialized(t, zeroFill(fs), true)
	}
	v := newValue(t, loadConds(t, flags, independent))
	v.bytes = data
	v.size = len(data)
	if release != nil {
		// The sentinel owns the release callback; it fires on the last
		// unref of any value still borrowing data.
		s := &Value{notify: release}
		s.rf.Store(1)
		s.state.Store(uint32(condNotify))
		v.source = s
	}
	if flags&Byteswapped != 0 && flags&LazyByteswap == 0 {
		v.require(condNative)
	}
	return v
}
