// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyChildren is reported when a container already holds as
	// many children as its type allows.
	ErrTooManyChildren = errors.New("container cannot hold more children")
	// ErrTooFewChildren is reported when ending a container before its
	// type's required child count is reached.
	ErrTooFewChildren = errors.New("container needs more children")
	// ErrCannotInferType is reported when ending a container whose
	// element type was never constrained to a definite type.
	ErrCannotInferType = errors.New("cannot infer a definite type for container")
	// ErrTypeMismatch is reported when a child's type does not fit the
	// container at its current position.
	ErrTypeMismatch = errors.New("child type does not match container")
)

// Builder incrementally assembles a container value child by child.  A
// builder is created for a container type, possibly indefinite ("a*",
// "(**)", "r"); each added child narrows the expectation, and End fails if
// no definite type was ever pinned down.
//
// The Add/Open/Close/End methods treat misuse as a programming error and
// panic; CheckAdd and CheckEnd expose the same checks as errors for
// callers assembling containers from untrusted shapes.  A Builder is not
// safe for concurrent use.
type Builder struct {
	typ      *Type
	children []*Value
	trusted  bool
	expected *Type // element type expectation for the next Add
	parent   *Builder
	done     bool
}

// NewBuilder returns a builder for the given container type, which may be
// indefinite.
func NewBuilder(t *Type) *Builder {
	if t == nil || !t.IsContainer() {
		panic(fmt.Errorf("gvariant: NewBuilder needs a container type, got %q", t))
	}
	b := &Builder{typ: t, trusted: true}
	b.expected = b.expectedAt(0)
	return b
}

// expectedAt returns the type expectation for child position i, or nil
// when no further children fit.
func (b *Builder) expectedAt(i int) *Type {
	switch b.typ.kind {
	case Variant:
		if i > 0 {
			return nil
		}
		return AnyType
	case Maybe:
		if i > 0 {
			return nil
		}
		return b.typ.elem
	case Array:
		if len(b.children) > 0 {
			// All elements share the observed type.
			return b.children[0].typ
		}
		return b.typ.elem
	case DictEntry:
		switch i {
		case 0:
			return b.typ.key
		case 1:
			return b.typ.val
		}
		return nil
	default: // Tuple
		if b.typ == AnyTupleType {
			return AnyType
		}
		if i >= len(b.typ.items) {
			return nil
		}
		return b.typ.items[i]
	}
}

func (b *Builder) checkOpen(method string) {
	if b.done {
		panic(fmt.Errorf("gvariant: %s on a finished Builder", method))
	}
}

// CheckAdd reports whether a child of type t could be added next.
func (b *Builder) CheckAdd(t *Type) error {
	b.checkOpen("CheckAdd")
	if t == nil || !t.definite {
		return fmt.Errorf("%w: indefinite child type %q", ErrTypeMismatch, t)
	}
	exp := b.expectedAt(len(b.children))
	if exp == nil {
		return fmt.Errorf("%w: %q holds at most %d", ErrTooManyChildren, b.typ, len(b.children))
	}
	if !t.Matches(exp) {
		return fmt.Errorf("%w: got %q, want %q", ErrTypeMismatch, t, exp)
	}
	if b.typ.kind == DictEntry && len(b.children) == 0 && !t.IsBasic() {
		return fmt.Errorf("%w: dict entry key %q is not basic", ErrTypeMismatch, t)
	}
	return nil
}

// Add appends child to the container, sinking its floating reference.
// Misfit children are a programming error; use CheckAdd first when the
// shape is not statically known.
func (b *Builder) Add(child *Value) *Builder {
	child.checkReal("Add")
	if err := b.CheckAdd(child.typ); err != nil {
		panic(fmt.Errorf("gvariant: Add: %v", err))
	}
	b.children = append(b.children, child.RefSink())
	b.trusted = b.trusted && child.IsTrusted()
	return b
}

// Open starts a nested container of the given type in place: children
// added afterwards go to the nested container until the matching Close.
// The returned builder is the nested one; Close returns its parent.
func (b *Builder) Open(t *Type) *Builder {
	b.checkOpen("Open")
	if t == nil || !t.IsContainer() {
		panic(fmt.Errorf("gvariant: Open needs a container type, got %q", t))
	}
	if err := b.checkOpenable(t); err != nil {
		panic(fmt.Errorf("gvariant: Open: %v", err))
	}
	child := NewBuilder(t)
	child.parent = b
	return child
}

// checkOpenable is CheckAdd against the broadest definite type t could
// still end as; indefinite t is allowed since End pins it down.
func (b *Builder) checkOpenable(t *Type) error {
	exp := b.expectedAt(len(b.children))
	if exp == nil {
		return fmt.Errorf("%w: %q holds at most %d", ErrTooManyChildren, b.typ, len(b.children))
	}
	if !t.Matches(exp) && !exp.Matches(t) {
		return fmt.Errorf("%w: got %q, want %q", ErrTypeMismatch, t, exp)
	}
	return nil
}

// Close ends the container opened by the matching Open, adds the result to
// the parent, and returns the parent builder.
func (b *Builder) Close() *Builder {
	if b.parent == nil {
		panic(fmt.Errorf("gvariant: Close without Open"))
	}
	p := b.parent
	b.parent = nil
	p.Add(b.End())
	return p
}

// CheckEnd reports whether the container could be ended now.
func (b *Builder) CheckEnd() error {
	b.checkOpen("CheckEnd")
	switch b.typ.kind {
	case Variant:
		if len(b.children) < 1 {
			return fmt.Errorf("%w: variant needs its child", ErrTooFewChildren)
		}
	case DictEntry:
		if len(b.children) < 2 {
			return fmt.Errorf("%w: dict entry needs key and value", ErrTooFewChildren)
		}
	case Array, Maybe:
		if !b.typ.definite && len(b.children) == 0 {
			return fmt.Errorf("%w: empty %q", ErrCannotInferType, b.typ)
		}
	default: // Tuple
		if b.typ != AnyTupleType && len(b.children) < len(b.typ.items) {
			return fmt.Errorf("%w: %q has %d of %d", ErrTooFewChildren, b.typ, len(b.children), len(b.typ.items))
		}
	}
	return nil
}

// endType computes the definite type the finished value will carry.
func (b *Builder) endType() *Type {
	switch b.typ.kind {
	case Array:
		if b.typ.definite {
			return b.typ
		}
		return ArrayOf(b.children[0].typ)
	case Maybe:
		if b.typ.definite {
			return b.typ
		}
		return MaybeOf(b.children[0].typ)
	case DictEntry:
		if b.typ.definite {
			return b.typ
		}
		return DictEntryOf(b.children[0].typ, b.children[1].typ)
	case Tuple, AnyTuple:
		if b.typ.definite {
			return b.typ
		}
		items := make([]*Type, len(b.children))
		for i, c := range b.children {
			items[i] = c.typ
		}
		return TupleOf(items...)
	default:
		return b.typ
	}
}

// End finishes the container and returns the new floating value.  The
// builder must not be used afterwards.
func (b *Builder) End() *Value {
	if err := b.CheckEnd(); err != nil {
		panic(fmt.Errorf("gvariant: End: %v", err))
	}
	b.done = true
	t := b.endType()
	children := b.children
	b.children = nil
	trusted := b.trusted
	if b.typ.kind == Maybe || b.typ.kind == Array {
		// Nothing and empty arrays are trivially normal.
		trusted = trusted || len(children) == 0
	}
	return newTree(t, children, trusted)
}

// Cancel abandons the builder, releasing all children added so far.  Any
// enclosing builders from Open are abandoned as well.
func (b *Builder) Cancel() {
	for cur := b; cur != nil; {
		if !cur.done {
			cur.done = true
			for _, c := range cur.children {
				c.Unref()
			}
			cur.children = nil
		}
		p := cur.parent
		cur.parent = nil
		cur = p
	}
}
