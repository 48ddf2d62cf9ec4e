// Copyright 2026 The GVariant Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gvariant

import (
	"fmt"
	"strings"
)

// condition is a bit in the per-value condition set.  The set is a monotonic
// lattice: once a bit is set it is never cleared, so derived properties can
// be cached without invalidation and read without the transition lock.
type condition uint32

const (
	condSourceNative  condition = 1 << iota // data source is already native byte order
	condBecameNative                        // byte-swap has been performed in place
	condNative                              // data is native byte order
	condSourceTrusted                       // data source is already validated-normal
	condBecameTrusted                       // normalization validation performed and passed
	condTrusted                             // data is known valid/normalized
	condFixedSize                           // type has a statically known byte size
	condSizeKnown                           // byte size has been computed and cached
	condSizeValid                           // the cached size needs no re-derivation
	condSerialized                          // value has a flat byte-span representation
	condIndependent                         // serialized bytes are exclusively owned
	condReconstructed                       // fixed-element array re-derived from corrupt parent
	condNotify                              // release-callback sentinel, not a real value

	condCount = 13
)

var condNames = [condCount]string{
	"source-native", "became-native", "native",
	"source-trusted", "became-trusted", "trusted",
	"fixed-size", "size-known", "size-valid",
	"serialized", "independent", "reconstructed", "notify",
}

func (c condition) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for i := 0; i < condCount; i++ {
		if c&(1<<i) != 0 {
			parts = append(parts, condNames[i])
		}
	}
	return strings.Join(parts, "+")
}

// conditionClause is one alternative way to enable a condition: if the
// required conditions hold (or can themselves be enabled), run the enable
// function.  A nil enable function means the condition follows for free.
// The enable function runs with the value's transition lock held and
// reports whether it succeeded.
type conditionClause struct {
	require condition
	enable  func(v *Value) bool
}

// conditionRule describes one condition's place in the lattice.
type conditionRule struct {
	// implies holds bits forced on whenever this bit is set.
	implies condition
	// forbids holds bits this one is incompatible with.
	forbids condition
	// absenceImplies holds bits forced on while this bit is absent.
	absenceImplies condition
	// clauses are tried in order; cheapest first.
	clauses []conditionClause
}

// conditionRules is indexed by bit position.  The table is populated in
// init rather than with a composite literal: the clause entries name the
// enable methods, whose call graph reaches back into the table, and that
// reference cycle is only legal inside an init body.  The table is
// validated for self-consistency by an exhaustive test.
var conditionRules [condCount]conditionRule

func init() {
	conditionRules[bitIndex(condSourceNative)] = conditionRule{
		implies: condNative,
		forbids: condBecameNative | condNotify,
	}
	conditionRules[bitIndex(condBecameNative)] = conditionRule{
		implies: condNative,
		forbids: condSourceNative | condNotify,
	}
	conditionRules[bitIndex(condNative)] = conditionRule{
		forbids: condNotify,
		clauses: []conditionClause{
			{require: condSourceNative},
			{require: condSerialized | condIndependent | condSizeKnown,
				enable: (*Value).enableNativeByteswap},
		},
	}
	conditionRules[bitIndex(condSourceTrusted)] = conditionRule{
		implies: condTrusted,
		forbids: condBecameTrusted | condNotify,
	}
	conditionRules[bitIndex(condBecameTrusted)] = conditionRule{
		implies: condTrusted,
		forbids: condSourceTrusted | condNotify,
	}
	conditionRules[bitIndex(condTrusted)] = conditionRule{
		forbids: condNotify,
		clauses: []conditionClause{
			{require: condSourceTrusted},
			{require: condNative | condSerialized | condSizeKnown,
				enable: (*Value).enableTrustedValidate},
		},
	}
	conditionRules[bitIndex(condFixedSize)] = conditionRule{
		forbids: condNotify,
	}
	conditionRules[bitIndex(condSizeKnown)] = conditionRule{
		forbids: condNotify,
		clauses: []conditionClause{
			{require: condFixedSize, enable: (*Value).enableSizeFromType},
			{require: condSerialized, enable: (*Value).enableSizeFromBytes},
			{enable: (*Value).enableSizeFromTree},
		},
	}
	conditionRules[bitIndex(condSizeValid)] = conditionRule{
		forbids: condNotify,
		clauses: []conditionClause{
			{require: condSizeKnown | condFixedSize},
			{require: condSizeKnown | condNative},
			{require: condSizeKnown | condTrusted},
		},
	}
	conditionRules[bitIndex(condSerialized)] = conditionRule{
		forbids: condNotify,
		clauses: []conditionClause{
			{require: condSizeKnown, enable: (*Value).enableSerialize},
		},
	}
	conditionRules[bitIndex(condIndependent)] = conditionRule{
		forbids:        condNotify,
		absenceImplies: condSerialized,
		clauses: []conditionClause{
			{require: condSerialized | condSizeKnown,
				enable: (*Value).enableIndependent},
		},
	}
	conditionRules[bitIndex(condReconstructed)] = conditionRule{
		implies: condSerialized | condIndependent | condNative |
			condTrusted | condSizeKnown | condSizeValid,
		forbids: condNotify,
		clauses: []conditionClause{
			{require: condSerialized, enable: (*Value).enableReconstruct},
		},
	}
	conditionRules[bitIndex(condNotify)] = conditionRule{
		forbids: condSourceNative | condBecameNative | condNative |
			condSourceTrusted | condBecameTrusted | condTrusted |
			condFixedSize | condSizeKnown | condSizeValid |
			condSerialized | condIndependent | condReconstructed,
	}
}

func bitIndex(c condition) int {
	for i := 0; i < condCount; i++ {
		if c == 1<<i {
			return i
		}
	}
	panic(fmt.Errorf("gvariant: not a single condition: %v", c))
}

// impliesClosure expands c with everything it transitively implies.
func impliesClosure(c condition) condition {
	for {
		next := c
		for i := 0; i < condCount; i++ {
			if c&(1<<i) != 0 {
				next |= conditionRules[i].implies
			}
		}
		if next == c {
			return c
		}
		c = next
	}
}

// checkConditionTable verifies the lattice is self-consistent: implications
// are acyclic-safe (closure terminates, checked by construction above),
// no condition implies something it forbids, and every clause's
// requirements are compatible with the condition it enables.
func checkConditionTable() error {
	for i := 0; i < condCount; i++ {
		bit := condition(1 << i)
		rule := conditionRules[i]
		closure := impliesClosure(bit)
		if closure&rule.forbids != 0 {
			return fmt.Errorf("condition %v implies what it forbids: %v",
				bit, closure&rule.forbids)
		}
		for _, f := range allConditions(rule.forbids) {
			if impliesClosure(f)&bit != 0 {
				return fmt.Errorf("condition %v forbids %v which implies it", bit, f)
			}
		}
		for _, cl := range rule.clauses {
			req := impliesClosure(cl.require)
			if req&rule.forbids != 0 {
				return fmt.Errorf("condition %v has a clause requiring forbidden %v",
					bit, req&rule.forbids)
			}
		}
		if rule.absenceImplies&bit != 0 {
			return fmt.Errorf("condition %v absence-implies itself", bit)
		}
	}
	return nil
}

func allConditions(c condition) []condition {
	var out []condition
	for i := 0; i < condCount; i++ {
		if c&(1<<i) != 0 {
			out = append(out, 1<<i)
		}
	}
	return out
}

// conditions returns the current condition set.  Monotonic bits may be read
// without the transition lock: once observed set, the data they guard is
// immutable.
func (v *Value) conditions() condition {
	return condition(v.state.Load())
}

// setConditionsLocked publishes new condition bits together with their
// implication closure.  Caller must hold v.mu.  Publishing is the release
// barrier for any payload fields the enable function filled in.
func (v *Value) setConditionsLocked(c condition) {
	old := condition(v.state.Load())
	next := old | impliesClosure(c)
	for i := 0; i < condCount; i++ {
		if next&(1<<i) != 0 && next&conditionRules[i].forbids != 0 {
			panic(fmt.Errorf("gvariant: conflicting conditions %v on %v value",
				next, v.typ))
		}
	}
	v.state.Store(uint32(next))
}

// tryEnable attempts to promote the value so that all wanted conditions
// hold, running whatever lazy work is needed.  It fails closed: on a false
// return the value is observably unmodified.
func (v *Value) tryEnable(want condition) bool {
	if v.conditions()&want == want {
		return true
	}
	v.mu.Lock()
	ok := v.tryEnableLocked(want, 0)
	v.mu.Unlock()
	return ok
}

func (v *Value) tryEnableLocked(want, visiting condition) bool {
	for i := 0; i < condCount; i++ {
		bit := condition(1 << i)
		if want&bit == 0 || v.conditions()&bit != 0 {
			continue
		}
		if visiting&bit != 0 {
			// Cycle in the current search path; this alternative is
			// unsatisfiable.
			return false
		}
		satisfied := false
		for _, cl := range conditionRules[i].clauses {
			if missing := cl.require &^ v.conditions(); missing != 0 {
				if !v.tryEnableLocked(missing, visiting|bit) {
					continue
				}
				// Enabling a prerequisite can establish the goal as a
				// side effect: a dependent value becoming independent
				// picks up its source's current byte order, which can
				// carry NATIVE with it.  Running this clause's enable
				// on top of that would redo work already done.
				if v.conditions()&bit != 0 {
					satisfied = true
					break
				}
			}
			if cl.enable != nil && !cl.enable(v) {
				continue
			}
			v.setConditionsLocked(bit)
			satisfied = true
			break
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// require is tryEnable with failure treated as a programming error: the
// precondition graph is designed to be satisfiable for every well-formed
// value, so an unsatisfiable requirement means the caller broke an
// invariant.
func (v *Value) require(want condition) {
	if !v.tryEnable(want) {
		panic(fmt.Errorf("gvariant: cannot enable %v on %v value in state %v",
			want, v.typ, v.conditions()))
	}
}
