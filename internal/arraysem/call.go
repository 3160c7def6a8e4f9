// Package arraysem recognizes calls to the semantics-tagged array entry
// points of the Sable runtime and offers safe rewrites on them. Callers
// probe with Match and only then use the typed accessors: a value that is
// not an array-semantics call is an ordinary non-match, never an error.
package arraysem

import (
	"fmt"

	"sable/internal/dominance"
	"sable/internal/mir"
)

// Call is a recognized array-semantics call site.
type Call struct {
	apply  *mir.ApplyInst
	callee *mir.Function
	kind   Kind
}

// Match probes an instruction. It returns the recognized call and true, or
// nil and false when the instruction is not a call to a semantics-tagged
// function with a plausible signature.
func Match(inst mir.Instruction) (*Call, bool) {
	apply, ok := inst.(*mir.ApplyInst)
	if !ok {
		return nil, false
	}
	callee := apply.CalleeFunction()
	if callee == nil || callee.Semantics == "" {
		return nil, false
	}
	kind := KindFromSemantics(callee.Semantics)
	if kind == KindNone {
		return nil, false
	}
	// Signature sanity: the argument list must cover the callee's
	// parameters, the receiver, and the index where the kind demands them.
	if len(apply.Args) != len(callee.Params) {
		return nil, false
	}
	if kind.hasSelf() && len(apply.Args) < 1 {
		return nil, false
	}
	if kind.hasIndex() && len(apply.Args) < 2 {
		return nil, false
	}
	return &Call{apply: apply, callee: callee, kind: kind}, true
}

// Kind returns the recognized semantics kind. Matching the same instruction
// again yields the same kind: the query never mutates.
func (c *Call) Kind() Kind {
	return c.kind
}

// Apply returns the underlying call site.
func (c *Call) Apply() *mir.ApplyInst {
	return c.apply
}

// Callee returns the semantics-tagged function being called.
func (c *Call) Callee() *mir.Function {
	return c.callee
}

// HasSelf reports whether the call takes a receiver array. Constructors
// (array.init, array.uninitialized) produce a fresh array and have none.
func (c *Call) HasSelf() bool {
	return c.kind.hasSelf()
}

// Self returns the receiver array value. Calling it on a kind without a
// receiver is a programming error.
func (c *Call) Self() *mir.Value {
	if !c.HasSelf() {
		panic(fmt.Sprintf("arraysem: %s call has no self argument", c.kind))
	}
	return c.apply.Args[0]
}

// SelfParameter returns the callee parameter the receiver binds to,
// carrying its ownership convention.
func (c *Call) SelfParameter() *mir.Parameter {
	if !c.HasSelf() {
		panic(fmt.Sprintf("arraysem: %s call has no self parameter", c.kind))
	}
	return c.callee.Params[0]
}

// Index returns the index argument for kinds that take one.
func (c *Call) Index() (*mir.Value, bool) {
	if !c.kind.hasIndex() {
		return nil, false
	}
	return c.apply.Args[1], true
}

// ArrayPropertyIsNative reports whether this is the "is the storage native"
// property query used by bounds-check and uniqueness optimizations.
func (c *Call) ArrayPropertyIsNative() bool {
	return c.kind == KindIsNative
}

// ArrayPropertyNeedsTypeCheck reports whether this is the "do elements need
// a type check" property query.
func (c *Call) ArrayPropertyNeedsTypeCheck() bool {
	return c.kind == KindNeedsTypeCheck
}

// MayRelease reports whether executing the call could trigger a
// deallocation observable by the caller. Consuming an owned parameter is
// observable; retain/release pairs internal to the callee are not.
func (c *Call) MayRelease() bool {
	if c.kind == KindMutateUnknown {
		// May replace elements, releasing the old ones.
		return true
	}
	for _, param := range c.callee.Params {
		if param.Ownership == mir.Owned {
			return true
		}
	}
	return false
}

// RemoveCall deletes the call site. Arguments bound to owned parameters are
// compensated with an explicit release each, keeping the reference counts
// the call would have consumed balanced. Deleting is not a plain removal.
func (c *Call) RemoveCall() {
	block := c.apply.GetBlock()
	m := block.Parent.Module()
	for i, param := range c.callee.Params {
		if param.Ownership == mir.Owned {
			release := mir.NewRelease(m, block, c.apply.Args[i])
			block.InsertBefore(c.apply, release)
		}
	}
	block.RemoveInstruction(c.apply)
}

// CanHoist reports whether the call may legally be moved to execute
// immediately before the given instruction: the kind must tolerate motion,
// the target must dominate the call, and every operand must be available at
// the target.
func (c *Call) CanHoist(before mir.Instruction, dom *dominance.Info) bool {
	if !c.kind.hoistable() {
		return false
	}
	if !dom.Dominates(before, c.apply) {
		return false
	}
	for _, arg := range c.apply.Args {
		if !dom.AvailableAt(arg, before) {
			return false
		}
	}
	// The callee reference either already dominates the target or is a
	// direct function_ref we can rematerialize there.
	if !dom.AvailableAt(c.apply.Callee, before) {
		if _, isRef := c.apply.Callee.Def.(*mir.FunctionRefInst); !isRef {
			return false
		}
	}
	return true
}

// Hoist moves the call upward to execute immediately before the given
// instruction. CanHoist must have been checked; violating that is a
// programming error.
func (c *Call) Hoist(before mir.Instruction, dom *dominance.Info) {
	if !c.CanHoist(before, dom) {
		panic(fmt.Sprintf("arraysem: illegal hoist of %s call %s", c.kind, c.apply))
	}
	c.hoistOrCopy(before, dom, false)
}

// CopyTo duplicates the call immediately before the given instruction and
// returns the new call site. The original remains; the caller registers the
// clone with the call graph. Used when one path must keep its guard while a
// redundant copy is lifted elsewhere.
func (c *Call) CopyTo(before mir.Instruction, dom *dominance.Info) *mir.ApplyInst {
	for _, arg := range c.apply.Args {
		if !dom.AvailableAt(arg, before) {
			panic(fmt.Sprintf("arraysem: operand %s unavailable at copy target", arg))
		}
	}
	if !dom.AvailableAt(c.apply.Callee, before) {
		if _, isRef := c.apply.Callee.Def.(*mir.FunctionRefInst); !isRef {
			panic(fmt.Sprintf("arraysem: callee %s unavailable at copy target and not rematerializable", c.apply.Callee))
		}
	}
	return c.hoistOrCopy(before, dom, true)
}

// hoistOrCopy is the shared motion routine. Hoisting relocates the original
// instruction (its result value stays valid for all dominated uses); copying
// clones the call site with a fresh ordinal.
func (c *Call) hoistOrCopy(before mir.Instruction, dom *dominance.Info, leaveOriginal bool) *mir.ApplyInst {
	targetBlock := before.GetBlock()
	m := targetBlock.Parent.Module()

	callee := c.apply.Callee
	if !dom.AvailableAt(callee, before) {
		ref := mir.NewFunctionRef(m, targetBlock, callee.Def.(*mir.FunctionRefInst).Func)
		targetBlock.InsertBefore(before, ref)
		callee = ref.Result
	}

	if leaveOriginal {
		clone := mir.CloneApply(m, c.apply, targetBlock, before)
		clone.Callee = callee
		return clone
	}

	c.apply.GetBlock().RemoveInstruction(c.apply)
	c.apply.Block = targetBlock
	c.apply.Callee = callee
	targetBlock.InsertBefore(before, c.apply)
	return c.apply
}
