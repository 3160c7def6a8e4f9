package mir

import (
	"fmt"
	"strings"
)

// Value represents a value in SSA form - each value has exactly one definition
type Value struct {
	ID   int
	Name string
	Type Type

	// Def is the defining instruction, or nil for function parameters.
	Def Instruction
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	if v.Name != "" {
		return "%" + v.Name
	}
	return fmt.Sprintf("%%v%d", v.ID)
}

// Instruction is implemented by every MIR instruction.
type Instruction interface {
	GetID() int
	GetResult() *Value
	GetOperands() []*Value
	GetBlock() *BasicBlock
	IsTerminator() bool
	String() string
}

// Terminators end basic blocks
type Terminator interface {
	Instruction
	GetSuccessors() []*BasicBlock
}

// ConstInst materializes a compile-time constant
type ConstInst struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Value  interface{}
	Type   Type
}

// FunctionRefInst produces a direct reference to a known function
type FunctionRefInst struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Func   *Function
}

// ClassMethodInst produces a callee value by looking up a method slot on a
// dynamically-typed receiver. Which implementation runs depends on the
// receiver's runtime class.
type ClassMethodInst struct {
	ID       int
	Result   *Value
	Block    *BasicBlock
	Receiver *Value
	Class    *Class // static class of the receiver
	Method   string
}

// ApplyInst is a single call site: one callee value, an argument list, and an
// ordinal assigned at creation time used for deterministic tie-breaking.
type ApplyInst struct {
	ID      int
	Result  *Value
	Block   *BasicBlock
	Callee  *Value
	Args    []*Value
	Ordinal int
}

// RetainInst increments the reference count of its operand
type RetainInst struct {
	ID      int
	Block   *BasicBlock
	Operand *Value
}

// ReleaseInst decrements the reference count of its operand, possibly
// triggering deallocation
type ReleaseInst struct {
	ID      int
	Block   *BasicBlock
	Operand *Value
}

// StoreInst writes a value through an address. Storing a function reference
// makes the function reachable through memory, i.e. indirectly callable.
type StoreInst struct {
	ID      int
	Block   *BasicBlock
	Address *Value
	Value   *Value
}

// Terminators

type ReturnTerm struct {
	ID    int
	Block *BasicBlock
	Value *Value // nil for void returns
}

type BranchTerm struct {
	ID         int
	Block      *BasicBlock
	Condition  *Value
	TrueBlock  *BasicBlock
	FalseBlock *BasicBlock
}

type JumpTerm struct {
	ID     int
	Block  *BasicBlock
	Target *BasicBlock
}

// UnreachableTerm ends blocks that trap (e.g. a failed bounds check)
type UnreachableTerm struct {
	ID    int
	Block *BasicBlock
}

// ApplyInst helpers

// CalleeFunction returns the statically known callee when the callee value is
// a direct function reference, or nil otherwise.
func (a *ApplyInst) CalleeFunction() *Function {
	if a.Callee == nil || a.Callee.Def == nil {
		return nil
	}
	if ref, ok := a.Callee.Def.(*FunctionRefInst); ok {
		return ref.Func
	}
	return nil
}

// CalleeMethod returns the class-method lookup feeding the callee value, or
// nil when the call is not a virtual dispatch.
func (a *ApplyInst) CalleeMethod() *ClassMethodInst {
	if a.Callee == nil || a.Callee.Def == nil {
		return nil
	}
	if method, ok := a.Callee.Def.(*ClassMethodInst); ok {
		return method
	}
	return nil
}

// Implementation of interfaces

func (c *ConstInst) GetID() int            { return c.ID }
func (c *ConstInst) GetResult() *Value     { return c.Result }
func (c *ConstInst) GetOperands() []*Value { return nil }
func (c *ConstInst) GetBlock() *BasicBlock { return c.Block }
func (c *ConstInst) IsTerminator() bool    { return false }
func (c *ConstInst) String() string {
	return fmt.Sprintf("%s = const %v : %s", c.Result, c.Value, c.Type)
}

func (f *FunctionRefInst) GetID() int            { return f.ID }
func (f *FunctionRefInst) GetResult() *Value     { return f.Result }
func (f *FunctionRefInst) GetOperands() []*Value { return nil }
func (f *FunctionRefInst) GetBlock() *BasicBlock { return f.Block }
func (f *FunctionRefInst) IsTerminator() bool    { return false }
func (f *FunctionRefInst) String() string {
	return fmt.Sprintf("%s = function_ref @%s", f.Result, f.Func.Name)
}

func (c *ClassMethodInst) GetID() int            { return c.ID }
func (c *ClassMethodInst) GetResult() *Value     { return c.Result }
func (c *ClassMethodInst) GetOperands() []*Value { return []*Value{c.Receiver} }
func (c *ClassMethodInst) GetBlock() *BasicBlock { return c.Block }
func (c *ClassMethodInst) IsTerminator() bool    { return false }
func (c *ClassMethodInst) String() string {
	return fmt.Sprintf("%s = class_method %s, #%s.%s", c.Result, c.Receiver, c.Class.Name, c.Method)
}

func (a *ApplyInst) GetID() int        { return a.ID }
func (a *ApplyInst) GetResult() *Value { return a.Result }
func (a *ApplyInst) GetOperands() []*Value {
	ops := make([]*Value, 0, len(a.Args)+1)
	ops = append(ops, a.Callee)
	ops = append(ops, a.Args...)
	return ops
}
func (a *ApplyInst) GetBlock() *BasicBlock { return a.Block }
func (a *ApplyInst) IsTerminator() bool    { return false }
func (a *ApplyInst) String() string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = arg.String()
	}
	prefix := ""
	if a.Result != nil {
		prefix = a.Result.String() + " = "
	}
	return fmt.Sprintf("%sapply %s(%s)", prefix, a.Callee, strings.Join(args, ", "))
}

func (r *RetainInst) GetID() int            { return r.ID }
func (r *RetainInst) GetResult() *Value     { return nil }
func (r *RetainInst) GetOperands() []*Value { return []*Value{r.Operand} }
func (r *RetainInst) GetBlock() *BasicBlock { return r.Block }
func (r *RetainInst) IsTerminator() bool    { return false }
func (r *RetainInst) String() string        { return fmt.Sprintf("retain %s", r.Operand) }

func (r *ReleaseInst) GetID() int            { return r.ID }
func (r *ReleaseInst) GetResult() *Value     { return nil }
func (r *ReleaseInst) GetOperands() []*Value { return []*Value{r.Operand} }
func (r *ReleaseInst) GetBlock() *BasicBlock { return r.Block }
func (r *ReleaseInst) IsTerminator() bool    { return false }
func (r *ReleaseInst) String() string        { return fmt.Sprintf("release %s", r.Operand) }

func (s *StoreInst) GetID() int            { return s.ID }
func (s *StoreInst) GetResult() *Value     { return nil }
func (s *StoreInst) GetOperands() []*Value { return []*Value{s.Address, s.Value} }
func (s *StoreInst) GetBlock() *BasicBlock { return s.Block }
func (s *StoreInst) IsTerminator() bool    { return false }
func (s *StoreInst) String() string        { return fmt.Sprintf("store %s to %s", s.Value, s.Address) }

// Terminator implementations

func (r *ReturnTerm) GetID() int        { return r.ID }
func (r *ReturnTerm) GetResult() *Value { return nil }
func (r *ReturnTerm) GetOperands() []*Value {
	if r.Value != nil {
		return []*Value{r.Value}
	}
	return nil
}
func (r *ReturnTerm) GetBlock() *BasicBlock        { return r.Block }
func (r *ReturnTerm) IsTerminator() bool           { return true }
func (r *ReturnTerm) GetSuccessors() []*BasicBlock { return nil }
func (r *ReturnTerm) String() string {
	if r.Value != nil {
		return fmt.Sprintf("return %s", r.Value)
	}
	return "return"
}

func (b *BranchTerm) GetID() int            { return b.ID }
func (b *BranchTerm) GetResult() *Value     { return nil }
func (b *BranchTerm) GetOperands() []*Value { return []*Value{b.Condition} }
func (b *BranchTerm) GetBlock() *BasicBlock { return b.Block }
func (b *BranchTerm) IsTerminator() bool    { return true }
func (b *BranchTerm) GetSuccessors() []*BasicBlock {
	return []*BasicBlock{b.TrueBlock, b.FalseBlock}
}
func (b *BranchTerm) String() string {
	return fmt.Sprintf("branch %s, %s, %s", b.Condition, b.TrueBlock.Label, b.FalseBlock.Label)
}

func (j *JumpTerm) GetID() int                   { return j.ID }
func (j *JumpTerm) GetResult() *Value            { return nil }
func (j *JumpTerm) GetOperands() []*Value        { return nil }
func (j *JumpTerm) GetBlock() *BasicBlock        { return j.Block }
func (j *JumpTerm) IsTerminator() bool           { return true }
func (j *JumpTerm) GetSuccessors() []*BasicBlock { return []*BasicBlock{j.Target} }
func (j *JumpTerm) String() string               { return fmt.Sprintf("jump %s", j.Target.Label) }

func (u *UnreachableTerm) GetID() int                   { return u.ID }
func (u *UnreachableTerm) GetResult() *Value            { return nil }
func (u *UnreachableTerm) GetOperands() []*Value        { return nil }
func (u *UnreachableTerm) GetBlock() *BasicBlock        { return u.Block }
func (u *UnreachableTerm) IsTerminator() bool           { return true }
func (u *UnreachableTerm) GetSuccessors() []*BasicBlock { return nil }
func (u *UnreachableTerm) String() string               { return "unreachable" }
