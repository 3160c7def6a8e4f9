package mir

import "fmt"

// Builder constructs MIR instructions inside one function, keeping IDs,
// value names, and apply ordinals consistent with the owning module. The
// textual parser and the test suites build all IR through it.
type Builder struct {
	module   *Module
	function *Function
	block    *BasicBlock

	nextValueID int
}

// NewBuilder creates a builder positioned at the given block.
func NewBuilder(m *Module, fn *Function, block *BasicBlock) *Builder {
	return &Builder{module: m, function: fn, block: block}
}

// SetBlock repositions the builder; subsequent instructions append there.
func (b *Builder) SetBlock(block *BasicBlock) {
	b.block = block
}

// Block returns the current insertion block.
func (b *Builder) Block() *BasicBlock {
	return b.block
}

func (b *Builder) newValue(name string, typ Type, def Instruction) *Value {
	v := &Value{ID: b.nextValueID, Name: name, Type: typ, Def: def}
	b.nextValueID++
	return v
}

func (b *Builder) emit(inst Instruction) {
	if b.block.Terminator != nil {
		panic(fmt.Sprintf("mir: emitting %s into terminated block %s", inst, b.block.Label))
	}
	b.block.Instructions = append(b.block.Instructions, inst)
}

// Const emits a constant materialization.
func (b *Builder) Const(name string, value interface{}, typ Type) *ConstInst {
	inst := &ConstInst{ID: b.module.newInstID(), Block: b.block, Value: value, Type: typ}
	inst.Result = b.newValue(name, typ, inst)
	b.emit(inst)
	return inst
}

// FunctionRef emits a direct reference to a function.
func (b *Builder) FunctionRef(fn *Function) *FunctionRefInst {
	paramTypes := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		paramTypes[i] = p.Type
	}
	typ := &FunctionType{Params: paramTypes, Return: fn.ReturnType}
	inst := &FunctionRefInst{ID: b.module.newInstID(), Block: b.block, Func: fn}
	inst.Result = b.newValue(fn.Name+"_ref", typ, inst)
	b.emit(inst)
	return inst
}

// ClassMethod emits a method-slot lookup on a receiver.
func (b *Builder) ClassMethod(receiver *Value, class *Class, method string) *ClassMethodInst {
	inst := &ClassMethodInst{
		ID:       b.module.newInstID(),
		Block:    b.block,
		Receiver: receiver,
		Class:    class,
		Method:   method,
	}
	var typ Type = &NamedType{Name: "method"}
	if impl := class.Lookup(method); impl != nil {
		paramTypes := make([]Type, len(impl.Params))
		for i, p := range impl.Params {
			paramTypes[i] = p.Type
		}
		typ = &FunctionType{Params: paramTypes, Return: impl.ReturnType}
	}
	inst.Result = b.newValue(fmt.Sprintf("%s_%s", class.Name, method), typ, inst)
	b.emit(inst)
	return inst
}

// Apply emits a call site. The ordinal is assigned here, at creation time.
func (b *Builder) Apply(callee *Value, args ...*Value) *ApplyInst {
	inst := &ApplyInst{
		ID:      b.module.newInstID(),
		Block:   b.block,
		Callee:  callee,
		Args:    args,
		Ordinal: b.module.newApplyOrdinal(),
	}
	var resultType Type
	if fnType, ok := callee.Type.(*FunctionType); ok {
		resultType = fnType.Return
	}
	if resultType != nil {
		inst.Result = b.newValue(fmt.Sprintf("call%d", inst.Ordinal), resultType, inst)
	}
	b.emit(inst)
	return inst
}

// Retain emits a reference-count increment.
func (b *Builder) Retain(operand *Value) *RetainInst {
	inst := &RetainInst{ID: b.module.newInstID(), Block: b.block, Operand: operand}
	b.emit(inst)
	return inst
}

// Release emits a reference-count decrement.
func (b *Builder) Release(operand *Value) *ReleaseInst {
	inst := &ReleaseInst{ID: b.module.newInstID(), Block: b.block, Operand: operand}
	b.emit(inst)
	return inst
}

// Store emits a memory write.
func (b *Builder) Store(value, address *Value) *StoreInst {
	inst := &StoreInst{ID: b.module.newInstID(), Block: b.block, Address: address, Value: value}
	b.emit(inst)
	return inst
}

// Return terminates the current block with a return.
func (b *Builder) Return(value *Value) *ReturnTerm {
	term := &ReturnTerm{ID: b.module.newInstID(), Block: b.block, Value: value}
	b.setTerminator(term)
	return term
}

// Branch terminates the current block with a conditional branch.
func (b *Builder) Branch(cond *Value, trueBlock, falseBlock *BasicBlock) *BranchTerm {
	term := &BranchTerm{
		ID:         b.module.newInstID(),
		Block:      b.block,
		Condition:  cond,
		TrueBlock:  trueBlock,
		FalseBlock: falseBlock,
	}
	b.setTerminator(term)
	return term
}

// Jump terminates the current block with an unconditional jump.
func (b *Builder) Jump(target *BasicBlock) *JumpTerm {
	term := &JumpTerm{ID: b.module.newInstID(), Block: b.block, Target: target}
	b.setTerminator(term)
	return term
}

// Unreachable terminates the current block with a trap.
func (b *Builder) Unreachable() *UnreachableTerm {
	term := &UnreachableTerm{ID: b.module.newInstID(), Block: b.block}
	b.setTerminator(term)
	return term
}

func (b *Builder) setTerminator(term Terminator) {
	if b.block.Terminator != nil {
		panic(fmt.Sprintf("mir: block %s already terminated", b.block.Label))
	}
	b.block.Terminator = term
}

// NewRelease creates a detached release instruction. The caller places it
// with InsertBefore; rewrites use this to synthesize compensating releases.
func NewRelease(m *Module, block *BasicBlock, operand *Value) *ReleaseInst {
	return &ReleaseInst{ID: m.newInstID(), Block: block, Operand: operand}
}

// NewFunctionRef creates a detached function reference. The caller places it
// with InsertBefore.
func NewFunctionRef(m *Module, block *BasicBlock, fn *Function) *FunctionRefInst {
	paramTypes := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		paramTypes[i] = p.Type
	}
	inst := &FunctionRefInst{ID: m.newInstID(), Block: block, Func: fn}
	inst.Result = &Value{
		ID:   m.newInstID(),
		Name: fn.Name + "_ref",
		Type: &FunctionType{Params: paramTypes, Return: fn.ReturnType},
		Def:  inst,
	}
	return inst
}

// CloneApply duplicates a call site into the given block position without
// emitting through the builder's cursor. The clone receives a fresh ordinal:
// it is a new call site discovered now.
func CloneApply(m *Module, apply *ApplyInst, block *BasicBlock, before Instruction) *ApplyInst {
	clone := &ApplyInst{
		ID:      m.newInstID(),
		Block:   block,
		Callee:  apply.Callee,
		Args:    append([]*Value(nil), apply.Args...),
		Ordinal: m.newApplyOrdinal(),
	}
	if apply.Result != nil {
		clone.Result = &Value{
			ID:   apply.Result.ID,
			Name: fmt.Sprintf("%s_copy%d", apply.Result.Name, clone.Ordinal),
			Type: apply.Result.Type,
			Def:  clone,
		}
	}
	if before != nil {
		block.InsertBefore(before, clone)
	} else {
		block.Instructions = append(block.Instructions, clone)
	}
	return clone
}
