package mir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleAddRemoveFunction(t *testing.T) {
	m := NewModule("test")
	fn := NewFunction("f", nil, nil)
	m.AddFunction(fn)

	assert.Same(t, fn, m.FunctionNamed("f"))
	assert.Same(t, m, fn.Module())

	assert.Panics(t, func() {
		m.AddFunction(NewFunction("f", nil, nil))
	}, "duplicate function names are a programming error")

	m.RemoveFunction(fn)
	assert.Nil(t, m.FunctionNamed("f"))
	assert.Panics(t, func() { m.RemoveFunction(fn) })
}

func TestApplyOrdinalsAreUniqueAndOrdered(t *testing.T) {
	m := NewModule("test")
	callee := NewFunction("callee", nil, nil)
	m.AddFunction(callee)

	fn := NewFunction("f", nil, nil)
	m.AddFunction(fn)
	b := NewBuilder(m, fn, fn.NewBlock("bb0"))
	ref := b.FunctionRef(callee)
	first := b.Apply(ref.Result)
	second := b.Apply(ref.Result)
	b.Return(nil)

	assert.Less(t, first.Ordinal, second.Ordinal, "ordinals follow discovery order")
	assert.Empty(t, Verify(m))
}

func TestBuilderRefusesTerminatedBlock(t *testing.T) {
	m := NewModule("test")
	fn := NewFunction("f", nil, nil)
	m.AddFunction(fn)
	b := NewBuilder(m, fn, fn.NewBlock("bb0"))
	b.Return(nil)

	assert.Panics(t, func() { b.Const("c", int64(1), TypeFromName("Int")) })
	assert.Panics(t, func() { b.Return(nil) })
}

func TestInsertBeforeAndRemove(t *testing.T) {
	m := NewModule("test")
	fn := NewFunction("f", nil, nil)
	m.AddFunction(fn)
	b := NewBuilder(m, fn, fn.NewBlock("bb0"))
	c1 := b.Const("a", int64(1), TypeFromName("Int"))
	c2 := b.Const("b", int64(2), TypeFromName("Int"))
	b.Return(nil)
	block := fn.Entry()

	detached := NewRelease(m, block, c1.Result)
	block.InsertBefore(c2, detached)
	assert.Equal(t, 1, block.IndexOf(detached))

	block.RemoveInstruction(detached)
	assert.Equal(t, -1, block.IndexOf(detached))
	assert.Panics(t, func() { block.RemoveInstruction(detached) })

	// Inserting "before the terminator" appends to the instruction list.
	tail := NewRelease(m, block, c1.Result)
	block.InsertBefore(Instruction(block.Terminator), tail)
	assert.Equal(t, len(block.Instructions)-1, block.IndexOf(tail))
}

func TestCloneApplyGetsFreshOrdinal(t *testing.T) {
	m := NewModule("test")
	callee := NewFunction("callee", nil, TypeFromName("Int"))
	m.AddFunction(callee)

	fn := NewFunction("f", nil, nil)
	m.AddFunction(fn)
	b := NewBuilder(m, fn, fn.NewBlock("bb0"))
	ref := b.FunctionRef(callee)
	apply := b.Apply(ref.Result)
	b.Return(nil)
	block := fn.Entry()

	clone := CloneApply(m, apply, block, Instruction(block.Terminator))
	assert.NotEqual(t, apply.Ordinal, clone.Ordinal)
	require.NotNil(t, clone.Result)
	assert.NotSame(t, apply.Result, clone.Result)
	assert.Same(t, clone, clone.Result.Def)
}

func TestCallSiteDigest(t *testing.T) {
	m := NewModule("test")
	callee := NewFunction("callee", nil, nil)
	m.AddFunction(callee)

	fn := NewFunction("f", nil, nil)
	m.AddFunction(fn)
	b := NewBuilder(m, fn, fn.NewBlock("bb0"))
	ref := b.FunctionRef(callee)
	apply := b.Apply(ref.Result)
	b.Return(nil)

	before := m.CallSiteDigest()
	assert.Equal(t, before, m.CallSiteDigest(), "digest is deterministic")

	// Non-call edits leave the digest alone.
	block := fn.Entry()
	block.InsertBefore(apply, NewRelease(m, block, ref.Result))
	assert.Equal(t, before, m.CallSiteDigest())

	// Deleting a call site changes it.
	block.RemoveInstruction(apply)
	assert.NotEqual(t, before, m.CallSiteDigest())
}

func TestVerifyCatchesMissingTerminator(t *testing.T) {
	m := NewModule("test")
	fn := NewFunction("f", nil, nil)
	m.AddFunction(fn)
	fn.NewBlock("bb0")

	errs := Verify(m)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no terminator")
}

func TestVerifyCatchesForeignValues(t *testing.T) {
	m := NewModule("test")

	other := NewFunction("other", nil, nil)
	m.AddFunction(other)
	bo := NewBuilder(m, other, other.NewBlock("bb0"))
	foreign := bo.Const("x", int64(1), TypeFromName("Int"))
	bo.Return(nil)

	fn := NewFunction("f", nil, nil)
	m.AddFunction(fn)
	b := NewBuilder(m, fn, fn.NewBlock("bb0"))
	b.Release(foreign.Result)
	b.Return(nil)

	errs := Verify(m)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "outside the function")
}

func TestClassHierarchy(t *testing.T) {
	m := NewModule("test")
	implA := NewFunction("A.run", nil, nil)
	implB := NewFunction("B.run", nil, nil)
	m.AddFunction(implA)
	m.AddFunction(implB)

	classA := NewClass("A", nil, false)
	classA.AddMethod("run", implA)
	m.AddClass(classA)
	classB := NewClass("B", classA, false)
	classB.AddMethod("run", implB)
	m.AddClass(classB)
	classC := NewClass("C", classB, false)
	m.AddClass(classC)

	// Lookup walks up the hierarchy.
	assert.Same(t, implB, classC.Lookup("run"))
	assert.Same(t, implA, classA.Lookup("run"))
	assert.Nil(t, classA.Lookup("missing"))

	// The slot is identified by its topmost declarer.
	assert.Same(t, classA, classC.SlotRoot("run"))
	assert.Same(t, classA, classB.SlotRoot("run"))

	// Overrides collects every implementation reachable through the slot.
	impls := classA.Overrides("run")
	assert.Equal(t, []*Function{implA, implB}, impls)

	assert.False(t, classA.HasOpenSubclass())
	classC.Open = true
	assert.True(t, classA.HasOpenSubclass(), "openness anywhere below taints the root")
}

func TestPrinterRoundsOutModule(t *testing.T) {
	m := NewModule("demo")
	m.Complete = true

	decl := NewFunction("Array.get_count", []*Parameter{
		{Name: "self", Type: &ArrayType{Element: TypeFromName("Int")}},
	}, TypeFromName("Int"))
	decl.Semantics = "array.get_count"
	m.AddFunction(decl)

	fn := NewFunction("main", nil, nil)
	fn.Public = true
	m.AddFunction(fn)
	b := NewBuilder(m, fn, fn.NewBlock("bb0"))
	b.Const("c", int64(42), TypeFromName("Int"))
	b.Return(nil)

	out := Print(m)
	assert.Contains(t, out, "MODULE demo (complete)")
	assert.Contains(t, out, `@semantics("array.get_count")`)
	assert.Contains(t, out, "public func @main()")
	assert.Contains(t, out, "const 42")
	assert.Contains(t, out, "return")
}

func TestPrinterOrdersMethodsByName(t *testing.T) {
	m := NewModule("demo")
	walk := NewFunction("Dog.walk", nil, nil)
	bark := NewFunction("Dog.bark", nil, nil)
	run := NewFunction("Dog.run", nil, nil)
	m.AddFunction(walk)
	m.AddFunction(bark)
	m.AddFunction(run)

	class := NewClass("Dog", nil, false)
	class.AddMethod("walk", walk)
	class.AddMethod("bark", bark)
	class.AddMethod("run", run)
	m.AddClass(class)

	out := Print(m)
	barkAt := strings.Index(out, "method bark")
	runAt := strings.Index(out, "method run")
	walkAt := strings.Index(out, "method walk")
	require.NotEqual(t, -1, barkAt)
	assert.Less(t, barkAt, runAt, "methods print in name order, not map order")
	assert.Less(t, runAt, walkAt)
	assert.Equal(t, out, Print(m), "printing is deterministic across runs")
}
