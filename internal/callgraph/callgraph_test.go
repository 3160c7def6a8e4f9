package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sable/internal/mir"
)

// leafFunction defines a function with an empty body that just returns.
func leafFunction(m *mir.Module, name string) *mir.Function {
	fn := mir.NewFunction(name, nil, nil)
	m.AddFunction(fn)
	b := mir.NewBuilder(m, fn, fn.NewBlock("bb0"))
	b.Return(nil)
	return fn
}

// callerFunction defines a function whose body directly calls each callee.
func callerFunction(m *mir.Module, name string, callees ...*mir.Function) *mir.Function {
	fn := mir.NewFunction(name, nil, nil)
	m.AddFunction(fn)
	b := mir.NewBuilder(m, fn, fn.NewBlock("bb0"))
	for _, callee := range callees {
		ref := b.FunctionRef(callee)
		b.Apply(ref.Result)
	}
	b.Return(nil)
	return fn
}

func TestDirectCallEdges(t *testing.T) {
	m := mir.NewModule("test")
	m.Complete = true

	h := leafFunction(m, "h")
	g := callerFunction(m, "g", h)
	f := callerFunction(m, "f", g)

	graph := Build(m)

	hNode := graph.NodeForFunction(h)
	gNode := graph.NodeForFunction(g)
	fNode := graph.NodeForFunction(f)

	require.Len(t, gNode.CalleeEdges(), 1)
	edge := gNode.CalleeEdges()[0]
	assert.True(t, edge.IsCalleeSetComplete())
	assert.True(t, edge.HasSingleCallee())
	assert.False(t, edge.CanCallArbitraryFunction())
	assert.Equal(t, []*Node{hNode}, edge.GetCompleteCalleeSet())

	// Cross-reference symmetry: the callee sees the same edge object.
	require.Len(t, hNode.CallerEdges(), 1)
	assert.Same(t, edge, hNode.CallerEdges()[0])

	// Non-public defined functions start with exhaustive caller knowledge.
	assert.True(t, hNode.IsCallerEdgesComplete())
	assert.True(t, gNode.IsCallerEdgesComplete())
	assert.True(t, fNode.IsCallerEdgesComplete())

	// f has no callers and complete knowledge, so it is provably dead.
	assert.True(t, fNode.IsDead())
	assert.False(t, hNode.IsDead())
}

func TestPublicFunctionHasIncompleteCallers(t *testing.T) {
	m := mir.NewModule("test")
	fn := leafFunction(m, "entry")
	fn.Public = true

	graph := Build(m)
	node := graph.NodeForFunction(fn)

	assert.False(t, node.IsCallerEdgesComplete())
	assert.False(t, node.IsDead())
}

func TestDeclarationHasIncompleteCallers(t *testing.T) {
	m := mir.NewModule("test")
	decl := mir.NewFunction("external", nil, nil)
	m.AddFunction(decl)
	callerFunction(m, "caller", decl)

	graph := Build(m)
	assert.False(t, graph.NodeForFunction(decl).IsCallerEdgesComplete())
}

func TestEscapedFunctionRefLowersCompleteness(t *testing.T) {
	m := mir.NewModule("test")
	target := leafFunction(m, "target")

	addr := &mir.Parameter{Name: "addr", Type: mir.TypeFromName("RawPointer")}
	fn := mir.NewFunction("escaper", []*mir.Parameter{addr}, nil)
	m.AddFunction(fn)
	b := mir.NewBuilder(m, fn, fn.NewBlock("bb0"))
	ref := b.FunctionRef(target)
	b.Store(ref.Result, addr.Value)
	b.Return(nil)

	graph := Build(m)
	assert.False(t, graph.NodeForFunction(target).IsCallerEdgesComplete(),
		"a stored function_ref makes the function callable from unseen sites")
}

func TestCalleeReusedAsArgumentEscapes(t *testing.T) {
	m := mir.NewModule("test")
	target := leafFunction(m, "target")

	fn := mir.NewFunction("caller", nil, nil)
	m.AddFunction(fn)
	b := mir.NewBuilder(m, fn, fn.NewBlock("bb0"))
	ref := b.FunctionRef(target)
	b.Apply(ref.Result, ref.Result)
	b.Return(nil)

	graph := Build(m)
	assert.False(t, graph.NodeForFunction(target).IsCallerEdgesComplete(),
		"passing the callee's own reference as an argument lets it escape")
}

func TestCompletenessTransitionIsOneWay(t *testing.T) {
	m := mir.NewModule("test")
	fn := leafFunction(m, "fn")

	graph := Build(m)
	node := graph.NodeForFunction(fn)
	require.True(t, node.IsCallerEdgesComplete())

	node.MarkCallerEdgesIncomplete()
	assert.False(t, node.IsCallerEdgesComplete())
	node.MarkCallerEdgesIncomplete()
	assert.False(t, node.IsCallerEdgesComplete())
}

// dispatchModule builds a class hierarchy A <- B with method "run" overridden
// in B, and a caller that dispatches through the slot.
func dispatchModule(t *testing.T, complete, open bool) (*mir.Module, *mir.Function, *mir.Function, *mir.ApplyInst) {
	t.Helper()
	m := mir.NewModule("test")
	m.Complete = complete

	implA := leafFunction(m, "A.run")
	implB := leafFunction(m, "B.run")

	classA := mir.NewClass("A", nil, open)
	classA.AddMethod("run", implA)
	m.AddClass(classA)
	classB := mir.NewClass("B", classA, false)
	classB.AddMethod("run", implB)
	m.AddClass(classB)

	recv := &mir.Parameter{Name: "obj", Type: &mir.ClassType{Class: classA}}
	caller := mir.NewFunction("caller", []*mir.Parameter{recv}, nil)
	m.AddFunction(caller)
	b := mir.NewBuilder(m, caller, caller.NewBlock("bb0"))
	method := b.ClassMethod(recv.Value, classA, "run")
	apply := b.Apply(method.Result, recv.Value)
	b.Return(nil)

	return m, implA, implB, apply
}

func TestDispatchEdgeCollectsOverrides(t *testing.T) {
	m, implA, implB, apply := dispatchModule(t, true, false)

	graph := Build(m)
	edge, ok := graph.EdgeForApply(apply)
	require.True(t, ok)

	assert.True(t, edge.IsCalleeSetComplete(),
		"closed hierarchy in a complete module certifies the dispatch set")
	callees := edge.GetCompleteCalleeSet()
	require.Len(t, callees, 2)
	assert.Same(t, graph.NodeForFunction(implA), callees[0])
	assert.Same(t, graph.NodeForFunction(implB), callees[1])

	for _, callee := range callees {
		assert.True(t, callee.MayBindDynamicSelf())
	}
}

func TestOpenHierarchyDispatchIsIncomplete(t *testing.T) {
	m, implA, _, apply := dispatchModule(t, true, true)

	graph := Build(m)
	edge, ok := graph.EdgeForApply(apply)
	require.True(t, ok)

	assert.False(t, edge.IsCalleeSetComplete())
	assert.True(t, edge.CanCallArbitraryFunction())
	assert.Panics(t, func() { edge.GetCompleteCalleeSet() })
	assert.NotEmpty(t, edge.GetPartialCalleeSet())

	// External subclasses could dispatch to the known implementations too.
	assert.False(t, graph.NodeForFunction(implA).IsCallerEdgesComplete())
}

func TestIncompleteModuleDispatchIsIncomplete(t *testing.T) {
	m, _, _, apply := dispatchModule(t, false, false)

	graph := Build(m)
	edge, ok := graph.EdgeForApply(apply)
	require.True(t, ok)
	assert.False(t, edge.IsCalleeSetComplete())
}

// dispatchSite appends a function that dispatches through A.run.
func dispatchSite(m *mir.Module, name string) *mir.ApplyInst {
	classA := m.ClassNamed("A")
	recv := &mir.Parameter{Name: "obj", Type: &mir.ClassType{Class: classA}}
	fn := mir.NewFunction(name, []*mir.Parameter{recv}, nil)
	m.AddFunction(fn)
	b := mir.NewBuilder(m, fn, fn.NewBlock("bb0"))
	method := b.ClassMethod(recv.Value, classA, "run")
	apply := b.Apply(method.Result, recv.Value)
	b.Return(nil)
	return apply
}

func TestSharedCalleeListGrowsForAllSlotSites(t *testing.T) {
	m, _, _, apply := dispatchModule(t, false, false)
	apply2 := dispatchSite(m, "caller2")

	graph := Build(m)
	edge1, ok := graph.EdgeForApply(apply)
	require.True(t, ok)
	edge2, ok := graph.EdgeForApply(apply2)
	require.True(t, ok)

	require.Len(t, edge1.GetPartialCalleeSet(), 2)
	require.Len(t, edge2.GetPartialCalleeSet(), 2)

	// A candidate added through one edge is visible through the other.
	extra := graph.NodeForFunction(leafFunction(m, "C.run"))
	graph.AddCallee(edge1, extra)
	assert.Len(t, edge2.GetPartialCalleeSet(), 3)

	// Adding the same node again does not duplicate it.
	graph.AddCallee(edge2, extra)
	assert.Len(t, edge1.GetPartialCalleeSet(), 3)
	assert.Len(t, extra.CallerEdges(), 2)
}

func TestAddCalleeLinksCallerEdges(t *testing.T) {
	m, _, _, apply := dispatchModule(t, false, false)
	apply2 := dispatchSite(m, "caller2")

	graph := Build(m)
	edge1, ok := graph.EdgeForApply(apply)
	require.True(t, ok)
	edge2, ok := graph.EdgeForApply(apply2)
	require.True(t, ok)

	extra := graph.NodeForFunction(leafFunction(m, "C.run"))
	graph.AddCallee(edge1, extra)

	// The candidate became reachable through every site aliasing the slot's
	// set, so it carries a caller edge per site and is no longer dead.
	assert.ElementsMatch(t, []*Edge{edge1, edge2}, extra.CallerEdges())
	assert.False(t, extra.IsDead())
	assert.True(t, extra.MayBindDynamicSelf())

	// Unlinking one site keeps the other's reference intact.
	graph.RemoveEdge(edge1)
	assert.Equal(t, []*Edge{edge2}, extra.CallerEdges())
}

func TestAddCalleeToCompleteEdgePanics(t *testing.T) {
	m := mir.NewModule("test")
	callee := leafFunction(m, "callee")
	caller := callerFunction(m, "caller", callee)
	other := leafFunction(m, "other")

	graph := Build(m)
	edges := graph.NodeForFunction(caller).CalleeEdges()
	require.Len(t, edges, 1)
	require.True(t, edges[0].IsCalleeSetComplete())

	assert.Panics(t, func() {
		graph.AddCallee(edges[0], graph.NodeForFunction(other))
	})
}

func TestOpaqueCalleeIsArbitrary(t *testing.T) {
	m := mir.NewModule("test")
	fnPtr := &mir.Parameter{Name: "fp", Type: &mir.FunctionType{}}
	fn := mir.NewFunction("indirect", []*mir.Parameter{fnPtr}, nil)
	m.AddFunction(fn)
	b := mir.NewBuilder(m, fn, fn.NewBlock("bb0"))
	apply := b.Apply(fnPtr.Value)
	b.Return(nil)

	graph := Build(m)
	edge, ok := graph.EdgeForApply(apply)
	require.True(t, ok)

	assert.True(t, edge.CanCallArbitraryFunction())
	assert.Empty(t, edge.GetPartialCalleeSet())
	assert.False(t, edge.HasSingleCallee())
}

func TestDirectAndOpaqueCallScenario(t *testing.T) {
	m := mir.NewModule("test")

	// f calls g directly; g calls through an opaque value; h is defined but
	// never referenced.
	h := leafFunction(m, "h")

	fnPtr := &mir.Parameter{Name: "fp", Type: &mir.FunctionType{}}
	g := mir.NewFunction("g", []*mir.Parameter{fnPtr}, nil)
	m.AddFunction(g)
	bg := mir.NewBuilder(m, g, g.NewBlock("bb0"))
	bg.Apply(fnPtr.Value)
	bg.Return(nil)

	f := callerFunction(m, "f", g)

	graph := Build(m)

	fEdges := graph.NodeForFunction(f).CalleeEdges()
	require.Len(t, fEdges, 1)
	assert.True(t, fEdges[0].IsCalleeSetComplete())
	assert.Equal(t, []*Node{graph.NodeForFunction(g)}, fEdges[0].GetCompleteCalleeSet())

	gEdges := graph.NodeForFunction(g).CalleeEdges()
	require.Len(t, gEdges, 1)
	assert.True(t, gEdges[0].CanCallArbitraryFunction())

	// The opaque site cannot reach h: its reference never escaped, so caller
	// knowledge stays exhaustive and empty.
	hNode := graph.NodeForFunction(h)
	assert.True(t, hNode.IsCallerEdgesComplete())
	assert.Empty(t, hNode.CallerEdges())
	assert.True(t, hNode.IsDead())
}

func TestBottomUpFunctionOrder(t *testing.T) {
	m := mir.NewModule("test")
	m.Complete = true

	h := leafFunction(m, "h")
	g := callerFunction(m, "g", h)
	f := callerFunction(m, "f", g)

	graph := Build(m)
	order := graph.BottomUpFunctionOrder()
	require.Len(t, order, 3)

	pos := map[*mir.Function]int{}
	for i, node := range order {
		pos[node.Function()] = i
	}
	assert.Less(t, pos[h], pos[g], "callee must precede caller")
	assert.Less(t, pos[g], pos[f], "callee must precede caller")
}

func TestRecursionFormsOneComponent(t *testing.T) {
	m := mir.NewModule("test")

	// p and q call each other; r calls itself.
	p := mir.NewFunction("p", nil, nil)
	q := mir.NewFunction("q", nil, nil)
	m.AddFunction(p)
	m.AddFunction(q)

	bp := mir.NewBuilder(m, p, p.NewBlock("bb0"))
	bp.Apply(bp.FunctionRef(q).Result)
	bp.Return(nil)
	bq := mir.NewBuilder(m, q, q.NewBlock("bb0"))
	bq.Apply(bq.FunctionRef(p).Result)
	bq.Return(nil)

	r := mir.NewFunction("r", nil, nil)
	m.AddFunction(r)
	br := mir.NewBuilder(m, r, r.NewBlock("bb0"))
	br.Apply(br.FunctionRef(r).Result)
	br.Return(nil)

	graph := Build(m)
	components := graph.BottomUpSCCOrder()
	require.Len(t, components, 2)

	sizes := map[int]int{}
	for _, component := range components {
		sizes[len(component)]++
	}
	assert.Equal(t, 1, sizes[2], "p and q form one component")
	assert.Equal(t, 1, sizes[1], "r is alone in its component")
}

func TestComponentSplitsWhenEdgeRemoved(t *testing.T) {
	m := mir.NewModule("test")

	p := mir.NewFunction("p", nil, nil)
	q := mir.NewFunction("q", nil, nil)
	m.AddFunction(p)
	m.AddFunction(q)
	bp := mir.NewBuilder(m, p, p.NewBlock("bb0"))
	bp.Apply(bp.FunctionRef(q).Result)
	bp.Return(nil)
	bq := mir.NewBuilder(m, q, q.NewBlock("bb0"))
	bq.Apply(bq.FunctionRef(p).Result)
	bq.Return(nil)

	graph := Build(m)
	require.Len(t, graph.BottomUpSCCOrder(), 1)

	// Breaking the p -> q edge leaves only q -> p; the cycle is gone.
	graph.RemoveEdge(graph.NodeForFunction(p).CalleeEdges()[0])

	components := graph.BottomUpSCCOrder()
	require.Len(t, components, 2)
	assert.Same(t, p, components[0][0].Function(), "p is now a leaf and comes first")
	assert.Same(t, q, components[1][0].Function())
}

func TestOrdersMemoizedUntilEdit(t *testing.T) {
	m := mir.NewModule("test")
	h := leafFunction(m, "h")
	g := callerFunction(m, "g", h)

	graph := Build(m)
	first := graph.BottomUpFunctionOrder()
	second := graph.BottomUpFunctionOrder()
	assert.True(t, &first[0] == &second[0], "memoized order is the same slice")

	edge := graph.NodeForFunction(g).CalleeEdges()[0]
	graph.RemoveEdge(edge)

	third := graph.BottomUpFunctionOrder()
	require.Len(t, third, 2)
	assert.Contains(t, []*mir.Function{third[0].Function(), third[1].Function()}, h)
}

func TestRemoveEdgeUnlinksBothEnds(t *testing.T) {
	m := mir.NewModule("test")
	h := leafFunction(m, "h")
	g := callerFunction(m, "g", h)

	graph := Build(m)
	hNode := graph.NodeForFunction(h)
	gNode := graph.NodeForFunction(g)
	edge := gNode.CalleeEdges()[0]

	graph.RemoveEdge(edge)

	assert.Empty(t, gNode.CalleeEdges())
	assert.Empty(t, hNode.CallerEdges())
	assert.True(t, hNode.IsDead(),
		"the sole caller edge is gone and caller knowledge was complete")

	_, ok := graph.EdgeForApply(edge.Apply())
	assert.False(t, ok)

	assert.Panics(t, func() { graph.RemoveEdge(edge) },
		"removing an unknown edge is a programming error")
}

func TestDynamicSelfStaysAfterEdgeRemoval(t *testing.T) {
	m, implA, _, apply := dispatchModule(t, true, false)

	graph := Build(m)
	node := graph.NodeForFunction(implA)
	require.True(t, node.MayBindDynamicSelf())

	graph.RemoveEdgesForApply(apply)
	assert.True(t, node.MayBindDynamicSelf(), "the flag is conservatively sticky")
}

func TestReplaceApplyReclassifies(t *testing.T) {
	m, implA, implB, apply := dispatchModule(t, true, false)

	graph := Build(m)
	edge, _ := graph.EdgeForApply(apply)
	require.Len(t, edge.GetPartialCalleeSet(), 2)

	// Rewrite the dispatch into a direct call, the devirtualizer's move.
	block := apply.GetBlock()
	ref := mir.NewFunctionRef(m, block, implA)
	block.InsertBefore(apply, ref)
	apply.Callee = ref.Result
	graph.ReplaceApply(apply, apply)

	edge, ok := graph.EdgeForApply(apply)
	require.True(t, ok)
	assert.True(t, edge.HasSingleCallee())
	assert.Same(t, graph.NodeForFunction(implA), edge.GetCompleteCalleeSet()[0])

	// implB lost its caller edge from this site.
	assert.Empty(t, graph.NodeForFunction(implB).CallerEdges())
}

func TestMarkCallerEdgesOfCalleesIncomplete(t *testing.T) {
	m := mir.NewModule("test")
	h := leafFunction(m, "h")
	g := callerFunction(m, "g", h)

	graph := Build(m)
	hNode := graph.NodeForFunction(h)
	require.True(t, hNode.IsCallerEdgesComplete())

	graph.MarkCallerEdgesOfCalleesIncomplete(g.Applies()[0])
	assert.False(t, hNode.IsCallerEdgesComplete())
}
