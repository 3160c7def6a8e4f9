// Package callgraph builds and maintains the whole-program call graph the
// interprocedural optimizer passes walk. The graph is owned by a single
// pipeline run; it is either exactly consistent with the module's
// instruction stream or explicitly invalidated wholesale - there is no
// "maybe stale" state, and edits that refer to unknown edges fail loudly.
package callgraph

import (
	"fmt"

	"sable/internal/mir"
)

type slotKey struct {
	class  *mir.Class
	method string
}

// Graph owns one node per function and one edge per call site.
type Graph struct {
	module *mir.Module

	nodes map[*mir.Function]*Node
	edges map[*mir.ApplyInst]*Edge

	// roots are the functions defined in this module, usable as traversal
	// starting points.
	roots []*Node

	// methodSets holds one shared candidate list per dispatch slot, so that
	// call sites through the same slot alias a single pool instead of each
	// copying every override.
	methodSets map[slotKey]*CalleeList

	nextNodeOrdinal int
	nextEdgeOrdinal int

	// Memoized orders; reset on any structural edit.
	sccOrder      [][]*Node
	functionOrder []*Node
}

// Build scans every function's call sites and constructs the graph.
func Build(m *mir.Module) *Graph {
	g := &Graph{
		module:     m,
		nodes:      map[*mir.Function]*Node{},
		edges:      map[*mir.ApplyInst]*Edge{},
		methodSets: map[slotKey]*CalleeList{},
	}

	for _, fn := range m.Functions {
		node := g.getOrCreateNode(fn)
		if fn.IsDefinition() {
			g.roots = append(g.roots, node)
		}
	}

	for _, fn := range m.Functions {
		for _, apply := range fn.Applies() {
			g.addEdges(apply)
		}
	}

	g.lowerEscapedFunctions()
	g.lowerDispatchedMethods()
	return g
}

// Module returns the module the graph was built from.
func (g *Graph) Module() *mir.Module {
	return g.module
}

// Roots returns the nodes for functions defined in this module.
func (g *Graph) Roots() []*Node {
	return g.roots
}

// NodeForFunction returns the node for a function, creating it lazily the
// first time anything references the function.
func (g *Graph) NodeForFunction(fn *mir.Function) *Node {
	return g.getOrCreateNode(fn)
}

// EdgeForApply returns the edge for a call site, if one is registered.
func (g *Graph) EdgeForApply(apply *mir.ApplyInst) (*Edge, bool) {
	e, ok := g.edges[apply]
	return e, ok
}

func (g *Graph) getOrCreateNode(fn *mir.Function) *Node {
	if node, ok := g.nodes[fn]; ok {
		return node
	}
	node := &Node{
		fn:      fn,
		ordinal: g.nextNodeOrdinal,
		// A function whose body is elsewhere, or which is visible outside
		// the module, can have callers this graph will never see.
		callerEdgesComplete: fn.IsDefinition() && !fn.Public,
	}
	g.nextNodeOrdinal++
	g.nodes[fn] = node
	return node
}

// addEdges classifies one call site and links the resulting edge into the
// graph. Shared with construction and the editing API.
func (g *Graph) addEdges(apply *mir.ApplyInst) {
	if _, dup := g.edges[apply]; dup {
		panic(fmt.Sprintf("callgraph: call site %s already has an edge", apply))
	}

	caller := g.getOrCreateNode(apply.GetBlock().Parent)

	var edge *Edge
	switch {
	case apply.CalleeFunction() != nil:
		callee := g.getOrCreateNode(apply.CalleeFunction())
		edge = newSingleEdge(apply, callee, g.nextEdgeOrdinal)

	case apply.CalleeMethod() != nil:
		method := apply.CalleeMethod()
		root := method.Class.SlotRoot(method.Method)
		key := slotKey{class: root, method: method.Method}

		list, ok := g.methodSets[key]
		if !ok {
			list = &CalleeList{}
			for _, impl := range root.Overrides(method.Method) {
				list.add(g.getOrCreateNode(impl))
			}
			g.methodSets[key] = list
		}
		// The dispatch set is exhaustive only if the module is fully linked
		// and no class in the hierarchy can grow subclasses elsewhere.
		complete := g.module.Complete && !root.HasOpenSubclass()
		edge = newSharedEdge(apply, list, complete, g.nextEdgeOrdinal)

		for _, target := range list.nodes {
			target.markMayBindDynamicSelf()
		}

	default:
		// Call through an opaque value: arbitrary external functions are
		// reachable.
		edge = newUnknownEdge(apply, g.nextEdgeOrdinal)
	}
	g.nextEdgeOrdinal++

	g.edges[apply] = edge
	caller.addCalleeEdge(edge)
	for _, target := range edge.GetPartialCalleeSet() {
		target.addCallerEdge(edge)
	}
}

// lowerEscapedFunctions lowers caller completeness for every function whose
// address escapes: a function_ref used anywhere but the callee position of an
// apply may be invoked by callers this graph cannot see.
func (g *Graph) lowerEscapedFunctions() {
	for _, fn := range g.module.Functions {
		for _, block := range fn.Blocks {
			insts := append([]mir.Instruction(nil), block.Instructions...)
			if block.Terminator != nil {
				insts = append(insts, block.Terminator)
			}
			for _, inst := range insts {
				_, isApply := inst.(*mir.ApplyInst)
				for i, op := range inst.GetOperands() {
					if op == nil || op.Def == nil {
						continue
					}
					ref, isRef := op.Def.(*mir.FunctionRefInst)
					if !isRef {
						continue
					}
					// Operand 0 of an apply is the callee position. The same
					// reference showing up again as an argument is an escape.
					if isApply && i == 0 {
						continue
					}
					g.getOrCreateNode(ref.Func).MarkCallerEdgesIncomplete()
				}
			}
		}
	}
}

// lowerDispatchedMethods lowers caller completeness for method
// implementations whose dispatch sites this graph cannot enumerate: any
// method table entry is reachable from dispatch sites in later-linked code
// or through external subclasses.
func (g *Graph) lowerDispatchedMethods() {
	for _, class := range g.module.Classes {
		if g.module.Complete && !class.HasOpenSubclass() {
			continue
		}
		for _, impl := range class.Methods {
			g.getOrCreateNode(impl).MarkCallerEdgesIncomplete()
		}
	}
}

// AddCallee grows a call site's candidate set. When the set is shared, the
// growth is visible through every edge dispatching via the same slot, and
// the new candidate gains a caller edge for each of those call sites so the
// cross references stay symmetric.
func (g *Graph) AddCallee(e *Edge, n *Node) {
	if !e.addCallee(n) {
		return
	}
	for _, other := range g.edges {
		if other.shared == e.shared {
			n.addCallerEdge(other)
		}
	}
	for _, list := range g.methodSets {
		if list == e.shared {
			n.markMayBindDynamicSelf()
			break
		}
	}
	g.invalidateOrders()
}

// AddEdgesForApply registers a newly created call site. Used by passes after
// they synthesize a call instruction.
func (g *Graph) AddEdgesForApply(apply *mir.ApplyInst) {
	g.addEdges(apply)
	g.invalidateOrders()
}

// RemoveEdge unlinks an edge from the caller node and from every known
// callee node atomically, then forgets the call site.
func (g *Graph) RemoveEdge(e *Edge) {
	registered, ok := g.edges[e.apply]
	if !ok || registered != e {
		panic(fmt.Sprintf("callgraph: removing unknown edge %s", e))
	}

	caller := g.getOrCreateNode(e.apply.GetBlock().Parent)
	caller.removeCalleeEdge(e)
	for _, target := range e.GetPartialCalleeSet() {
		target.removeCallerEdge(e)
	}
	// Note: mayBindDynamicSelf on the targets stays set. The conservative
	// answer remains safe after the responsible edge is gone.

	delete(g.edges, e.apply)
	g.invalidateOrders()
}

// RemoveEdgesForApply removes the edge for a call site that a pass deleted.
// Removing a call site with no edge is a programming error.
func (g *Graph) RemoveEdgesForApply(apply *mir.ApplyInst) {
	e, ok := g.edges[apply]
	if !ok {
		panic(fmt.Sprintf("callgraph: no edge registered for call site %s", apply))
	}
	g.RemoveEdge(e)
}

// MarkCallerEdgesOfCalleesIncomplete conservatively lowers the caller
// completeness of every currently-known callee of the call site. Used when
// the target set may have grown in a way the graph cannot analyze.
func (g *Graph) MarkCallerEdgesOfCalleesIncomplete(apply *mir.ApplyInst) {
	e, ok := g.edges[apply]
	if !ok {
		panic(fmt.Sprintf("callgraph: no edge registered for call site %s", apply))
	}
	for _, target := range e.GetPartialCalleeSet() {
		target.MarkCallerEdgesIncomplete()
	}
}

// ReplaceApply swaps the edge of one call site for edges of its replacements
// as a single logical step, so no caller observes the graph between the
// removal and the re-additions.
func (g *Graph) ReplaceApply(old *mir.ApplyInst, replacements ...*mir.ApplyInst) {
	g.RemoveEdgesForApply(old)
	for _, apply := range replacements {
		g.addEdges(apply)
	}
	g.invalidateOrders()
}

func (g *Graph) invalidateOrders() {
	g.sccOrder = nil
	g.functionOrder = nil
}
