package callgraph

import "sort"

// Tarjan's algorithm emits each strongly connected component only after every
// component reachable from it, so the natural emission order is already
// bottom-up: callees' components appear before their callers'.

type sccState struct {
	graph   *Graph
	index   map[*Node]int
	lowlink map[*Node]int
	onStack map[*Node]bool
	stack   []*Node
	next    int
	order   [][]*Node
}

// BottomUpSCCOrder returns the strongly connected components of the graph
// ordered callees-first. Memoized until the next structural edit.
func (g *Graph) BottomUpSCCOrder() [][]*Node {
	if g.sccOrder != nil {
		return g.sccOrder
	}

	state := &sccState{
		graph:   g,
		index:   map[*Node]int{},
		lowlink: map[*Node]int{},
		onStack: map[*Node]bool{},
	}
	for _, node := range g.nodesByOrdinal() {
		if _, visited := state.index[node]; !visited {
			state.strongConnect(node)
		}
	}

	g.sccOrder = state.order
	return g.sccOrder
}

// BottomUpFunctionOrder flattens the SCC order into a deterministic function
// order: components bottom-up, nodes within a component by ordinal. Passes
// must still treat all functions of one component as mutually dependent.
func (g *Graph) BottomUpFunctionOrder() []*Node {
	if g.functionOrder != nil {
		return g.functionOrder
	}

	var order []*Node
	for _, component := range g.BottomUpSCCOrder() {
		members := append([]*Node(nil), component...)
		sort.Slice(members, func(i, j int) bool {
			return members[i].ordinal < members[j].ordinal
		})
		order = append(order, members...)
	}

	g.functionOrder = order
	return g.functionOrder
}

func (s *sccState) strongConnect(node *Node) {
	s.index[node] = s.next
	s.lowlink[node] = s.next
	s.next++
	s.stack = append(s.stack, node)
	s.onStack[node] = true

	for _, succ := range s.successors(node) {
		if _, visited := s.index[succ]; !visited {
			s.strongConnect(succ)
			if s.lowlink[succ] < s.lowlink[node] {
				s.lowlink[node] = s.lowlink[succ]
			}
		} else if s.onStack[succ] {
			if s.index[succ] < s.lowlink[node] {
				s.lowlink[node] = s.index[succ]
			}
		}
	}

	if s.lowlink[node] == s.index[node] {
		var component []*Node
		for {
			top := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			s.onStack[top] = false
			component = append(component, top)
			if top == node {
				break
			}
		}
		s.order = append(s.order, component)
	}
}

// successors enumerates the possible callees of a node's call sites in edge
// order, which keeps the traversal deterministic.
func (s *sccState) successors(node *Node) []*Node {
	var succs []*Node
	seen := map[*Node]bool{}
	for _, edge := range node.calleeEdges {
		for _, target := range edge.GetPartialCalleeSet() {
			if !seen[target] {
				seen[target] = true
				succs = append(succs, target)
			}
		}
	}
	return succs
}

// nodesByOrdinal returns every node in creation order.
func (g *Graph) nodesByOrdinal() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ordinal < nodes[j].ordinal
	})
	return nodes
}
