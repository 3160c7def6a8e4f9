package callgraph

import (
	"fmt"
	"strings"

	"sable/internal/mir"
)

// CalleeList is a mutable candidate set. All call sites that dispatch
// through one method slot share a single CalleeList, so a function
// discovered to be reachable through the slot becomes visible to every one
// of them at once.
type CalleeList struct {
	nodes []*Node
}

// Nodes returns the candidates in insertion order.
func (l *CalleeList) Nodes() []*Node {
	return l.nodes
}

func (l *CalleeList) add(n *Node) bool {
	for _, existing := range l.nodes {
		if existing == n {
			return false
		}
	}
	l.nodes = append(l.nodes, n)
	return true
}

// Edge represents one call site. The callee set is either a single resolved
// node or a shared candidate list; when both are nil the call site can reach
// an arbitrary external function.
type Edge struct {
	apply   *mir.ApplyInst
	single  *Node
	shared  *CalleeList
	ordinal int

	// complete means the callee set contains every function this call site
	// could possibly invoke.
	complete bool
}

func newSingleEdge(apply *mir.ApplyInst, callee *Node, ordinal int) *Edge {
	return &Edge{apply: apply, single: callee, complete: true, ordinal: ordinal}
}

func newSharedEdge(apply *mir.ApplyInst, callees *CalleeList, complete bool, ordinal int) *Edge {
	return &Edge{apply: apply, shared: callees, complete: complete, ordinal: ordinal}
}

func newUnknownEdge(apply *mir.ApplyInst, ordinal int) *Edge {
	return &Edge{apply: apply, ordinal: ordinal}
}

// Apply returns the call site this edge represents.
func (e *Edge) Apply() *mir.ApplyInst {
	return e.apply
}

// Ordinal returns the edge's creation-order ordinal.
func (e *Edge) Ordinal() int {
	return e.ordinal
}

// IsCalleeSetComplete reports whether the callee set is exhaustive.
func (e *Edge) IsCalleeSetComplete() bool {
	return e.complete
}

// CanCallArbitraryFunction reports whether the call site may reach functions
// outside the known set. Conservative passes must assume worst-case side
// effects when this is true.
func (e *Edge) CanCallArbitraryFunction() bool {
	return !e.complete
}

// GetCompleteCalleeSet returns the exhaustive callee set. Requesting it on an
// incomplete edge is a programming error.
func (e *Edge) GetCompleteCalleeSet() []*Node {
	if !e.complete {
		panic(fmt.Sprintf("callgraph: complete callee set requested on incomplete edge %s", e))
	}
	return e.GetPartialCalleeSet()
}

// GetPartialCalleeSet returns the currently known callees with no
// completeness guarantee.
func (e *Edge) GetPartialCalleeSet() []*Node {
	switch {
	case e.single != nil:
		return []*Node{e.single}
	case e.shared != nil:
		return e.shared.nodes
	default:
		return nil
	}
}

// addCallee grows the candidate set, reporting whether the node is new to
// it. Growing a set already certified as exhaustive is a programming error.
// Caller-edge bookkeeping on the new node is Graph.AddCallee's job; edges
// cannot enumerate their siblings aliasing the same set.
func (e *Edge) addCallee(n *Node) bool {
	if e.complete {
		panic(fmt.Sprintf("callgraph: adding callee @%s to complete edge %s", n.fn.Name, e))
	}
	if e.shared == nil {
		e.shared = &CalleeList{}
	}
	return e.shared.add(n)
}

// HasSingleCallee reports whether the call site provably reaches exactly one
// function - the precondition for devirtualizing it.
func (e *Edge) HasSingleCallee() bool {
	if !e.complete {
		return false
	}
	return len(e.GetPartialCalleeSet()) == 1
}

func (e *Edge) String() string {
	var names []string
	for _, n := range e.GetPartialCalleeSet() {
		names = append(names, "@"+n.fn.Name)
	}
	state := "incomplete"
	if e.complete {
		state = "complete"
	}
	return fmt.Sprintf("edge#%d{%s: [%s]}", e.ordinal, state, strings.Join(names, ", "))
}
