package callgraph

import (
	"fmt"

	"sable/internal/mir"
)

// Node represents one function in the call graph. It tracks the edges that
// may call the function (caller edges) and the edges for the call sites
// inside the function (callee edges).
type Node struct {
	fn      *mir.Function
	ordinal int

	callerEdges []*Edge
	calleeEdges []*Edge

	// callerEdgesComplete is true iff no call site outside the known edge
	// set could possibly invoke this function. It only ever transitions
	// from true to false; regaining completeness requires a full rebuild.
	callerEdgesComplete bool

	// mayBindDynamicSelf is true iff some known call site could pass a
	// dynamically-determined receiver into this function. Conservatively
	// sticky: it survives removal of the edge that set it.
	mayBindDynamicSelf bool
}

// Function returns the function this node represents.
func (n *Node) Function() *mir.Function {
	return n.fn
}

// Ordinal returns the node's creation-order ordinal, stable for the lifetime
// of one Graph.
func (n *Node) Ordinal() int {
	return n.ordinal
}

// CallerEdges returns the known edges that may invoke this function.
func (n *Node) CallerEdges() []*Edge {
	return n.callerEdges
}

// CalleeEdges returns the edges for the call sites inside this function.
func (n *Node) CalleeEdges() []*Edge {
	return n.calleeEdges
}

// IsCallerEdgesComplete reports whether the caller edge set is exhaustive.
func (n *Node) IsCallerEdgesComplete() bool {
	return n.callerEdgesComplete
}

// MarkCallerEdgesIncomplete records that an unknown caller may exist. This is
// a one-way transition.
func (n *Node) MarkCallerEdgesIncomplete() {
	n.callerEdgesComplete = false
}

// MayBindDynamicSelf reports whether any call site may pass a dynamic
// receiver into this function.
func (n *Node) MayBindDynamicSelf() bool {
	return n.mayBindDynamicSelf
}

func (n *Node) markMayBindDynamicSelf() {
	n.mayBindDynamicSelf = true
}

// IsDead reports whether the function is provably unreachable: its caller
// edges are known exhaustively and there are none.
func (n *Node) IsDead() bool {
	return n.callerEdgesComplete && len(n.callerEdges) == 0
}

func (n *Node) addCallerEdge(e *Edge) {
	n.callerEdges = append(n.callerEdges, e)
}

func (n *Node) removeCallerEdge(e *Edge) {
	for i, existing := range n.callerEdges {
		if existing == e {
			n.callerEdges = append(n.callerEdges[:i], n.callerEdges[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("callgraph: removing caller edge %s not present on node @%s", e, n.fn.Name))
}

func (n *Node) addCalleeEdge(e *Edge) {
	n.calleeEdges = append(n.calleeEdges, e)
}

func (n *Node) removeCalleeEdge(e *Edge) {
	for i, existing := range n.calleeEdges {
		if existing == e {
			n.calleeEdges = append(n.calleeEdges[:i], n.calleeEdges[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("callgraph: removing callee edge %s not present on node @%s", e, n.fn.Name))
}
