package callgraph

import (
	"fmt"
	"io"
	"strings"
)

// Statistics summarizes a graph for the diagnostic surface.
type Statistics struct {
	Nodes             int
	Edges             int
	CompleteEdges     int
	SingleCalleeEdges int
	UnknownEdges      int
	Components        int
	DeadFunctions     int
}

// Stats computes summary statistics over the current graph.
func (g *Graph) Stats() Statistics {
	stats := Statistics{
		Nodes:      len(g.nodes),
		Edges:      len(g.edges),
		Components: len(g.BottomUpSCCOrder()),
	}
	for _, e := range g.edges {
		if e.complete {
			stats.CompleteEdges++
		}
		if e.HasSingleCallee() {
			stats.SingleCalleeEdges++
		}
		if e.single == nil && e.shared == nil {
			stats.UnknownEdges++
		}
	}
	for _, n := range g.nodes {
		if n.IsDead() {
			stats.DeadFunctions++
		}
	}
	return stats
}

func (s Statistics) String() string {
	return fmt.Sprintf(
		"nodes=%d edges=%d complete=%d single=%d unknown=%d sccs=%d dead=%d",
		s.Nodes, s.Edges, s.CompleteEdges, s.SingleCalleeEdges,
		s.UnknownEdges, s.Components, s.DeadFunctions)
}

// Dump returns a human-readable listing of the graph for developer
// inspection. The format is not stable.
func (g *Graph) Dump() string {
	var out strings.Builder
	fmt.Fprintf(&out, "call graph of module %s (digest %016x)\n",
		g.module.Name, g.module.CallSiteDigest())

	for _, node := range g.nodesByOrdinal() {
		flags := []string{}
		if node.IsCallerEdgesComplete() {
			flags = append(flags, "callers-complete")
		}
		if node.MayBindDynamicSelf() {
			flags = append(flags, "dynamic-self")
		}
		if node.IsDead() {
			flags = append(flags, "dead")
		}
		fmt.Fprintf(&out, "  node#%d @%s [%s]\n", node.ordinal, node.fn.Name, strings.Join(flags, " "))
		for _, edge := range node.calleeEdges {
			fmt.Fprintf(&out, "    calls %s\n", edge)
		}
		for _, edge := range node.callerEdges {
			fmt.Fprintf(&out, "    called-by @%s via %s\n", edge.apply.GetBlock().Parent.Name, edge)
		}
	}
	return out.String()
}

// WriteDot serializes the graph in Graphviz dot form. Diagnostic only: it is
// never invoked during normal operation, only behind the CLI's dump flag.
func (g *Graph) WriteDot(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "digraph %q {\n", g.module.Name); err != nil {
		return err
	}
	for _, node := range g.nodesByOrdinal() {
		shape := "ellipse"
		if !node.IsCallerEdgesComplete() {
			shape = "box"
		}
		if _, err := fmt.Fprintf(w, "  n%d [label=%q shape=%s];\n", node.ordinal, node.fn.Name, shape); err != nil {
			return err
		}
	}
	for _, node := range g.nodesByOrdinal() {
		for _, edge := range node.calleeEdges {
			targets := edge.GetPartialCalleeSet()
			if len(targets) == 0 {
				if _, err := fmt.Fprintf(w, "  n%d -> unknown [style=dashed];\n", node.ordinal); err != nil {
					return err
				}
				continue
			}
			style := "solid"
			if !edge.complete {
				style = "dashed"
			}
			for _, target := range targets {
				if _, err := fmt.Fprintf(w, "  n%d -> n%d [style=%s];\n", node.ordinal, target.ordinal, style); err != nil {
					return err
				}
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
