package passes

import (
	"sable/internal/callgraph"
	"sable/internal/mir"
)

// Devirtualizer rewrites dynamic dispatch sites that provably reach exactly
// one implementation into direct calls.
type Devirtualizer struct{}

func (d *Devirtualizer) Name() string {
	return "Devirtualizer"
}

func (d *Devirtualizer) Description() string {
	return "Rewrites single-target class_method calls into direct function calls"
}

func (d *Devirtualizer) Apply(ctx *Context) bool {
	graph := ctx.Graph()
	changed := false

	for _, fn := range ctx.BottomUpFunctions() {
		for _, apply := range fn.Applies() {
			if d.devirtualize(graph, apply) {
				changed = true
			}
		}
	}

	if changed {
		// All rewrites went through the graph's editing API.
		ctx.Analysis.Invalidate(callgraph.CallsPreserved)
	}
	return changed
}

// devirtualize rewrites one call site if its edge certifies a single target.
// The dispatch instruction itself stays behind for dead code elimination.
func (d *Devirtualizer) devirtualize(graph *callgraph.Graph, apply *mir.ApplyInst) bool {
	if apply.CalleeMethod() == nil {
		return false
	}
	edge, ok := graph.EdgeForApply(apply)
	if !ok || !edge.HasSingleCallee() {
		return false
	}
	target := edge.GetCompleteCalleeSet()[0].Function()

	block := apply.GetBlock()
	ref := mir.NewFunctionRef(block.Parent.Module(), block, target)
	block.InsertBefore(apply, ref)
	apply.Callee = ref.Result

	// Reclassify: the edge changes shape from a shared dispatch set to a
	// single resolved callee.
	graph.ReplaceApply(apply, apply)
	return true
}
