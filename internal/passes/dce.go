package passes

import (
	"sable/internal/callgraph"
	"sable/internal/mir"
)

// DeadCodeElimination removes unreachable basic blocks and instructions
// whose results are never used.
type DeadCodeElimination struct{}

func (dce *DeadCodeElimination) Name() string {
	return "Dead Code Elimination"
}

func (dce *DeadCodeElimination) Description() string {
	return "Removes unreachable basic blocks and unused instructions"
}

func (dce *DeadCodeElimination) Apply(ctx *Context) bool {
	graph := ctx.Graph()
	changed := false

	for _, fn := range ctx.Module.Functions {
		if !fn.IsDefinition() {
			continue
		}
		if dce.eliminateDeadBlocks(graph, fn) {
			changed = true
		}
		if dce.eliminateDeadInstructions(fn) {
			changed = true
		}
	}

	if changed {
		// Call sites only disappear with their blocks, and those go through
		// the graph API.
		ctx.Analysis.Invalidate(callgraph.CallsPreserved)
	}
	return changed
}

// eliminateDeadBlocks removes blocks unreachable from the entry. Call sites
// in removed blocks are unregistered from the graph first.
func (dce *DeadCodeElimination) eliminateDeadBlocks(graph *callgraph.Graph, fn *mir.Function) bool {
	reachable := map[*mir.BasicBlock]bool{}
	dce.markReachable(fn.Entry(), reachable)

	changed := false
	var kept []*mir.BasicBlock
	for _, block := range fn.Blocks {
		if reachable[block] {
			kept = append(kept, block)
			continue
		}
		for _, inst := range block.Instructions {
			if apply, ok := inst.(*mir.ApplyInst); ok {
				graph.RemoveEdgesForApply(apply)
			}
		}
		changed = true
	}

	if changed {
		fn.Blocks = kept
	}
	return changed
}

func (dce *DeadCodeElimination) markReachable(block *mir.BasicBlock, reachable map[*mir.BasicBlock]bool) {
	if block == nil || reachable[block] {
		return
	}
	reachable[block] = true
	for _, succ := range block.Successors() {
		dce.markReachable(succ, reachable)
	}
}

// eliminateDeadInstructions removes side-effect-free instructions whose
// results have no uses. Iterates because removing one use can expose another.
func (dce *DeadCodeElimination) eliminateDeadInstructions(fn *mir.Function) bool {
	changed := false
	for {
		used := map[*mir.Value]bool{}
		for _, block := range fn.Blocks {
			for _, inst := range block.Instructions {
				for _, op := range inst.GetOperands() {
					used[op] = true
				}
			}
			if block.Terminator != nil {
				for _, op := range block.Terminator.GetOperands() {
					used[op] = true
				}
			}
		}

		removedAny := false
		for _, block := range fn.Blocks {
			var kept []mir.Instruction
			for _, inst := range block.Instructions {
				if dce.shouldKeep(inst, used) {
					kept = append(kept, inst)
				} else {
					removedAny = true
				}
			}
			if removedAny {
				block.Instructions = kept
			}
		}

		if !removedAny {
			return changed
		}
		changed = true
	}
}

// shouldKeep reports whether an instruction must survive. Calls, memory
// writes, and reference-count operations have effects regardless of their
// results; pure value producers live only through their uses.
func (dce *DeadCodeElimination) shouldKeep(inst mir.Instruction, used map[*mir.Value]bool) bool {
	switch inst.(type) {
	case *mir.ApplyInst, *mir.StoreInst, *mir.RetainInst, *mir.ReleaseInst:
		return true
	case *mir.ConstInst, *mir.FunctionRefInst, *mir.ClassMethodInst:
		return used[inst.GetResult()]
	default:
		return true // Conservative: keep unknown instructions
	}
}
