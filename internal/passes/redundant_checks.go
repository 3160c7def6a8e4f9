package passes

import (
	"sable/internal/arraysem"
	"sable/internal/callgraph"
	"sable/internal/dominance"
	"sable/internal/mir"
)

// RedundantArrayCheckElimination removes array bounds checks that a
// dominating identical check already proves. A check on (array, index) is
// redundant when the same pair was checked on every path leading here and
// nothing in between could have changed the array's bounds.
type RedundantArrayCheckElimination struct{}

func (r *RedundantArrayCheckElimination) Name() string {
	return "Redundant Array Check Elimination"
}

func (r *RedundantArrayCheckElimination) Description() string {
	return "Removes bounds checks dominated by an identical check with no intervening mutation"
}

func (r *RedundantArrayCheckElimination) Apply(ctx *Context) bool {
	graph := ctx.Graph()
	changed := false

	for _, fn := range ctx.BottomUpFunctions() {
		if r.eliminateInFunction(graph, fn) {
			changed = true
		}
	}

	if changed {
		ctx.Analysis.Invalidate(callgraph.CallsPreserved)
	}
	return changed
}

type checkedPair struct {
	self  *mir.Value
	index *mir.Value
}

func (r *RedundantArrayCheckElimination) eliminateInFunction(graph *callgraph.Graph, fn *mir.Function) bool {
	changed := false

	// Within one block a linear scan suffices: a second identical check is
	// redundant unless a barrier ran since the first.
	var crossBlock []*arraysem.Call
	barriers := 0

	for _, block := range fn.Blocks {
		available := map[checkedPair]bool{}
		for _, inst := range append([]mir.Instruction(nil), block.Instructions...) {
			call, matched := arraysem.Match(inst)
			if !matched {
				if _, isApply := inst.(*mir.ApplyInst); isApply {
					// An unrecognized call may grow, shrink, or replace any
					// array reachable from it.
					available = map[checkedPair]bool{}
					barriers++
				}
				continue
			}
			if call.Kind().MutatesArray() {
				available = map[checkedPair]bool{}
				barriers++
				continue
			}
			if !isBoundsCheck(call.Kind()) {
				continue
			}

			index, _ := call.Index()
			pair := checkedPair{self: call.Self(), index: index}
			if available[pair] {
				graph.RemoveEdgesForApply(call.Apply())
				call.RemoveCall()
				changed = true
				continue
			}
			available[pair] = true
			crossBlock = append(crossBlock, call)
		}
	}

	// Across blocks, dominance alone is not enough: a mutation on some path
	// between the checks would invalidate the proof. Only a function with no
	// barriers at all makes every dominated duplicate removable.
	if barriers == 0 && len(crossBlock) > 1 {
		dom := dominance.Compute(fn)
		removed := map[*arraysem.Call]bool{}
		for _, later := range crossBlock {
			for _, earlier := range crossBlock {
				if earlier == later || removed[earlier] || removed[later] {
					continue
				}
				if !samePair(earlier, later) {
					continue
				}
				if earlier.Apply().GetBlock() == later.Apply().GetBlock() {
					continue
				}
				if dom.Dominates(earlier.Apply(), later.Apply()) {
					graph.RemoveEdgesForApply(later.Apply())
					later.RemoveCall()
					removed[later] = true
					changed = true
					break
				}
			}
		}
	}

	return changed
}

func isBoundsCheck(k arraysem.Kind) bool {
	return k == arraysem.KindCheckSubscript || k == arraysem.KindCheckIndex
}

func samePair(a, b *arraysem.Call) bool {
	if a.Self() != b.Self() {
		return false
	}
	aIndex, _ := a.Index()
	bIndex, _ := b.Index()
	return aIndex == bIndex
}
