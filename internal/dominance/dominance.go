// Package dominance computes dominator trees for MIR functions and answers
// instruction-level dominance queries. Code motion (hoisting, copying) is
// only legal between points related by dominance, so the array-semantics
// rewriter takes an *Info on every mutating operation.
package dominance

import (
	"sable/internal/mir"
)

// Info holds the dominator tree of a single function. It is a snapshot:
// recompute after any control-flow edit.
type Info struct {
	fn   *mir.Function
	idom map[*mir.BasicBlock]*mir.BasicBlock
	rpo  map[*mir.BasicBlock]int
}

// Compute builds dominance information using the iterative algorithm of
// Cooper, Harvey and Kennedy over a reverse postorder of the CFG.
func Compute(fn *mir.Function) *Info {
	info := &Info{
		fn:   fn,
		idom: map[*mir.BasicBlock]*mir.BasicBlock{},
		rpo:  map[*mir.BasicBlock]int{},
	}
	entry := fn.Entry()
	if entry == nil {
		return info
	}

	// Reverse postorder over reachable blocks.
	var order []*mir.BasicBlock
	visited := map[*mir.BasicBlock]bool{}
	var dfs func(b *mir.BasicBlock)
	dfs = func(b *mir.BasicBlock) {
		visited[b] = true
		for _, succ := range b.Successors() {
			if !visited[succ] {
				dfs(succ)
			}
		}
		order = append(order, b)
	}
	dfs(entry)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	for i, b := range order {
		info.rpo[b] = i
	}

	preds := map[*mir.BasicBlock][]*mir.BasicBlock{}
	for _, b := range order {
		for _, succ := range b.Successors() {
			preds[succ] = append(preds[succ], b)
		}
	}

	info.idom[entry] = entry
	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			var newIdom *mir.BasicBlock
			for _, p := range preds[b] {
				if info.idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
				} else {
					newIdom = info.intersect(p, newIdom)
				}
			}
			if newIdom != nil && info.idom[b] != newIdom {
				info.idom[b] = newIdom
				changed = true
			}
		}
	}
	return info
}

func (info *Info) intersect(a, b *mir.BasicBlock) *mir.BasicBlock {
	for a != b {
		for info.rpo[a] > info.rpo[b] {
			a = info.idom[a]
		}
		for info.rpo[b] > info.rpo[a] {
			b = info.idom[b]
		}
	}
	return a
}

// BlockDominates reports whether a dominates b (reflexively).
func (info *Info) BlockDominates(a, b *mir.BasicBlock) bool {
	if a == b {
		return true
	}
	entry := info.fn.Entry()
	for cur := b; cur != entry; cur = info.idom[cur] {
		if info.idom[cur] == nil {
			return false // unreachable block
		}
		if info.idom[cur] == a {
			return true
		}
	}
	return false
}

// Dominates reports whether instruction a dominates instruction b: every
// path to b executes a first. Within one block this is list order, with the
// terminator last.
func (info *Info) Dominates(a, b mir.Instruction) bool {
	if a == b {
		return true
	}
	blockA, blockB := a.GetBlock(), b.GetBlock()
	if blockA != blockB {
		return info.BlockDominates(blockA, blockB)
	}
	if a.IsTerminator() {
		return false
	}
	if b.IsTerminator() {
		return true
	}
	return blockA.IndexOf(a) < blockB.IndexOf(b)
}

// AvailableAt reports whether a value's definition dominates the given
// program point. Function parameters are available everywhere.
func (info *Info) AvailableAt(v *mir.Value, at mir.Instruction) bool {
	if v.Def == nil {
		return true
	}
	return info.Dominates(v.Def, at)
}
