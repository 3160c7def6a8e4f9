package passes

import (
	"sable/internal/callgraph"
	"sable/internal/mir"
)

// DeadFunctionElimination deletes functions the call graph proves
// unreachable: the caller edge set is known exhaustively and is empty.
type DeadFunctionElimination struct{}

func (dfe *DeadFunctionElimination) Name() string {
	return "Dead Function Elimination"
}

func (dfe *DeadFunctionElimination) Description() string {
	return "Deletes functions with a provably empty caller set"
}

func (dfe *DeadFunctionElimination) Apply(ctx *Context) bool {
	changed := false

	// Removing a function can orphan its callees, so iterate to a fixpoint.
	// The graph is rebuilt each round; deletion invalidates it wholesale.
	for {
		graph := ctx.Graph()

		var dead []*mir.Function
		for _, node := range graph.BottomUpFunctionOrder() {
			fn := node.Function()
			if !node.IsDead() || !fn.IsDefinition() {
				continue
			}
			if dfe.inMethodTable(ctx.Module, fn) {
				continue
			}
			dead = append(dead, fn)
		}
		if len(dead) == 0 {
			return changed
		}

		for _, fn := range dead {
			log.Infof("removing dead function @%s", fn.Name)
			ctx.Module.RemoveFunction(fn)
		}
		ctx.Analysis.Invalidate(callgraph.CallsChanged)
		changed = true
	}
}

// inMethodTable reports whether a function is installed as a method
// implementation. Such functions stay: the table entry must remain valid
// even when no dispatch site in this module reaches it.
func (dfe *DeadFunctionElimination) inMethodTable(m *mir.Module, fn *mir.Function) bool {
	for _, class := range m.Classes {
		for _, impl := range class.Methods {
			if impl == fn {
				return true
			}
		}
	}
	return false
}
