package mir

import "fmt"

// Verify checks the structural invariants the optimizer relies on and returns
// every violation found. A module that fails verification must not be handed
// to the pass pipeline.
func Verify(m *Module) []error {
	var errs []error

	report := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	seenOrdinals := map[int]*ApplyInst{}

	for _, fn := range m.Functions {
		if !fn.IsDefinition() {
			continue
		}

		defined := map[*Value]bool{}
		for _, param := range fn.Params {
			defined[param.Value] = true
		}

		for _, block := range fn.Blocks {
			if block.Terminator == nil {
				report("function @%s: block %s has no terminator", fn.Name, block.Label)
			}
			if block.Parent != fn {
				report("function @%s: block %s has wrong parent", fn.Name, block.Label)
			}

			for _, inst := range block.Instructions {
				if inst.IsTerminator() {
					report("function @%s: terminator %s in instruction list of %s", fn.Name, inst, block.Label)
				}
				if inst.GetBlock() != block {
					report("function @%s: instruction %s has stale block reference", fn.Name, inst)
				}
				if result := inst.GetResult(); result != nil {
					if result.Def != inst {
						report("function @%s: result of %s does not point back to its definition", fn.Name, inst)
					}
					defined[result] = true
				}
				if apply, ok := inst.(*ApplyInst); ok {
					if prior, dup := seenOrdinals[apply.Ordinal]; dup {
						report("duplicate apply ordinal %d (%s and %s)", apply.Ordinal, prior, apply)
					}
					seenOrdinals[apply.Ordinal] = apply
				}
			}
		}

		// Operand definitions must come from this function. Dominance of the
		// definition over the use is the dominance package's concern, not
		// checked here.
		for _, block := range fn.Blocks {
			insts := append([]Instruction(nil), block.Instructions...)
			if block.Terminator != nil {
				insts = append(insts, block.Terminator)
			}
			for _, inst := range insts {
				for _, op := range inst.GetOperands() {
					if op == nil {
						report("function @%s: %s has nil operand", fn.Name, inst)
						continue
					}
					if op.Def == nil {
						// Function parameter; must belong to this function.
						if !defined[op] {
							report("function @%s: %s uses foreign parameter %s", fn.Name, inst, op)
						}
						continue
					}
					if op.Def.GetBlock() == nil || op.Def.GetBlock().Parent != fn {
						report("function @%s: %s uses value %s defined outside the function", fn.Name, inst, op)
					}
				}
			}
		}
	}

	return errs
}
