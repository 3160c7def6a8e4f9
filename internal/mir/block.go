package mir

import "fmt"

// BasicBlock represents a sequence of instructions with no internal branches
type BasicBlock struct {
	Label        string
	Parent       *Function
	Instructions []Instruction
	Terminator   Terminator
}

// NewBlock appends a fresh block to the function.
func (f *Function) NewBlock(label string) *BasicBlock {
	block := &BasicBlock{Label: label, Parent: f}
	f.Blocks = append(f.Blocks, block)
	return block
}

// Successors returns the blocks control flow may continue to.
func (b *BasicBlock) Successors() []*BasicBlock {
	if b.Terminator == nil {
		return nil
	}
	return b.Terminator.GetSuccessors()
}

// IndexOf returns the position of an instruction within the block, or -1.
// The terminator is not part of the instruction list.
func (b *BasicBlock) IndexOf(inst Instruction) int {
	for i, candidate := range b.Instructions {
		if candidate == inst {
			return i
		}
	}
	return -1
}

// InsertBefore places inst immediately before an existing instruction.
// Inserting before an instruction that is not in the block is a programming
// error.
func (b *BasicBlock) InsertBefore(before, inst Instruction) {
	if before == Instruction(b.Terminator) {
		b.Instructions = append(b.Instructions, inst)
		return
	}
	idx := b.IndexOf(before)
	if idx < 0 {
		panic(fmt.Sprintf("mir: insertion point %s not in block %s", before, b.Label))
	}
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[idx+1:], b.Instructions[idx:])
	b.Instructions[idx] = inst
}

// RemoveInstruction deletes an instruction from the block. Removing an
// instruction that is not present is a programming error: silent no-ops here
// would turn dangling references into silent IR corruption.
func (b *BasicBlock) RemoveInstruction(inst Instruction) {
	idx := b.IndexOf(inst)
	if idx < 0 {
		panic(fmt.Sprintf("mir: removing instruction %s not in block %s", inst, b.Label))
	}
	b.Instructions = append(b.Instructions[:idx], b.Instructions[idx+1:]...)
}
