package cfg

import (
	"bril/internal/ir"
)

// EntryLabel is the reserved label of the synthetic entry block.
const EntryLabel = "sentinel_entry"

// Block is a basic block: a label unique within its function and the
// ordered instructions it owns. The first instruction, when it is a label
// record, names the block itself; after terminator completion the last
// instruction is always jmp, br or ret.
type Block struct {
	ID     int
	Label  string
	Instrs []*ir.Instruction
}

// Append adds an instruction at the end of the block.
func (b *Block) Append(instr *ir.Instruction) {
	b.Instrs = append(b.Instrs, instr)
}

// Last returns the final instruction, or nil for an empty block.
func (b *Block) Last() *ir.Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

// Terminated reports whether the block already ends in a terminator.
func (b *Block) Terminated() bool {
	last := b.Last()
	return last != nil && last.IsTerminator()
}

// InsertBeforeTerminator places instr at the end of the block but ahead of
// the terminator when one is present.
func (b *Block) InsertBeforeTerminator(instr *ir.Instruction) {
	if !b.Terminated() {
		b.Append(instr)
		return
	}
	term := b.Instrs[len(b.Instrs)-1]
	b.Instrs = append(b.Instrs[:len(b.Instrs)-1], instr, term)
}

// RemoveNops drops every nop record from the block.
func (b *Block) RemoveNops() {
	kept := b.Instrs[:0]
	for _, instr := range b.Instrs {
		if instr.Op != ir.OpNop {
			kept = append(kept, instr)
		}
	}
	b.Instrs = kept
}
