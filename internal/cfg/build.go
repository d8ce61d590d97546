package cfg

import (
	"fmt"

	"bril/internal/errors"
	"bril/internal/ir"
)

// Build scans a flat instruction sequence into a control-flow graph. A
// synthetic sentinel_entry block is created first and made the entry; a new
// block starts at every label record. Every instruction, including the
// opening label record, belongs to its block.
func Build(instrs []*ir.Instruction) (*Graph, error) {
	g := NewGraph()
	entry := g.NewBlock(EntryLabel)
	g.appendBlock(entry)
	g.entry = entry

	curr := entry
	for _, instr := range instrs {
		if instr.IsLabel() && instr.Label != EntryLabel {
			if _, seen := g.byLabel[instr.Label]; seen {
				return nil, errors.MalformedIR(fmt.Sprintf("duplicate label '%s'", instr.Label))
			}
			curr = g.NewBlock(instr.Label)
			g.appendBlock(curr)
		}
		curr.Append(instr)
	}

	// The edge pass: explicit branch targets, or fallthrough to the
	// textually next block when the block does not end in a branch. A ret
	// has no successors.
	for i, b := range g.blocks {
		last := b.Last()
		switch {
		case last != nil && ir.IsControl(last.Op):
			for _, label := range last.Labels {
				target, ok := g.byLabel[label]
				if !ok {
					return nil, errors.UnknownLabel(label).WithContext(last.String())
				}
				g.AddEdge(b, target)
			}
		case last != nil && last.Op == ir.OpRet:
		default:
			if i+1 < len(g.blocks) {
				g.AddEdge(b, g.blocks[i+1])
			}
		}
	}

	return g, nil
}

// Serialize emits the blocks back into a flat instruction sequence. The
// synthetic entry label record is materialized when the first block lacks
// one, so a rebuilt graph is isomorphic to this one.
func (g *Graph) Serialize() []*ir.Instruction {
	var instrs []*ir.Instruction
	for i, b := range g.blocks {
		if i == 0 {
			first := (*ir.Instruction)(nil)
			if len(b.Instrs) > 0 {
				first = b.Instrs[0]
			}
			if first == nil || !first.IsLabel() || first.Label != EntryLabel {
				instrs = append(instrs, &ir.Instruction{Label: EntryLabel})
			}
		}
		instrs = append(instrs, b.Instrs...)
	}
	return instrs
}

// AddTerminators completes every block: a block that does not end in a
// terminator gets a jmp to the textually next block, or a ret when it is
// the last one. Edges are updated for the new jumps.
func (g *Graph) AddTerminators() {
	for i, b := range g.blocks {
		if b.Terminated() {
			continue
		}
		if i+1 < len(g.blocks) {
			next := g.blocks[i+1]
			b.Append(&ir.Instruction{Op: ir.OpJmp, Labels: []string{next.Label}})
			g.AddEdge(b, next)
		} else {
			b.Append(&ir.Instruction{Op: ir.OpRet})
		}
	}
}
