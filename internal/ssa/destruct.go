package ssa

import (
	"bril/internal/cfg"
	"bril/internal/errors"
	"bril/internal/ir"
)

// Destruct lowers SSA form back to ordinary copies: for every phi node,
// each predecessor gets an id copy of its incoming value, placed just after
// that value's most recent definition in the predecessor. Phi nodes are
// then deleted. Incoming Undefined sentinels are skipped — the value is
// unreachable along that edge.
func Destruct(fn *ir.Function) error {
	g, err := cfg.Build(fn.Instrs)
	if err != nil {
		return err
	}

	for _, b := range g.Blocks() {
		for _, instr := range b.Instrs {
			if instr.Op != ir.OpPhi {
				continue
			}
			if len(instr.Args) != len(instr.Labels) {
				return errors.PhiMismatch(instr.Dest, len(instr.Args), len(instr.Labels))
			}
			for i, label := range instr.Labels {
				src := instr.Args[i]
				if src == Undefined {
					continue
				}
				pred, ok := g.BlockByLabel(label)
				if !ok {
					return errors.UnknownLabel(label).WithContext(instr.String())
				}
				cp := &ir.Instruction{
					Op:   ir.OpID,
					Dest: instr.Dest,
					Type: instr.Type,
					Args: []string{src},
				}
				insertAfterDef(pred, cp, src)
				log.Debugf("copy %s := %s in %s", instr.Dest, src, pred.Label)
			}
		}
	}

	for _, b := range g.Blocks() {
		kept := b.Instrs[:0]
		for _, instr := range b.Instrs {
			if instr.Op != ir.OpPhi {
				kept = append(kept, instr)
			}
		}
		b.Instrs = kept
	}

	fn.Instrs = g.Serialize()
	return nil
}

// insertAfterDef places copy immediately after the last definition of src
// in the block. When src is live-in rather than locally defined, the copy
// goes at the end of the block, ahead of the terminator.
func insertAfterDef(b *cfg.Block, cp *ir.Instruction, src string) {
	at := -1
	for i, instr := range b.Instrs {
		if instr.Dest == src {
			at = i
		}
	}
	if at < 0 {
		b.InsertBeforeTerminator(cp)
		return
	}
	instrs := make([]*ir.Instruction, 0, len(b.Instrs)+1)
	instrs = append(instrs, b.Instrs[:at+1]...)
	instrs = append(instrs, cp)
	instrs = append(instrs, b.Instrs[at+1:]...)
	b.Instrs = instrs
}
