package opt

import (
	"bril/internal/cfg"
	"bril/internal/ir"
)

// LocalDCE removes definitions that are overwritten before any use within
// their own block. The pass is conservative across blocks: a value still
// pending at the block end is kept, since a successor may read it.
func LocalDCE(fn *ir.Function) error {
	g, err := cfg.Build(fn.Instrs)
	if err != nil {
		return err
	}
	for _, b := range g.Blocks() {
		localDCEBlock(b)
	}
	fn.Instrs = g.Serialize()
	return nil
}

func localDCEBlock(b *cfg.Block) {
	// pending maps a destination to its latest definition whose value has
	// not been consumed yet.
	pending := make(map[string]*ir.Instruction)
	for _, instr := range b.Instrs {
		for _, arg := range instr.Args {
			delete(pending, arg)
		}
		if instr.Dest == "" {
			continue
		}
		if prev, ok := pending[instr.Dest]; ok && !ir.HasSideEffects(prev.Op) {
			log.Debugf("dce: pruning overwritten %s", prev)
			*prev = ir.Instruction{Op: ir.OpNop}
		}
		pending[instr.Dest] = instr
	}
	b.RemoveNops()
}

// GlobalDCE drops every instruction whose destination is never read
// anywhere in the function, iterating until nothing changes. Side-effecting
// instructions are kept regardless of their destination.
func GlobalDCE(fn *ir.Function) {
	for {
		used := make(map[string]bool)
		for _, instr := range fn.Instrs {
			for _, arg := range instr.Args {
				used[arg] = true
			}
		}

		changed := false
		kept := fn.Instrs[:0]
		for _, instr := range fn.Instrs {
			if instr.Op == ir.OpNop {
				changed = true
				continue
			}
			if instr.Dest != "" && !used[instr.Dest] && !ir.HasSideEffects(instr.Op) {
				log.Debugf("dce: %s is unused", instr.Dest)
				changed = true
				continue
			}
			kept = append(kept, instr)
		}
		fn.Instrs = kept
		if !changed {
			return
		}
	}
}
