package dataflow

import (
	"bril/internal/cfg"
	"bril/internal/ir"
)

// VarSet is a set of live variable names.
type VarSet map[string]bool

// Liveness computes the live-variable sets for every block: Out holds the
// variables live on entry (the analysis runs backward, so the transferred
// value is the block's live-in), In the variables live at block exit.
func Liveness(g *cfg.Graph) (*Result[VarSet], error) {
	return Solve(g, Analysis[VarSet]{
		Name:      "live variables",
		Direction: Backward,
		Boundary:  func() VarSet { return VarSet{} },
		Bottom:    func() VarSet { return VarSet{} },
		Meet:      unionVarSets,
		Transfer:  liveTransfer,
		Equal:     equalVarSets,
	})
}

// LivenessDCE removes every instruction whose destination is dead: not
// live at block exit and not read later in the same block. Side-effecting
// instructions always survive.
func LivenessDCE(fn *ir.Function) error {
	g, err := cfg.Build(fn.Instrs)
	if err != nil {
		return err
	}
	res, err := Liveness(g)
	if err != nil {
		return err
	}

	for _, b := range g.Blocks() {
		liveOut := res.In[b.ID]
		// Sweep bottom-up so that killing an instruction also frees the
		// instructions that only fed it.
		for i := len(b.Instrs) - 1; i >= 0; i-- {
			instr := b.Instrs[i]
			if instr.Dest == "" || ir.HasSideEffects(instr.Op) {
				continue
			}
			if !liveOut[instr.Dest] && !usedLater(b, i) {
				log.Debugf("dead at %s: %s", b.Label, instr)
				*instr = ir.Instruction{Op: ir.OpNop}
			}
		}
		b.RemoveNops()
	}
	fn.Instrs = g.Serialize()
	return nil
}

// usedLater reports whether the destination of the instruction at idx is
// read by any subsequent instruction in the block.
func usedLater(b *cfg.Block, idx int) bool {
	dest := b.Instrs[idx].Dest
	for _, instr := range b.Instrs[idx+1:] {
		for _, arg := range instr.Args {
			if arg == dest {
				return true
			}
		}
	}
	return false
}

func unionVarSets(values []VarSet) VarSet {
	out := VarSet{}
	for _, set := range values {
		for v := range set {
			out[v] = true
		}
	}
	return out
}

// liveTransfer scans the block in reverse: a definition kills liveness,
// a use creates it.
func liveTransfer(b *cfg.Block, out VarSet) VarSet {
	in := make(VarSet, len(out))
	for v := range out {
		in[v] = true
	}
	for i := len(b.Instrs) - 1; i >= 0; i-- {
		instr := b.Instrs[i]
		if instr.Dest != "" {
			delete(in, instr.Dest)
		}
		for _, arg := range instr.Args {
			in[arg] = true
		}
	}
	return in
}

func equalVarSets(a, b VarSet) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if !b[v] {
			return false
		}
	}
	return true
}
