package loop

import (
	"bril/internal/cfg"
	"bril/internal/dom"
	"bril/internal/ir"
)

// hoistableOps are the candidates for invariant code motion: pure
// arithmetic and comparisons. Memory and control ops stay put.
var hoistableOps = map[string]bool{
	ir.OpAdd: true,
	ir.OpSub: true,
	ir.OpMul: true,
	ir.OpDiv: true,
	ir.OpMod: true,
	ir.OpEq:  true,
	ir.OpLt:  true,
	ir.OpGt:  true,
	ir.OpLe:  true,
	ir.OpGe:  true,
}

// LICM hoists loop-invariant computations out of every natural loop. The
// function must be in SSA form. An instruction moves only when the header
// has exactly one predecessor outside the loop's back edge; run Normalize
// first to guarantee that. Hoisted instructions land at the end of that
// predecessor, ahead of its terminator.
func LICM(fn *ir.Function) error {
	g, err := cfg.Build(fn.Instrs)
	if err != nil {
		return err
	}
	info := dom.Compute(g)

	for _, l := range FindAll(g, info) {
		hoistLoop(g, fn, l)
	}

	for _, b := range g.Blocks() {
		b.RemoveNops()
	}
	fn.Instrs = g.Serialize()
	return nil
}

// hoistLoop grows the invariant set to fixpoint: a name is invariant when
// it is defined outside the loop body or by an already-invariant pure
// computation inside it.
func hoistLoop(g *cfg.Graph, fn *ir.Function, l *Loop) {
	invariant := outsideDefs(g, fn, l)
	body := bodyBlocks(g, l)

	target := hoistTarget(g, l)

	for changed := true; changed; {
		changed = false
		for _, b := range body {
			for _, instr := range b.Instrs {
				if !hoistableOps[instr.Op] || instr.Dest == "" || invariant[instr.Dest] {
					continue
				}
				if !allInvariant(instr.Args, invariant) {
					continue
				}
				invariant[instr.Dest] = true
				changed = true
				if target == nil {
					log.Debugf("invariant but header has multiple outside predecessors: %s", instr)
					continue
				}
				log.Debugf("hoisting %s into %s", instr, target.Label)
				target.InsertBeforeTerminator(instr.Clone())
				*instr = ir.Instruction{Op: ir.OpNop}
			}
		}
	}
}

// outsideDefs seeds the invariant set with the function arguments and
// every name defined by a block outside the loop body.
func outsideDefs(g *cfg.Graph, fn *ir.Function, l *Loop) map[string]bool {
	invariant := make(map[string]bool)
	for _, arg := range fn.Args {
		invariant[arg.Name] = true
	}
	for _, b := range g.Blocks() {
		if l.Contains(b) {
			continue
		}
		for _, instr := range b.Instrs {
			if instr.Dest != "" {
				invariant[instr.Dest] = true
			}
		}
	}
	return invariant
}

// hoistTarget returns the header's sole non-back-edge predecessor, or nil
// when the loop has not been normalized and several outside paths exist.
func hoistTarget(g *cfg.Graph, l *Loop) *cfg.Block {
	var target *cfg.Block
	for _, p := range g.Preds(l.Header) {
		if p == l.Latch {
			continue
		}
		if target != nil {
			return nil
		}
		target = p
	}
	return target
}

func allInvariant(args []string, invariant map[string]bool) bool {
	for _, arg := range args {
		if !invariant[arg] {
			return false
		}
	}
	return true
}
