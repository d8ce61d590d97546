package dataflow

import (
	"github.com/tliron/commonlog"

	"bril/internal/cfg"
	"bril/internal/ir"
)

var log = commonlog.GetLogger("dataflow")

// ConstMap tracks which variables are known to hold a constant at a
// program point.
type ConstMap map[string]*ir.Literal

// foldable integer ops. Division, modulo and comparisons are left alone so
// their trapping and typing behavior stays with the runtime.
var foldableOps = map[string]bool{
	ir.OpAdd: true,
	ir.OpSub: true,
	ir.OpMul: true,
}

// ConstProp propagates constants forward through the function and folds
// add/sub/mul instructions whose operands are known, rewriting them to
// const in place. Arithmetic wraps on int64 overflow.
func ConstProp(fn *ir.Function) error {
	g, err := cfg.Build(fn.Instrs)
	if err != nil {
		return err
	}
	_, err = Solve(g, Analysis[ConstMap]{
		Name:      "constant propagation",
		Direction: Forward,
		Boundary:  func() ConstMap { return ConstMap{} },
		Bottom:    func() ConstMap { return ConstMap{} },
		Meet:      intersectConstMaps,
		Transfer:  constTransfer,
		Equal:     equalConstMaps,
	})
	if err != nil {
		return err
	}
	fn.Instrs = g.Serialize()
	return nil
}

// intersectConstMaps keeps only the keys on which every predecessor
// agrees; any disagreement or absence drops the key.
func intersectConstMaps(values []ConstMap) ConstMap {
	out := ConstMap{}
	for key, val := range values[0] {
		agreed := true
		for _, m := range values[1:] {
			if other, ok := m[key]; !ok || !other.Equals(val) {
				agreed = false
				break
			}
		}
		if agreed {
			out[key] = val
		}
	}
	return out
}

func constTransfer(b *cfg.Block, in ConstMap) ConstMap {
	consts := make(ConstMap, len(in))
	for k, v := range in {
		consts[k] = v
	}
	for _, instr := range b.Instrs {
		switch {
		case instr.Op == ir.OpConst:
			consts[instr.Dest] = instr.Value
		case foldableOps[instr.Op] && len(instr.Args) == 2:
			lhs, lok := consts[instr.Args[0]]
			rhs, rok := consts[instr.Args[1]]
			if lok && rok && !lhs.IsBool && !rhs.IsBool {
				log.Debugf("folding %s", instr)
				*instr = ir.Instruction{
					Op:    ir.OpConst,
					Dest:  instr.Dest,
					Type:  instr.Type,
					Value: ir.IntLit(fold(instr.Op, lhs.Int, rhs.Int)),
				}
				consts[instr.Dest] = instr.Value
			} else if instr.Dest != "" {
				delete(consts, instr.Dest)
			}
		case instr.Dest != "":
			// An unmodeled write: the destination is no longer constant.
			// Killing it keeps the transfer monotone.
			delete(consts, instr.Dest)
		}
	}
	return consts
}

func fold(op string, lhs, rhs int64) int64 {
	switch op {
	case ir.OpAdd:
		return lhs + rhs
	case ir.OpSub:
		return lhs - rhs
	default:
		return lhs * rhs
	}
}

func equalConstMaps(a, b ConstMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if other, ok := b[k]; !ok || !other.Equals(v) {
			return false
		}
	}
	return true
}
