package opt

import (
	"github.com/tliron/commonlog"

	"bril/internal/cfg"
	"bril/internal/ir"
)

var log = commonlog.GetLogger("opt")

// opUninferable tags numbering entries for values that flow into the block
// from outside. They are opaque: nothing ever matches them.
const opUninferable = "uninferable"

// expr is a value expression: an opcode plus canonical argument names.
// Argument order is significant; commutativity is not exploited.
type expr struct {
	op   string
	args []string
}

func (e expr) equals(other expr) bool {
	if e.op != other.op || len(e.args) != len(other.args) {
		return false
	}
	for i, a := range e.args {
		if a != other.args[i] {
			return false
		}
	}
	return true
}

// numbering is the per-block value table: destination -> expression, with
// insertion order preserved for deterministic reverse lookup.
type numbering struct {
	order []string
	table map[string]expr
}

func newNumbering() *numbering {
	return &numbering{table: make(map[string]expr)}
}

func (n *numbering) record(dest string, e expr) {
	if _, seen := n.table[dest]; !seen {
		n.order = append(n.order, dest)
	}
	n.table[dest] = e
}

// lookup finds the earliest destination holding an equal expression.
func (n *numbering) lookup(e expr) (string, bool) {
	for _, dest := range n.order {
		if n.table[dest].equals(e) {
			return dest, true
		}
	}
	return "", false
}

// canonical chases id chains so that copies of copies resolve to the
// original source. This is what makes LVN propagate copies within the
// block.
func (n *numbering) canonical(arg string) string {
	seen := map[string]bool{}
	for {
		e, ok := n.table[arg]
		if !ok || e.op != ir.OpID || len(e.args) != 1 || seen[arg] {
			return arg
		}
		seen[arg] = true
		arg = e.args[0]
	}
}

// LVN performs local value numbering on every basic block: repeated pure
// expressions collapse to id copies of the first computation, and copy
// chains are propagated. Instructions never move across block boundaries
// and evaluation order is preserved.
func LVN(fn *ir.Function) error {
	g, err := cfg.Build(fn.Instrs)
	if err != nil {
		return err
	}
	for _, b := range g.Blocks() {
		lvnBlock(b)
	}
	fn.Instrs = g.Serialize()
	return nil
}

func lvnBlock(b *cfg.Block) {
	n := newNumbering()
	for _, instr := range b.Instrs {
		for i, arg := range instr.Args {
			if _, known := n.table[arg]; !known {
				n.record(arg, expr{op: opUninferable})
			}
			instr.Args[i] = n.canonical(arg)
		}
		if instr.Dest == "" {
			continue
		}
		switch {
		case instr.Op == ir.OpConst && instr.Value != nil:
			n.record(instr.Dest, expr{op: ir.OpConst, args: []string{instr.Value.String()}})
		case instr.Op == ir.OpID && len(instr.Args) == 1:
			n.record(instr.Dest, expr{op: ir.OpID, args: []string{instr.Args[0]}})
		case !ir.IsPure(instr.Op):
			// Loads, calls and allocations are not repeatable; their
			// results stay opaque.
			n.record(instr.Dest, expr{op: opUninferable})
		default:
			e := expr{op: instr.Op, args: append([]string(nil), instr.Args...)}
			if key, found := n.lookup(e); found {
				log.Debugf("lvn: %s matches %s", instr, key)
				instr.Op = ir.OpID
				instr.Args = []string{key}
				instr.Value = nil
				instr.Labels = nil
				instr.Funcs = nil
				n.record(instr.Dest, expr{op: ir.OpID, args: []string{key}})
			} else {
				n.record(instr.Dest, e)
			}
		}
	}
}
