package mem

import (
	"fmt"

	"github.com/tliron/commonlog"

	"bril/internal/cfg"
	"bril/internal/dataflow"
	"bril/internal/ir"
)

var log = commonlog.GetLogger("mem")

// AnyToken is the universal points-to token: the pointer may designate any
// allocation. It aliases everything, which is sound and deliberately weak.
const AnyToken = "any"

// PointsTo maps a pointer variable to the abstract allocation sites it may
// designate. Tokens are AnyToken or "<block_label>.<index>".
type PointsTo map[string]map[string]bool

// DeadStoreElimination runs a forward may-points-to analysis and removes
// stores that are overwritten, within the same block, through the same
// pointer variable before any load that may alias them could observe them.
// A later store through a different pointer variable does not remove an
// earlier store, even when the two pointers may alias. Terminators are
// assumed to be completed already.
func DeadStoreElimination(fn *ir.Function) error {
	g, err := cfg.Build(fn.Instrs)
	if err != nil {
		return err
	}

	_, err = dataflow.Solve(g, dataflow.Analysis[PointsTo]{
		Name:      "points-to",
		Direction: dataflow.Forward,
		Boundary: func() PointsTo {
			// Incoming pointers can designate anything.
			seed := PointsTo{}
			for _, arg := range fn.Args {
				seed[arg.Name] = tokens(AnyToken)
			}
			return seed
		},
		Bottom:   func() PointsTo { return PointsTo{} },
		Meet:     unionPointsTo,
		Transfer: memTransfer,
		Equal:    equalPointsTo,
	})
	if err != nil {
		return err
	}

	for _, b := range g.Blocks() {
		b.RemoveNops()
	}
	fn.Instrs = g.Serialize()
	return nil
}

// pendingStore tracks the latest store through a pointer variable and
// whether anything may have observed it since.
type pendingStore struct {
	instr *ir.Instruction
	used  bool
}

// memTransfer interprets the block over points-to sets. Store elimination
// happens in the same sweep: a pending store that is overwritten through the
// same pointer variable without an intervening observation becomes a nop.
// Pending stores are keyed by pointer variable name, so a store through any
// other variable leaves them pending.
// Facts only grow across iterations, so repeated sweeps are stable.
func memTransfer(b *cfg.Block, in PointsTo) PointsTo {
	ptsTo := make(PointsTo, len(in))
	for k, v := range in {
		ptsTo[k] = v
	}
	pending := make(map[string]*pendingStore)

	for i, instr := range b.Instrs {
		switch instr.Op {
		case ir.OpAlloc:
			ptsTo[instr.Dest] = tokens(fmt.Sprintf("%s.%d", b.Label, i))
		case ir.OpLoad:
			// Memory contents are not modeled: the result may point
			// anywhere, and the load observes every aliased pending store.
			ptsTo[instr.Dest] = tokens(AnyToken)
			if len(instr.Args) > 0 {
				markUse(pending, ptsTo, instr.Args[0])
			}
		case ir.OpID, ir.OpPtrAdd:
			if len(instr.Args) > 0 {
				if set, ok := ptsTo[instr.Args[0]]; ok {
					ptsTo[instr.Dest] = set
				}
			}
		case ir.OpStore:
			if len(instr.Args) == 0 {
				continue
			}
			ptr := instr.Args[0]
			if prev, ok := pending[ptr]; ok && !prev.used {
				log.Debugf("dead store through %s: %s", ptr, prev.instr)
				*prev.instr = ir.Instruction{Op: ir.OpNop}
			}
			pending[ptr] = &pendingStore{instr: instr}
		}
	}
	return ptsTo
}

// markUse records that a load through ptr may observe the pending stores
// whose pointers alias it. AnyToken aliases everything.
func markUse(pending map[string]*pendingStore, ptsTo PointsTo, ptr string) {
	loaded, ok := ptsTo[ptr]
	if !ok {
		return
	}
	for storePtr, store := range pending {
		if mayAlias(loaded, ptsTo[storePtr]) {
			store.used = true
		}
	}
}

// mayAlias reports whether two points-to sets can designate the same
// allocation: either contains the universal token, or they intersect.
func mayAlias(a, b map[string]bool) bool {
	if a[AnyToken] || b[AnyToken] {
		return true
	}
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}
	for tok := range small {
		if large[tok] {
			return true
		}
	}
	return false
}

func tokens(toks ...string) map[string]bool {
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}

func unionPointsTo(values []PointsTo) PointsTo {
	out := PointsTo{}
	for _, m := range values {
		for ptr, set := range m {
			if out[ptr] == nil {
				out[ptr] = make(map[string]bool, len(set))
			}
			for tok := range set {
				out[ptr][tok] = true
			}
		}
	}
	return out
}

func equalPointsTo(a, b PointsTo) bool {
	if len(a) != len(b) {
		return false
	}
	for ptr, set := range a {
		other, ok := b[ptr]
		if !ok || len(other) != len(set) {
			return false
		}
		for tok := range set {
			if !other[tok] {
				return false
			}
		}
	}
	return true
}
