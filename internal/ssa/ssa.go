package ssa

import (
	"fmt"
	"sort"

	"github.com/tliron/commonlog"

	"bril/internal/cfg"
	"bril/internal/dom"
	"bril/internal/ir"
)

// Undefined is the sentinel phi argument recorded when a variable has no
// definition on some incoming path. The value is unreachable on that edge,
// so destruction skips it.
const Undefined = "__undefined"

var log = commonlog.GetLogger("ssa")

// Construct rewrites the function into SSA form: phi nodes are placed on
// the dominance frontier of every definition, then every variable is split
// into uniquely named versions by a dominator-tree traversal.
func Construct(fn *ir.Function) error {
	g, err := cfg.Build(fn.Instrs)
	if err != nil {
		return err
	}
	info := dom.Compute(g)

	phis := placePhis(g, info, defBlocks(g))
	types := fn.VarTypes()

	r := &renamer{
		g:        g,
		info:     info,
		phis:     phis,
		stack:    make(map[string][]string),
		counters: make(map[string]int),
		phiArgs:  make(map[int]map[string][]phiPair),
		phiDests: make(map[int]map[string]string),
	}
	for _, arg := range fn.Args {
		r.stack[arg.Name] = []string{arg.Name}
	}
	for _, b := range g.Blocks() {
		r.phiArgs[b.ID] = make(map[string][]phiPair)
		r.phiDests[b.ID] = make(map[string]string)
	}
	r.rename(g.Entry())

	insertPhis(g, r.phiArgs, r.phiDests, types)
	fn.Instrs = g.Serialize()
	return nil
}

// defBlocks maps every variable to the set of blocks that define it.
func defBlocks(g *cfg.Graph) map[string]map[int]*cfg.Block {
	defs := make(map[string]map[int]*cfg.Block)
	for _, b := range g.Blocks() {
		for _, instr := range b.Instrs {
			if instr.Dest == "" {
				continue
			}
			if defs[instr.Dest] == nil {
				defs[instr.Dest] = make(map[int]*cfg.Block)
			}
			defs[instr.Dest][b.ID] = b
		}
	}
	return defs
}

// placePhis decides, per block, which variables need a phi node. A phi
// added at a block counts as a new definition there, so the definition set
// grows until the frontier is saturated.
func placePhis(g *cfg.Graph, info *dom.Info, defs map[string]map[int]*cfg.Block) map[int]map[string]bool {
	phis := make(map[int]map[string]bool, len(g.Blocks()))
	for _, b := range g.Blocks() {
		phis[b.ID] = make(map[string]bool)
	}

	vars := make([]string, 0, len(defs))
	for v := range defs {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	for _, v := range vars {
		work := make([]*cfg.Block, 0, len(defs[v]))
		for _, b := range defs[v] {
			work = append(work, b)
		}
		sort.Slice(work, func(i, j int) bool { return work[i].Label < work[j].Label })
		seen := make(map[int]bool, len(work))
		for _, b := range work {
			seen[b.ID] = true
		}
		for len(work) > 0 {
			d := work[0]
			work = work[1:]
			for _, fb := range info.Frontier[d.ID] {
				if phis[fb.ID][v] {
					continue
				}
				phis[fb.ID][v] = true
				log.Debugf("phi for %s at %s", v, fb.Label)
				if !seen[fb.ID] {
					seen[fb.ID] = true
					work = append(work, fb)
				}
			}
		}
	}
	return phis
}

type phiPair struct {
	pred string // predecessor block label
	name string // renamed incoming value, or the Undefined sentinel
}

type renamer struct {
	g        *cfg.Graph
	info     *dom.Info
	phis     map[int]map[string]bool
	stack    map[string][]string
	counters map[string]int
	phiArgs  map[int]map[string][]phiPair
	phiDests map[int]map[string]string
}

// pushFresh mints the next version of v and makes it the current name.
func (r *renamer) pushFresh(v string) string {
	fresh := fmt.Sprintf("%s.%d", v, r.counters[v])
	r.counters[v]++
	r.stack[v] = append(r.stack[v], fresh)
	return fresh
}

func (r *renamer) top(v string) (string, bool) {
	names := r.stack[v]
	if len(names) == 0 {
		return "", false
	}
	return names[len(names)-1], true
}

// rename walks the dominator tree depth first, rewriting uses to the
// current version and minting fresh versions at definitions. Stack depths
// are restored on the way back up.
func (r *renamer) rename(b *cfg.Block) {
	depths := make(map[string]int, len(r.stack))
	for v, names := range r.stack {
		depths[v] = len(names)
	}

	for _, v := range sortedVars(r.phis[b.ID]) {
		r.phiDests[b.ID][v] = r.pushFresh(v)
	}

	for _, instr := range b.Instrs {
		for i, arg := range instr.Args {
			if name, ok := r.top(arg); ok {
				instr.Args[i] = name
			}
		}
		if instr.Dest != "" {
			instr.Dest = r.pushFresh(instr.Dest)
		}
	}

	for _, s := range r.g.Succs(b) {
		for _, v := range sortedVars(r.phis[s.ID]) {
			name, ok := r.top(v)
			if !ok {
				name = Undefined
			}
			r.phiArgs[s.ID][v] = append(r.phiArgs[s.ID][v], phiPair{pred: b.Label, name: name})
		}
	}

	for _, child := range r.info.Children[b.ID] {
		r.rename(child)
	}

	for v := range r.stack {
		r.stack[v] = r.stack[v][:depths[v]]
	}
}

// insertPhis materializes the recorded phi nodes at the top of each block,
// after the leading label record. The phi's type is the original
// variable's type; labels and args are parallel sequences.
func insertPhis(g *cfg.Graph, phiArgs map[int]map[string][]phiPair, phiDests map[int]map[string]string, types map[string]*ir.Type) {
	for _, b := range g.Blocks() {
		if len(phiDests[b.ID]) == 0 {
			continue
		}
		at := 0
		if len(b.Instrs) > 0 && b.Instrs[0].IsLabel() {
			at = 1
		}
		var nodes []*ir.Instruction
		for _, v := range sortedKeys(phiDests[b.ID]) {
			pairs := phiArgs[b.ID][v]
			phi := &ir.Instruction{
				Op:     ir.OpPhi,
				Dest:   phiDests[b.ID][v],
				Type:   types[v],
				Labels: make([]string, len(pairs)),
				Args:   make([]string, len(pairs)),
			}
			for i, p := range pairs {
				phi.Labels[i] = p.pred
				phi.Args[i] = p.name
			}
			nodes = append(nodes, phi)
		}
		rest := append([]*ir.Instruction(nil), b.Instrs[at:]...)
		b.Instrs = append(append(b.Instrs[:at:at], nodes...), rest...)
	}
}

func sortedVars(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
