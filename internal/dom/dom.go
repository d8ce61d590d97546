package dom

import (
	"sort"

	"bril/internal/cfg"
)

// Info holds the dominance facts for one control-flow graph: for every
// block the set of its dominators, the inverse relation, the dominance
// frontier and the immediate-dominator tree. All maps are keyed by block
// id; slices are sorted by label so downstream traversals are reproducible.
type Info struct {
	// Dom[b] holds the ids of the blocks dominating b, b included.
	Dom map[int]map[int]bool
	// DomBy[b] holds the ids of the blocks b dominates, the inverse of Dom.
	DomBy map[int]map[int]bool
	// Frontier[b] lists the blocks where b's dominance just ceases.
	Frontier map[int][]*cfg.Block
	// Children[b] lists b's direct children in the dominator tree.
	Children map[int][]*cfg.Block
}

// Compute derives the dominance facts by the iterative worklist algorithm
// over reverse postorder. Only blocks reachable from the entry participate.
func Compute(g *cfg.Graph) *Info {
	rpo := g.ReversePostOrder()
	entry := g.Entry()

	all := make(map[int]bool, len(rpo))
	for _, b := range rpo {
		all[b.ID] = true
	}

	dom := make(map[int]map[int]bool, len(rpo))
	for _, b := range rpo {
		if b == entry {
			dom[b.ID] = map[int]bool{b.ID: true}
		} else {
			dom[b.ID] = copySet(all)
		}
	}

	for changed := true; changed; {
		changed = false
		for _, b := range rpo {
			if b == entry {
				continue
			}
			next := intersectPreds(g, dom, b)
			next[b.ID] = true
			if !sameSet(dom[b.ID], next) {
				dom[b.ID] = next
				changed = true
			}
		}
	}

	info := &Info{Dom: dom}
	info.DomBy = invert(dom)
	info.Frontier = frontier(g, rpo, info.DomBy)
	info.Children = domTree(g, rpo, info.DomBy)
	return info
}

// Dominates reports whether a dominates b.
func (info *Info) Dominates(a, b *cfg.Block) bool {
	return info.Dom[b.ID][a.ID]
}

func intersectPreds(g *cfg.Graph, dom map[int]map[int]bool, b *cfg.Block) map[int]bool {
	preds := g.Preds(b)
	if len(preds) == 0 {
		return map[int]bool{}
	}
	out := copySet(dom[preds[0].ID])
	for _, p := range preds[1:] {
		pd := dom[p.ID]
		for id := range out {
			if !pd[id] {
				delete(out, id)
			}
		}
	}
	return out
}

func invert(dom map[int]map[int]bool) map[int]map[int]bool {
	out := make(map[int]map[int]bool, len(dom))
	for id := range dom {
		out[id] = make(map[int]bool)
	}
	for id, doms := range dom {
		for d := range doms {
			out[d][id] = true
		}
	}
	return out
}

// frontier computes DF(b): successors of blocks b dominates that b does not
// itself strictly dominate.
func frontier(g *cfg.Graph, rpo []*cfg.Block, domBy map[int]map[int]bool) map[int][]*cfg.Block {
	out := make(map[int][]*cfg.Block, len(rpo))
	for _, b := range rpo {
		dominated := domBy[b.ID]
		candidates := make(map[int]*cfg.Block)
		for _, d := range rpo {
			if !dominated[d.ID] {
				continue
			}
			for _, s := range g.Succs(d) {
				if !dominated[s.ID] || s.ID == b.ID {
					candidates[s.ID] = s
				}
			}
		}
		out[b.ID] = sortedByLabel(candidates)
	}
	return out
}

// domTree derives the immediate-dominator children: the blocks b strictly
// dominates that no other strict dominatee of b also strictly dominates.
func domTree(g *cfg.Graph, rpo []*cfg.Block, domBy map[int]map[int]bool) map[int][]*cfg.Block {
	strict := make(map[int]map[int]bool, len(domBy))
	for id, dominated := range domBy {
		s := copySet(dominated)
		delete(s, id)
		strict[id] = s
	}

	out := make(map[int][]*cfg.Block, len(rpo))
	byID := make(map[int]*cfg.Block, len(rpo))
	for _, b := range rpo {
		byID[b.ID] = b
	}
	for _, b := range rpo {
		grand := make(map[int]bool)
		for c := range strict[b.ID] {
			for cc := range strict[c] {
				grand[cc] = true
			}
		}
		children := make(map[int]*cfg.Block)
		for c := range strict[b.ID] {
			if !grand[c] {
				children[c] = byID[c]
			}
		}
		out[b.ID] = sortedByLabel(children)
	}
	return out
}

func sortedByLabel(set map[int]*cfg.Block) []*cfg.Block {
	out := make([]*cfg.Block, 0, len(set))
	for _, b := range set {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func copySet(s map[int]bool) map[int]bool {
	out := make(map[int]bool, len(s))
	for id := range s {
		out[id] = true
	}
	return out
}

func sameSet(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
