package cfg

import (
	"sort"
)

// Graph is the control-flow graph of one function: blocks in insertion
// order plus directed edges derived from terminator semantics. Blocks are
// keyed by a stable integer id assigned at creation; the label index exists
// for lookups from instruction label fields. Edge lists preserve insertion
// order so every traversal is reproducible.
type Graph struct {
	blocks  []*Block
	entry   *Block
	byLabel map[string]*Block
	succs   map[int][]*Block
	preds   map[int][]*Block
	nextID  int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		byLabel: make(map[string]*Block),
		succs:   make(map[int][]*Block),
		preds:   make(map[int][]*Block),
	}
}

// NewBlock creates and registers a block without linking it into the
// iteration order. Callers append or insert it explicitly.
func (g *Graph) NewBlock(label string) *Block {
	b := &Block{ID: g.nextID, Label: label}
	g.nextID++
	g.byLabel[label] = b
	return b
}

// appendBlock links a registered block at the end of the iteration order.
func (g *Graph) appendBlock(b *Block) {
	g.blocks = append(g.blocks, b)
}

// Entry returns the distinguished entry block.
func (g *Graph) Entry() *Block {
	return g.entry
}

// Blocks returns the blocks in iteration order. The slice is shared; do
// not mutate it.
func (g *Graph) Blocks() []*Block {
	return g.blocks
}

// BlockByLabel resolves a label to its block.
func (g *Graph) BlockByLabel(label string) (*Block, bool) {
	b, ok := g.byLabel[label]
	return b, ok
}

// Succs returns the successors of b in edge insertion order.
func (g *Graph) Succs(b *Block) []*Block {
	return g.succs[b.ID]
}

// Preds returns the predecessors of b in edge insertion order.
func (g *Graph) Preds(b *Block) []*Block {
	return g.preds[b.ID]
}

// AddEdge adds the edge u -> v unless it is already present.
func (g *Graph) AddEdge(u, v *Block) {
	for _, s := range g.succs[u.ID] {
		if s == v {
			return
		}
	}
	g.succs[u.ID] = append(g.succs[u.ID], v)
	g.preds[v.ID] = append(g.preds[v.ID], u)
}

// RemoveEdge deletes the edge u -> v when present.
func (g *Graph) RemoveEdge(u, v *Block) {
	g.succs[u.ID] = removeBlock(g.succs[u.ID], v)
	g.preds[v.ID] = removeBlock(g.preds[v.ID], u)
}

func removeBlock(list []*Block, b *Block) []*Block {
	for i, x := range list {
		if x == b {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// InsertBefore places nb into the iteration order immediately before at.
// Existing edges are untouched.
func (g *Graph) InsertBefore(nb, at *Block) {
	g.insertAt(nb, g.indexOf(at))
}

// InsertAfter places nb into the iteration order immediately after at.
func (g *Graph) InsertAfter(nb, at *Block) {
	g.insertAt(nb, g.indexOf(at)+1)
}

func (g *Graph) indexOf(b *Block) int {
	for i, x := range g.blocks {
		if x == b {
			return i
		}
	}
	return len(g.blocks)
}

func (g *Graph) insertAt(nb *Block, idx int) {
	g.blocks = append(g.blocks, nil)
	copy(g.blocks[idx+1:], g.blocks[idx:])
	g.blocks[idx] = nb
}

// PostOrder returns the blocks reachable from the entry in DFS postorder,
// following successor lists in insertion order.
func (g *Graph) PostOrder() []*Block {
	var order []*Block
	visited := make(map[int]bool, len(g.blocks))
	var walk func(b *Block)
	walk = func(b *Block) {
		visited[b.ID] = true
		for _, s := range g.succs[b.ID] {
			if !visited[s.ID] {
				walk(s)
			}
		}
		order = append(order, b)
	}
	if g.entry != nil {
		walk(g.entry)
	}
	return order
}

// ReversePostOrder returns the reachable blocks in reverse postorder, the
// canonical iteration order for forward dataflow.
func (g *Graph) ReversePostOrder() []*Block {
	post := g.PostOrder()
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// SortedByLabel returns a copy of the block list ordered by label, for
// iteration points where determinism matters but insertion order does not.
func (g *Graph) SortedByLabel() []*Block {
	sorted := append([]*Block(nil), g.blocks...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Label < sorted[j].Label
	})
	return sorted
}
