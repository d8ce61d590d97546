package loop

import (
	"github.com/tliron/commonlog"

	"bril/internal/cfg"
	"bril/internal/dom"
)

var log = commonlog.GetLogger("loop")

// Loop is a natural loop: the header dominates every block in the body,
// the latch carries the back edge, and the body is exactly the set of
// blocks that reach the latch without passing through the header.
type Loop struct {
	Header *cfg.Block
	Latch  *cfg.Block
	Body   map[int]*cfg.Block
	// PreHeader is the sole non-back-edge predecessor of the header once
	// normalization has run.
	PreHeader *cfg.Block
}

// Contains reports whether b belongs to the loop body.
func (l *Loop) Contains(b *cfg.Block) bool {
	_, ok := l.Body[b.ID]
	return ok
}

// BackEdge is a CFG edge whose target dominates its source.
type BackEdge struct {
	From *cfg.Block // the latch
	To   *cfg.Block // the header
}

// FindBackEdges enumerates back edges in block and edge insertion order.
func FindBackEdges(g *cfg.Graph, info *dom.Info) []BackEdge {
	var edges []BackEdge
	for _, u := range g.Blocks() {
		for _, v := range g.Succs(u) {
			if info.Dominates(v, u) {
				log.Debugf("back edge %s -> %s", u.Label, v.Label)
				edges = append(edges, BackEdge{From: u, To: v})
			}
		}
	}
	return edges
}

// Natural computes the natural loop of one back edge by walking
// predecessors in reverse from the latch, stopping at the header.
func Natural(g *cfg.Graph, edge BackEdge) *Loop {
	body := map[int]*cfg.Block{
		edge.From.ID: edge.From,
		edge.To.ID:   edge.To,
	}
	stack := []*cfg.Block{edge.From}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.Preds(b) {
			if _, seen := body[p.ID]; !seen && p != edge.To {
				body[p.ID] = p
				stack = append(stack, p)
			}
		}
	}
	return &Loop{Header: edge.To, Latch: edge.From, Body: body}
}

// FindAll enumerates the natural loops of every back edge.
func FindAll(g *cfg.Graph, info *dom.Info) []*Loop {
	var loops []*Loop
	for _, edge := range FindBackEdges(g, info) {
		l := Natural(g, edge)
		log.Debugf("loop header=%s latch=%s blocks=%d", l.Header.Label, l.Latch.Label, len(l.Body))
		loops = append(loops, l)
	}
	return loops
}

// bodyBlocks returns the loop body in graph iteration order.
func bodyBlocks(g *cfg.Graph, l *Loop) []*cfg.Block {
	var out []*cfg.Block
	for _, b := range g.Blocks() {
		if l.Contains(b) {
			out = append(out, b)
		}
	}
	return out
}
