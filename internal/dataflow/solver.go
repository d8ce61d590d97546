package dataflow

import (
	"bril/internal/cfg"
	"bril/internal/errors"
)

// Direction selects whether facts flow with or against the CFG edges.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Analysis describes one dataflow problem over analysis values of type V.
// The solver owns the worklist; the client supplies the lattice operations
// and the per-block transfer function.
type Analysis[V any] struct {
	Name      string
	Direction Direction
	// Boundary produces the value entering the graph: in[entry] for a
	// forward analysis, out[exit] for a backward one.
	Boundary func() V
	// Bottom is the value assumed for a neighbour that has not been
	// computed yet. Facts must only grow from it: transfers that rewrite
	// instructions in place rely on never retracting a published fact.
	Bottom func() V
	// Meet combines the neighbouring values. It is never called with an
	// empty slice; boundary blocks use Boundary instead.
	Meet func(values []V) V
	// Transfer computes the block's outgoing value from its incoming one.
	// It must be monotone over a finite lattice or the fixpoint may not
	// terminate.
	Transfer func(b *cfg.Block, in V) V
	// Equal decides convergence.
	Equal func(a, b V) bool
}

// Result carries the fixpoint values per block id. In is the value at block
// entry for forward analyses and at block exit for backward ones; Out is
// the transferred value.
type Result[V any] struct {
	In  map[int]V
	Out map[int]V
}

// Solve runs the worklist algorithm to fixpoint. A block is re-enqueued
// whenever a neighbour's result changes: successors for forward analyses,
// predecessors for backward ones. The iteration bound is generous; hitting
// it means a transfer function is not monotone.
func Solve[V any](g *cfg.Graph, a Analysis[V]) (*Result[V], error) {
	var seed []*cfg.Block
	if a.Direction == Forward {
		seed = g.ReversePostOrder()
	} else {
		seed = g.PostOrder()
	}

	res := &Result[V]{
		In:  make(map[int]V, len(seed)),
		Out: make(map[int]V, len(seed)),
	}
	computed := make(map[int]bool, len(seed))

	vars := 0
	for _, b := range g.Blocks() {
		vars += len(b.Instrs) + 1
	}
	budget := (len(seed) + 1) * (vars + 1) * 2

	work := append([]*cfg.Block(nil), seed...)
	queued := make(map[int]bool, len(seed))
	for _, b := range work {
		queued[b.ID] = true
	}

	for len(work) > 0 {
		if budget--; budget < 0 {
			return nil, errors.NonConvergence(a.Name)
		}
		b := work[0]
		work = work[1:]
		queued[b.ID] = false

		neighbours := g.Preds(b)
		if a.Direction == Backward {
			neighbours = g.Succs(b)
		}
		var in V
		if len(neighbours) == 0 {
			in = a.Boundary()
		} else {
			values := make([]V, 0, len(neighbours))
			for _, n := range neighbours {
				if computed[n.ID] {
					values = append(values, res.Out[n.ID])
				} else {
					values = append(values, a.Bottom())
				}
			}
			in = a.Meet(values)
		}
		res.In[b.ID] = in

		out := a.Transfer(b, in)
		if computed[b.ID] && a.Equal(res.Out[b.ID], out) {
			continue
		}
		res.Out[b.ID] = out
		computed[b.ID] = true

		downstream := g.Succs(b)
		if a.Direction == Backward {
			downstream = g.Preds(b)
		}
		for _, n := range downstream {
			if !queued[n.ID] {
				queued[n.ID] = true
				work = append(work, n)
			}
		}
	}
	return res, nil
}
