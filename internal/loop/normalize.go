package loop

import (
	"bril/internal/cfg"
	"bril/internal/dom"
	"bril/internal/ir"
)

// Normalize gives every loop header a dedicated pre-header and latch
// block. All loops sharing a header share the synthesized pair: outside
// edges into the header are redirected through "<h>.preheader", and every
// back edge lands on "<h>.latch", which jumps to the header. Terminators
// are completed first so every in-edge is an explicit branch that can be
// retargeted.
func Normalize(fn *ir.Function) error {
	g, err := cfg.Build(fn.Instrs)
	if err != nil {
		return err
	}
	g.AddTerminators()
	info := dom.Compute(g)
	loops := FindAll(g, info)

	type headerLoops struct {
		header *cfg.Block
		loops  []*Loop
	}
	var order []*headerLoops
	byHeader := make(map[int]*headerLoops)
	for _, l := range loops {
		group, ok := byHeader[l.Header.ID]
		if !ok {
			group = &headerLoops{header: l.Header}
			byHeader[l.Header.ID] = group
			order = append(order, group)
		}
		group.loops = append(group.loops, l)
	}

	for _, group := range order {
		normalizeHeader(g, group.header, group.loops)
	}

	fn.Instrs = g.Serialize()
	return nil
}

func normalizeHeader(g *cfg.Graph, header *cfg.Block, loops []*Loop) {
	latches := make(map[int]bool, len(loops))
	for _, l := range loops {
		latches[l.Latch.ID] = true
	}

	preLabel := header.Label + ".preheader"
	latchLabel := header.Label + ".latch"
	pre := g.NewBlock(preLabel)
	pre.Instrs = []*ir.Instruction{
		{Label: preLabel},
		{Op: ir.OpJmp, Labels: []string{header.Label}},
	}
	latch := g.NewBlock(latchLabel)
	latch.Instrs = []*ir.Instruction{
		{Label: latchLabel},
		{Op: ir.OpJmp, Labels: []string{header.Label}},
	}

	// Retarget every existing in-edge: back edges to the new latch,
	// everything else to the pre-header.
	for _, b := range append([]*cfg.Block(nil), g.Preds(header)...) {
		target := pre
		if latches[b.ID] {
			target = latch
		}
		if retarget(b, header.Label, target.Label) {
			log.Debugf("redirect %s -> %s through %s", b.Label, header.Label, target.Label)
			g.RemoveEdge(b, header)
			g.AddEdge(b, target)
		}
	}

	// The textually last latch anchors the new latch block's position.
	anchor := loops[0].Latch
	for _, b := range g.Blocks() {
		if latches[b.ID] {
			anchor = b
		}
	}

	g.InsertBefore(pre, header)
	g.InsertAfter(latch, anchor)
	g.AddEdge(pre, header)
	g.AddEdge(latch, header)

	for _, l := range loops {
		l.PreHeader = pre
	}
}

// retarget rewrites occurrences of old in the block's terminator labels.
func retarget(b *cfg.Block, old, new string) bool {
	term := b.Last()
	if term == nil || !ir.IsControl(term.Op) {
		return false
	}
	changed := false
	for i, label := range term.Labels {
		if label == old {
			term.Labels[i] = new
			changed = true
		}
	}
	return changed
}
