package loop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bril/grammar"
	"bril/internal/cfg"
	"bril/internal/dom"
	"bril/internal/ir"
	"bril/internal/loop"
)

func parseFunc(t *testing.T, source string) *ir.Function {
	t.Helper()
	parsed, err := grammar.ParseString("test.bril", source)
	require.NoError(t, err, "Test program should parse")
	prog, err := grammar.Lower(parsed)
	require.NoError(t, err, "Test program should lower")
	return prog.Functions[0]
}

const whileLoop = `
@main {
  i: int = const 0;
  n: int = const 3;
  one: int = const 1;
.loop:
  c: bool = lt i n;
  br c .body .done;
.body:
  i: int = add i one;
  jmp .loop;
.done:
  print i;
  ret;
}
`

func TestFindBackEdges(t *testing.T) {
	fn := parseFunc(t, whileLoop)
	g, err := cfg.Build(fn.Instrs)
	require.NoError(t, err)
	info := dom.Compute(g)

	edges := loop.FindBackEdges(g, info)
	require.Equal(t, 1, len(edges))
	assert.Equal(t, "body", edges[0].From.Label)
	assert.Equal(t, "loop", edges[0].To.Label)
}

func TestNaturalLoopBody(t *testing.T) {
	fn := parseFunc(t, whileLoop)
	g, err := cfg.Build(fn.Instrs)
	require.NoError(t, err)
	info := dom.Compute(g)

	loops := loop.FindAll(g, info)
	require.Equal(t, 1, len(loops))
	l := loops[0]
	assert.Equal(t, "loop", l.Header.Label)
	assert.Equal(t, "body", l.Latch.Label)
	assert.Equal(t, 2, len(l.Body), "The body is the header and the latch")

	done, _ := g.BlockByLabel("done")
	assert.False(t, l.Contains(done), "Exit blocks stay outside the body")
}

func TestNormalizeSynthesizesPreHeaderAndLatch(t *testing.T) {
	fn := parseFunc(t, whileLoop)
	require.NoError(t, loop.Normalize(fn))

	var labels []string
	for _, instr := range fn.Instrs {
		if instr.IsLabel() {
			labels = append(labels, instr.Label)
		}
	}
	assert.Equal(t, []string{cfg.EntryLabel, "loop.preheader", "loop", "body", "loop.latch", "done"}, labels,
		"The pre-header precedes the header and the latch follows the last latch")

	g, err := cfg.Build(fn.Instrs)
	require.NoError(t, err, "Normalized output must rebuild")

	header, _ := g.BlockByLabel("loop")
	var predLabels []string
	for _, p := range g.Preds(header) {
		predLabels = append(predLabels, p.Label)
	}
	assert.ElementsMatch(t, []string{"loop.preheader", "loop.latch"}, predLabels,
		"All header in-edges route through the synthesized blocks")

	body, _ := g.BlockByLabel("body")
	require.Equal(t, 1, len(g.Succs(body)))
	assert.Equal(t, "loop.latch", g.Succs(body)[0].Label,
		"The back edge is redirected to the new latch")

	pre, _ := g.BlockByLabel("loop.preheader")
	require.True(t, pre.Terminated())
	assert.Equal(t, []string{"loop"}, pre.Last().Labels)
}

const ssaLoop = `
@main(k: int, n: int) {
  zero: int = const 0;
  two: int = const 2;
  one: int = const 1;
  jmp .loop;
.loop:
  i: int = phi zero i2 .sentinel_entry .body;
  c: bool = lt i n;
  br c .body .done;
.body:
  t: int = mul k two;
  a: int = add i t;
  print a;
  i2: int = add i one;
  jmp .loop;
.done:
  ret;
}
`

func TestLICMHoistsIntoPreHeader(t *testing.T) {
	fn := parseFunc(t, ssaLoop)
	require.NoError(t, loop.Normalize(fn))
	require.NoError(t, loop.LICM(fn))

	var muls int
	var section string
	var mulSection string
	for _, instr := range fn.Instrs {
		if instr.IsLabel() {
			section = instr.Label
			continue
		}
		if instr.Op == ir.OpMul {
			muls++
			mulSection = section
		}
	}
	assert.Equal(t, 1, muls, "The invariant mul appears exactly once")
	assert.Equal(t, "loop.preheader", mulSection, "It lands in the pre-header")
}

func TestLICMLeavesVaryingCodeInPlace(t *testing.T) {
	fn := parseFunc(t, ssaLoop)
	require.NoError(t, loop.Normalize(fn))
	require.NoError(t, loop.LICM(fn))

	var section string
	adds := map[string]string{}
	for _, instr := range fn.Instrs {
		if instr.IsLabel() {
			section = instr.Label
			continue
		}
		if instr.Op == ir.OpAdd {
			adds[instr.Dest] = section
		}
	}
	assert.Equal(t, "body", adds["a"], "An add of the induction variable stays in the loop")
	assert.Equal(t, "body", adds["i2"])
}

func TestLICMWithoutNormalizationUsesSolePredecessor(t *testing.T) {
	fn := parseFunc(t, ssaLoop)
	require.NoError(t, loop.LICM(fn))

	var section string
	var mulSection string
	muls := 0
	for _, instr := range fn.Instrs {
		if instr.IsLabel() {
			section = instr.Label
			continue
		}
		if instr.Op == ir.OpMul {
			muls++
			mulSection = section
		}
	}
	assert.Equal(t, 1, muls)
	assert.Equal(t, cfg.EntryLabel, mulSection,
		"With a single outside predecessor the computation moves there")
}

func TestLICMIgnoresLoads(t *testing.T) {
	fn := parseFunc(t, `
@main(k: int) {
  n: int = const 1;
  p: ptr<int> = alloc n;
  jmp .loop;
.loop:
  v: int = load p;
  c: bool = gt v k;
  br c .loop .done;
.done:
  ret;
}
`)
	require.NoError(t, loop.LICM(fn))

	var section string
	var loadSection string
	for _, instr := range fn.Instrs {
		if instr.IsLabel() {
			section = instr.Label
			continue
		}
		if instr.Op == ir.OpLoad {
			loadSection = section
		}
	}
	assert.Equal(t, "loop", loadSection, "Memory reads never move")
}
