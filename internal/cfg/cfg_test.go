package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bril/grammar"
	"bril/internal/cfg"
	"bril/internal/ir"
)

func parseFunc(t *testing.T, source string) *ir.Function {
	t.Helper()
	parsed, err := grammar.ParseString("test.bril", source)
	require.NoError(t, err, "Test program should parse")
	prog, err := grammar.Lower(parsed)
	require.NoError(t, err, "Test program should lower")
	return prog.Functions[0]
}

const diamond = `
@main {
  c: bool = const true;
  br c .left .right;
.left:
  x: int = const 1;
  jmp .join;
.right:
  x: int = const 2;
  jmp .join;
.join:
  print x;
  ret;
}
`

func TestBuildBlocksAndEdges(t *testing.T) {
	fn := parseFunc(t, diamond)
	g, err := cfg.Build(fn.Instrs)
	require.NoError(t, err, "Build should succeed")

	blocks := g.Blocks()
	require.Equal(t, 4, len(blocks))
	assert.Equal(t, cfg.EntryLabel, blocks[0].Label)
	assert.Equal(t, "left", blocks[1].Label)
	assert.Equal(t, "right", blocks[2].Label)
	assert.Equal(t, "join", blocks[3].Label)
	assert.Same(t, blocks[0], g.Entry())

	succs := func(label string) []string {
		b, ok := g.BlockByLabel(label)
		require.True(t, ok, "Block %s should exist", label)
		var out []string
		for _, s := range g.Succs(b) {
			out = append(out, s.Label)
		}
		return out
	}
	assert.Equal(t, []string{"left", "right"}, succs(cfg.EntryLabel))
	assert.Equal(t, []string{"join"}, succs("left"))
	assert.Equal(t, []string{"join"}, succs("right"))
	assert.Empty(t, succs("join"), "ret has no successors")

	join, _ := g.BlockByLabel("join")
	assert.Equal(t, 2, len(g.Preds(join)))
}

func TestFallthroughEdge(t *testing.T) {
	fn := parseFunc(t, `
@main {
  v: int = const 1;
.next:
  print v;
}
`)
	g, err := cfg.Build(fn.Instrs)
	require.NoError(t, err)

	entry := g.Entry()
	require.Equal(t, 1, len(g.Succs(entry)), "Unterminated block falls through")
	assert.Equal(t, "next", g.Succs(entry)[0].Label)
}

func TestUnknownBranchTarget(t *testing.T) {
	fn := parseFunc(t, `
@main {
  jmp .nowhere;
}
`)
	_, err := cfg.Build(fn.Instrs)
	require.Error(t, err, "Branching to a missing label is malformed IR")
	assert.Contains(t, err.Error(), "nowhere")
}

func TestDuplicateLabelRejected(t *testing.T) {
	fn := parseFunc(t, `
@main {
.a:
  v: int = const 1;
.a:
  print v;
}
`)
	_, err := cfg.Build(fn.Instrs)
	require.Error(t, err, "Duplicate labels are malformed IR")
}

func TestSerializeRoundTrip(t *testing.T) {
	fn := parseFunc(t, diamond)
	g, err := cfg.Build(fn.Instrs)
	require.NoError(t, err)

	instrs := g.Serialize()
	require.True(t, instrs[0].IsLabel())
	assert.Equal(t, cfg.EntryLabel, instrs[0].Label,
		"Serialization materializes the entry label")

	rebuilt, err := cfg.Build(instrs)
	require.NoError(t, err, "Serialized output should rebuild")
	require.Equal(t, len(g.Blocks()), len(rebuilt.Blocks()))
	for i, b := range g.Blocks() {
		other := rebuilt.Blocks()[i]
		assert.Equal(t, b.Label, other.Label)
		require.Equal(t, len(g.Succs(b)), len(rebuilt.Succs(other)),
			"Block %s should keep its edges", b.Label)
		for j, s := range g.Succs(b) {
			assert.Equal(t, s.Label, rebuilt.Succs(other)[j].Label)
		}
	}
}

func TestAddTerminators(t *testing.T) {
	fn := parseFunc(t, `
@main {
  v: int = const 1;
.next:
  print v;
}
`)
	g, err := cfg.Build(fn.Instrs)
	require.NoError(t, err)
	g.AddTerminators()

	entry := g.Entry()
	require.True(t, entry.Terminated())
	assert.Equal(t, ir.OpJmp, entry.Last().Op)
	assert.Equal(t, []string{"next"}, entry.Last().Labels)

	last, _ := g.BlockByLabel("next")
	require.True(t, last.Terminated())
	assert.Equal(t, ir.OpRet, last.Last().Op, "The final block returns")
}

func TestInsertBeforeAndAfter(t *testing.T) {
	fn := parseFunc(t, diamond)
	g, err := cfg.Build(fn.Instrs)
	require.NoError(t, err)

	join, _ := g.BlockByLabel("join")
	pre := g.NewBlock("join.pre")
	g.InsertBefore(pre, join)
	post := g.NewBlock("join.post")
	g.InsertAfter(post, join)

	var labels []string
	for _, b := range g.Blocks() {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{cfg.EntryLabel, "left", "right", "join.pre", "join", "join.post"}, labels)

	left, _ := g.BlockByLabel("left")
	assert.Equal(t, "join", g.Succs(left)[0].Label, "Insertion preserves existing edges")
}

func TestReversePostOrderStartsAtEntry(t *testing.T) {
	fn := parseFunc(t, diamond)
	g, err := cfg.Build(fn.Instrs)
	require.NoError(t, err)

	rpo := g.ReversePostOrder()
	require.Equal(t, 4, len(rpo))
	assert.Equal(t, cfg.EntryLabel, rpo[0].Label)
	assert.Equal(t, "join", rpo[len(rpo)-1].Label)
}
