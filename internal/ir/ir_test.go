package ir

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProgram(t *testing.T) {
	source := `{
  "functions": [
    {
      "name": "main",
      "args": [{"name": "n", "type": "int"}],
      "type": "int",
      "instrs": [
        {"op": "const", "dest": "v", "type": "int", "value": 5},
        {"op": "const", "dest": "b", "type": "bool", "value": true},
        {"op": "alloc", "dest": "p", "type": {"ptr": "int"}, "args": ["v"]},
        {"label": "end"},
        {"op": "print", "args": ["v"]},
        {"op": "ret", "args": ["v"]}
      ]
    }
  ]
}`
	prog, err := DecodeProgram(strings.NewReader(source))
	require.NoError(t, err, "Decoding should succeed")
	require.Equal(t, 1, len(prog.Functions))

	fn := prog.Functions[0]
	assert.Equal(t, "main", fn.Name)
	require.Equal(t, 1, len(fn.Args))
	assert.Equal(t, "int", fn.Args[0].Type.Prim)
	assert.Equal(t, "int", fn.Type.Prim)

	v := fn.Instrs[0]
	require.NotNil(t, v.Value)
	assert.False(t, v.Value.IsBool)
	assert.Equal(t, int64(5), v.Value.Int, "JSON numbers should normalize to int64")

	b := fn.Instrs[1]
	require.NotNil(t, b.Value)
	assert.True(t, b.Value.IsBool)
	assert.True(t, b.Value.Bool)

	p := fn.Instrs[2]
	require.NotNil(t, p.Type.Ptr, "Parameterized types should decode")
	assert.Equal(t, "int", p.Type.Ptr.Prim)

	label := fn.Instrs[3]
	assert.True(t, label.IsLabel())
	assert.False(t, fn.Instrs[4].IsLabel(), "print is not a label record")
	assert.True(t, fn.Instrs[5].IsTerminator())
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	prog := &Program{Functions: []*Function{{
		Name: "main",
		Instrs: []*Instruction{
			{Op: OpConst, Dest: "v", Type: IntType, Value: IntLit(0)},
			{Op: OpPrint, Args: []string{"v"}},
		},
	}}}

	var buf bytes.Buffer
	require.NoError(t, EncodeProgram(&buf, prog))
	out := buf.String()

	assert.Contains(t, out, `"value": 0`, "Zero literals must not be omitted")
	assert.NotContains(t, out, `"labels"`, "Absent fields stay absent")
	assert.NotContains(t, out, `"dest": ""`)
}

func TestTypeEquality(t *testing.T) {
	assert.True(t, IntType.Equals(&Type{Prim: "int"}))
	assert.False(t, IntType.Equals(BoolType))
	assert.True(t, PtrTo(IntType).Equals(PtrTo(&Type{Prim: "int"})))
	assert.False(t, PtrTo(IntType).Equals(IntType))
	assert.Equal(t, "ptr<int>", PtrTo(IntType).String())
}

func TestInstructionString(t *testing.T) {
	instr := &Instruction{Op: OpAdd, Dest: "c", Type: IntType, Args: []string{"a", "b"}}
	assert.Equal(t, "c: int = add a b", instr.String())

	jmp := &Instruction{Op: OpJmp, Labels: []string{"loop"}}
	assert.Equal(t, "jmp .loop", jmp.String())

	label := &Instruction{Label: "loop"}
	assert.Equal(t, ".loop:", label.String())
}

func TestCloneIsDeep(t *testing.T) {
	instr := &Instruction{Op: OpAdd, Dest: "c", Args: []string{"a", "b"}}
	dup := instr.Clone()
	dup.Args[0] = "z"
	assert.Equal(t, "a", instr.Args[0], "Clone must not share argument storage")
}

func TestVarTypes(t *testing.T) {
	fn := &Function{
		Name: "f",
		Args: []Arg{{Name: "n", Type: IntType}},
		Instrs: []*Instruction{
			{Op: OpConst, Dest: "v", Type: IntType, Value: IntLit(1)},
			{Op: OpEq, Dest: "c", Type: BoolType, Args: []string{"v", "n"}},
		},
	}
	types := fn.VarTypes()
	assert.Equal(t, "int", types["n"].Prim)
	assert.Equal(t, "int", types["v"].Prim)
	assert.Equal(t, "bool", types["c"].Prim)
}
