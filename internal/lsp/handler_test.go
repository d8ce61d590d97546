package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bril/grammar"
)

func TestValidateReportsUnknownLabel(t *testing.T) {
	parsed, err := grammar.ParseString("test.bril", `
@main {
  jmp .nowhere;
}
`)
	require.NoError(t, err, "Source should parse")
	prog, err := grammar.Lower(parsed)
	require.NoError(t, err)

	errs := Validate(prog)
	require.Equal(t, 1, len(errs))
	assert.Contains(t, errs[0].Error(), "nowhere")
	assert.Contains(t, errs[0].Error(), "@main", "Errors name the function")
}

func TestValidateReportsPhiMismatch(t *testing.T) {
	parsed, err := grammar.ParseString("test.bril", `
@main {
  a: int = const 1;
  jmp .next;
.next:
  x: int = phi a .sentinel_entry .next;
  ret;
}
`)
	require.NoError(t, err, "Source should parse")
	prog, err := grammar.Lower(parsed)
	require.NoError(t, err)

	errs := Validate(prog)
	require.NotEmpty(t, errs, "One arg against two labels is malformed")
	assert.Contains(t, errs[0].Error(), "phi")
}

func TestValidateAcceptsWellFormedProgram(t *testing.T) {
	parsed, err := grammar.ParseString("test.bril", `
@main {
  v: int = const 1;
  jmp .end;
.end:
  print v;
  ret;
}
`)
	require.NoError(t, err)
	prog, err := grammar.Lower(parsed)
	require.NoError(t, err)

	assert.Empty(t, Validate(prog))
}

func TestConvertParseErrorCarriesPosition(t *testing.T) {
	_, err := grammar.ParseString("test.bril", "@main { v int = const 1; }")
	require.Error(t, err)

	diagnostics := ConvertParseError(err)
	require.Equal(t, 1, len(diagnostics))
	assert.Equal(t, "bril-parser", *diagnostics[0].Source)
	assert.Equal(t, uint32(0), diagnostics[0].Range.Start.Line,
		"Positions convert to 0-based indexing")
}

func TestConvertValidationErrorsAnchorAtTop(t *testing.T) {
	parsed, err := grammar.ParseString("test.bril", `
@main {
  jmp .nowhere;
}
`)
	require.NoError(t, err)
	prog, err := grammar.Lower(parsed)
	require.NoError(t, err)

	diagnostics := ConvertValidationErrors(Validate(prog))
	require.Equal(t, 1, len(diagnostics))
	assert.Equal(t, uint32(0), diagnostics[0].Range.Start.Line)
	assert.Equal(t, "bril-validate", *diagnostics[0].Source)
}

func TestNewBrilHandler(t *testing.T) {
	h := NewBrilHandler()
	require.NotNil(t, h)
	assert.NotNil(t, h.content)
	assert.NotNil(t, h.programs)
}
