package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassErrorFormatting(t *testing.T) {
	err := UnknownLabel("nowhere")
	assert.Equal(t, ErrorUnknownLabel, err.Code)
	assert.Contains(t, err.Error(), "E0002")
	assert.Contains(t, err.Error(), "nowhere")

	withCtx := UnknownLabel("nowhere").WithContext("jmp .nowhere")
	assert.Contains(t, withCtx.Error(), "jmp .nowhere")
}

func TestPhiMismatchMessage(t *testing.T) {
	err := PhiMismatch("x", 1, 2)
	assert.Contains(t, err.Error(), "x")
	assert.Contains(t, err.Error(), "1 args")
	assert.Contains(t, err.Error(), "2 labels")
}

func TestErrorsWrapCleanly(t *testing.T) {
	inner := MalformedIR("missing op")
	wrapped := fmt.Errorf("@main: %w", inner)
	assert.ErrorAs(t, wrapped, new(*PassError))
}

func TestFormatFatalIncludesCode(t *testing.T) {
	out := FormatFatal(NonConvergence("liveness"))
	assert.Contains(t, out, ErrorNonConvergence)
	assert.Contains(t, out, "liveness")
}
