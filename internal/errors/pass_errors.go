package errors

import (
	"fmt"

	"github.com/fatih/color"
)

// PassError is a structured error produced by a pass. Malformed input and
// non-convergence are fatal: the driver reports them and writes nothing to
// output. Opcodes outside a pass's competence are not errors at all; passes
// treat those instructions as opaque.
type PassError struct {
	Code    string // error code like E0001
	Message string // primary error message
	Context string // rendered instruction or block context, optional
}

func (e *PassError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (in `%s`)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithContext attaches instruction or block context to the error.
func (e *PassError) WithContext(context string) *PassError {
	e.Context = context
	return e
}

// MalformedIR creates an error for a structurally invalid instruction.
func MalformedIR(message string) *PassError {
	return &PassError{Code: ErrorMissingField, Message: message}
}

// UnknownLabel creates an error for a branch target with no matching block.
func UnknownLabel(label string) *PassError {
	return &PassError{
		Code:    ErrorUnknownLabel,
		Message: fmt.Sprintf("no block with label '%s'", label),
	}
}

// PhiMismatch creates an error for a phi whose args and labels disagree.
func PhiMismatch(dest string, args, labels int) *PassError {
	return &PassError{
		Code:    ErrorPhiMismatch,
		Message: fmt.Sprintf("phi for '%s' has %d args but %d labels", dest, args, labels),
	}
}

// NonConvergence creates an error for a fixpoint that exceeded its
// iteration bound.
func NonConvergence(analysis string) *PassError {
	return &PassError{
		Code:    ErrorNonConvergence,
		Message: fmt.Sprintf("%s did not converge", analysis),
	}
}

// FormatFatal renders a fatal error for the terminal in the
// "error[E0001]: message" style.
func FormatFatal(err error) string {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	if pe, ok := err.(*PassError); ok {
		out := fmt.Sprintf("%s[%s]: %s", red("error"), pe.Code, pe.Message)
		if pe.Context != "" {
			out += fmt.Sprintf("\n  --> %s", pe.Context)
		}
		return out
	}
	return fmt.Sprintf("%s: %s", red("error"), err)
}
