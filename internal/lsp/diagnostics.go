package lsp

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"bril/internal/cfg"
	"bril/internal/errors"
	"bril/internal/ir"
)

// ConvertParseError transforms a textual-IR parse error into LSP
// diagnostics for IDE display.
func ConvertParseError(err error) []protocol.Diagnostic {
	pe, ok := err.(participle.Error)
	if !ok {
		return []protocol.Diagnostic{{
			Range:    protocol.Range{},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("bril-parser"),
			Message:  err.Error(),
		}}
	}

	pos := pe.Position()
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{
				Line:      uint32(pos.Line - 1),   // convert to 0-based indexing
				Character: uint32(pos.Column - 1), // convert to 0-based indexing
			},
			End: protocol.Position{
				Line:      uint32(pos.Line - 1),
				Character: uint32(pos.Column + 5), // rough span for visibility
			},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("bril-parser"),
		Message:  pe.Message(),
	}}
}

// Validate checks the lowered program for structural problems that the
// passes would reject: unresolvable branch targets, duplicate labels and
// malformed phi nodes.
func Validate(prog *ir.Program) []error {
	var errs []error
	for _, fn := range prog.Functions {
		if _, err := cfg.Build(fn.Instrs); err != nil {
			errs = append(errs, fmt.Errorf("@%s: %w", fn.Name, err))
		}
		for _, instr := range fn.Instrs {
			if instr.Op == ir.OpPhi && len(instr.Args) != len(instr.Labels) {
				err := errors.PhiMismatch(instr.Dest, len(instr.Args), len(instr.Labels))
				errs = append(errs, fmt.Errorf("@%s: %w", fn.Name, err))
			}
		}
	}
	return errs
}

// ConvertValidationErrors transforms structural errors into LSP
// diagnostics. The IR carries no positions, so they anchor at the top of
// the document.
func ConvertValidationErrors(errs []error) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, err := range errs {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 1},
			},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("bril-validate"),
			Message:  err.Error(),
		})
	}
	return diagnostics
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
