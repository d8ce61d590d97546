package errors

// Error codes for the Bril toolchain.
// These codes are used in error messages and diagnostics to provide
// consistent identification across the pass driver and the language server.
//
// Error code ranges:
// E0001-E0099: Malformed IR errors
// E0100-E0199: Parser errors (textual frontend)
// E0200-E0299: Analysis errors

const (
	// E0001: instruction missing a field the pass requires
	ErrorMissingField = "E0001"

	// E0002: branch or phi references a label with no matching block
	ErrorUnknownLabel = "E0002"

	// E0003: phi with mismatched args/labels lengths
	ErrorPhiMismatch = "E0003"

	// E0004: opcode the pass must handle but cannot
	ErrorUnknownOpcode = "E0004"

	// E0100: textual IR syntax errors
	ErrorSyntax = "E0100"

	// E0200: a fixpoint failed to converge, indicates a pass bug
	ErrorNonConvergence = "E0200"
)
