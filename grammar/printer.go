package grammar

import (
	"fmt"
	"strings"

	"bril/internal/ir"
)

// Print renders a program in the textual IR syntax, the inverse of Lower.
func Print(prog *ir.Program) string {
	var sb strings.Builder
	for i, fn := range prog.Functions {
		if i > 0 {
			sb.WriteString("\n")
		}
		printFunction(&sb, fn)
	}
	return sb.String()
}

func printFunction(sb *strings.Builder, fn *ir.Function) {
	sb.WriteString("@" + fn.Name)
	if len(fn.Args) > 0 {
		params := make([]string, len(fn.Args))
		for i, arg := range fn.Args {
			params[i] = fmt.Sprintf("%s: %s", arg.Name, printType(arg.Type))
		}
		sb.WriteString("(" + strings.Join(params, ", ") + ")")
	}
	if fn.Type != nil {
		sb.WriteString(": " + printType(fn.Type))
	}
	sb.WriteString(" {\n")
	for _, instr := range fn.Instrs {
		printInstruction(sb, instr)
	}
	sb.WriteString("}\n")
}

func printInstruction(sb *strings.Builder, instr *ir.Instruction) {
	if instr.IsLabel() {
		sb.WriteString("." + instr.Label + ":\n")
		return
	}
	sb.WriteString("  ")
	if instr.Dest != "" {
		fmt.Fprintf(sb, "%s: %s = ", instr.Dest, printType(instr.Type))
	}
	sb.WriteString(instr.Op)
	if instr.Value != nil {
		sb.WriteString(" " + instr.Value.String())
	}
	for _, f := range instr.Funcs {
		sb.WriteString(" @" + f)
	}
	for _, a := range instr.Args {
		sb.WriteString(" " + a)
	}
	for _, l := range instr.Labels {
		sb.WriteString(" ." + l)
	}
	sb.WriteString(";\n")
}

func printType(t *ir.Type) string {
	if t == nil {
		return ""
	}
	if t.Ptr != nil {
		return fmt.Sprintf("ptr<%s>", printType(t.Ptr))
	}
	return t.Prim
}
