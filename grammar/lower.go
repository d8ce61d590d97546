package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"bril/internal/ir"
)

// Lower converts a parsed textual program into the JSON IR data model.
func Lower(p *Program) (*ir.Program, error) {
	prog := &ir.Program{}
	for _, fn := range p.Functions {
		lowered, err := lowerFunction(fn)
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, lowered)
	}
	return prog, nil
}

func lowerFunction(fn *Function) (*ir.Function, error) {
	out := &ir.Function{
		Name: fn.Name,
		Type: lowerType(fn.Return),
	}
	for _, p := range fn.Params {
		out.Args = append(out.Args, ir.Arg{Name: p.Name, Type: lowerType(p.Type)})
	}
	for _, line := range fn.Lines {
		instr, err := lowerLine(fn.Name, line)
		if err != nil {
			return nil, err
		}
		out.Instrs = append(out.Instrs, instr)
	}
	return out, nil
}

func lowerLine(fn string, line *Line) (*ir.Instruction, error) {
	switch {
	case line.Label != nil:
		return &ir.Instruction{Label: stripDot(line.Label.Name)}, nil
	case line.Assign != nil:
		a := line.Assign
		if a.Rhs.Op == ir.OpConst {
			if a.Rhs.Value == nil {
				return nil, fmt.Errorf("in @%s, constant %s has no literal", fn, a.Dest)
			}
			value, err := lowerLiteral(a.Rhs.Value)
			if err != nil {
				return nil, fmt.Errorf("in @%s, constant %s: %w", fn, a.Dest, err)
			}
			return &ir.Instruction{
				Op:    ir.OpConst,
				Dest:  a.Dest,
				Type:  lowerType(a.Type),
				Value: value,
			}, nil
		}
		if a.Rhs.Value != nil {
			return nil, fmt.Errorf("in @%s, %s: literal operand on non-const op %s", fn, a.Dest, a.Rhs.Op)
		}
		return &ir.Instruction{
			Op:     a.Rhs.Op,
			Dest:   a.Dest,
			Type:   lowerType(a.Type),
			Funcs:  a.Rhs.Funcs,
			Args:   a.Rhs.Args,
			Labels: stripDots(a.Rhs.Labels),
		}, nil
	default:
		e := line.Effect
		return &ir.Instruction{
			Op:     e.Op,
			Funcs:  e.Funcs,
			Args:   e.Args,
			Labels: stripDots(e.Labels),
		}, nil
	}
}

func lowerLiteral(lit *Literal) (*ir.Literal, error) {
	switch {
	case lit.True:
		return ir.BoolLit(true), nil
	case lit.False:
		return ir.BoolLit(false), nil
	default:
		v, err := strconv.ParseInt(lit.Int, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer literal %q", lit.Int)
		}
		return ir.IntLit(v), nil
	}
}

func lowerType(t *Type) *ir.Type {
	if t == nil {
		return nil
	}
	if t.Ptr != nil {
		return ir.PtrTo(lowerType(t.Ptr))
	}
	return &ir.Type{Prim: t.Name}
}

func stripDot(label string) string {
	return strings.TrimPrefix(label, ".")
}

func stripDots(labels []string) []string {
	if labels == nil {
		return nil
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = stripDot(l)
	}
	return out
}
