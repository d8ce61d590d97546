package ir

import (
	"encoding/json"
	"fmt"
	"io"
)

// The IR is the JSON-encoded Bril program form: a flat instruction list per
// function, with labels and explicit branches. Passes consume and produce
// this form; the CFG is an internal view rebuilt whenever structure changes.

// Program is the root of the IR: an ordered sequence of functions.
type Program struct {
	Functions []*Function `json:"functions"`
}

// Function carries a name, optional formal arguments, an optional return
// type and the flat instruction sequence.
type Function struct {
	Name   string         `json:"name"`
	Args   []Arg          `json:"args,omitempty"`
	Type   *Type          `json:"type,omitempty"`
	Instrs []*Instruction `json:"instrs"`
}

// Arg is a formal function argument.
type Arg struct {
	Name string `json:"name"`
	Type *Type  `json:"type"`
}

// ArgNames returns the set of formal argument names.
func (f *Function) ArgNames() map[string]bool {
	names := make(map[string]bool, len(f.Args))
	for _, arg := range f.Args {
		names[arg.Name] = true
	}
	return names
}

// VarTypes maps every variable in the function (arguments and instruction
// destinations) to its declared type.
func (f *Function) VarTypes() map[string]*Type {
	types := make(map[string]*Type)
	for _, arg := range f.Args {
		types[arg.Name] = arg.Type
	}
	for _, instr := range f.Instrs {
		if instr.Dest != "" {
			types[instr.Dest] = instr.Type
		}
	}
	return types
}

// DecodeProgram reads a JSON program from r.
func DecodeProgram(r io.Reader) (*Program, error) {
	var prog Program
	dec := json.NewDecoder(r)
	if err := dec.Decode(&prog); err != nil {
		return nil, fmt.Errorf("failed to decode program: %w", err)
	}
	return &prog, nil
}

// EncodeProgram writes the program to w as indented JSON.
func EncodeProgram(w io.Writer, prog *Program) error {
	data, err := json.MarshalIndent(prog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode program: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write program: %w", err)
	}
	return nil
}
