// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"bril/grammar"
	"bril/internal/ir"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: bril <file.bril>")
		os.Exit(1)
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	parsed, err := grammar.ParseString(path, string(source))
	if err != nil {
		grammar.ReportParseError(string(source), err)
		os.Exit(1)
	}

	prog, err := grammar.Lower(parsed)
	if err != nil {
		color.Red("Failed to lower program: %s", err)
		os.Exit(1)
	}

	if err := ir.EncodeProgram(os.Stdout, prog); err != nil {
		color.Red("Failed to encode program: %s", err)
		os.Exit(1)
	}
}
