package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var BrilLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{"Comment", `#[^\n]*`, nil},

		// Branch targets and label definitions: .name
		{"LabelName", `\.[a-zA-Z_][a-zA-Z0-9_.]*`, nil},

		// Identifiers; dots allowed so SSA versions like v.1 stay one token
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_.]*`, nil},

		// Integer literals
		{"Integer", `-?[0-9]+`, nil},

		// Punctuation
		{"Punctuation", `[@{}()<>:;=,]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
