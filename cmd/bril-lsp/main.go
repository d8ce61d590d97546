// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"bril/internal/lsp"
)

const lsName = "bril" // Name identifier for the language server

var handler protocol.Handler // Protocol handler instance (wired up below)

func main() {
	// Configure debug logging (1 = debug level, nil = default logger)
	commonlog.Configure(1, nil)

	brilHandler := lsp.NewBrilHandler()

	// Wire up the handler with specific LSP method implementations
	handler = protocol.Handler{
		Initialize:            brilHandler.Initialize,
		Initialized:           brilHandler.Initialized,
		Shutdown:              brilHandler.Shutdown,
		SetTrace:              brilHandler.SetTrace,
		TextDocumentDidOpen:   brilHandler.TextDocumentDidOpen,
		TextDocumentDidChange: brilHandler.TextDocumentDidChange,
		TextDocumentDidClose:  brilHandler.TextDocumentDidClose,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting Bril LSP server...")

	// Serve over standard input/output, the transport editors expect
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting Bril LSP server:", err)
		os.Exit(1)
	}
}
