// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"bril/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "bril-opt",
	Short: "Optimization and analysis passes over the JSON IR",
	Long: `bril-opt runs a single optimization or analysis pass as a filter:
the program is read from standard input and the transformed program is
written to standard output. Diagnostic logs go to stderr or --log-file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbosity, _ := cmd.Flags().GetCount("verbose") //nolint:all
		logFile, _ := cmd.Flags().GetString("log-file") //nolint:all
		var path *string
		if logFile != "" {
			path = &logFile
		}
		commonlog.Configure(verbosity, path)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.FormatFatal(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Raise log verbosity (repeatable)")
	rootCmd.PersistentFlags().String("log-file", "", "Write diagnostic logs to a file instead of stderr")
}
