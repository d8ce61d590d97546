// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/spf13/cobra"

	"bril/internal/cfg"
	"bril/internal/dataflow"
	"bril/internal/ir"
	"bril/internal/loop"
	"bril/internal/mem"
	"bril/internal/opt"
	"bril/internal/ssa"
)

// runFilter applies a per-function pass to the program on stdin and writes
// the result to stdout. Nothing is written when the pass fails.
func runFilter(pass func(*ir.Function) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		prog, err := ir.DecodeProgram(os.Stdin)
		if err != nil {
			return err
		}
		for _, fn := range prog.Functions {
			if err := pass(fn); err != nil {
				return err
			}
		}
		return ir.EncodeProgram(os.Stdout, prog)
	}
}

var lvnCmd = &cobra.Command{
	Use:   "lvn",
	Short: "Local value numbering with copy propagation",
	RunE:  runFilter(opt.LVN),
}

var localDCECmd = &cobra.Command{
	Use:   "local-dce",
	Short: "Remove definitions overwritten before use within a block",
	RunE:  runFilter(opt.LocalDCE),
}

var globalDCECmd = &cobra.Command{
	Use:   "global-dce",
	Short: "Remove instructions whose destinations are never read",
	RunE: runFilter(func(fn *ir.Function) error {
		opt.GlobalDCE(fn)
		return nil
	}),
}

var constPropCmd = &cobra.Command{
	Use:   "const-prop",
	Short: "Propagate constants and fold add/sub/mul",
	RunE:  runFilter(dataflow.ConstProp),
}

var liveDCECmd = &cobra.Command{
	Use:   "live-dce",
	Short: "Remove dead definitions using live-variable analysis",
	RunE:  runFilter(dataflow.LivenessDCE),
}

var dataflowCmd = &cobra.Command{
	Use:   "dataflow",
	Short: "Constant propagation followed by liveness-based DCE",
	RunE: runFilter(func(fn *ir.Function) error {
		if err := dataflow.ConstProp(fn); err != nil {
			return err
		}
		return dataflow.LivenessDCE(fn)
	}),
}

var toSSACmd = &cobra.Command{
	Use:   "to-ssa",
	Short: "Convert to SSA form (phi placement and renaming)",
	RunE:  runFilter(ssa.Construct),
}

var fromSSACmd = &cobra.Command{
	Use:   "from-ssa",
	Short: "Lower phi nodes back to copies",
	RunE:  runFilter(ssa.Destruct),
}

var loopNormCmd = &cobra.Command{
	Use:   "loop-norm",
	Short: "Give every loop header a pre-header and a dedicated latch",
	RunE:  runFilter(loop.Normalize),
}

var licmCmd = &cobra.Command{
	Use:   "licm",
	Short: "Hoist loop-invariant computations (expects SSA input)",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw") //nolint:all
		return runFilter(func(fn *ir.Function) error {
			if !raw {
				if err := loop.Normalize(fn); err != nil {
					return err
				}
			}
			return loop.LICM(fn)
		})(cmd, args)
	},
}

var dseCmd = &cobra.Command{
	Use:   "dse",
	Short: "Points-to analysis and dead-store elimination",
	RunE:  runFilter(mem.DeadStoreElimination),
}

var terminatorsCmd = &cobra.Command{
	Use:   "terminators",
	Short: "Complete every basic block with an explicit terminator",
	RunE: runFilter(func(fn *ir.Function) error {
		g, err := cfg.Build(fn.Instrs)
		if err != nil {
			return err
		}
		g.AddTerminators()
		fn.Instrs = g.Serialize()
		return nil
	}),
}

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip",
	Short: "Rebuild the CFG and serialize it back, a structural no-op",
	RunE: runFilter(func(fn *ir.Function) error {
		g, err := cfg.Build(fn.Instrs)
		if err != nil {
			return err
		}
		fn.Instrs = g.Serialize()
		return nil
	}),
}

func init() {
	licmCmd.Flags().Bool("raw", false, "Skip loop normalization before hoisting")

	rootCmd.AddCommand(
		lvnCmd,
		localDCECmd,
		globalDCECmd,
		constPropCmd,
		liveDCECmd,
		dataflowCmd,
		toSSACmd,
		fromSSACmd,
		loopNormCmd,
		licmCmd,
		dseCmd,
		terminatorsCmd,
		roundtripCmd,
	)
}
