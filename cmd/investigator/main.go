// Package main implements the investigator CLI.
//
// # File Index
//
//   - main.go       - entry point, rootCmd, global flags
//   - investigate.go - `investigate` subcommand: wires config -> gateway ->
//     researcher -> agents -> engine.Machine and writes every per-run
//     output file
//   - evaluate.go   - `evaluate` subcommand: thin pass-through into the
//     out-of-core evaluation harness
//   - live.go       - the --live ANSI progress renderer
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	debugFlag  bool
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "investigator",
	Short: "Autonomous due-diligence investigation engine",
	Long: `investigator runs the Director loop: it iteratively searches the
open web for a named subject, extracts entities and relationships,
persists them as a graph, detects risk patterns and temporal
contradictions, and synthesizes a written report with provenance and
confidence scores.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if debugFlag {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		built, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/investigator.yaml", "Path to the investigator's YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging and per-node state snapshots")

	rootCmd.AddCommand(investigateCmd)
	rootCmd.AddCommand(evaluateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
