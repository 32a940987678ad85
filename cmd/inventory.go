package main

import (
	"github.com/spf13/cobra"

	"github.com/nfw-project/roadless-cli/internal/analysis"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Build the roadless-area inventory tables",
	Long: `Loads the roadless-area layer and builds the descriptive inventory:
national summary, breakdowns by USFS region, state, national forest, and
category, attribute completeness, and geometry statistics.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnalysis(cmd, "inventory", cfg.Inventory.Subdir, analysis.Inventory)
	},
}

func init() {
	rootCmd.AddCommand(inventoryCmd)
}
