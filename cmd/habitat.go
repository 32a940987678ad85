package main

import (
	"github.com/spf13/cobra"

	"github.com/nfw-project/roadless-cli/internal/analysis"
)

var habitatCmd = &cobra.Command{
	Use:   "habitat",
	Short: "Build the critical-habitat reporting tables",
	Long: `Builds the critical-habitat reporting tables from the pre-intersected
habitat layer: national summary, ESA and listing status breakdowns,
spatial-join counts by USFS region and state, and the species inventory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnalysis(cmd, "habitat", cfg.Habitat.Subdir, analysis.Habitat)
	},
}

func init() {
	rootCmd.AddCommand(habitatCmd)
}
