package main

import (
	"github.com/spf13/cobra"

	"github.com/nfw-project/roadless-cli/internal/analysis"
)

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Aggregate Forest-to-Faucets water withdrawals to roadless areas",
	Long: `Overlays roadless areas with the Forest-to-Faucets HUC8 layer and
aggregates water withdrawals via area-weighted sums, producing the five
Top-20 drinking-water tables.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnalysis(cmd, "water", cfg.Water.Subdir, analysis.Water)
	},
}

func init() {
	rootCmd.AddCommand(waterCmd)
}
