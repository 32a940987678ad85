package main

import (
	"github.com/spf13/cobra"

	"github.com/nfw-project/roadless-cli/internal/analysis"
)

var watershedCmd = &cobra.Command{
	Use:   "watershed",
	Short: "Aggregate HUC12 risk indices to roadless areas",
	Long: `Overlays roadless areas with the HUC12 model layer and aggregates the
modeled risk indices per roadless area: area-weighted means where overlap
fractions are computable, raw means otherwise, with a Top-20 table per index.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnalysis(cmd, "watershed", cfg.Watershed.Subdir, analysis.Watershed)
	},
}

func init() {
	watershedCmd.Flags().Bool("exclude-rank-fields", false, "drop *_R percentile-rank variants from outputs")
	watershedCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		if v, _ := cmd.Flags().GetBool("exclude-rank-fields"); v {
			cfg.Watershed.ExcludeRankFields = true
		}
	}
	rootCmd.AddCommand(watershedCmd)
}
