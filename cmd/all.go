package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nfw-project/roadless-cli/internal/analysis"
	"github.com/nfw-project/roadless-cli/internal/config"
	"github.com/nfw-project/roadless-cli/internal/export"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every analysis in sequence",
	RunE: func(cmd *cobra.Command, _ []string) error {
		runs := []struct {
			name   string
			subdir string
			fn     func(context.Context, *config.Config, *analysis.Sources) (*export.Bundle, error)
		}{
			{"inventory", cfg.Inventory.Subdir, analysis.Inventory},
			{"watershed", cfg.Watershed.Subdir, analysis.Watershed},
			{"water", cfg.Water.Subdir, analysis.Water},
			{"habitat", cfg.Habitat.Subdir, analysis.Habitat},
		}

		for _, run := range runs {
			if err := runAnalysis(cmd, run.name, run.subdir, run.fn); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(allCmd)
}
