package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/nfw-project/roadless-cli/internal/analysis"
	"github.com/nfw-project/roadless-cli/internal/config"
	"github.com/nfw-project/roadless-cli/internal/export"
	"github.com/nfw-project/roadless-cli/internal/layer"
)

// openSources builds the layer sources for the configured data driver. The
// returned cleanup releases any open containers.
func openSources(ctx context.Context, cfg *config.Config) (*analysis.Sources, func(), error) {
	src := &analysis.Sources{Geos: geos.NewContext()}
	cleanup := func() {}

	switch cfg.Data.Driver {
	case "gpkg":
		usfs, err := layer.OpenGeoPackage(cfg.Data.USFSGeoPackage)
		if err != nil {
			return nil, nil, err
		}
		ana, err := layer.OpenGeoPackage(cfg.Data.AnalysisGeoPackage)
		if err != nil {
			usfs.Close()
			return nil, nil, err
		}
		src.USFS, src.Analysis = usfs, ana
		cleanup = func() {
			ana.Close()
			usfs.Close()
		}

	case "shapefile":
		dir := &layer.ShapefileDir{Dir: cfg.Data.ShapefileDir}
		src.USFS, src.Analysis = dir, dir

	case "postgis":
		pool, err := pgxpool.New(ctx, cfg.Data.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "sources: connect postgis")
		}
		pg := layer.NewPostGIS(pool, cfg.Data.Schema)
		src.USFS, src.Analysis = pg, pg
		cleanup = pool.Close

	default:
		return nil, nil, layer.Configf("unknown data driver: %s", cfg.Data.Driver)
	}

	return src, cleanup, nil
}

// runAnalysis is the shared subcommand body: open sources, run the analysis,
// write its bundle under the configured output subdirectory.
func runAnalysis(cmd *cobra.Command, name, subdir string,
	fn func(context.Context, *config.Config, *analysis.Sources) (*export.Bundle, error),
) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, cleanup, err := openSources(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runID := uuid.NewString()
	log := zap.L().With(zap.String("command", name), zap.String("run_id", runID))
	log.Info("analysis starting")

	bundle, err := fn(ctx, cfg, src)
	if err != nil {
		return eris.Wrap(err, name)
	}

	dir := filepath.Join(cfg.Output.Dir, subdir)
	if err := bundle.Write(dir, runID); err != nil {
		return eris.Wrap(err, name)
	}

	log.Info("analysis complete", zap.String("output_dir", dir))
	fmt.Printf("Outputs written to: %s\n", dir)
	return nil
}
