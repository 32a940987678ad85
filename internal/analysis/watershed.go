package analysis

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nfw-project/roadless-cli/internal/config"
	"github.com/nfw-project/roadless-cli/internal/export"
	"github.com/nfw-project/roadless-cli/internal/layer"
	"github.com/nfw-project/roadless-cli/internal/overlay"
	"github.com/nfw-project/roadless-cli/internal/stats"
	"github.com/nfw-project/roadless-cli/internal/table"
)

// watershedTargets are the modeled indices that get their own Top-20 table.
// Directionality is not assumed; tables report the highest index values.
var watershedTargets = []struct {
	base  string
	title string
}{
	{"WFP", "Top 20 Roadless Areas by Highest WFP Index (Category E)"},
	{"IDRISK", "Top 20 Roadless Areas by Highest IDRISK Index (Category E)"},
	{"R_Q", "Top 20 Roadless Areas by Highest R_Q Index (Category E)"},
	{"R_IMPV", "Top 20 Roadless Areas by Highest R_IMPV Index (Category E)"},
	{"R_AG", "Top 20 Roadless Areas by Highest R_AG Index (Category E)"},
}

// Watershed aggregates the HUC12-modeled risk indices to roadless areas:
// area-weighted means when overlap fractions are computable, raw means
// otherwise, with a Top-20 table per target index.
func Watershed(ctx context.Context, cfg *config.Config, src *Sources) (*export.Bundle, error) {
	log := zap.L().With(zap.String("analysis", "watershed"))

	roadless, err := layer.Load(ctx, src.Geos, src.USFS, cfg.Data.RoadlessLayer, layer.Schema{
		IDColumn: "RA_ID",
	})
	if err != nil {
		return nil, err
	}
	model, err := layer.Load(ctx, src.Geos, src.Analysis, cfg.Watershed.ModelLayer, layer.Schema{
		Numeric:  append([]string{"Acres"}, cfg.Watershed.RiskFields...),
		IDColumn: "HUC12",
	})
	if err != nil {
		return nil, err
	}

	var fields []string
	for _, f := range cfg.Watershed.RiskFields {
		if !model.HasColumn(f) {
			continue
		}
		if cfg.Watershed.ExcludeRankFields && strings.Contains(f, "_R") {
			continue
		}
		fields = append(fields, f)
	}

	frags, err := overlay.Intersect(roadless, model, overlay.Options{
		Labels:        cfg.Data.LabelColumns,
		SecondaryKey:  "HUC12",
		SecondaryArea: "Acres",
		Measures:      fields,
	})
	if err != nil {
		return nil, err
	}

	sum := stats.Aggregate(frags, fields)
	log.Info("risk indices aggregated",
		zap.Int("roadless_areas", len(sum.Rows)),
		zap.Bool("area_weighted", sum.Weighted),
	)

	bundle := &export.Bundle{
		Name:     "roadless_f2f2_huc12_categoryE_top20_tables",
		DocTitle: "Roadless Areas – F2F HUC12 Model (Risk Indices: Category E)",
	}

	aggregated := make(map[string]bool, len(fields))
	for _, f := range fields {
		aggregated[f] = true
	}
	labels := rankLabels(cfg.Data.LabelColumns)

	for _, target := range watershedTargets {
		if !aggregated[target.base] {
			log.Info("index not found in model layer, skipping", zap.String("index", target.base))
			continue
		}

		kind := sum.Metric(target.base)
		metricCol := stats.MetricColumn(target.base, kind)

		ranked, err := stats.Rank(sum, stats.RankSpec{Metric: metricCol})
		if err != nil {
			return nil, err
		}

		header := target.base + " (raw mean)"
		if kind == stats.MetricWeightedMean {
			header = target.base + " (area-weighted mean)"
		}

		t := rankTable(ranked, labels, []rankCol{
			{"RA_Acres_in_Model", func(r *stats.Row) table.Cell { return table.F(r.Acres, 1) }},
			{"HUC12_Count", func(r *stats.Row) table.Cell { return table.Int(r.SecondaryCount) }},
			{header, func(r *stats.Row) table.Cell { return table.F(r.Value(metricCol), 4) }},
		})

		bundle.Tables = append(bundle.Tables, export.Titled{
			Title: target.title,
			Base:  "top20_" + strings.ToLower(target.base) + "_categoryE",
			Table: t,
		})
	}

	return bundle, nil
}
