package analysis

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/nfw-project/roadless-cli/internal/config"
	"github.com/nfw-project/roadless-cli/internal/export"
	"github.com/nfw-project/roadless-cli/internal/layer"
	"github.com/nfw-project/roadless-cli/internal/overlay"
	"github.com/nfw-project/roadless-cli/internal/stats"
	"github.com/nfw-project/roadless-cli/internal/table"
)

// f2fNumericColumns are the Forest-to-Faucets withdrawal columns coerced to
// numeric at load. Names follow the shapefile's truncated spellings.
var f2fNumericColumns = []string{
	"ACRES", "Domestic", "Industrial", "Irrigation", "Livestock", "Mining",
	"Thermo", "Public_sup", "Aquacultur", "Total_SW",
	"Ps_del_dom", "Domestic_GW", "Industri_GW", "Irrigati_GW",
	"Livestoc_GW", "Mining_GW", "Thermo_GW", "Public_sup_GW",
	"Aquacult_GW", "Total_GW",
}

// Derived column names of the water summary.
const (
	colPublicSupTotal   = "Public_sup_Total_w"
	colPublicSupPerAcre = "Public_sup_per_RA_acre"
	colTotalWithdrawals = "Total_withdrawals_w"
	colGWShare          = "Public_sup_GW_share"
)

// Water aggregates Forest-to-Faucets HUC8 water withdrawals to roadless
// areas via area-weighted sums and builds the five Top-20 drinking-water
// tables.
func Water(ctx context.Context, cfg *config.Config, src *Sources) (*export.Bundle, error) {
	log := zap.L().With(zap.String("analysis", "water"))

	roadless, err := layer.Load(ctx, src.Geos, src.USFS, cfg.Data.RoadlessLayer, layer.Schema{
		IDColumn: "RA_ID",
	})
	if err != nil {
		return nil, err
	}

	required := append([]string{"HUC_8", "HU_8_STATE", "ACRES"}, cfg.Water.Measures...)
	f2f, err := layer.Load(ctx, src.Geos, src.Analysis, cfg.Water.F2FLayer, layer.Schema{
		Required: required,
		Numeric:  f2fNumericColumns,
		IDColumn: "HUC_8",
	})
	if err != nil {
		return nil, err
	}

	hucSummary := waterHUCSummary(f2f, log)

	frags, err := overlay.Intersect(roadless, f2f, overlay.Options{
		Labels:        cfg.Data.LabelColumns,
		SecondaryKey:  "HUC_8",
		SecondaryArea: "ACRES",
		Measures:      cfg.Water.Measures,
	})
	if err != nil {
		return nil, err
	}

	sum := stats.Aggregate(frags, cfg.Water.Measures)
	waterDerive(sum)
	log.Info("water withdrawals aggregated",
		zap.Int("roadless_areas", len(sum.Rows)),
		zap.Bool("area_weighted", sum.Weighted),
	)

	bundle := &export.Bundle{
		Name:     "roadless_f2f_top20_tables",
		DocTitle: "Roadless Areas – Drinking Water Importance (Forest to Faucets)",
		Tables: []export.Titled{
			{
				Title: "HUC8 Forest-to-Faucets Inventory (Watersheds Intersecting Roadless Areas)",
				Base:  "f2f_huc8_inventory",
				Table: hucSummary,
			},
		},
	}

	acresCol := rankCol{"RA_Acres", func(r *stats.Row) table.Cell { return table.F(r.Acres, 1) }}
	hucCol := rankCol{"HUC8_Count", func(r *stats.Row) table.Cell { return table.Int(r.SecondaryCount) }}
	totalCol := func(decimals int) rankCol {
		return rankCol{colPublicSupTotal, func(r *stats.Row) table.Cell {
			return table.F(r.Value(colPublicSupTotal), decimals)
		}}
	}

	tops := []struct {
		title string
		base  string
		spec  stats.RankSpec
		cols  []rankCol
	}{
		{
			title: "Top 20 Roadless Areas by Area-Weighted Public Supply (F2F HUC8 Proxy)",
			base:  "top20_area_weighted_public_supply_f2f",
			spec:  stats.RankSpec{Metric: colPublicSupTotal},
			cols:  []rankCol{acresCol, hucCol, totalCol(2)},
		},
		{
			title: "Top 20 Roadless Areas by Area-Weighted Public Supply per Roadless Acre (F2F)",
			base:  "top20_public_supply_per_acre_f2f",
			spec:  stats.RankSpec{Metric: colPublicSupPerAcre},
			cols: []rankCol{acresCol, hucCol,
				{colPublicSupPerAcre, func(r *stats.Row) table.Cell {
					return table.F(r.Value(colPublicSupPerAcre), 4)
				}},
				totalCol(2),
			},
		},
		{
			title: "Top 20 Roadless Areas by Area-Weighted Total Withdrawals (Surface + Groundwater)",
			base:  "top20_area_weighted_total_withdrawals_f2f",
			spec:  stats.RankSpec{Metric: colTotalWithdrawals},
			cols: []rankCol{acresCol, hucCol,
				{colTotalWithdrawals, func(r *stats.Row) table.Cell {
					return table.F(r.Value(colTotalWithdrawals), 2)
				}},
				{"Total_SW_w", func(r *stats.Row) table.Cell {
					return table.F(r.Value("Total_SW"+stats.SuffixWeightedSum), 2)
				}},
				{"Total_GW_w", func(r *stats.Row) table.Cell {
					return table.F(r.Value("Total_GW"+stats.SuffixWeightedSum), 2)
				}},
			},
		},
		{
			title: "Top 20 Roadless Areas by Multi-HUC8 Exposure (Number of Intersecting Watersheds)",
			base:  "top20_multi_huc_exposure_f2f",
			spec:  stats.RankSpec{Metric: stats.ColSecondaryCount, Tiebreak: colPublicSupTotal},
			cols:  []rankCol{acresCol, hucCol, totalCol(2)},
		},
		{
			title: "Top 20 Roadless Areas by Groundwater Reliance (Share of Public Supply from GW)",
			base:  "top20_public_supply_gw_share_f2f",
			spec:  stats.RankSpec{Metric: colGWShare},
			cols: []rankCol{acresCol, hucCol,
				{colGWShare, func(r *stats.Row) table.Cell {
					return table.F(r.Value(colGWShare), 3)
				}},
				totalCol(2),
			},
		},
	}

	labels := rankLabels(cfg.Data.LabelColumns)
	for _, top := range tops {
		ranked, err := stats.Rank(sum, top.spec)
		if err != nil {
			return nil, err
		}
		bundle.Tables = append(bundle.Tables, export.Titled{
			Title: top.title,
			Base:  top.base,
			Table: rankTable(ranked, labels, top.cols),
		})
	}

	return bundle, nil
}

// waterHUCSummary builds the HUC8-level inventory of watersheds that
// intersect at least one roadless area. The layer carries whole-HUC values
// on every polygon, so each group reports its first record.
func waterHUCSummary(f2f *layer.Layer, log *zap.Logger) *table.Table {
	groups := groupRecords(f2f.Records, "HUC_8", "HU_8_STATE")

	hucs := make([]string, len(f2f.Records))
	for i := range f2f.Records {
		hucs[i] = f2f.Records[i].Attrs["HUC_8"]
	}
	log.Info("HUC8 watersheds intersecting roadless areas",
		zap.Int("unique_huc8", stats.NUnique(hucs)),
	)

	t := table.New("HUC_8", "HU_8_STATE", "HUC8_Acres",
		"Total_SW", "Total_GW", "Public_sup_SW", "Public_sup_GW")
	for _, g := range groups {
		first := g.recs[0]
		t.Append(
			table.S(g.keys[0]),
			table.S(g.keys[1]),
			table.F(first.Num("ACRES"), 1),
			table.F(first.Num("Total_SW"), 2),
			table.F(first.Num("Total_GW"), 2),
			table.F(first.Num("Public_sup"), 2),
			table.F(first.Num("Public_sup_GW"), 2),
		)
	}
	return t
}

// waterDerive adds the drinking-water roll-up columns to every summary row.
// Missing weighted sums count as zero in the additive totals; the per-acre
// and share ratios go missing on zero denominators instead of dividing.
func waterDerive(sum *stats.Summary) {
	for _, row := range sum.Rows {
		ps := fill0(row.Value("Public_sup" + stats.SuffixWeightedSum))
		psGW := fill0(row.Value("Public_sup_GW" + stats.SuffixWeightedSum))
		total := ps + psGW
		row.SetDerived(colPublicSupTotal, total)

		perAcre := math.NaN()
		if row.Acres > 0 {
			perAcre = total / row.Acres
		}
		row.SetDerived(colPublicSupPerAcre, perAcre)

		row.SetDerived(colTotalWithdrawals,
			fill0(row.Value("Total_SW"+stats.SuffixWeightedSum))+
				fill0(row.Value("Total_GW"+stats.SuffixWeightedSum)))

		share := math.NaN()
		if total > 0 {
			share = psGW / total
		}
		row.SetDerived(colGWShare, share)
	}
}
