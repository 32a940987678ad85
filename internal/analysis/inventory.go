package analysis

import (
	"context"
	"math"

	"github.com/nfw-project/roadless-cli/internal/config"
	"github.com/nfw-project/roadless-cli/internal/export"
	"github.com/nfw-project/roadless-cli/internal/layer"
	"github.com/nfw-project/roadless-cli/internal/stats"
	"github.com/nfw-project/roadless-cli/internal/table"
)

// inventoryFields are the columns every roadless inventory record must carry.
var inventoryFields = []string{
	"REGION", "FOREST", "STATE", "NAME",
	"CATEGORY", "ACRES", "SHAPE_AREA", "SHAPE_LEN",
}

var inventoryNumeric = []string{"ACRES", "SHAPE_AREA", "SHAPE_LEN"}

// Inventory builds the descriptive roadless-area tables: national summary,
// breakdowns by region, state, forest, and category, attribute completeness,
// and geometry statistics.
func Inventory(ctx context.Context, cfg *config.Config, src *Sources) (*export.Bundle, error) {
	roadless, err := layer.Load(ctx, src.Geos, src.USFS, cfg.Data.RoadlessLayer, layer.Schema{
		Required: inventoryFields,
		Numeric:  inventoryNumeric,
	})
	if err != nil {
		return nil, err
	}

	return &export.Bundle{
		Name:     "roadless_inventory_tables",
		DocTitle: "Roadless Area Inventory – Summary Tables",
		Tables: []export.Titled{
			{Title: "Table 1. National Roadless Area Summary", Base: "table1_national_summary",
				Table: inventoryNationalSummary(roadless)},
			{Title: "Table 2. Roadless Areas by USFS Region", Base: "table2_by_region",
				Table: inventoryByGroup(roadless, "REGION", "USFS Region")},
			{Title: "Table 3. Roadless Areas by State", Base: "table3_by_state",
				Table: inventoryByState(roadless)},
			{Title: "Table 4. Roadless Areas by National Forest", Base: "table4_by_forest",
				Table: inventoryByForest(roadless)},
			{Title: "Table 5. Roadless Areas by Category", Base: "table5_by_category",
				Table: inventoryByGroup(roadless, "CATEGORY", "Category")},
			{Title: "Table 6. Attribute Completeness Summary", Base: "table6_missing_values",
				Table: inventoryMissingValues(roadless)},
			{Title: "Table 7. Geometry Statistics", Base: "table7_geometry_stats",
				Table: inventoryGeometryStats(roadless)},
		},
	}, nil
}

func inventoryNationalSummary(l *layer.Layer) *table.Table {
	acres := make([]float64, len(l.Records))
	for i := range l.Records {
		acres[i] = l.Records[i].Num("ACRES")
	}

	t := table.New("Metric", "Value")
	t.Append(table.S("Total Number of Roadless Area Polygons"), table.Int(len(l.Records)))
	t.Append(table.S("Total Acreage"), table.Comma(stats.Sum(acres), 1))
	t.Append(table.S("Mean Polygon Size (acres)"), table.Comma(stats.Mean(acres), 1))
	t.Append(table.S("Median Polygon Size (acres)"), table.Comma(stats.Median(acres), 1))
	t.Append(table.S("Minimum Polygon Size (acres)"), table.Comma(stats.Min(acres), 1))
	t.Append(table.S("Maximum Polygon Size (acres)"), table.Comma(stats.Max(acres), 1))
	t.Append(table.S("Number of National Forests Represented"), table.Int(nUniqueAttr(l, "FOREST")))
	t.Append(table.S("Number of States Represented"), table.Int(nUniqueAttr(l, "STATE")))
	t.Append(table.S("Number of USFS Regions Represented"), table.Int(nUniqueAttr(l, "REGION")))
	return t
}

// inventoryByGroup is the shared one-column breakdown behind the region and
// category tables: polygon count, total and mean acres, share of the
// national total, sorted by total acres descending.
func inventoryByGroup(l *layer.Layer, groupCol, header string) *table.Table {
	national := sumColumn(l, "ACRES")
	groups := groupRecords(l.Records, groupCol)
	sortGroupsDesc(groups, func(g *group) float64 { return stats.Sum(g.nums("ACRES")) })

	t := table.New(header, "Number of Polygons", "Total Acres", "Mean Acres", "% of National Total")
	for _, g := range groups {
		total := stats.Sum(g.nums("ACRES"))
		t.Append(
			table.S(g.keys[0]),
			table.Int(len(g.recs)),
			table.F(total, 1),
			table.F(stats.Mean(g.nums("ACRES")), 1),
			table.F(pctOf(total, national), 1),
		)
	}
	return t
}

func inventoryByState(l *layer.Layer) *table.Table {
	national := sumColumn(l, "ACRES")
	groups := groupRecords(l.Records, "STATE")
	sortGroupsDesc(groups, func(g *group) float64 { return stats.Sum(g.nums("ACRES")) })

	t := table.New("State", "Number of Polygons", "Total Acres", "Mean Acres",
		"Largest Roadless Area (acres)", "% of National Total")
	for _, g := range groups {
		acres := g.nums("ACRES")
		total := stats.Sum(acres)
		t.Append(
			table.S(g.keys[0]),
			table.Int(len(g.recs)),
			table.F(total, 1),
			table.F(stats.Mean(acres), 1),
			table.F(stats.Max(acres), 1),
			table.F(pctOf(total, national), 1),
		)
	}
	return t
}

func inventoryByForest(l *layer.Layer) *table.Table {
	groups := groupRecords(l.Records, "FOREST", "STATE")
	sortGroupsDesc(groups, func(g *group) float64 { return stats.Sum(g.nums("ACRES")) })

	t := table.New("National Forest", "State(s)", "Number of Polygons", "Total Acres", "Mean Acres")
	for _, g := range groups {
		acres := g.nums("ACRES")
		t.Append(
			table.S(g.keys[0]),
			table.S(g.keys[1]),
			table.Int(len(g.recs)),
			table.F(stats.Sum(acres), 1),
			table.F(stats.Mean(acres), 1),
		)
	}
	return t
}

func inventoryMissingValues(l *layer.Layer) *table.Table {
	numeric := make(map[string]bool, len(inventoryNumeric))
	for _, c := range inventoryNumeric {
		numeric[c] = true
	}

	total := len(l.Records)
	t := table.New("Field", "Missing Values", "% Missing")

	fields := append(append([]string{}, inventoryFields...), "geometry")
	for _, f := range fields {
		n := 0
		for i := range l.Records {
			r := &l.Records[i]
			switch {
			case f == "geometry":
				// Rows without a usable geometry never survive loading.
			case numeric[f]:
				if math.IsNaN(r.Num(f)) {
					n++
				}
			default:
				if r.Attrs[f] == "" {
					n++
				}
			}
		}

		pct := table.Missing()
		if total > 0 {
			pct = table.F(float64(n)/float64(total)*100, 2)
		}
		t.Append(table.S(f), table.Int(n), pct)
	}
	return t
}

func inventoryGeometryStats(l *layer.Layer) *table.Table {
	t := table.New("Geometry Field", "Min", "Max", "Mean", "Median", "Std Dev")
	for _, col := range []string{"SHAPE_AREA", "SHAPE_LEN"} {
		vs := make([]float64, len(l.Records))
		for i := range l.Records {
			vs[i] = l.Records[i].Num(col)
		}
		t.Append(
			table.S(col),
			table.F(stats.Min(vs), 3),
			table.F(stats.Max(vs), 3),
			table.F(stats.Mean(vs), 3),
			table.F(stats.Median(vs), 3),
			table.F(stats.Std(vs), 3),
		)
	}
	return t
}

// pctOf is a percentage share, missing when the denominator is zero.
func pctOf(part, whole float64) float64 {
	if whole == 0 {
		return math.NaN()
	}
	return part / whole * 100
}

func sumColumn(l *layer.Layer, col string) float64 {
	vs := make([]float64, len(l.Records))
	for i := range l.Records {
		vs[i] = l.Records[i].Num(col)
	}
	return stats.Sum(vs)
}

func nUniqueAttr(l *layer.Layer, col string) int {
	vs := make([]string, len(l.Records))
	for i := range l.Records {
		vs[i] = l.Records[i].Attrs[col]
	}
	return stats.NUnique(vs)
}
