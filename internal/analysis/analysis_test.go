package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geos"

	"github.com/nfw-project/roadless-cli/internal/layer"
	"github.com/nfw-project/roadless-cli/internal/overlay"
	"github.com/nfw-project/roadless-cli/internal/stats"
	"github.com/nfw-project/roadless-cli/internal/table"
)

// mapSource serves fixture layers by name.
type mapSource struct {
	layers map[string]*layer.RawLayer
}

func (m *mapSource) ReadLayer(ctx context.Context, name string) (*layer.RawLayer, error) {
	l, ok := m.layers[name]
	if !ok {
		return nil, layer.Configf("no layer %q", name)
	}
	return l, nil
}

// acreSquare builds a square polygon of the given acreage with its lower-left
// corner at (minX, minY), in analysis-CRS meters.
func acreSquare(minX, minY, acres float64) *geom.Polygon {
	side := math.Sqrt(acres * overlay.SquareMetersPerAcre)
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY},
		{minX + side, minY},
		{minX + side, minY + side},
		{minX, minY + side},
		{minX, minY},
	}})
}

func fixtureSources(layers map[string]*layer.RawLayer) *Sources {
	src := &mapSource{layers: layers}
	return &Sources{USFS: src, Analysis: src, Geos: geos.NewContext()}
}

// cellText returns the text of a cell, or "<missing>" for missing cells, so
// assertions read naturally.
func cellText(c table.Cell) string {
	if c.Missing {
		return "<missing>"
	}
	return c.Text
}

func TestGroupRecordsKeepsOrderAndMissing(t *testing.T) {
	recs := []layer.Record{
		{Attrs: map[string]string{"STATE": "CO"}},
		{Attrs: map[string]string{"STATE": "NM"}},
		{Attrs: map[string]string{"STATE": "CO"}},
		{Attrs: map[string]string{}},
	}

	groups := groupRecords(recs, "STATE")
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"CO"}, groups[0].keys)
	assert.Len(t, groups[0].recs, 2)
	assert.Equal(t, []string{"NM"}, groups[1].keys)
	assert.Equal(t, []string{""}, groups[2].keys, "records without the attribute form their own group")
}

func TestSortGroupsDescIsStable(t *testing.T) {
	groups := []*group{
		{keys: []string{"a"}},
		{keys: []string{"b"}},
		{keys: []string{"c"}},
	}
	vals := map[string]float64{"a": 1, "b": 5, "c": 5}

	sortGroupsDesc(groups, func(g *group) float64 { return vals[g.keys[0]] })
	assert.Equal(t, "b", groups[0].keys[0])
	assert.Equal(t, "c", groups[1].keys[0], "ties keep input order")
	assert.Equal(t, "a", groups[2].keys[0])
}

func TestFill0(t *testing.T) {
	assert.Equal(t, 0.0, fill0(math.NaN()))
	assert.Equal(t, 2.5, fill0(2.5))
}

func TestPctOf(t *testing.T) {
	assert.InDelta(t, 25, pctOf(1, 4), 1e-9)
	assert.True(t, math.IsNaN(pctOf(1, 0)), "zero denominator is missing")
}

func TestRankTableShape(t *testing.T) {
	frags := []overlay.Fragment{
		{
			PrimaryID: "RA1",
			Labels:    map[string]string{"NAME": "Hermosa", "FOREST": "San Juan", "STATE": "CO", "REGION": "02"},
			Acres:     100,
			Fraction:  1,
			Measures:  map[string]float64{"WFP": 10},
		},
	}
	sum := stats.Aggregate(frags, []string{"WFP"})
	ranked, err := stats.Rank(sum, stats.RankSpec{Metric: "WFP_aw_mean"})
	require.NoError(t, err)

	labels := rankLabels([]string{"REGION", "FOREST", "STATE", "NAME"})
	tb := rankTable(ranked, labels, []rankCol{
		{"WFP", func(r *stats.Row) table.Cell { return table.F(r.Value("WFP_aw_mean"), 4) }},
	})

	assert.Equal(t, []string{"Rank", "NAME", "FOREST", "STATE", "REGION", "WFP"}, tb.Columns)
	require.Equal(t, 1, tb.NumRows())
	assert.Equal(t, "1", cellText(tb.Rows[0][0]))
	assert.Equal(t, "Hermosa", cellText(tb.Rows[0][1]))
	assert.Equal(t, "10.0000", cellText(tb.Rows[0][5]))
}

func TestRankLabelsCustomColumns(t *testing.T) {
	assert.Equal(t, []string{"NAME", "STATE", "DISTRICT"},
		rankLabels([]string{"DISTRICT", "STATE", "NAME"}),
		"well-known columns keep their fixed order, extras follow in config order")
	assert.Empty(t, rankLabels(nil))
}

func TestRankTableUsesConfiguredLabels(t *testing.T) {
	frags := []overlay.Fragment{
		{
			PrimaryID: "RA1",
			Labels:    map[string]string{"DISTRICT": "Columbine"},
			Acres:     100,
			Fraction:  1,
			Measures:  map[string]float64{"WFP": 10},
		},
	}
	sum := stats.Aggregate(frags, []string{"WFP"})
	ranked, err := stats.Rank(sum, stats.RankSpec{Metric: "WFP_aw_mean"})
	require.NoError(t, err)

	tb := rankTable(ranked, rankLabels([]string{"DISTRICT"}), nil)
	assert.Equal(t, []string{"Rank", "DISTRICT"}, tb.Columns)
	require.Equal(t, 1, tb.NumRows())
	assert.Equal(t, "Columbine", cellText(tb.Rows[0][1]), "configured labels populate instead of going blank")
}

func TestNoteTable(t *testing.T) {
	tb := noteTable("REGION field not present")
	assert.Equal(t, []string{"Note"}, tb.Columns)
	require.Equal(t, 1, tb.NumRows())
	assert.Equal(t, "REGION field not present", cellText(tb.Rows[0][0]))
}
