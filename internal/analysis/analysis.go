// Package analysis holds the four reporting runs. Each run loads its layers,
// computes its tables, and returns an export bundle; the cmd layer decides
// where the bundle lands.
package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/twpayne/go-geos"

	"github.com/nfw-project/roadless-cli/internal/layer"
	"github.com/nfw-project/roadless-cli/internal/stats"
	"github.com/nfw-project/roadless-cli/internal/table"
)

// Sources binds the configured layer containers for one run. USFS holds the
// roadless inventory; Analysis holds the derived intersection layers. Geos
// owns every geometry loaded during the run.
type Sources struct {
	USFS     layer.Source
	Analysis layer.Source
	Geos     *geos.Context
}

// rankLabelOrder is the preferred display order of the descriptive columns
// in ranked tables.
var rankLabelOrder = []string{"NAME", "FOREST", "STATE", "REGION"}

// rankLabels arranges the configured label columns for display: the well-known
// columns in their fixed order first, anything else in configuration order.
func rankLabels(configured []string) []string {
	preferred := make(map[string]bool, len(rankLabelOrder))
	for _, c := range rankLabelOrder {
		preferred[c] = true
	}
	have := make(map[string]bool, len(configured))
	for _, c := range configured {
		have[c] = true
	}

	out := make([]string, 0, len(configured))
	for _, c := range rankLabelOrder {
		if have[c] {
			out = append(out, c)
		}
	}
	for _, c := range configured {
		if !preferred[c] {
			out = append(out, c)
		}
	}
	return out
}

// rankCol is one value column of a ranked table.
type rankCol struct {
	header string
	cell   func(r *stats.Row) table.Cell
}

// rankTable renders ranked rows as Rank, the descriptive labels, then the
// configured value columns.
func rankTable(ranked []stats.Ranked, labels []string, cols []rankCol) *table.Table {
	headers := make([]string, 0, 1+len(labels)+len(cols))
	headers = append(headers, "Rank")
	headers = append(headers, labels...)
	for _, c := range cols {
		headers = append(headers, c.header)
	}

	t := table.New(headers...)
	for _, r := range ranked {
		cells := make([]table.Cell, 0, len(headers))
		cells = append(cells, table.Int(r.Rank))
		for _, l := range labels {
			cells = append(cells, table.S(r.Row.Labels[l]))
		}
		for _, c := range cols {
			cells = append(cells, c.cell(r.Row))
		}
		t.Append(cells...)
	}
	return t
}

// group is one attribute-grouped slice of layer records, keyed in
// first-appearance order.
type group struct {
	keys []string
	recs []*layer.Record
}

const groupKeySep = "\x1f"

// groupRecords groups records by the values of cols. Records missing a
// grouping attribute stay in the output under the empty value, matching the
// keep-missing-groups grouping convention used throughout the analyses.
func groupRecords(recs []layer.Record, cols ...string) []*group {
	byKey := make(map[string]*group)
	var order []string

	for i := range recs {
		r := &recs[i]
		keys := make([]string, len(cols))
		for j, c := range cols {
			keys[j] = r.Attrs[c]
		}
		k := strings.Join(keys, groupKeySep)

		g, ok := byKey[k]
		if !ok {
			g = &group{keys: keys}
			byKey[k] = g
			order = append(order, k)
		}
		g.recs = append(g.recs, r)
	}

	out := make([]*group, len(order))
	for i, k := range order {
		out[i] = byKey[k]
	}
	return out
}

// nums extracts one numeric column across a group's records.
func (g *group) nums(col string) []float64 {
	vs := make([]float64, len(g.recs))
	for i, r := range g.recs {
		vs[i] = r.Num(col)
	}
	return vs
}

// attrs extracts one string column across a group's records.
func (g *group) attrs(col string) []string {
	vs := make([]string, len(g.recs))
	for i, r := range g.recs {
		vs[i] = r.Attrs[col]
	}
	return vs
}

// sortGroupsDesc orders groups by a per-group value, largest first, keeping
// input order among ties.
func sortGroupsDesc(groups []*group, value func(*group) float64) {
	sort.SliceStable(groups, func(i, j int) bool {
		return value(groups[i]) > value(groups[j])
	})
}

// fill0 maps missing to zero for additive roll-ups.
func fill0(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// noteTable is the single-cell placeholder emitted when a reporting table
// cannot be built from the available columns.
func noteTable(note string) *table.Table {
	t := table.New("Note")
	t.Append(table.S(note))
	return t
}
