package analysis

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nfw-project/roadless-cli/internal/config"
	"github.com/nfw-project/roadless-cli/internal/export"
	"github.com/nfw-project/roadless-cli/internal/layer"
	"github.com/nfw-project/roadless-cli/internal/overlay"
	"github.com/nfw-project/roadless-cli/internal/stats"
	"github.com/nfw-project/roadless-cli/internal/table"
)

// stateColumnCandidates are the attribute names scanned, in order, for the
// state identifier on the states layer.
var stateColumnCandidates = []string{"STUSPS", "STATE", "STATE_ABBR", "NAME"}

// Habitat builds the critical-habitat reporting tables: national summary,
// ESA and listing status breakdowns, spatial-join counts by USFS region and
// by state, a forest count, and the species inventory.
func Habitat(ctx context.Context, cfg *config.Config, src *Sources) (*export.Bundle, error) {
	log := zap.L().With(zap.String("analysis", "habitat"))

	crit, err := layer.Load(ctx, src.Geos, src.Analysis, cfg.Habitat.Layer, layer.Schema{})
	if err != nil {
		return nil, err
	}
	admin, err := layer.Load(ctx, src.Geos, src.Analysis, cfg.Habitat.AdminLayer, layer.Schema{})
	if err != nil {
		return nil, err
	}
	states, err := layer.Load(ctx, src.Geos, src.Analysis, cfg.Habitat.StatesLayer, layer.Schema{})
	if err != nil {
		return nil, err
	}

	regionTable := noteTable("REGION field not present in " + cfg.Habitat.AdminLayer)
	if admin.HasColumn("REGION") {
		joined, err := overlay.LeftJoin(crit, admin, "REGION")
		if err != nil {
			return nil, err
		}
		regionTable = habitatJoinCounts(joined, "USFS Region")
	}

	stateCol := ""
	for _, cand := range stateColumnCandidates {
		if states.HasColumn(cand) {
			stateCol = cand
			break
		}
	}

	stateTable := noteTable("No recognized state field found in " + cfg.Habitat.StatesLayer)
	speciesTable := stateTable
	if stateCol != "" {
		log.Info("state column resolved", zap.String("column", stateCol))
		joined, err := overlay.LeftJoin(crit, states, stateCol)
		if err != nil {
			return nil, err
		}
		stateTable = habitatJoinCounts(joined, "State")
		speciesTable = habitatSpeciesInventory(crit, joined)
	}

	return &export.Bundle{
		Name:     "roadless_critical_habitat_reporting_tables",
		DocTitle: "Roadless Areas – Critical Habitat",
		Tables: []export.Titled{
			{Title: "Table A. National Summary (Critical Habitat ∩ Roadless Areas)",
				Base: "tableA_national_summary", Table: habitatNationalSummary(crit)},
			{Title: "Table B. Summary by ESA Status",
				Base: "tableB_by_esa_status", Table: habitatByStatus(crit)},
			{Title: "Table C. Counts by Listing Status (listing_st)",
				Base: "tableC_by_listing_status", Table: habitatByListingStatus(crit)},
			{Title: "Table D. Roadless Admin Boundary Counts by USFS Region",
				Base: "tableD_usfs_admin_by_region", Table: regionTable},
			{Title: "Table E. Number of Unique Forests with Critical Habitat (in RA)",
				Base: "tableE_unique_forest_count", Table: habitatForestCount(admin)},
			{Title: "Table F. Critical Habitat Polygons and Unique Species by State",
				Base: "tableF_critical_hab_by_state", Table: stateTable},
			// The species inventory is long; it starts on its own page.
			{Title: "Table G. Species Inventory (Critical Habitat overlapping Roadless Areas)",
				Base: "tableG_species_inventory", Table: speciesTable, PageBreak: true},
		},
	}, nil
}

func habitatNationalSummary(crit *layer.Layer) *table.Table {
	nUnique := func(col string) table.Cell {
		if !crit.HasColumn(col) {
			return table.Missing()
		}
		vs := make([]string, len(crit.Records))
		for i := range crit.Records {
			vs[i] = crit.Records[i].Attrs[col]
		}
		return table.Int(stats.NUnique(vs))
	}

	multi := table.Missing()
	if crit.HasColumn("singlmulti") {
		n := 0
		for i := range crit.Records {
			if strings.Contains(strings.ToLower(crit.Records[i].Attrs["singlmulti"]), "multi") {
				n++
			}
		}
		multi = table.Int(n)
	}

	t := table.New("Metric", "Value")
	t.Append(table.S("Total critical habitat polygons intersecting roadless areas"),
		table.Int(len(crit.Records)))
	t.Append(table.S("Unique species (scientific name)"), nUnique("sciname"))
	t.Append(table.S("Unique species (common name)"), nUnique("comname"))
	t.Append(table.S("Unique ESA status values"), nUnique("status"))
	t.Append(table.S("Polygons flagged as multi-species designations (singlmulti contains 'multi')"),
		multi)
	return t
}

func habitatByStatus(crit *layer.Layer) *table.Table {
	if !crit.HasColumn("status") {
		return noteTable("status field not present")
	}

	groups := groupRecords(crit.Records, "status")
	sortGroupsDesc(groups, func(g *group) float64 { return float64(len(g.recs)) })

	t := table.New("ESA Status", "Species", "Units", "Polygons")
	for _, g := range groups {
		species := table.Int(len(g.recs))
		if crit.HasColumn("sciname") {
			species = table.Int(stats.NUnique(g.attrs("sciname")))
		}
		units := table.Int(len(g.recs))
		if crit.HasColumn("unit") {
			units = table.Int(stats.NUnique(g.attrs("unit")))
		}
		t.Append(table.S(g.keys[0]), species, units, table.Int(len(g.recs)))
	}
	return t
}

func habitatByListingStatus(crit *layer.Layer) *table.Table {
	if !crit.HasColumn("listing_st") {
		return noteTable("listing_st field not present")
	}

	groups := groupRecords(crit.Records, "listing_st")
	sortGroupsDesc(groups, func(g *group) float64 { return float64(len(g.recs)) })

	t := table.New("Listing Status", "Polygons")
	for _, g := range groups {
		t.Append(table.S(g.keys[0]), table.Int(len(g.recs)))
	}
	return t
}

// habitatJoinCounts reduces spatial-join rows to polygon and species counts
// per join group. Unmatched polygons stay as a missing-group row.
func habitatJoinCounts(rows []overlay.JoinRow, header string) *table.Table {
	type counts struct {
		key     string
		missing bool
		polys   map[string]bool
		species map[string]bool
	}

	byKey := make(map[string]*counts)
	var order []string
	for _, row := range rows {
		k := row.Group
		if row.GroupMissing {
			k = groupKeySep // cannot collide with real attribute values
		}
		c, ok := byKey[k]
		if !ok {
			c = &counts{
				key:     row.Group,
				missing: row.GroupMissing,
				polys:   make(map[string]bool),
				species: make(map[string]bool),
			}
			byKey[k] = c
			order = append(order, k)
		}
		c.polys[row.Left.ID] = true
		if s := row.Left.Attrs["sciname"]; s != "" {
			c.species[s] = true
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return len(byKey[order[i]].polys) > len(byKey[order[j]].polys)
	})

	t := table.New(header, "Critical Habitat Polygons", "Unique Species")
	for _, k := range order {
		c := byKey[k]
		label := table.S(c.key)
		if c.missing {
			label = table.Missing()
		}
		t.Append(label, table.Int(len(c.polys)), table.Int(len(c.species)))
	}
	return t
}

func habitatForestCount(admin *layer.Layer) *table.Table {
	n := len(admin.Records)
	for _, col := range []string{"FORESTNUMB", "FORESTNAME"} {
		if admin.HasColumn(col) {
			vs := make([]string, len(admin.Records))
			for i := range admin.Records {
				vs[i] = admin.Records[i].Attrs[col]
			}
			n = stats.NUnique(vs)
			break
		}
	}

	t := table.New("Metric", "Value")
	t.Append(table.S("Number of unique forests with critical habitat (in RA)"), table.Int(n))
	return t
}

// habitatSpeciesInventory is the long-form distinct inventory of
// state/status/species combinations from the state spatial join.
func habitatSpeciesInventory(crit *layer.Layer, joined []overlay.JoinRow) *table.Table {
	attrCols := []string{"listing_st", "status", "comname", "sciname"}
	var present []string
	for _, c := range attrCols {
		if crit.HasColumn(c) {
			present = append(present, c)
		}
	}

	type invRow struct {
		state        string
		stateMissing bool
		attrs        []string
	}

	seen := make(map[string]bool)
	var rows []invRow
	for _, jr := range joined {
		row := invRow{state: jr.Group, stateMissing: jr.GroupMissing, attrs: make([]string, len(present))}
		for i, c := range present {
			row.attrs[i] = jr.Left.Attrs[c]
		}

		k := row.state + groupKeySep + strings.Join(row.attrs, groupKeySep)
		if row.stateMissing {
			k = groupKeySep + k
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		rows = append(rows, row)
	}

	idx := func(col string) int {
		for i, c := range present {
			if c == col {
				return i
			}
		}
		return -1
	}
	statusIdx, sciIdx := idx("status"), idx("sciname")

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].state != rows[j].state {
			return rows[i].state < rows[j].state
		}
		if statusIdx >= 0 && rows[i].attrs[statusIdx] != rows[j].attrs[statusIdx] {
			return rows[i].attrs[statusIdx] < rows[j].attrs[statusIdx]
		}
		if sciIdx >= 0 && rows[i].attrs[sciIdx] != rows[j].attrs[sciIdx] {
			return rows[i].attrs[sciIdx] < rows[j].attrs[sciIdx]
		}
		return false
	})

	t := table.New(append([]string{"State"}, present...)...)
	for _, row := range rows {
		cells := make([]table.Cell, 0, 1+len(present))
		state := table.S(row.state)
		if row.stateMissing {
			state = table.Missing()
		}
		cells = append(cells, state)
		for _, a := range row.attrs {
			cells = append(cells, table.S(a))
		}
		t.Append(cells...)
	}
	return t
}
