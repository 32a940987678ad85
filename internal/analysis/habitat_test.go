package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfw-project/roadless-cli/internal/config"
	"github.com/nfw-project/roadless-cli/internal/layer"
)

func habitatConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Habitat.Layer = "crithab_poly_ra"
	cfg.Habitat.AdminLayer = "usfs_admin_boundary_RA"
	cfg.Habitat.StatesLayer = "States_RA"
	return cfg
}

// habitatFixture holds three critical-habitat polygons: two grizzly units
// inside the Colorado state polygon and one wolverine unit outside every
// state. The admin layer carries FORESTNUMB but no REGION.
func habitatFixture(adminCols []string, adminAttrs []map[string]string) *Sources {
	critCols := []string{"sciname", "comname", "status", "listing_st", "unit", "singlmulti"}
	adminRows := make([]layer.RawRow, len(adminAttrs))
	for i, attrs := range adminAttrs {
		adminRows[i] = layer.RawRow{Geom: acreSquare(float64(i)*50000, 0, 100), Attrs: attrs}
	}

	return fixtureSources(map[string]*layer.RawLayer{
		"crithab_poly_ra": {
			Name:    "crithab_poly_ra",
			SRID:    layer.AnalysisSRID,
			Columns: critCols,
			Rows: []layer.RawRow{
				{Geom: acreSquare(0, 0, 100), Attrs: map[string]string{
					"sciname": "Ursus arctos", "comname": "Grizzly bear", "status": "Endangered",
					"listing_st": "E", "unit": "U1", "singlmulti": "Single",
				}},
				{Geom: acreSquare(2000, 0, 100), Attrs: map[string]string{
					"sciname": "Ursus arctos", "comname": "Grizzly bear", "status": "Endangered",
					"listing_st": "E", "unit": "U2", "singlmulti": "Single",
				}},
				{Geom: acreSquare(900000, 0, 100), Attrs: map[string]string{
					"sciname": "Gulo gulo", "comname": "Wolverine", "status": "Threatened",
					"listing_st": "T", "unit": "U3", "singlmulti": "Multiple species",
				}},
			},
		},
		"usfs_admin_boundary_RA": {
			Name:    "usfs_admin_boundary_RA",
			SRID:    layer.AnalysisSRID,
			Columns: adminCols,
			Rows:    adminRows,
		},
		"States_RA": {
			Name:    "States_RA",
			SRID:    layer.AnalysisSRID,
			Columns: []string{"STUSPS"},
			Rows: []layer.RawRow{
				// Covers both grizzly units; the wolverine unit stays unmatched.
				{Geom: acreSquare(-1000, -1000, 5000), Attrs: map[string]string{"STUSPS": "CO"}},
			},
		},
	})
}

func defaultHabitatFixture() *Sources {
	return habitatFixture(
		[]string{"FORESTNUMB"},
		[]map[string]string{
			{"FORESTNUMB": "02"},
			{"FORESTNUMB": "02"},
			{"FORESTNUMB": "10"},
		},
	)
}

func TestHabitatBundleLayout(t *testing.T) {
	bundle, err := Habitat(context.Background(), habitatConfig(), defaultHabitatFixture())
	require.NoError(t, err)

	assert.Equal(t, "roadless_critical_habitat_reporting_tables", bundle.Name)
	assert.Equal(t, "Roadless Areas – Critical Habitat", bundle.DocTitle)
	require.Len(t, bundle.Tables, 7)

	assert.Equal(t, "tableA_national_summary", bundle.Tables[0].Base)
	assert.Equal(t, "tableD_usfs_admin_by_region", bundle.Tables[3].Base)
	assert.Equal(t, "tableG_species_inventory", bundle.Tables[6].Base)
	assert.True(t, bundle.Tables[6].PageBreak, "the species inventory starts on its own page")
	assert.False(t, bundle.Tables[0].PageBreak)
}

func TestHabitatNationalSummary(t *testing.T) {
	bundle, err := Habitat(context.Background(), habitatConfig(), defaultHabitatFixture())
	require.NoError(t, err)

	tb := bundle.Tables[0].Table
	require.Equal(t, 5, tb.NumRows())
	assert.Equal(t, "3", cellText(tb.Rows[0][1]), "total polygons")
	assert.Equal(t, "2", cellText(tb.Rows[1][1]), "unique scientific names")
	assert.Equal(t, "2", cellText(tb.Rows[2][1]), "unique common names")
	assert.Equal(t, "2", cellText(tb.Rows[3][1]), "unique statuses")
	assert.Equal(t, "1", cellText(tb.Rows[4][1]), "multi-species designations")
}

func TestHabitatByStatus(t *testing.T) {
	bundle, err := Habitat(context.Background(), habitatConfig(), defaultHabitatFixture())
	require.NoError(t, err)

	tb := bundle.Tables[1].Table
	assert.Equal(t, []string{"ESA Status", "Species", "Units", "Polygons"}, tb.Columns)
	require.Equal(t, 2, tb.NumRows())

	assert.Equal(t, "Endangered", cellText(tb.Rows[0][0]), "largest polygon count first")
	assert.Equal(t, "1", cellText(tb.Rows[0][1]))
	assert.Equal(t, "2", cellText(tb.Rows[0][2]))
	assert.Equal(t, "2", cellText(tb.Rows[0][3]))
	assert.Equal(t, "Threatened", cellText(tb.Rows[1][0]))
}

func TestHabitatRegionTableNoteWithoutRegionColumn(t *testing.T) {
	bundle, err := Habitat(context.Background(), habitatConfig(), defaultHabitatFixture())
	require.NoError(t, err)

	tb := bundle.Tables[3].Table
	assert.Equal(t, []string{"Note"}, tb.Columns)
	assert.Contains(t, cellText(tb.Rows[0][0]), "REGION field not present")
}

func TestHabitatRegionJoinCounts(t *testing.T) {
	src := habitatFixture(
		[]string{"REGION"},
		[]map[string]string{{"REGION": "02"}},
	)

	bundle, err := Habitat(context.Background(), habitatConfig(), src)
	require.NoError(t, err)

	tb := bundle.Tables[3].Table
	assert.Equal(t, []string{"USFS Region", "Critical Habitat Polygons", "Unique Species"}, tb.Columns)
	require.Equal(t, 2, tb.NumRows())

	// The region polygon at the origin catches the first grizzly unit; the
	// other two habitat polygons fall into the missing-region row.
	assert.Equal(t, "<missing>", cellText(tb.Rows[0][0]))
	assert.Equal(t, "2", cellText(tb.Rows[0][1]))
	assert.Equal(t, "02", cellText(tb.Rows[1][0]))
	assert.Equal(t, "1", cellText(tb.Rows[1][1]))
	assert.Equal(t, "1", cellText(tb.Rows[1][2]))
}

func TestHabitatForestCount(t *testing.T) {
	bundle, err := Habitat(context.Background(), habitatConfig(), defaultHabitatFixture())
	require.NoError(t, err)

	tb := bundle.Tables[4].Table
	require.Equal(t, 1, tb.NumRows())
	assert.Equal(t, "2", cellText(tb.Rows[0][1]), "distinct FORESTNUMB values")
}

func TestHabitatStateCounts(t *testing.T) {
	bundle, err := Habitat(context.Background(), habitatConfig(), defaultHabitatFixture())
	require.NoError(t, err)

	tb := bundle.Tables[5].Table
	assert.Equal(t, []string{"State", "Critical Habitat Polygons", "Unique Species"}, tb.Columns)
	require.Equal(t, 2, tb.NumRows())

	assert.Equal(t, "CO", cellText(tb.Rows[0][0]))
	assert.Equal(t, "2", cellText(tb.Rows[0][1]))
	assert.Equal(t, "1", cellText(tb.Rows[0][2]))
	assert.Equal(t, "<missing>", cellText(tb.Rows[1][0]), "unmatched polygons keep a missing-state row")
	assert.Equal(t, "1", cellText(tb.Rows[1][1]))
}

func TestHabitatSpeciesInventoryDeduplicates(t *testing.T) {
	bundle, err := Habitat(context.Background(), habitatConfig(), defaultHabitatFixture())
	require.NoError(t, err)

	tb := bundle.Tables[6].Table
	assert.Equal(t, []string{"State", "listing_st", "status", "comname", "sciname"}, tb.Columns)
	require.Equal(t, 2, tb.NumRows(), "both grizzly units collapse to one state/species row")

	assert.Equal(t, "<missing>", cellText(tb.Rows[0][0]), "missing state sorts as the empty string")
	assert.Equal(t, "Gulo gulo", cellText(tb.Rows[0][4]))
	assert.Equal(t, "CO", cellText(tb.Rows[1][0]))
	assert.Equal(t, "Ursus arctos", cellText(tb.Rows[1][4]))
}
