package layer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geos"
)

type stubSource struct {
	raw *RawLayer
	err error
}

func (s *stubSource) ReadLayer(ctx context.Context, name string) (*RawLayer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

func squarePolygon(minX, minY, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY},
		{minX + size, minY},
		{minX + size, minY + size},
		{minX, minY + size},
		{minX, minY},
	}})
}

func TestLoadMissingRequiredColumns(t *testing.T) {
	src := &stubSource{raw: &RawLayer{
		Name:    "huc12",
		SRID:    AnalysisSRID,
		Columns: []string{"NAME"},
	}}

	_, err := Load(context.Background(), geos.NewContext(), src, "huc12", Schema{
		Required: []string{"REGION", "ACRES", "NAME"},
	})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "huc12", schemaErr.Layer)
	assert.Equal(t, []string{"REGION", "ACRES"}, schemaErr.Missing)
	assert.Contains(t, schemaErr.Error(), "missing required columns")
}

func TestLoadUndefinedCRS(t *testing.T) {
	src := &stubSource{raw: &RawLayer{Name: "roadless", SRID: 0}}

	_, err := Load(context.Background(), geos.NewContext(), src, "roadless", Schema{})
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Error(), "CRS must be defined")
}

func TestLoadUnsupportedCRS(t *testing.T) {
	src := &stubSource{raw: &RawLayer{Name: "roadless", SRID: 27700}}

	_, err := Load(context.Background(), geos.NewContext(), src, "roadless", Schema{})
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Error(), "27700")
}

func TestLoadNumericCoercion(t *testing.T) {
	src := &stubSource{raw: &RawLayer{
		Name:    "roadless",
		SRID:    AnalysisSRID,
		Columns: []string{"ACRES"},
		Rows: []RawRow{
			{Attrs: map[string]string{"ACRES": "12.5"}, Geom: squarePolygon(0, 0, 100)},
			{Attrs: map[string]string{"ACRES": "not-a-number"}, Geom: squarePolygon(200, 0, 100)},
			{Attrs: map[string]string{"ACRES": ""}, Geom: squarePolygon(400, 0, 100)},
		},
	}}

	l, err := Load(context.Background(), geos.NewContext(), src, "roadless", Schema{
		Numeric: []string{"ACRES"},
	})
	require.NoError(t, err)
	require.Len(t, l.Records, 3)

	assert.Equal(t, 12.5, l.Records[0].Num("ACRES"))
	assert.True(t, math.IsNaN(l.Records[1].Num("ACRES")), "unparsable coerces to missing, not error")
	assert.True(t, math.IsNaN(l.Records[2].Num("ACRES")))
	assert.True(t, math.IsNaN(l.Records[0].Num("UNDECLARED")))
}

func TestLoadSequentialIDs(t *testing.T) {
	src := &stubSource{raw: &RawLayer{
		Name:    "roadless",
		SRID:    AnalysisSRID,
		Columns: []string{"NAME"},
		Rows: []RawRow{
			{Attrs: map[string]string{"NAME": "a"}, Geom: squarePolygon(0, 0, 10)},
			{Attrs: map[string]string{"NAME": "b"}, Geom: squarePolygon(20, 0, 10)},
		},
	}}

	l, err := Load(context.Background(), geos.NewContext(), src, "roadless", Schema{
		IDColumn: "RA_ID", // absent from the layer
	})
	require.NoError(t, err)
	require.Len(t, l.Records, 2)
	assert.Equal(t, "1", l.Records[0].ID)
	assert.Equal(t, "2", l.Records[1].ID)
}

func TestLoadUsesIDColumnWhenPresent(t *testing.T) {
	src := &stubSource{raw: &RawLayer{
		Name:    "huc12",
		SRID:    AnalysisSRID,
		Columns: []string{"HUC12"},
		Rows: []RawRow{
			{Attrs: map[string]string{"HUC12": "101002030405"}, Geom: squarePolygon(0, 0, 10)},
		},
	}}

	l, err := Load(context.Background(), geos.NewContext(), src, "huc12", Schema{IDColumn: "HUC12"})
	require.NoError(t, err)
	assert.Equal(t, "101002030405", l.Records[0].ID)
}

func TestLoadReprojectsGeographic(t *testing.T) {
	// A small quad in NAD83 degrees over Colorado.
	src := &stubSource{raw: &RawLayer{
		Name:    "roadless",
		SRID:    4269,
		Columns: []string{"NAME"},
		Rows: []RawRow{
			{Attrs: map[string]string{"NAME": "a"}, Geom: squarePolygon(-105.5, 40.0, 0.01)},
		},
	}}

	l, err := Load(context.Background(), geos.NewContext(), src, "roadless", Schema{})
	require.NoError(t, err)
	require.Len(t, l.Records, 1)
	assert.Equal(t, AnalysisSRID, l.SRID)

	b := l.Records[0].Geom.Bounds()
	assert.Less(t, b.MinX, 0.0, "west of the central meridian projects to negative X")
	assert.Greater(t, b.MinY, 1.0e6)
	assert.Less(t, b.MaxY, 3.0e6)

	// 0.01 degrees is roughly a kilometer; area must be in planar meters now.
	area := l.Records[0].Geom.Area()
	assert.Greater(t, area, 5.0e5)
	assert.Less(t, area, 2.0e6)
}

func TestNewLayerHasColumn(t *testing.T) {
	l := NewLayer("x", []string{"A", "B"}, nil)
	assert.True(t, l.HasColumn("A"))
	assert.False(t, l.HasColumn("C"))
	assert.Equal(t, AnalysisSRID, l.SRID)
}
