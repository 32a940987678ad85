// Package layer loads named polygon layers from geospatial containers
// (GeoPackage, shapefile directories, PostGIS), validates their schemas,
// coerces numeric attributes, and normalizes everything to the fixed
// analysis projection.
package layer

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"
)

// Source exposes named polygon layers from one geospatial container.
type Source interface {
	// ReadLayer returns the raw records of a layer. SRID 0 means the
	// container does not declare a coordinate system for the layer.
	ReadLayer(ctx context.Context, name string) (*RawLayer, error)
}

// RawLayer is a layer as read from a container, before schema validation,
// numeric coercion, and CRS normalization.
type RawLayer struct {
	Name    string
	SRID    int
	Columns []string
	Rows    []RawRow
}

// RawRow pairs one geometry with its string attributes. Sources skip rows
// without a usable geometry.
type RawRow struct {
	Attrs map[string]string
	Geom  geom.T
}

// Schema declares what the calling analysis needs from a layer.
type Schema struct {
	Required []string // columns that must exist; any absence is a SchemaError
	Numeric  []string // columns coerced to float64 where present
	IDColumn string   // identity key column; sequential IDs are assigned if absent
}

// Record is one polygon with validated attributes. Numeric attributes use
// NaN as the missing marker; unparsable values become missing, not errors.
type Record struct {
	ID    string
	Attrs map[string]string
	Nums  map[string]float64
	Geom  *geos.Geom
}

// Num returns the coerced numeric value of col, NaN when missing or when the
// column was not declared numeric.
func (r *Record) Num(col string) float64 {
	v, ok := r.Nums[col]
	if !ok {
		return math.NaN()
	}
	return v
}

// Layer is a loaded, normalized polygon layer. All geometries are in
// AnalysisSRID and identity keys are unique for the lifetime of the run.
type Layer struct {
	Name    string
	SRID    int
	Columns []string
	Records []Record

	columns map[string]bool
}

// NewLayer assembles a layer from already-normalized records. Callers are
// responsible for the records being in AnalysisSRID.
func NewLayer(name string, columns []string, records []Record) *Layer {
	cols := make(map[string]bool, len(columns))
	for _, c := range columns {
		cols[c] = true
	}
	return &Layer{
		Name:    name,
		SRID:    AnalysisSRID,
		Columns: columns,
		Records: records,
		columns: cols,
	}
}

// HasColumn reports whether the layer carries the named attribute column.
// Resolved once at load time; downstream code branches on this instead of
// probing individual rows.
func (l *Layer) HasColumn(name string) bool {
	return l.columns[name]
}

// Load reads a named layer from src and prepares it for analysis:
// required-column check, numeric coercion, reprojection to AnalysisSRID,
// and identity-key assignment. gctx owns the resulting GEOS geometries for
// the duration of the run.
func Load(ctx context.Context, gctx *geos.Context, src Source, name string, schema Schema) (*Layer, error) {
	raw, err := src.ReadLayer(ctx, name)
	if err != nil {
		return nil, eris.Wrapf(err, "layer: read %s", name)
	}

	cols := make(map[string]bool, len(raw.Columns))
	for _, c := range raw.Columns {
		cols[c] = true
	}

	var missing []string
	for _, c := range schema.Required {
		if !cols[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Layer: name, Missing: missing}
	}

	if raw.SRID == 0 {
		return nil, Configf("layer %s: CRS must be defined", name)
	}
	transform, err := transformTo5070(raw.SRID)
	if err != nil {
		return nil, err
	}
	if transform != nil {
		zap.L().Info("layer: reprojecting to analysis CRS",
			zap.String("layer", name),
			zap.Int("from_srid", raw.SRID),
			zap.Int("to_srid", AnalysisSRID),
		)
	}

	numeric := make(map[string]bool, len(schema.Numeric))
	for _, c := range schema.Numeric {
		numeric[c] = true
	}
	hasID := schema.IDColumn != "" && cols[schema.IDColumn]

	out := &Layer{
		Name:    name,
		SRID:    AnalysisSRID,
		Columns: raw.Columns,
		columns: cols,
	}

	seen := make(map[string]bool, len(raw.Rows))
	var dupes int
	for i, row := range raw.Rows {
		if transform != nil {
			reprojectInPlace(row.Geom, transform)
		}

		data, err := wkb.Marshal(row.Geom, wkb.NDR)
		if err != nil {
			return nil, eris.Wrapf(err, "layer %s: encode geometry %d", name, i)
		}
		g, err := gctx.NewGeomFromWKB(data)
		if err != nil {
			return nil, eris.Wrapf(err, "layer %s: parse geometry %d", name, i)
		}
		g.SetSRID(AnalysisSRID)

		rec := Record{
			Attrs: row.Attrs,
			Nums:  make(map[string]float64, len(numeric)),
			Geom:  g,
		}
		for c := range numeric {
			if cols[c] {
				rec.Nums[c] = parseNumeric(row.Attrs[c])
			}
		}

		if hasID {
			rec.ID = strings.TrimSpace(row.Attrs[schema.IDColumn])
		} else {
			// Sequential keys in load order; stable within this run only.
			rec.ID = strconv.Itoa(i + 1)
		}
		if seen[rec.ID] {
			dupes++
		}
		seen[rec.ID] = true

		out.Records = append(out.Records, rec)
	}

	if dupes > 0 {
		zap.L().Warn("layer: duplicate identity keys",
			zap.String("layer", name),
			zap.String("column", schema.IDColumn),
			zap.Int("duplicates", dupes),
		)
	}

	zap.L().Info("layer loaded",
		zap.String("layer", name),
		zap.Int("records", len(out.Records)),
		zap.Int("columns", len(out.Columns)),
	)
	return out, nil
}

// parseNumeric coerces an attribute to float64. Anything unparsable maps to
// missing (NaN), mirroring the load-time coercion contract.
func parseNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
