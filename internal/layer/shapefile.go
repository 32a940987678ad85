package layer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ShapefileDir treats a directory of shapefiles as a container whose layer
// names are the shapefile base names (without extension). The CRS is sniffed
// from the .prj sidecar; a missing or unrecognized sidecar leaves the CRS
// undefined, which the Loader rejects.
type ShapefileDir struct {
	Dir string
}

// ReadLayer reads <dir>/<name>.shp.
func (s *ShapefileDir) ReadLayer(ctx context.Context, name string) (*RawLayer, error) {
	shpPath := filepath.Join(s.Dir, name+".shp")
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	srid := sniffPRJ(filepath.Join(s.Dir, name+".prj"))

	fields := reader.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = strings.TrimRight(f.String(), "\x00")
	}

	raw := &RawLayer{Name: name, SRID: srid, Columns: cols}
	var skipped int
	for reader.Next() {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "shapefile: context cancelled")
		}
		_, shape := reader.Shape()

		g := shapeToMultiPolygon(shape)
		if g == nil {
			skipped++
			continue
		}

		attrs := make(map[string]string, len(cols))
		for i, c := range cols {
			val := strings.TrimRight(reader.Attribute(i), "\x00")
			attrs[c] = strings.TrimSpace(val)
		}
		raw.Rows = append(raw.Rows, RawRow{Attrs: attrs, Geom: g})
	}

	if skipped > 0 {
		zap.L().Debug("shapefile: skipped non-polygon records",
			zap.String("layer", name),
			zap.Int("skipped", skipped),
		)
	}
	return raw, nil
}

// sniffPRJ recognizes the handful of coordinate systems this pipeline
// supports from a .prj sidecar. Returns 0 (undefined) for anything else.
func sniffPRJ(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	wkt := strings.TrimSpace(string(data))
	switch {
	case strings.Contains(wkt, "5070") || strings.Contains(wkt, "Contiguous_USA_Albers") || strings.Contains(wkt, "Conus Albers"):
		return 5070
	case strings.Contains(wkt, "3857") || strings.Contains(wkt, "Pseudo-Mercator") || strings.Contains(wkt, "Pseudo_Mercator"):
		return 3857
	case strings.HasPrefix(wkt, "PROJCS"):
		// Any other projected system carries meter coordinates; its embedded
		// GEOGCS datum must not classify it as geographic, or eastings would
		// be projected as if they were degrees.
		return 0
	case strings.Contains(wkt, "4269") || strings.Contains(wkt, "GCS_North_American_1983") || strings.Contains(wkt, "NAD83"):
		return 4269
	case strings.Contains(wkt, "4326") || strings.Contains(wkt, "WGS_1984") || strings.Contains(wkt, "WGS 84"):
		return 4326
	default:
		return 0
	}
}

// shapeToMultiPolygon converts a shapefile Polygon record to a go-geom
// MultiPolygon. Shapefile winding order is significant: clockwise parts are
// outer rings, counter-clockwise parts are holes of the preceding outer ring.
// Non-polygon shapes return nil.
func shapeToMultiPolygon(s shp.Shape) geom.T {
	p, ok := s.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var cur *geom.Polygon
	flush := func() {
		if cur == nil {
			return
		}
		if err := mp.Push(cur); err != nil {
			zap.L().Debug("shapefile: skipping malformed polygon part", zap.Error(err))
		}
		cur = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if ringIsHole(flat) && cur != nil {
			if err := cur.Push(ring); err != nil {
				zap.L().Debug("shapefile: skipping malformed hole ring", zap.Int32("part", i), zap.Error(err))
			}
			continue
		}

		// Outer ring. A leading counter-clockwise part has no enclosing ring
		// to attach to; it is kept as its own polygon rather than dropped.
		flush()
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("shapefile: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		cur = poly
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// ringIsHole reports whether a closed flat XY ring is wound counter-clockwise
// (positive shoelace area), which marks interior rings in shapefiles.
func ringIsHole(flat []float64) bool {
	var s float64
	for i := 0; i+3 < len(flat); i += 2 {
		s += flat[i]*flat[i+3] - flat[i+2]*flat[i+1]
	}
	return s > 0
}
