package layer

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// GeoPackage reads polygon layers from a GeoPackage container (a SQLite
// database with gpkg_* metadata tables).
type GeoPackage struct {
	path string
	db   *sql.DB
}

// OpenGeoPackage opens a GeoPackage file read-only.
func OpenGeoPackage(path string) (*GeoPackage, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: open %s", path)
	}
	if _, err := db.Exec("PRAGMA query_only=1"); err != nil {
		_ = db.Close()
		return nil, eris.Wrapf(err, "gpkg: set query_only on %s", path)
	}
	return &GeoPackage{path: path, db: db}, nil
}

// Close releases the underlying database handle.
func (g *GeoPackage) Close() error {
	return g.db.Close()
}

// ReadLayer reads a named feature layer. The layer name must exist in
// gpkg_contents; looking it up there also pins the geometry column and SRID
// and keeps arbitrary identifiers out of the SQL below.
func (g *GeoPackage) ReadLayer(ctx context.Context, name string) (*RawLayer, error) {
	var geomCol string
	var srsID int
	err := g.db.QueryRowContext(ctx, `
		SELECT gc.column_name, gc.srs_id
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns gc ON gc.table_name = c.table_name
		WHERE c.table_name = ? AND c.data_type = 'features'`, name,
	).Scan(&geomCol, &srsID)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("gpkg: no feature layer %q in %s", name, g.path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: look up layer %q", name)
	}

	// GeoPackage reserves srs_id 0 and -1 for "undefined".
	if srsID <= 0 {
		srsID = 0
	}

	rows, err := g.db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(name)))
	if err != nil {
		return nil, eris.Wrapf(err, "gpkg: select layer %q", name)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "gpkg: read column names")
	}

	geomIdx := -1
	var attrCols []string
	for i, c := range cols {
		if c == geomCol {
			geomIdx = i
			continue
		}
		attrCols = append(attrCols, c)
	}
	if geomIdx < 0 {
		return nil, eris.Errorf("gpkg: layer %q has no %q geometry column", name, geomCol)
	}

	raw := &RawLayer{Name: name, SRID: srsID, Columns: attrCols}
	var skipped int
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "gpkg: scan row from %q", name)
		}

		blob, _ := vals[geomIdx].([]byte)
		geometry, err := decodeGPKGGeometry(blob)
		if err != nil || geometry == nil {
			skipped++
			continue
		}

		attrs := make(map[string]string, len(attrCols))
		for i, c := range cols {
			if i == geomIdx {
				continue
			}
			attrs[c] = sqliteValueString(vals[i])
		}
		raw.Rows = append(raw.Rows, RawRow{Attrs: attrs, Geom: geometry})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "gpkg: iterate layer %q", name)
	}
	if skipped > 0 {
		zap.L().Debug("gpkg: skipped rows without usable geometry",
			zap.String("layer", name),
			zap.Int("skipped", skipped),
		)
	}
	return raw, nil
}

// decodeGPKGGeometry parses a GeoPackage binary geometry blob: the "GP"
// header (flags, srs_id, optional envelope) followed by standard WKB.
func decodeGPKGGeometry(blob []byte) (geom.T, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, eris.New("gpkg: not a GeoPackage geometry blob")
	}
	flags := blob[3]
	if flags&(1<<5) != 0 { // extended-binary-type flag
		return nil, eris.New("gpkg: extended geometry type not supported")
	}
	if flags&(1<<4) != 0 { // empty-geometry flag
		return nil, nil
	}

	envelopeDoubles := map[byte]int{0: 0, 1: 4, 2: 6, 3: 6, 4: 8}
	indicator := (flags >> 1) & 0x7
	n, ok := envelopeDoubles[indicator]
	if !ok {
		return nil, eris.Errorf("gpkg: invalid envelope indicator %d", indicator)
	}

	offset := 8 + 8*n
	if len(blob) < offset {
		return nil, eris.New("gpkg: truncated geometry blob")
	}
	g, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, eris.Wrap(err, "gpkg: decode WKB")
	}
	return g, nil
}

// blobSRID extracts the srs_id from a GeoPackage geometry blob header.
// Layer-level SRID from gpkg_geometry_columns is authoritative; this exists
// for diagnostics only.
func blobSRID(blob []byte) int {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return 0
	}
	if blob[3]&1 == 1 {
		return int(int32(binary.LittleEndian.Uint32(blob[4:8])))
	}
	return int(int32(binary.BigEndian.Uint32(blob[4:8])))
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// sqliteValueString renders a scanned SQLite value as its attribute string.
// NULL becomes the empty string, which numeric coercion treats as missing.
func sqliteValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(t)
	}
}
