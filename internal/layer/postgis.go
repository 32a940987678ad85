package layer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// Pool is the subset of pgxpool.Pool the PostGIS source needs; pgxmock
// satisfies it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// identPattern restricts layer and schema names to plain SQL identifiers.
// Layer names come from configuration, so this is a config check rather than
// an injection defense against untrusted input, but it keeps the generated
// SQL honest either way.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostGIS reads polygon layers from a PostGIS schema. Layer names map to
// table names; geometry column and SRID come from the geometry_columns view.
type PostGIS struct {
	pool   Pool
	schema string
}

// NewPostGIS creates a PostGIS source over the given pool. An empty schema
// defaults to "public".
func NewPostGIS(pool Pool, schema string) *PostGIS {
	if schema == "" {
		schema = "public"
	}
	return &PostGIS{pool: pool, schema: schema}
}

// ReadLayer reads all rows of a layer table, attributes as text and geometry
// as WKB.
func (p *PostGIS) ReadLayer(ctx context.Context, name string) (*RawLayer, error) {
	if !identPattern.MatchString(name) || !identPattern.MatchString(p.schema) {
		return nil, Configf("postgis: invalid layer name %q", p.schema+"."+name)
	}

	var geomCol string
	var srid int
	err := p.pool.QueryRow(ctx, `
		SELECT f_geometry_column, srid
		FROM geometry_columns
		WHERE f_table_schema = $1 AND f_table_name = $2`, p.schema, name,
	).Scan(&geomCol, &srid)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgis: no geometry layer %s.%s", p.schema, name)
		}
		return nil, eris.Wrapf(err, "postgis: look up layer %s.%s", p.schema, name)
	}
	if srid < 0 {
		srid = 0
	}

	attrCols, err := p.attributeColumns(ctx, name, geomCol)
	if err != nil {
		return nil, err
	}

	selects := make([]string, 0, len(attrCols)+1)
	for _, c := range attrCols {
		selects = append(selects, fmt.Sprintf(`%s::text`, pgQuoteIdent(c)))
	}
	selects = append(selects, fmt.Sprintf(`ST_AsBinary(%s)`, pgQuoteIdent(geomCol)))

	sql := fmt.Sprintf(`SELECT %s FROM %s.%s`,
		strings.Join(selects, ", "), pgQuoteIdent(p.schema), pgQuoteIdent(name))

	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrapf(err, "postgis: select layer %s.%s", p.schema, name)
	}
	defer rows.Close()

	raw := &RawLayer{Name: name, SRID: srid, Columns: attrCols}
	for rows.Next() {
		attrVals := make([]*string, len(attrCols))
		ptrs := make([]any, 0, len(attrCols)+1)
		for i := range attrVals {
			ptrs = append(ptrs, &attrVals[i])
		}
		var wkbData []byte
		ptrs = append(ptrs, &wkbData)

		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "postgis: scan row from %s.%s", p.schema, name)
		}
		if len(wkbData) == 0 {
			continue
		}
		g, err := wkb.Unmarshal(wkbData)
		if err != nil {
			continue
		}

		attrs := make(map[string]string, len(attrCols))
		for i, c := range attrCols {
			if attrVals[i] != nil {
				attrs[c] = *attrVals[i]
			} else {
				attrs[c] = ""
			}
		}
		raw.Rows = append(raw.Rows, RawRow{Attrs: attrs, Geom: g})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgis: iterate layer %s.%s", p.schema, name)
	}
	return raw, nil
}

// attributeColumns lists the layer's non-geometry columns in table order.
func (p *PostGIS) attributeColumns(ctx context.Context, name, geomCol string) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, p.schema, name)
	if err != nil {
		return nil, eris.Wrapf(err, "postgis: list columns of %s.%s", p.schema, name)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, eris.Wrap(err, "postgis: scan column name")
		}
		if c == geomCol {
			continue
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgis: iterate column names")
	}
	return cols, nil
}

// pgQuoteIdent quotes a PostgreSQL identifier.
func pgQuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
