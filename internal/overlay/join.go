package overlay

import (
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/nfw-project/roadless-cli/internal/layer"
)

// JoinRow pairs one left-layer record with the value of one intersecting
// right-layer group column. A left record intersecting n right polygons
// produces n rows; a record intersecting none produces a single row with a
// missing group.
type JoinRow struct {
	Left         *layer.Record
	Group        string
	GroupMissing bool
}

// LeftJoin spatially joins left records to right records by the intersects
// predicate and carries the right layer's groupCol value. Unmatched left
// records are kept with a missing group label and counted in a warning, not
// dropped.
func LeftJoin(left, right *layer.Layer, groupCol string) ([]JoinRow, error) {
	if left.SRID != right.SRID {
		return nil, layer.Configf("overlay: spatial join layers must share a CRS (got %d and %d)",
			left.SRID, right.SRID)
	}

	rightBounds := make([]*geos.Box2D, len(right.Records))
	for i := range right.Records {
		rightBounds[i] = right.Records[i].Geom.Bounds()
	}

	var rows []JoinRow
	var unmatched int
	for li := range left.Records {
		l := &left.Records[li]
		lb := l.Geom.Bounds()

		matched := false
		for ri := range right.Records {
			if !boxesOverlap(lb, rightBounds[ri]) {
				continue
			}
			r := &right.Records[ri]
			if !l.Geom.Intersects(r.Geom) {
				continue
			}
			rows = append(rows, JoinRow{Left: l, Group: r.Attrs[groupCol]})
			matched = true
		}
		if !matched {
			rows = append(rows, JoinRow{Left: l, GroupMissing: true})
			unmatched++
		}
	}

	if unmatched > 0 {
		zap.L().Warn("spatial join left records unmatched",
			zap.String("left", left.Name),
			zap.String("right", right.Name),
			zap.String("group_column", groupCol),
			zap.Int("unmatched", unmatched),
		)
	}
	return rows, nil
}
