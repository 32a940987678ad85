// Package overlay intersects two polygon layers into attributed fragments
// and derives per-fragment overlap fractions for area-weighted aggregation.
package overlay

import (
	"math"

	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/nfw-project/roadless-cli/internal/layer"
)

// SquareMetersPerAcre converts intersection areas from square meters
// (EPSG:5070 map units) to acres.
const SquareMetersPerAcre = 4046.8564224

// Options selects which attributes ride along on each fragment.
type Options struct {
	// Labels are descriptive primary-layer columns denormalized onto every
	// fragment (e.g. REGION, FOREST, STATE, NAME).
	Labels []string
	// SecondaryKey identifies the secondary polygon (e.g. HUC12). Empty
	// means the secondary layer has no independent identity column.
	SecondaryKey string
	// SecondaryArea names the secondary layer's authoritative
	// pre-intersection area attribute, in acres. Empty or absent from the
	// layer leaves every overlap fraction undefined.
	SecondaryArea string
	// Measures are numeric secondary-layer columns copied onto fragments.
	Measures []string
}

// Fragment is one geometric intersection between a primary and a secondary
// polygon. Numeric fields use NaN as the missing marker.
type Fragment struct {
	PrimaryID   string
	Labels      map[string]string
	SecondaryID string
	Measures    map[string]float64

	// Acres is the intersection area in acres.
	Acres float64
	// Fraction is the share of the secondary polygon's original area inside
	// the primary polygon, clipped to [0, 1]. NaN when the secondary area
	// cannot be established.
	Fraction float64
}

// Intersect computes all pairwise intersections with positive area between
// the two layers. Both layers must already be in the analysis CRS; this is a
// precondition of the caller, checked defensively here. Pairs are pruned by
// bounding box before any geometric work. Exactly one fragment is produced
// per overlapping pair.
func Intersect(primary, secondary *layer.Layer, opts Options) ([]Fragment, error) {
	if primary.SRID != layer.AnalysisSRID || secondary.SRID != layer.AnalysisSRID {
		return nil, layer.Configf("overlay: layers must share CRS EPSG:%d (got %d and %d)",
			layer.AnalysisSRID, primary.SRID, secondary.SRID)
	}

	hasArea := opts.SecondaryArea != "" && secondary.HasColumn(opts.SecondaryArea)

	secBounds := make([]*geos.Box2D, len(secondary.Records))
	for i := range secondary.Records {
		secBounds[i] = secondary.Records[i].Geom.Bounds()
	}

	var frags []Fragment
	for pi := range primary.Records {
		p := &primary.Records[pi]
		pb := p.Geom.Bounds()

		for si := range secondary.Records {
			if !boxesOverlap(pb, secBounds[si]) {
				continue
			}
			s := &secondary.Records[si]
			if !p.Geom.Intersects(s.Geom) {
				continue
			}
			inter := p.Geom.Intersection(s.Geom)
			if inter == nil || inter.IsEmpty() {
				continue
			}
			acres := inter.Area() / SquareMetersPerAcre
			if acres <= 0 {
				continue
			}

			frag := Fragment{
				PrimaryID: p.ID,
				Labels:    make(map[string]string, len(opts.Labels)),
				Acres:     acres,
				Fraction:  math.NaN(),
			}
			for _, c := range opts.Labels {
				frag.Labels[c] = p.Attrs[c]
			}
			if opts.SecondaryKey != "" {
				frag.SecondaryID = s.Attrs[opts.SecondaryKey]
			}
			if len(opts.Measures) > 0 {
				frag.Measures = make(map[string]float64, len(opts.Measures))
				for _, m := range opts.Measures {
					frag.Measures[m] = s.Num(m)
				}
			}

			if hasArea {
				// Floating-point overshoot from the intersection is absorbed
				// by clipping, never reported as >100% overlap.
				if a := s.Num(opts.SecondaryArea); a > 0 {
					frag.Fraction = clip01(acres / a)
				}
			}

			frags = append(frags, frag)
		}
	}

	zap.L().Info("overlay complete",
		zap.String("primary", primary.Name),
		zap.String("secondary", secondary.Name),
		zap.Int("fragments", len(frags)),
	)
	return frags, nil
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// boxesOverlap reports whether two bounding boxes intersect.
func boxesOverlap(a, b *geos.Box2D) bool {
	return a.MinX <= b.MaxX && b.MinX <= a.MaxX && a.MinY <= b.MaxY && b.MinY <= a.MaxY
}
