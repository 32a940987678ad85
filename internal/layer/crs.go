package layer

import (
	"math"

	"github.com/twpayne/go-geom"
)

// AnalysisSRID is the fixed planar projection all layers are normalized to
// before any area math: NAD83 / Conus Albers (meters).
const AnalysisSRID = 5070

// GRS80 ellipsoid, the datum surface for EPSG:5070.
const (
	grs80A  = 6378137.0
	grs80F  = 1.0 / 298.257222101
	grs80E2 = 2*grs80F - grs80F*grs80F
)

// EPSG:5070 projection parameters.
const (
	albersPhi1   = 29.5 // first standard parallel
	albersPhi2   = 45.5 // second standard parallel
	albersPhi0   = 23.0 // latitude of origin
	albersLambda = -96.0
)

// webMercatorR is the sphere radius used by EPSG:3857.
const webMercatorR = 6378137.0

// transformFunc maps a coordinate pair into EPSG:5070 meters.
type transformFunc func(x, y float64) (float64, float64)

// transformTo5070 returns the coordinate transform from the given SRID into
// the analysis projection, or nil when the layer is already in it. SRID 0
// means the source CRS is undefined and must have been rejected earlier.
// Unsupported (but defined) systems yield a ConfigError naming the SRID so a
// run fails loudly instead of computing areas in the wrong units.
func transformTo5070(srid int) (transformFunc, error) {
	switch srid {
	case AnalysisSRID:
		return nil, nil
	case 4326, 4269:
		// NAD83 and WGS84 are treated as coincident at tabulation precision.
		return albersForward, nil
	case 3857:
		return func(x, y float64) (float64, float64) {
			lon, lat := webMercatorInverse(x, y)
			return albersForward(lon, lat)
		}, nil
	default:
		return nil, Configf("layer: unsupported CRS EPSG:%d (expected %d, 4326, 4269 or 3857)", srid, AnalysisSRID)
	}
}

// Albers constants derived once from the projection parameters.
var (
	albersN    float64
	albersC    float64
	albersRho0 float64
)

func init() {
	m1 := albersM(rad(albersPhi1))
	m2 := albersM(rad(albersPhi2))
	q1 := albersQ(rad(albersPhi1))
	q2 := albersQ(rad(albersPhi2))
	q0 := albersQ(rad(albersPhi0))

	albersN = (m1*m1 - m2*m2) / (q2 - q1)
	albersC = m1*m1 + albersN*q1
	albersRho0 = grs80A * math.Sqrt(albersC-albersN*q0) / albersN
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func albersM(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-grs80E2*s*s)
}

func albersQ(phi float64) float64 {
	e := math.Sqrt(grs80E2)
	s := math.Sin(phi)
	return (1 - grs80E2) * (s/(1-grs80E2*s*s) - (1/(2*e))*math.Log((1-e*s)/(1+e*s)))
}

// albersForward projects geographic degrees onto EPSG:5070 meters.
func albersForward(lon, lat float64) (float64, float64) {
	q := albersQ(rad(lat))
	rho := grs80A * math.Sqrt(albersC-albersN*q) / albersN
	theta := albersN * rad(lon-albersLambda)
	x := rho * math.Sin(theta)
	y := albersRho0 - rho*math.Cos(theta)
	return x, y
}

// webMercatorInverse converts EPSG:3857 meters to geographic degrees.
func webMercatorInverse(x, y float64) (lon, lat float64) {
	lon = x / webMercatorR * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(y/webMercatorR)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}

// reprojectInPlace applies fn to every coordinate pair of g. The geometry's
// flat-coordinate slice is mutated directly; Z/M values are untouched.
func reprojectInPlace(g geom.T, fn transformFunc) {
	flat := g.FlatCoords()
	stride := g.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		flat[i], flat[i+1] = fn(flat[i], flat[i+1])
	}
}
