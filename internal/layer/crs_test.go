package layer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformIdentity(t *testing.T) {
	fn, err := transformTo5070(AnalysisSRID)
	require.NoError(t, err)
	assert.Nil(t, fn, "already-projected layers need no transform")
}

func TestTransformUnsupported(t *testing.T) {
	_, err := transformTo5070(32633)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestAlbersProjectionOrigin(t *testing.T) {
	x, y := albersForward(albersLambda, albersPhi0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)
}

func TestAlbersDirectionality(t *testing.T) {
	// West of the central meridian is negative X, east is positive.
	xw, _ := albersForward(-120, 40)
	xe, _ := albersForward(-80, 40)
	assert.Negative(t, xw)
	assert.Positive(t, xe)

	// Y grows with latitude along the central meridian.
	_, ys := albersForward(-96, 30)
	_, yn := albersForward(-96, 45)
	assert.Greater(t, yn, ys)

	// One degree of latitude is on the order of 110 km.
	_, y1 := albersForward(-96, 40)
	_, y2 := albersForward(-96, 41)
	assert.InDelta(t, 111000, y2-y1, 2000)
}

func TestWebMercatorInverse(t *testing.T) {
	lon, lat := webMercatorInverse(0, 0)
	assert.InDelta(t, 0, lon, 1e-9)
	assert.InDelta(t, 0, lat, 1e-9)

	lon, _ = webMercatorInverse(webMercatorR*math.Pi, 0)
	assert.InDelta(t, 180, lon, 1e-9)
}

func TestWebMercatorRoundTripThroughAlbers(t *testing.T) {
	fn, err := transformTo5070(3857)
	require.NoError(t, err)
	require.NotNil(t, fn)

	// Forward web-mercator of the Albers origin, then through the composed
	// transform, must land on (0, 0).
	mx := webMercatorR * rad(albersLambda)
	my := webMercatorR * math.Log(math.Tan(math.Pi/4+rad(albersPhi0)/2))

	x, y := fn(mx, my)
	assert.InDelta(t, 0, x, 1e-3)
	assert.InDelta(t, 0, y, 1e-3)
}

func TestParseNumeric(t *testing.T) {
	assert.Equal(t, 42.5, parseNumeric(" 42.5 "))
	assert.True(t, math.IsNaN(parseNumeric("")))
	assert.True(t, math.IsNaN(parseNumeric("12,5")))
	assert.Equal(t, -3.0, parseNumeric("-3"))
}
