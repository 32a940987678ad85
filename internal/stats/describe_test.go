package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeIgnoresMissing(t *testing.T) {
	vs := []float64{4, math.NaN(), 2, 6}

	assert.Equal(t, 3, Count(vs))
	assert.Equal(t, 12.0, Sum(vs))
	assert.Equal(t, 4.0, Mean(vs))
	assert.Equal(t, 2.0, Min(vs))
	assert.Equal(t, 6.0, Max(vs))
	assert.Equal(t, 4.0, Median(vs))
	assert.InDelta(t, 2.0, Std(vs), 1e-9)
}

func TestDescribeAllMissing(t *testing.T) {
	vs := []float64{math.NaN(), math.NaN()}

	assert.Equal(t, 0, Count(vs))
	assert.Equal(t, 0.0, Sum(vs), "sums of nothing are zero")
	assert.True(t, math.IsNaN(Mean(vs)), "means of nothing are missing")
	assert.True(t, math.IsNaN(Min(vs)))
	assert.True(t, math.IsNaN(Max(vs)))
	assert.True(t, math.IsNaN(Median(vs)))
}

func TestMedianEvenCount(t *testing.T) {
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
	assert.Equal(t, 7.0, Median([]float64{7}))
}

func TestStdNeedsTwoValues(t *testing.T) {
	assert.True(t, math.IsNaN(Std([]float64{5})))
	assert.True(t, math.IsNaN(Std(nil)))
}

func TestNUnique(t *testing.T) {
	assert.Equal(t, 2, NUnique([]string{"CO", "NM", "CO", ""}))
	assert.Equal(t, 0, NUnique(nil))
}
