package stats

import (
	"math"
	"sort"
)

// Descriptive helpers over float64 slices where NaN marks missing values.
// They back the inventory tables (national summary, geometry stats).

// Count returns the number of defined values.
func Count(vs []float64) int {
	n := 0
	for _, v := range vs {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Sum adds the defined values; all-missing input sums to 0.
func Sum(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		if !math.IsNaN(v) {
			s += v
		}
	}
	return s
}

// Mean averages the defined values; all-missing input is missing.
func Mean(vs []float64) float64 {
	n := Count(vs)
	if n == 0 {
		return math.NaN()
	}
	return Sum(vs) / float64(n)
}

// Min returns the smallest defined value; all-missing input is missing.
func Min(vs []float64) float64 {
	out := math.NaN()
	for _, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(out) || v < out {
			out = v
		}
	}
	return out
}

// Max returns the largest defined value; all-missing input is missing.
func Max(vs []float64) float64 {
	out := math.NaN()
	for _, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(out) || v > out {
			out = v
		}
	}
	return out
}

// Median returns the middle defined value (mean of the two middles for even
// counts); all-missing input is missing.
func Median(vs []float64) float64 {
	defined := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return math.NaN()
	}
	sort.Float64s(defined)
	mid := len(defined) / 2
	if len(defined)%2 == 1 {
		return defined[mid]
	}
	return (defined[mid-1] + defined[mid]) / 2
}

// Std returns the sample standard deviation (n-1 denominator) of the defined
// values; fewer than two defined values is missing.
func Std(vs []float64) float64 {
	n := Count(vs)
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(vs)
	var ss float64
	for _, v := range vs {
		if !math.IsNaN(v) {
			d := v - mean
			ss += d * d
		}
	}
	return math.Sqrt(ss / float64(n-1))
}

// NUnique counts distinct non-empty strings.
func NUnique(vs []string) int {
	seen := make(map[string]bool, len(vs))
	for _, v := range vs {
		if v != "" {
			seen[v] = true
		}
	}
	return len(seen)
}
