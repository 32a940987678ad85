// Package stats reduces intersection fragments to per-parent aggregated
// records and extracts ranked top-N tables from them.
package stats

import (
	"math"
	"strings"

	"github.com/nfw-project/roadless-cli/internal/overlay"
)

// Column-name suffixes for the derived measure statistics. These mirror the
// exported column names of the aggregated tables.
const (
	SuffixRawMean      = "_raw_mean"
	SuffixRawMax       = "_raw_max"
	SuffixWeightedMean = "_aw_mean"
	SuffixWeightedSum  = "_w"
)

// Built-in aggregate columns present on every row.
const (
	ColAcres          = "acres"
	ColSecondaryCount = "secondary_count"
)

// Row is one aggregated record: everything known about one primary-polygon
// identity key after reduction. Map values use NaN as the missing marker.
type Row struct {
	Key    string
	Labels map[string]string

	// Acres is the summed intersection area across the key's fragments.
	Acres float64
	// SecondaryCount is the number of distinct secondary polygons touched.
	SecondaryCount int

	RawMean      map[string]float64
	RawMax       map[string]float64
	WeightedMean map[string]float64 // nil when weighting is unavailable
	WeightedSum  map[string]float64 // nil when weighting is unavailable

	// Derived holds analysis-specific computed columns (ratios, totals).
	Derived map[string]float64
}

// Summary is the aggregated table for one analysis run. Rows appear in
// first-appearance order of their keys within the fragment set.
type Summary struct {
	Measures []string
	// Weighted records the dataset-level decision: area-weighted columns
	// exist only when at least one fragment in the whole dataset had a
	// defined overlap fraction. The fallback is all-or-nothing per run, not
	// per row.
	Weighted bool
	Rows     []*Row
}

// MetricKind says which statistic a ranked table should report for a measure.
type MetricKind int

const (
	MetricRawMean MetricKind = iota
	MetricWeightedMean
)

type accumulator struct {
	row *Row

	secondaries map[string]bool
	sum         map[string]float64
	count       map[string]int
	wNum        map[string]float64
	wDen        float64
	wDenAny     bool
}

// Aggregate groups fragments by primary identity key and reduces each
// measure to raw mean, raw max, and (when overlap fractions are available
// anywhere in the dataset) area-weighted mean and weighted sum.
//
// Missing measure values are ignored; a key whose fragments are all missing
// for a measure yields a missing statistic, never zero. A key whose fraction
// sum is exactly zero yields a missing weighted mean rather than a division
// by zero.
func Aggregate(frags []overlay.Fragment, measures []string) *Summary {
	weighted := false
	for i := range frags {
		if !math.IsNaN(frags[i].Fraction) {
			weighted = true
			break
		}
	}

	sum := &Summary{Measures: measures, Weighted: weighted}
	accs := make(map[string]*accumulator)
	var order []string

	for i := range frags {
		f := &frags[i]
		acc, ok := accs[f.PrimaryID]
		if !ok {
			acc = &accumulator{
				row: &Row{
					Key:     f.PrimaryID,
					Labels:  f.Labels,
					RawMean: make(map[string]float64, len(measures)),
					RawMax:  make(map[string]float64, len(measures)),
				},
				secondaries: make(map[string]bool),
				sum:         make(map[string]float64, len(measures)),
				count:       make(map[string]int, len(measures)),
				wNum:        make(map[string]float64, len(measures)),
			}
			accs[f.PrimaryID] = acc
			order = append(order, f.PrimaryID)
		}

		acc.row.Acres += f.Acres
		if f.SecondaryID != "" {
			acc.secondaries[f.SecondaryID] = true
		} else {
			// No secondary identity column: fall back to counting fragments.
			acc.row.SecondaryCount++
		}

		frac := f.Fraction
		if !math.IsNaN(frac) {
			acc.wDen += frac
			acc.wDenAny = true
		}

		for _, m := range measures {
			v, ok := f.Measures[m]
			if !ok || math.IsNaN(v) {
				continue
			}
			acc.sum[m] += v
			acc.count[m]++
			if cur, ok := acc.row.RawMax[m]; !ok || v > cur {
				acc.row.RawMax[m] = v
			}
			if !math.IsNaN(frac) {
				acc.wNum[m] += v * frac
			}
		}
	}

	for _, key := range order {
		acc := accs[key]
		row := acc.row
		if n := len(acc.secondaries); n > 0 {
			row.SecondaryCount = n
		}

		for _, m := range measures {
			if c := acc.count[m]; c > 0 {
				row.RawMean[m] = acc.sum[m] / float64(c)
			} else {
				row.RawMean[m] = math.NaN()
				row.RawMax[m] = math.NaN()
			}
		}

		if weighted {
			row.WeightedMean = make(map[string]float64, len(measures))
			row.WeightedSum = make(map[string]float64, len(measures))
			for _, m := range measures {
				num, any := acc.wNum[m], acc.count[m] > 0
				if acc.wDenAny && acc.wDen > 0 && any {
					row.WeightedMean[m] = num / acc.wDen
					row.WeightedSum[m] = num
				} else {
					row.WeightedMean[m] = math.NaN()
					row.WeightedSum[m] = math.NaN()
				}
			}
		}

		sum.Rows = append(sum.Rows, row)
	}

	return sum
}

// Metric selects, once for the whole table, the statistic a measure's ranked
// output should use: the area-weighted mean when it exists and has at least
// one defined value anywhere in the table, otherwise the raw mean.
func (s *Summary) Metric(measure string) MetricKind {
	if !s.Weighted {
		return MetricRawMean
	}
	for _, row := range s.Rows {
		if v, ok := row.WeightedMean[measure]; ok && !math.IsNaN(v) {
			return MetricWeightedMean
		}
	}
	return MetricRawMean
}

// MetricColumn returns the aggregated-table column name for a measure under
// the selected statistic.
func MetricColumn(measure string, kind MetricKind) string {
	if kind == MetricWeightedMean {
		return measure + SuffixWeightedMean
	}
	return measure + SuffixRawMean
}

// HasColumn reports whether col resolves to a value on this summary's rows.
func (s *Summary) HasColumn(col string) bool {
	switch col {
	case ColAcres, ColSecondaryCount:
		return true
	}
	for _, m := range s.Measures {
		switch col {
		case m + SuffixRawMean, m + SuffixRawMax:
			return true
		case m + SuffixWeightedMean, m + SuffixWeightedSum:
			if s.Weighted {
				return true
			}
		}
	}
	for _, row := range s.Rows {
		if _, ok := row.Derived[col]; ok {
			return true
		}
	}
	return false
}

// Value resolves a column name on one row. Missing values are NaN; an
// unknown column is the caller's defect and is guarded by Summary.HasColumn.
func (r *Row) Value(col string) float64 {
	switch col {
	case ColAcres:
		return r.Acres
	case ColSecondaryCount:
		return float64(r.SecondaryCount)
	}
	if v, ok := r.Derived[col]; ok {
		return v
	}
	switch {
	case strings.HasSuffix(col, SuffixRawMean):
		if v, ok := r.RawMean[strings.TrimSuffix(col, SuffixRawMean)]; ok {
			return v
		}
	case strings.HasSuffix(col, SuffixRawMax):
		if v, ok := r.RawMax[strings.TrimSuffix(col, SuffixRawMax)]; ok {
			return v
		}
	case strings.HasSuffix(col, SuffixWeightedMean):
		if v, ok := r.WeightedMean[strings.TrimSuffix(col, SuffixWeightedMean)]; ok {
			return v
		}
	case strings.HasSuffix(col, SuffixWeightedSum):
		if v, ok := r.WeightedSum[strings.TrimSuffix(col, SuffixWeightedSum)]; ok {
			return v
		}
	}
	return math.NaN()
}

// SetDerived stores an analysis-computed column on the row.
func (r *Row) SetDerived(col string, v float64) {
	if r.Derived == nil {
		r.Derived = make(map[string]float64)
	}
	r.Derived[col] = v
}
