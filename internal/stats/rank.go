package stats

import (
	"math"
	"sort"

	"github.com/nfw-project/roadless-cli/internal/layer"
)

// TopN is the fixed length of every ranked table.
const TopN = 20

// Ranked is one row of a ranked table.
type Ranked struct {
	Rank int
	Row  *Row
}

// RankSpec configures a ranked extraction.
type RankSpec struct {
	// Metric is the aggregated-table column to sort by, descending.
	Metric string
	// Tiebreak optionally names a second column sorted descending among
	// equal metric values (the multi-watershed exposure table uses it).
	// The primary tie rule is still original row order: the sort is stable.
	Tiebreak string
	// N caps the output length; 0 means TopN.
	N int
}

// Rank sorts the summary descending by the requested metric, drops rows with
// an undefined metric (they sort last and are truncated away), truncates to
// spec.N, and assigns dense 1-based ranks. A metric name that does not exist
// on the table is a configuration defect, not a data condition.
func Rank(s *Summary, spec RankSpec) ([]Ranked, error) {
	if !s.HasColumn(spec.Metric) {
		return nil, layer.Configf("rank: metric column not found: %s", spec.Metric)
	}
	if spec.Tiebreak != "" && !s.HasColumn(spec.Tiebreak) {
		return nil, layer.Configf("rank: tiebreak column not found: %s", spec.Tiebreak)
	}
	n := spec.N
	if n <= 0 {
		n = TopN
	}

	rows := make([]*Row, len(s.Rows))
	copy(rows, s.Rows)

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Value(spec.Metric), rows[j].Value(spec.Metric)
		switch {
		case math.IsNaN(a) && math.IsNaN(b):
			return false
		case math.IsNaN(b):
			return true
		case math.IsNaN(a):
			return false
		}
		if a != b {
			return a > b
		}
		if spec.Tiebreak != "" {
			ta, tb := rows[i].Value(spec.Tiebreak), rows[j].Value(spec.Tiebreak)
			if !math.IsNaN(ta) && !math.IsNaN(tb) && ta != tb {
				return ta > tb
			}
		}
		return false
	})

	var out []Ranked
	for _, row := range rows {
		if math.IsNaN(row.Value(spec.Metric)) {
			break
		}
		out = append(out, Ranked{Rank: len(out) + 1, Row: row})
		if len(out) == n {
			break
		}
	}
	return out, nil
}
