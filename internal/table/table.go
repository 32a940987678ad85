// Package table is the tabular model shared by the analyses and the export
// sinks: named columns over rows of missing-aware cells, pre-rendered to
// publication strings.
package table

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Cell is one rendered table value. Missing cells render as empty in every
// sink.
type Cell struct {
	Text    string
	Missing bool
}

// Table is an ordered set of columns over rows of cells.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// New creates a table with the given column headers.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds one row. Short rows are padded with missing cells so every
// sink can rely on rectangular data.
func (t *Table) Append(cells ...Cell) {
	for len(cells) < len(t.Columns) {
		cells = append(cells, Missing())
	}
	t.Rows = append(t.Rows, cells)
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

var printer = message.NewPrinter(language.AmericanEnglish)

// Missing returns the missing cell.
func Missing() Cell { return Cell{Missing: true} }

// S renders a string cell; the empty string is a present-but-blank cell,
// not a missing one.
func S(s string) Cell { return Cell{Text: s} }

// Int renders an integer with thousands separators.
func Int(n int) Cell {
	return Cell{Text: printer.Sprintf("%d", n)}
}

// F renders a float rounded to the given number of decimals, without
// grouping. NaN is missing.
func F(v float64, decimals int) Cell {
	if math.IsNaN(v) {
		return Missing()
	}
	return Cell{Text: strconv.FormatFloat(v, 'f', decimals, 64)}
}

// Comma renders a float rounded to the given number of decimals with
// thousands separators. NaN is missing.
func Comma(v float64, decimals int) Cell {
	if math.IsNaN(v) {
		return Missing()
	}
	return Cell{Text: printer.Sprintf("%.*f", decimals, v)}
}
