// Package export renders tables to the publication formats the report
// workflow consumes: per-table CSV and LaTeX files plus a bundled Word
// document and Excel workbook per analysis.
package export

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/nfw-project/roadless-cli/internal/table"
)

// WriteCSV writes one table to path. Missing cells become empty fields.
func WriteCSV(t *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(t.Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	row := make([]string, len(t.Columns))
	for _, cells := range t.Rows {
		for i := range row {
			row[i] = ""
			if i < len(cells) && !cells[i].Missing {
				row[i] = cells[i].Text
			}
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "export: flush csv")
}
