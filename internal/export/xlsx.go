package export

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/nfw-project/roadless-cli/internal/table"
)

// Sheet is one named worksheet of a workbook.
type Sheet struct {
	Name  string
	Table *table.Table
}

// WriteXLSX writes one workbook with one worksheet per sheet. Missing cells
// become empty cells.
func WriteXLSX(path string, sheets []Sheet) error {
	file := xlsx.NewFile()

	for _, s := range sheets {
		sheet, err := file.AddSheet(sheetName(s.Name))
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", s.Name)
		}

		header := sheet.AddRow()
		for _, c := range s.Table.Columns {
			header.AddCell().SetString(c)
		}

		for _, cells := range s.Table.Rows {
			row := sheet.AddRow()
			for i := range s.Table.Columns {
				cell := row.AddCell()
				if i < len(cells) && !cells[i].Missing {
					cell.SetString(cells[i].Text)
				}
			}
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

var sheetNameReplacer = strings.NewReplacer(
	":", "-", `\`, "-", "/", "-", "?", "-", "*", "-", "[", "(", "]", ")",
)

// sheetName rewrites a table name into a legal Excel worksheet name: the
// reserved characters replaced and the result clipped to 31 characters.
func sheetName(name string) string {
	name = sheetNameReplacer.Replace(name)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
