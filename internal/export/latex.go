package export

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/nfw-project/roadless-cli/internal/table"
)

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// WriteLaTeX writes one table to path as a booktabs tabular. Missing cells
// render as empty columns.
func WriteLaTeX(t *table.Table, path string) error {
	var b strings.Builder

	b.WriteString(`\begin{tabular}{` + strings.Repeat("l", len(t.Columns)) + "}\n")
	b.WriteString("\\toprule\n")

	heads := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		heads[i] = latexEscaper.Replace(c)
	}
	b.WriteString(strings.Join(heads, " & ") + " \\\\\n")
	b.WriteString("\\midrule\n")

	cols := make([]string, len(t.Columns))
	for _, cells := range t.Rows {
		for i := range cols {
			cols[i] = ""
			if i < len(cells) && !cells[i].Missing {
				cols[i] = latexEscaper.Replace(cells[i].Text)
			}
		}
		b.WriteString(strings.Join(cols, " & ") + " \\\\\n")
	}

	b.WriteString("\\bottomrule\n")
	b.WriteString("\\end{tabular}\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrap(err, "export: write latex")
	}
	return nil
}
