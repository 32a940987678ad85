package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nfw-project/roadless-cli/internal/table"
)

// Titled is one output table of an analysis bundle.
type Titled struct {
	// Title is the heading shown in the Word document.
	Title string
	// Base is the file stem of the per-table CSV and LaTeX outputs.
	Base string
	// PageBreak starts the table's Word section on a new page.
	PageBreak bool
	Table     *table.Table
}

// Bundle is one analysis worth of tables, written together: per-table CSV
// and LaTeX files, one Word document, one Excel workbook, and a manifest.
type Bundle struct {
	// Name is the file stem of the bundled document and workbook.
	Name string
	// DocTitle is the Word document's top heading.
	DocTitle string
	Tables   []Titled
}

type manifest struct {
	RunID     string    `json:"run_id"`
	Bundle    string    `json:"bundle"`
	CreatedAt time.Time `json:"created_at"`
	Files     []string  `json:"files"`
}

// Write renders the bundle under dir, creating it if needed. runID is
// recorded in the manifest so outputs can be traced back to a run.
func (b *Bundle) Write(dir, runID string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "export: create output dir")
	}

	man := manifest{RunID: runID, Bundle: b.Name, CreatedAt: time.Now().UTC()}

	sections := make([]DocSection, 0, len(b.Tables))
	sheets := make([]Sheet, 0, len(b.Tables))
	for _, t := range b.Tables {
		csvName := t.Base + ".csv"
		if err := WriteCSV(t.Table, filepath.Join(dir, csvName)); err != nil {
			return err
		}
		texName := t.Base + ".tex"
		if err := WriteLaTeX(t.Table, filepath.Join(dir, texName)); err != nil {
			return err
		}
		man.Files = append(man.Files, csvName, texName)

		sections = append(sections, DocSection{Title: t.Title, PageBreak: t.PageBreak, Table: t.Table})
		sheets = append(sheets, Sheet{Name: t.Base, Table: t.Table})
	}

	docName := b.Name + ".docx"
	if err := WriteDocx(filepath.Join(dir, docName), b.DocTitle, sections); err != nil {
		return err
	}
	xlsxName := b.Name + ".xlsx"
	if err := WriteXLSX(filepath.Join(dir, xlsxName), sheets); err != nil {
		return err
	}
	man.Files = append(man.Files, docName, xlsxName)

	raw, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal manifest")
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0o644); err != nil {
		return eris.Wrap(err, "export: write manifest")
	}

	zap.L().Info("bundle written",
		zap.String("bundle", b.Name),
		zap.String("dir", dir),
		zap.Int("tables", len(b.Tables)),
	)
	return nil
}
