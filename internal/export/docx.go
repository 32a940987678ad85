package export

import (
	"archive/zip"
	"encoding/xml"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/nfw-project/roadless-cli/internal/table"
)

// The .docx writer emits the minimal WordprocessingML package the report
// template needs: a document part with heading and table styles, half-inch
// page margins, and single-grid tables with a bold header row.

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const docxStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:style w:type="paragraph" w:styleId="Heading1">
<w:name w:val="heading 1"/>
<w:pPr><w:spacing w:before="240" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr>
<w:rPr><w:b/><w:sz w:val="32"/></w:rPr>
</w:style>
<w:style w:type="paragraph" w:styleId="Heading2">
<w:name w:val="heading 2"/>
<w:pPr><w:spacing w:before="200" w:after="100"/><w:outlineLvl w:val="1"/></w:pPr>
<w:rPr><w:b/><w:sz w:val="26"/></w:rPr>
</w:style>
<w:style w:type="table" w:styleId="TableGrid">
<w:name w:val="Table Grid"/>
<w:tblPr><w:tblBorders>
<w:top w:val="single" w:sz="4" w:color="auto"/>
<w:left w:val="single" w:sz="4" w:color="auto"/>
<w:bottom w:val="single" w:sz="4" w:color="auto"/>
<w:right w:val="single" w:sz="4" w:color="auto"/>
<w:insideH w:val="single" w:sz="4" w:color="auto"/>
<w:insideV w:val="single" w:sz="4" w:color="auto"/>
</w:tblBorders></w:tblPr>
</w:style>
</w:styles>`

// Half-inch margins in twentieths of a point.
const docxSectPr = `<w:sectPr>
<w:pgSz w:w="12240" w:h="15840"/>
<w:pgMar w:top="720" w:right="720" w:bottom="720" w:left="720" w:header="720" w:footer="720" w:gutter="0"/>
</w:sectPr>`

// DocSection is one titled table of a document.
type DocSection struct {
	Title string
	// PageBreak starts the section on a new page.
	PageBreak bool
	Table     *table.Table
}

// WriteDocx writes a Word document with a title heading followed by one
// heading-plus-table block per section.
func WriteDocx(path, title string, sections []DocSection) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create docx")
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	parts := []struct{ name, body string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRootRels},
		{"word/_rels/document.xml.rels", docxDocumentRels},
		{"word/styles.xml", docxStyles},
		{"word/document.xml", docxDocument(title, sections)},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return eris.Wrapf(err, "export: docx part %s", p.name)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return eris.Wrapf(err, "export: docx part %s", p.name)
		}
	}

	if err := zw.Close(); err != nil {
		return eris.Wrap(err, "export: close docx")
	}
	return nil
}

func docxDocument(title string, sections []DocSection) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	b.WriteString(docxHeading("Heading1", title, false))
	for _, s := range sections {
		b.WriteString(docxHeading("Heading2", s.Title, s.PageBreak))
		b.WriteString(docxTable(s.Table))
		// Word needs a paragraph between consecutive tables to keep them
		// from merging.
		b.WriteString(`<w:p/>`)
	}

	b.WriteString(docxSectPr)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func docxHeading(style, text string, pageBreak bool) string {
	var b strings.Builder
	b.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	if pageBreak {
		b.WriteString(`<w:r><w:br w:type="page"/></w:r>`)
	}
	b.WriteString(`<w:r><w:t xml:space="preserve">` + xmlEscape(text) + `</w:t></w:r></w:p>`)
	return b.String()
}

func docxTable(t *table.Table) string {
	var b strings.Builder
	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="0" w:type="auto"/></w:tblPr>`)

	b.WriteString(`<w:tr>`)
	for _, c := range t.Columns {
		b.WriteString(`<w:tc><w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` +
			xmlEscape(c) + `</w:t></w:r></w:p></w:tc>`)
	}
	b.WriteString(`</w:tr>`)

	for _, cells := range t.Rows {
		b.WriteString(`<w:tr>`)
		for i := range t.Columns {
			text := ""
			if i < len(cells) && !cells[i].Missing {
				text = cells[i].Text
			}
			if text == "" {
				b.WriteString(`<w:tc><w:p/></w:tc>`)
				continue
			}
			b.WriteString(`<w:tc><w:p><w:r><w:t xml:space="preserve">` +
				xmlEscape(text) + `</w:t></w:r></w:p></w:tc>`)
		}
		b.WriteString(`</w:tr>`)
	}

	b.WriteString(`</w:tbl>`)
	return b.String()
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
