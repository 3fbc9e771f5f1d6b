package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

// docxEpoch pins zip entry timestamps so identical views give identical
// bytes.
var docxEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// renderDOCX writes a minimal WordprocessingML package: one document part
// with headings as bold runs and the itemised figures as tables.
func renderDOCX(v *view) ([]byte, error) {
	var body wordBody
	body.heading(v.Title, 32)

	body.heading("Case summary", 26)
	body.table(nil, pairRows(v.Summary))

	body.heading("Itemised compensation", 26)
	rows := make([][]string, len(v.Items))
	for i, it := range v.Items {
		rows[i] = []string{strconv.Itoa(it.No), it.Label, it.Amount, it.Formula}
	}
	body.table([]string{"No.", "Item", "Amount (CNY)", "Formula"}, rows)

	body.heading("Totals", 26)
	totals := pairRows(v.Subtotals)
	totals = append(totals,
		[]string{"Before apportionment", v.Subtotal},
		[]string{"Liability share", v.Liability},
		[]string{"Grand total", v.Total},
	)
	body.table([]string{"Sub-total", "Amount (CNY)"}, totals)

	if len(v.Notes) > 0 {
		body.heading("Notes", 26)
		for _, n := range v.Notes {
			body.paragraph("- "+n, false, 0)
		}
	}
	if v.Footer != "" {
		body.paragraph(v.Footer, false, 18)
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr></w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, data string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", document},
	}
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: docxEpoch})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.data)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pairRows(pairs []pair) [][]string {
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{p.Label, p.Value}
	}
	return rows
}

type wordBody struct {
	strings.Builder
}

func (b *wordBody) heading(text string, halfPoints int) {
	b.paragraph(text, true, halfPoints)
}

func (b *wordBody) paragraph(text string, bold bool, halfPoints int) {
	b.WriteString("<w:p>")
	b.run(text, bold, halfPoints)
	b.WriteString("</w:p>")
}

func (b *wordBody) run(text string, bold bool, halfPoints int) {
	b.WriteString("<w:r>")
	if bold || halfPoints > 0 {
		b.WriteString("<w:rPr>")
		if bold {
			b.WriteString("<w:b/>")
		}
		if halfPoints > 0 {
			b.WriteString(`<w:sz w:val="` + strconv.Itoa(halfPoints) + `"/>`)
		}
		b.WriteString("</w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	xml.EscapeText(b, []byte(text))
	b.WriteString("</w:t></w:r>")
}

func (b *wordBody) table(header []string, rows [][]string) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		b.WriteString(`<w:` + side + ` w:val="single" w:sz="4" w:space="0" w:color="999999"/>`)
	}
	b.WriteString(`</w:tblBorders></w:tblPr>`)
	if header != nil {
		b.row(header, true)
	}
	for _, r := range rows {
		b.row(r, false)
	}
	b.WriteString("</w:tbl>")
}

func (b *wordBody) row(cells []string, bold bool) {
	b.WriteString("<w:tr>")
	for _, c := range cells {
		b.WriteString("<w:tc><w:p>")
		b.run(c, bold, 0)
		b.WriteString("</w:p></w:tc>")
	}
	b.WriteString("</w:tr>")
}
