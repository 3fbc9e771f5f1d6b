package render

import (
	"bytes"
	"strings"
	"text/template"
)

var markdownTemplate = template.Must(template.New("statement").Funcs(template.FuncMap{
	"cell": cell,
}).Parse(`# {{ .Title }}

## Case summary

| Field | Value |
| --- | --- |
{{- range .Summary }}
| {{ cell .Label }} | {{ cell .Value }} |
{{- end }}

## Itemised compensation

| No. | Item | Amount (CNY) | Formula |
| ---: | --- | ---: | --- |
{{- range .Items }}
| {{ .No }} | {{ cell .Label }} | {{ .Amount }} | {{ cell .Formula }} |
{{- end }}

## Totals

| Sub-total | Amount (CNY) |
| --- | ---: |
{{- range .Subtotals }}
| {{ cell .Label }} | {{ .Value }} |
{{- end }}
| **Before apportionment** | **{{ .Subtotal }}** |

Liability share: {{ .Liability }}

**Grand total: {{ .Total }} CNY**
{{ if .Notes }}
## Notes
{{ range .Notes }}
- {{ . }}
{{- end }}
{{ end }}
---

{{ .Footer }}
`))

// cell makes s safe inside a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func renderMarkdown(v *view) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
