// Package render projects a computation result into a formatted document.
// Rendering only formats what aggregation produced; it never recomputes an
// amount.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"compensation-engine/internal/model"
)

type Format string

const (
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDOCX, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown document format %q", s)
	}
}

func (f Format) extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatHTML:
		return ".html"
	default:
		return ".docx"
	}
}

func (f Format) contentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
}

// Template selects the output format and the fixed texts around the
// computed figures.
type Template struct {
	Format Format
	Title  string
	Footer string
}

func DefaultTemplate() Template {
	return Template{
		Format: FormatDOCX,
		Title:  "Personal Injury Compensation Statement",
		Footer: "Figures computed from the statutory parameter table shown above. Verify against the applicable standard before use.",
	}
}

// Document is a rendered artifact. The caller owns it and is responsible
// for delivering or storing it.
type Document struct {
	Format      Format
	Name        string
	ContentType string
	Data        []byte
}

// Render projects res into a document. An incomplete result fails with a
// *model.RenderError instead of producing a malformed document.
func Render(res *model.ComputationResult, tpl Template) (*Document, error) {
	if tpl.Format == "" {
		tpl.Format = FormatDOCX
	}
	if tpl.Title == "" {
		tpl.Title = DefaultTemplate().Title
	}

	v, err := project(res, tpl)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch tpl.Format {
	case FormatMarkdown:
		data, err = renderMarkdown(v)
	case FormatHTML:
		data, err = renderHTML(v)
	case FormatDOCX:
		data, err = renderDOCX(v)
	default:
		return nil, &model.RenderError{Reason: "unsupported format " + string(tpl.Format)}
	}
	if err != nil {
		return nil, &model.RenderError{Reason: "encode " + string(tpl.Format), Err: err}
	}

	return &Document{
		Format:      tpl.Format,
		Name:        fileName(res, tpl.Format),
		ContentType: tpl.Format.contentType(),
		Data:        data,
	}, nil
}

func fileName(res *model.ComputationResult, f Format) string {
	var b strings.Builder
	for _, r := range res.Case.VictimName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	prefix := "compensation"
	if b.Len() > 0 {
		prefix = b.String() + "-compensation"
	}
	date := strings.ReplaceAll(res.Case.IncidentDate, "-", "")
	id := res.ResultID
	if len(id) > 8 {
		id = id[:8]
	}
	return prefix + "-" + date + "-" + id + f.extension()
}

// Materialize writes the document into dir and returns its path. The bytes
// go to a staging file first, which is removed on every failure path, so a
// partially written document never appears under the final name.
func (d *Document) Materialize(dir string) (path string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".staging-*"+filepath.Ext(d.Name))
	if err != nil {
		return "", err
	}
	staged := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(staged)
		}
	}()

	if _, err = tmp.Write(d.Data); err != nil {
		return "", fmt.Errorf("write %s: %w", d.Name, err)
	}
	if err = tmp.Sync(); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}

	path = filepath.Join(dir, d.Name)
	if err = os.Rename(staged, path); err != nil {
		return "", err
	}
	return path, nil
}
