package render

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdownToHTML = goldmark.New(goldmark.WithExtensions(extension.Table))

// renderHTML converts the markdown statement into a standalone page.
// Raw HTML in the source is not passed through, so case text cannot inject
// markup.
func renderHTML(v *view) ([]byte, error) {
	md, err := renderMarkdown(v)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := markdownToHTML.Convert(md, &body); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	page.WriteString(html.EscapeString(v.Title))
	page.WriteString("</title>\n<style>table{border-collapse:collapse}td,th{border:1px solid #999;padding:4px 8px}</style>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
