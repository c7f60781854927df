package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const styleCSS = `
body{font-family:Georgia,serif;max-width:1000px;margin:0 auto;padding:1rem;color:#1c1917;}
h1{border-bottom:2px solid #0f766e;padding-bottom:0.3rem;}
h2{color:#0f766e;}
table{width:100%;border-collapse:collapse;font-size:0.85rem;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
a{color:#1d4ed8;}
@media print{ @page{size:auto;margin:12mm;} body{padding:0;} }
`

// RenderHTML converts a report's markdown into a self-contained HTML
// document suitable for the browser or the PDF renderer.
func RenderHTML(title, markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + styleCSS + "</style></head><body>" +
		content.String() +
		"</body></html>", nil
}
