package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
	),
)

// Selection is one card the user worked through, with their answer.
type Selection struct {
	CardTitle string `json:"cardTitle" binding:"required"`
	Prompt    string `json:"prompt"`
	Answer    string `json:"answer"`
}

// Document is the full input for a printable report.
type Document struct {
	Title      string      `json:"title"`
	Selections []Selection `json:"selections" binding:"required,min=1,max=12,dive"`
	Reflection string      `json:"reflection"`
}

// Render produces the printable HTML report. Card answers and the closing
// reflection are treated as markdown; titles are escaped verbatim.
func Render(doc *Document, generatedAt time.Time) (string, error) {
	var body strings.Builder
	for i, sel := range doc.Selections {
		fmt.Fprintf(&body, "\n## %d. %s\n\n", i+1, escapeMarkdownHeading(sel.CardTitle))
		if p := strings.TrimSpace(sel.Prompt); p != "" {
			fmt.Fprintf(&body, "> %s\n\n", p)
		}
		if a := strings.TrimSpace(sel.Answer); a != "" {
			body.WriteString(a)
			body.WriteString("\n")
		}
	}
	if r := strings.TrimSpace(doc.Reflection); r != "" {
		body.WriteString("\n## Reflection\n\n")
		body.WriteString(r)
		body.WriteString("\n")
	}

	var rendered bytes.Buffer
	if err := markdownEngine.Convert([]byte(body.String()), &rendered); err != nil {
		return "", fmt.Errorf("render report body: %w", err)
	}

	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = "Reflection Report"
	}

	return wrapDocument(title, rendered.String(), generatedAt), nil
}

func escapeMarkdownHeading(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func wrapDocument(title, body string, generatedAt time.Time) string {
	escapedTitle := template.HTMLEscapeString(title)
	return `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>` + escapedTitle + `</title>
  <style>
    body { margin: 0; padding: 32px; font: 15px/1.7 Georgia, "Times New Roman", serif; color: #1a1a1a; background: #fff; }
    main { max-width: 720px; margin: 0 auto; }
    h1 { margin: 0 0 8px; font-size: 26px; }
    h2 { margin: 28px 0 8px; font-size: 19px; border-bottom: 1px solid #e5e5e5; padding-bottom: 4px; }
    blockquote { margin: 0 0 12px; padding-left: 14px; border-left: 3px solid #ddd; color: #555; font-style: italic; }
    footer { margin-top: 40px; font-size: 12px; color: #999; }
    @media print { body { padding: 0; } }
  </style>
</head>
<body>
  <main>
    <h1>` + escapedTitle + `</h1>
` + body + `
    <footer>Generated ` + generatedAt.UTC().Format("2006-01-02 15:04 MST") + `</footer>
  </main>
</body>
</html>`
}
