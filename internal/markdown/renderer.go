// Package markdown converts instruction bodies to HTML and points their
// links and image references at the service routes.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"

	highlighting "github.com/yuin/goldmark-highlighting/v2"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Heading is one table-of-contents entry collected while rendering.
type Heading struct {
	ID    string
	Title string
	Level int
}

// Rendered is the outcome of converting one document body.
type Rendered struct {
	HTML template.HTML
	TOC  []Heading
}

// Renderer converts markdown to HTML. A conversion failure never escapes:
// it degrades to an inline error paragraph so the page still renders.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
				extension.Footnote,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				// Instruction files are owned by the operator; embedded
				// HTML passes through unchanged.
				html.WithUnsafe(),
			),
		),
	}
}

// Render converts content to HTML and collects its headings.
func (r *Renderer) Render(content string) (out Rendered) {
	defer func() {
		if rec := recover(); rec != nil {
			out = renderFallback(fmt.Errorf("%v", rec))
		}
	}()

	source := []byte(content)
	doc := r.md.Parser().Parse(text.NewReader(source))

	var toc []Heading
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			entry := Heading{
				Title: string(heading.Text(source)),
				Level: heading.Level,
			}
			if id, found := heading.AttributeString("id"); found {
				if b, ok := id.([]byte); ok {
					entry.ID = string(b)
				}
			}
			toc = append(toc, entry)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return renderFallback(err)
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return renderFallback(err)
	}
	return Rendered{HTML: template.HTML(buf.String()), TOC: toc}
}

func renderFallback(err error) Rendered {
	msg := template.HTMLEscapeString(err.Error())
	return Rendered{HTML: template.HTML("<p>Content rendering error: " + msg + "</p>")}
}
