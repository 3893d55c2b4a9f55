package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one entry of a document's table of contents.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Headings parses source and returns its headings in document order.
func Headings(md goldmark.Markdown, source []byte) []Heading {
	doc := md.Parser().Parse(text.NewReader(source))

	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		h := Heading{Level: heading.Level, Text: nodeText(heading, source)}
		if id, found := heading.AttributeString("id"); found {
			if b, ok := id.([]byte); ok {
				h.ID = string(b)
			}
		}
		headings = append(headings, h)
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// TOCRenderer renders the table of contents of a markdown body as nested lists
// of anchors pointing at the heading IDs the ContentRenderer emits.
type TOCRenderer struct {
	md goldmark.Markdown
}

// NewTOCRenderer creates a TOCRenderer. It must share Options with the content
// renderer so heading IDs line up.
func NewTOCRenderer(opts Options) *TOCRenderer {
	return &TOCRenderer{md: New(opts)}
}

// Render implements Renderer. A body without headings renders to "".
func (r *TOCRenderer) Render(source []byte) (string, error) {
	return FormatTOC(Headings(r.md, source)), nil
}

// FormatTOC nests headings by level. The shallowest level present becomes the
// outermost list.
func FormatTOC(headings []Heading) string {
	if len(headings) == 0 {
		return ""
	}

	base := headings[0].Level
	for _, h := range headings {
		if h.Level < base {
			base = h.Level
		}
	}

	var b strings.Builder
	current := 0
	for _, h := range headings {
		level := h.Level - base + 1
		switch {
		case level > current:
			for level > current {
				b.WriteString("<ul>\n<li>\n")
				current++
			}
		case level < current:
			b.WriteString("</li>\n")
			for level < current {
				b.WriteString("</ul>\n</li>\n")
				current--
			}
			b.WriteString("<li>\n")
		default:
			b.WriteString("</li>\n<li>\n")
		}
		b.WriteString(`<a href="#`)
		b.WriteString(html.EscapeString(h.ID))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(h.Text))
		b.WriteString("</a>\n")
	}
	for current > 0 {
		b.WriteString("</li>\n</ul>\n")
		current--
	}
	return b.String()
}

func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
