// Package highlight turns source code into highlighted HTML using chroma.
package highlight

import (
	"bytes"
	"html"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
)

// Highlighter is the highlight_code capability used for fenced code blocks.
type Highlighter interface {
	Highlight(code, language string) (string, error)
}

// Options configures the chroma highlighter.
type Options struct {
	Style       string
	Classes     bool
	LineNumbers bool
}

// Chroma implements Highlighter with a fixed style and formatter.
type Chroma struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// New builds a Chroma highlighter. Unknown styles fall back to chroma's default.
func New(opts Options) *Chroma {
	style := styles.Get(opts.Style)
	if style == nil {
		style = styles.Fallback
	}

	formatterOpts := []chromahtml.Option{
		chromahtml.WithClasses(opts.Classes),
		chromahtml.WithLineNumbers(opts.LineNumbers),
	}
	return &Chroma{
		style:     style,
		formatter: chromahtml.New(formatterOpts...),
	}
}

// Highlight renders code as HTML. An empty or unknown language is treated as
// plain text.
func (c *Chroma) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(strings.TrimSpace(language))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "failed to tokenise code block").
			WithContext("language", language).
			Build()
	}

	var buf bytes.Buffer
	if err := c.formatter.Format(&buf, c.style, iterator); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "failed to format code block").
			WithContext("language", language).
			Build()
	}
	return buf.String(), nil
}

// WriteCSS writes the stylesheet matching class-based output.
func (c *Chroma) WriteCSS(w io.Writer) error {
	return c.formatter.WriteCSS(w, c.style)
}

// Plain is a Highlighter that only escapes code. It keeps the markup of
// highlighted blocks without depending on a lexer.
type Plain struct{}

// Highlight implements Highlighter.
func (Plain) Highlight(code, language string) (string, error) {
	var b strings.Builder
	b.WriteString("<pre><code")
	if language != "" {
		b.WriteString(` class="language-`)
		b.WriteString(html.EscapeString(language))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(html.EscapeString(code))
	b.WriteString("</code></pre>\n")
	return b.String(), nil
}
