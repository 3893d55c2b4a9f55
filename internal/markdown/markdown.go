// Package markdown adapts goldmark to the two render capabilities a page needs:
// the full HTML body and a table of contents built from the same headings.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/highlight"
)

// Renderer is the render(markup) -> html capability.
type Renderer interface {
	Render(source []byte) (string, error)
}

// Func adapts a plain function to Renderer.
type Func func(source []byte) (string, error)

// Render implements Renderer.
func (f Func) Render(source []byte) (string, error) { return f(source) }

// Options configures the goldmark pipeline shared by content and TOC rendering.
type Options struct {
	// HardWraps renders soft line breaks as <br>.
	HardWraps bool
	// Unsafe passes raw HTML in the markup through unchanged.
	Unsafe bool
	// Highlighter renders fenced and indented code blocks. Nil leaves goldmark's
	// default code block output.
	Highlighter highlight.Highlighter
}

// New builds the goldmark instance used by both renderers. Heading IDs are
// generated automatically so TOC anchors match the content.
func New(opts Options) goldmark.Markdown {
	rendererOpts := []renderer.Option{}
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	if opts.Highlighter != nil {
		rendererOpts = append(rendererOpts, renderer.WithNodeRenderers(
			util.Prioritized(newCodeBlockRenderer(opts.Highlighter), 100),
		))
	}

	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

// ContentRenderer renders a markdown body to HTML.
type ContentRenderer struct {
	md goldmark.Markdown
}

// NewContentRenderer creates a ContentRenderer.
func NewContentRenderer(opts Options) *ContentRenderer {
	return &ContentRenderer{md: New(opts)}
}

// Render implements Renderer.
func (r *ContentRenderer) Render(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "failed to render markdown").Build()
	}
	return buf.String(), nil
}
