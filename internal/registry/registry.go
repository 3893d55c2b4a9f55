// Package registry holds the renderers and asset lists shared by every page of
// a run. A Registry is built once, before the first page, and never changes
// afterwards, so it is safe to share between concurrent page renders.
package registry

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebake/internal/assets"
	"git.home.luguber.info/inful/sitebake/internal/config"
	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/highlight"
	"git.home.luguber.info/inful/sitebake/internal/logfields"
	"git.home.luguber.info/inful/sitebake/internal/markdown"
	"git.home.luguber.info/inful/sitebake/internal/observability"
)

// HighlightStylesheet is the file name of the generated chroma stylesheet
// written next to the collected CSS when class based highlighting is on.
const HighlightStylesheet = "chroma.css"

// Registry owns the content and TOC renderers plus the CSS and JS asset lists.
type Registry struct {
	content markdown.Renderer
	toc     markdown.Renderer
	css     []assets.Asset
	js      []assets.Asset
	cssList string
	jsList  string
}

// New builds a Registry from cfg: content renderer, TOC renderer, then the
// CSS and JS collections, in that order. Assets are copied into the output
// directory as part of construction.
func New(ctx context.Context, fsys afero.Fs, cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("config required").Build()
	}

	ctx = observability.WithStage(ctx, "registry")
	md := cfg.Markdown
	chroma := highlight.New(highlight.Options{
		Style:       md.HighlightStyle,
		Classes:     md.HighlightClasses,
		LineNumbers: md.LineNumbers,
	})
	opts := markdown.Options{HardWraps: md.HardWraps, Unsafe: md.Unsafe, Highlighter: chroma}
	content := markdown.NewContentRenderer(opts)
	toc := markdown.NewTOCRenderer(opts)

	outputDir := cfg.Output.Directory
	css, err := collect(ctx, fsys, cfg.Assets.CSS, assets.CSS(cfg.Assets.CSS.DestDir, cfg.Assets.CSS.Tag), outputDir)
	if err != nil {
		return nil, err
	}
	js, err := collect(ctx, fsys, cfg.Assets.JS, assets.JS(cfg.Assets.JS.DestDir, cfg.Assets.JS.Tag), outputDir)
	if err != nil {
		return nil, err
	}

	if md.HighlightClasses {
		sheet, err := writeHighlightCSS(fsys, chroma, cfg.Assets.CSS, outputDir)
		if err != nil {
			return nil, err
		}
		css = append(css, sheet)
		observability.InfoContext(ctx, "Creating "+sheet.Dest, logfields.Kind(sheet.Kind))
	}

	observability.DebugContext(ctx, "Registry ready",
		logfields.Count(len(css)+len(js)))
	return NewWithRenderers(content, toc, css, js), nil
}

// NewWithRenderers assembles a Registry from already built parts.
func NewWithRenderers(content, toc markdown.Renderer, css, js []assets.Asset) *Registry {
	return &Registry{
		content: content,
		toc:     toc,
		css:     css,
		js:      js,
		cssList: assets.List(assets.Tags(css)),
		jsList:  assets.List(assets.Tags(js)),
	}
}

func collect(ctx context.Context, fsys afero.Fs, kc config.AssetKindConfig, kind assets.Kind, outputDir string) ([]assets.Asset, error) {
	if kc.Skip {
		observability.DebugContext(ctx, "Asset kind skipped", logfields.Kind(kind.Name))
		return nil, nil
	}
	return assets.Collect(ctx, fsys, kind, kc.Source, outputDir)
}

func writeHighlightCSS(fsys afero.Fs, chroma *highlight.Chroma, kc config.AssetKindConfig, outputDir string) (assets.Asset, error) {
	kind := assets.CSS(kc.DestDir, kc.Tag)
	dest := kind.Dest(HighlightStylesheet)
	tag, err := kind.Tag(dest)
	if err != nil {
		return assets.Asset{}, err
	}

	var buf bytes.Buffer
	if err := chroma.WriteCSS(&buf); err != nil {
		return assets.Asset{}, err
	}
	target := filepath.Join(outputDir, filepath.FromSlash(dest))
	if err := fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return assets.Asset{}, ferrors.FileSystemError("create stylesheet directory").WithCause(err).WithContext("path", target).Build()
	}
	if err := afero.WriteFile(fsys, target, buf.Bytes(), 0o644); err != nil {
		return assets.Asset{}, ferrors.FileSystemError("write highlight stylesheet "+target).WithCause(err).WithContext("path", target).Build()
	}
	return assets.Asset{Kind: kind.Name, Dest: dest, Tag: tag}, nil
}

// Content returns the primary render capability.
func (r *Registry) Content() markdown.Renderer { return r.content }

// TOC returns the table-of-contents render capability.
func (r *Registry) TOC() markdown.Renderer { return r.toc }

// CSS returns the stylesheet inclusion tags joined by newlines.
func (r *Registry) CSS() string { return r.cssList }

// JS returns the script inclusion tags joined by newlines.
func (r *Registry) JS() string { return r.jsList }

// Assets returns every collected asset, stylesheets first.
func (r *Registry) Assets() []assets.Asset {
	out := make([]assets.Asset, 0, len(r.css)+len(r.js))
	out = append(out, r.css...)
	return append(out, r.js...)
}
