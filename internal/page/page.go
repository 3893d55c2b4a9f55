// Package page renders one source document into one HTML file: read the
// template and the document, split off the front matter, render the body as
// content and as a table of contents, merge the variables and fill the
// template.
package page

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebake/internal/config"
	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/frontmatter"
	"git.home.luguber.info/inful/sitebake/internal/logfields"
	"git.home.luguber.info/inful/sitebake/internal/markdown"
	"git.home.luguber.info/inful/sitebake/internal/observability"
	"git.home.luguber.info/inful/sitebake/internal/registry"
	"git.home.luguber.info/inful/sitebake/internal/templates"
	"git.home.luguber.info/inful/sitebake/internal/vars"
)

// Keys bound for every page before metadata is merged in.
const (
	KeyTitle   = "title"
	KeyContent = "content"
	KeyTOC     = "toc"
	KeyCSS     = "css"
	KeyJS      = "js"
)

// Options configures a Renderer.
type Options struct {
	SourceDir     string
	Extension     string
	OutputDir     string
	Delimiter     string
	LeftDelim     string
	RightDelim    string
	Strict        bool
	TitleFallback config.TitleFallback
	ListFields    []string
}

// OptionsFromConfig extracts the renderer options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SourceDir:     cfg.Source.Directory,
		Extension:     cfg.Source.Extension,
		OutputDir:     cfg.Output.Directory,
		Delimiter:     cfg.Frontmatter.Delimiter,
		LeftDelim:     cfg.Template.LeftDelim,
		RightDelim:    cfg.Template.RightDelim,
		Strict:        cfg.Template.Strict,
		TitleFallback: cfg.Render.TitleFallback,
		ListFields:    cfg.Frontmatter.ListFields,
	}
}

// Result describes a rendered page.
type Result struct {
	Document    string
	Source      string
	Output      string
	Frontmatter string
	Body        string
	Vars        *vars.Map
	// Lists holds the comma separated items of the configured list fields.
	Lists map[string][]string
	// Warnings are recovered parse problems.
	Warnings []error
}

// Renderer renders pages against a shared Registry.
type Renderer struct {
	fs   afero.Fs
	reg  *registry.Registry
	opts Options
}

// NewRenderer creates a Renderer.
func NewRenderer(fsys afero.Fs, reg *registry.Registry, opts Options) *Renderer {
	if opts.Delimiter == "" {
		opts.Delimiter = frontmatter.DefaultDelimiter
	}
	if opts.Extension == "" {
		opts.Extension = ".md"
	}
	return &Renderer{fs: fsys, reg: reg, opts: opts}
}

// OutputPath returns where docPath is written.
func (r *Renderer) OutputPath(docPath string) (string, error) {
	return OutputPath(r.opts.OutputDir, docPath)
}

// RenderFile renders the document at docPath (relative to the source
// directory, without extension) through the template at templatePath and
// writes the result. The content is rendered by the registry's primary
// renderer.
func (r *Renderer) RenderFile(ctx context.Context, docPath, templatePath string) (*Result, error) {
	return r.RenderFileWith(ctx, docPath, templatePath, r.reg.Content())
}

// RenderFileWith is RenderFile with content rendered by rd instead of the
// registry's primary renderer. The table of contents always comes from the
// registry. A nil rd falls back to the registry.
func (r *Renderer) RenderFileWith(ctx context.Context, docPath, templatePath string, rd markdown.Renderer) (*Result, error) {
	if rd == nil {
		rd = r.reg.Content()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpl, err := afero.ReadFile(r.fs, templatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("template not found: "+templatePath).
				WithContext("template", templatePath).
				Build()
		}
		return nil, ferrors.FileSystemError("read template "+templatePath).
			WithCause(err).
			WithContext("template", templatePath).
			Build()
	}

	srcPath, err := SourcePath(r.opts.SourceDir, docPath, r.opts.Extension)
	if err != nil {
		return nil, err
	}
	outPath, err := r.OutputPath(docPath)
	if err != nil {
		return nil, err
	}
	ctx = observability.WithDocument(ctx, docPath)

	raw, err := afero.ReadFile(r.fs, srcPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.NotFoundError("document not found: "+srcPath).
				WithContext("document", docPath).
				WithContext("path", srcPath).
				Build()
		}
		return nil, ferrors.FileSystemError("read document "+srcPath).
			WithCause(err).
			WithContext("path", srcPath).
			Build()
	}

	result := &Result{Document: docPath, Source: srcPath, Output: outPath}

	doc, parseErr := frontmatter.Parse(string(raw), r.opts.Delimiter)
	if parseErr != nil {
		observability.WarnContext(ctx, "Recovered front matter problem",
			logfields.Path(srcPath),
			logfields.Error(parseErr))
		result.Warnings = append(result.Warnings, parseErr)
	}
	result.Frontmatter = doc.Block
	result.Body = doc.Body

	content, err := rd.Render([]byte(doc.Body))
	if err != nil {
		return nil, renderFailure(err, "content", docPath, srcPath)
	}
	toc, err := r.reg.TOC().Render([]byte(doc.Body))
	if err != nil {
		return nil, renderFailure(err, "toc", docPath, srcPath)
	}

	values := vars.New()
	values.Set(KeyTitle, "")
	values.Set(KeyContent, content)
	values.Set(KeyTOC, toc)
	values.Set(KeyCSS, r.reg.CSS())
	values.Set(KeyJS, r.reg.JS())
	values.Merge(doc.Vars)
	if !doc.Vars.Has(KeyTitle) {
		values.Set(KeyTitle, fallbackTitle(r.opts.TitleFallback, docPath, content))
	}
	result.Vars = values

	if len(r.opts.ListFields) > 0 {
		result.Lists = make(map[string][]string, len(r.opts.ListFields))
		for _, key := range r.opts.ListFields {
			if doc.Vars.Has(key) {
				result.Lists[key] = doc.Vars.List(key)
			}
		}
	}

	page, err := templates.Substitute(string(tmpl), values, templates.Options{
		Strict:     r.opts.Strict,
		Name:       templatePath,
		LeftDelim:  r.opts.LeftDelim,
		RightDelim: r.opts.RightDelim,
	})
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return nil, ce.WithContext("document", docPath)
		}
		return nil, err
	}

	if err := r.fs.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, ferrors.FileSystemError("create output directory for "+outPath).
			WithCause(err).
			WithContext("path", outPath).
			Build()
	}
	if err := afero.WriteFile(r.fs, outPath, []byte(page), 0o644); err != nil {
		return nil, ferrors.FileSystemError("write "+outPath).
			WithCause(err).
			WithContext("path", outPath).
			Build()
	}

	observability.InfoContext(ctx, "Rendered page", logfields.Document(docPath), logfields.Output(outPath))
	return result, nil
}

func renderFailure(err error, stage, docPath, srcPath string) error {
	return ferrors.WrapError(err, ferrors.CategoryRender, "render "+stage+" of "+srcPath).
		WithContext("document", docPath).
		WithContext("path", srcPath).
		Build()
}
