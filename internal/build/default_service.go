package build

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebake/internal/assets"
	"git.home.luguber.info/inful/sitebake/internal/config"
	"git.home.luguber.info/inful/sitebake/internal/docs"
	derrors "git.home.luguber.info/inful/sitebake/internal/docs/errors"
	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/logfields"
	"git.home.luguber.info/inful/sitebake/internal/manifest"
	"git.home.luguber.info/inful/sitebake/internal/markdown"
	"git.home.luguber.info/inful/sitebake/internal/metrics"
	"git.home.luguber.info/inful/sitebake/internal/observability"
	"git.home.luguber.info/inful/sitebake/internal/page"
	"git.home.luguber.info/inful/sitebake/internal/registry"
	"git.home.luguber.info/inful/sitebake/internal/templates"
	"git.home.luguber.info/inful/sitebake/internal/version"
)

// DefaultBuildService is the standard implementation of BuildService.
// It orchestrates the full pipeline: clean → discovery → collision guard →
// template → registry → pages → manifest.
type DefaultBuildService struct {
	fs        afero.Fs
	recorder  metrics.Recorder
	idFactory func() string
	now       func() time.Time
}

// NewBuildService creates a new DefaultBuildService working on fsys.
// A nil fsys means the OS filesystem.
func NewBuildService(fsys afero.Fs) *DefaultBuildService {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &DefaultBuildService{
		fs:        fsys,
		recorder:  metrics.NoopRecorder{},
		idFactory: uuid.NewString,
		now:       time.Now,
	}
}

// WithRecorder sets the metrics recorder. A nil recorder disables metrics.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithIDFactory allows injecting a deterministic build id source (for testing).
func (s *DefaultBuildService) WithIDFactory(factory func() string) *DefaultBuildService {
	s.idFactory = factory
	return s
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := s.now()
	buildID := s.idFactory()

	result := &BuildResult{
		StartTime: startTime,
		BuildID:   buildID,
	}
	ctx = observability.WithBuildID(ctx, buildID)

	if req.Config == nil {
		return s.fail(result, "", ferrors.ConfigError("config required").Build())
	}
	cfg := req.Config
	result.OutputPath = cfg.Output.Directory

	// The previous manifest must be read before a clean removes it.
	var previous *manifest.BuildManifest
	if cfg.Build.Manifest {
		previous = s.previousManifest(ctx, cfg.Output.Directory)
		if previous != nil {
			result.PreviousBuildID = previous.ID
		}
	}

	// Stage 1: clean output
	if cfg.Output.Clean {
		stageStart := time.Now()
		ctx = observability.WithStage(ctx, "clean")
		observability.InfoContext(ctx, "Removing output directory", logfields.Path(cfg.Output.Directory))
		if err := s.fs.RemoveAll(cfg.Output.Directory); err != nil {
			return s.fail(result, "clean", ferrors.FileSystemError("remove output directory "+cfg.Output.Directory).
				WithCause(err).
				WithContext("path", cfg.Output.Directory).
				Build())
		}
		s.stageDone("clean", stageStart)
	}

	// Stage 2: work out which documents to render
	stageStart := time.Now()
	ctx = observability.WithStage(ctx, "discovery")
	docFiles, err := s.documents(ctx, cfg, req.Documents)
	if err != nil {
		return s.fail(result, "discovery", err)
	}
	observability.InfoContext(ctx, "Documents selected", logfields.Count(len(docFiles)))
	s.stageDone("discovery", stageStart)

	// Stage 3: distinct documents must map to distinct output files
	stageStart = time.Now()
	ctx = observability.WithStage(ctx, "collisions")
	if err := checkCollisions(ctx, cfg.Output.Directory, docFiles); err != nil {
		return s.fail(result, "collisions", err)
	}
	s.stageDone("collisions", stageStart)

	// Stage 4: template pre-flight
	stageStart = time.Now()
	ctx = observability.WithStage(ctx, "template")
	tmpl, placeholders, err := s.loadTemplate(cfg)
	if err != nil {
		return s.fail(result, "template", err)
	}
	observability.DebugContext(ctx, "Template placeholders",
		logfields.Template(cfg.Template.Path),
		slog.String("keys", strings.Join(placeholders, ",")))
	s.stageDone("template", stageStart)

	if err := ctx.Err(); err != nil {
		return s.fail(result, "registry", err)
	}

	// Stage 5: registry (renderers + assets)
	stageStart = time.Now()
	ctx = observability.WithStage(ctx, "registry")
	reg, err := registry.New(ctx, s.fs, cfg)
	if err != nil {
		return s.fail(result, "registry", err)
	}
	s.recordAssets(reg.Assets())
	result.AssetsCopied = len(reg.Assets())
	s.stageDone("registry", stageStart)

	// Stage 6: pages
	stageStart = time.Now()
	ctx = observability.WithStage(ctx, "pages")
	renderer := page.NewRenderer(s.fs, reg, page.OptionsFromConfig(cfg))
	pages, err := s.renderPages(ctx, renderer, cfg, req.Renderer, docFiles)
	if err != nil {
		return s.fail(result, "pages", err)
	}
	for _, p := range pages {
		result.Pages = append(result.Pages, p.Output)
		result.Warnings += len(p.Warnings)
	}
	result.Unfilled = unfilledPlaceholders(placeholders, pages)
	if len(result.Unfilled) > 0 {
		observability.WarnContext(ctx, "Template placeholders no page defines",
			logfields.Template(cfg.Template.Path),
			slog.String("keys", strings.Join(result.Unfilled, ",")))
	}
	s.stageDone("pages", stageStart)

	// Stage 7: manifest
	if cfg.Build.Manifest {
		stageStart = time.Now()
		ctx = observability.WithStage(ctx, "manifest")
		m, err := s.buildManifest(cfg, result, tmpl, docFiles, pages, reg.Assets())
		if err != nil {
			return s.fail(result, "manifest", err)
		}
		if previous != nil {
			result.Unchanged = sameOutputs(previous, m)
			observability.InfoContext(ctx, "Compared with previous build",
				slog.String("previous_build", previous.ID),
				slog.Bool("unchanged", result.Unchanged))
		}
		path, err := m.Write(s.fs, cfg.Output.Directory)
		if err != nil {
			return s.fail(result, "manifest", ferrors.WrapError(err, ferrors.CategoryFileSystem, "write manifest").
				WithContext("path", filepath.Join(cfg.Output.Directory, manifest.FileName)).
				Build())
		}
		result.ManifestPath = path
		observability.DebugContext(ctx, "Manifest written", logfields.Path(path))
		s.stageDone("manifest", stageStart)
	}

	result.Status = BuildStatusSuccess
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(startTime)
	outcome := metrics.BuildOutcomeSuccess
	if result.Warnings > 0 {
		outcome = metrics.BuildOutcomeWarning
	}
	s.recorder.IncBuildOutcome(outcome)
	s.recorder.ObserveBuildDuration(result.Duration)

	observability.InfoContext(ctx, "Build completed",
		logfields.Count(len(result.Pages)),
		slog.Int("assets", result.AssetsCopied),
		slog.Int("warnings", result.Warnings),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

// Assets runs only the asset collector for every configured kind and returns
// the copied assets.
func (s *DefaultBuildService) Assets(ctx context.Context, cfg *config.Config) ([]assets.Asset, error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("config required").Build()
	}
	ctx = observability.WithBuildID(ctx, s.idFactory())
	stageStart := time.Now()
	reg, err := registry.New(ctx, s.fs, cfg)
	if err != nil {
		s.recorder.IncStageResult("registry", stageResult(err))
		return nil, err
	}
	s.recordAssets(reg.Assets())
	s.stageDone("registry", stageStart)
	return reg.Assets(), nil
}

func (s *DefaultBuildService) stageDone(stage string, start time.Time) {
	s.recorder.ObserveStageDuration(stage, time.Since(start))
	s.recorder.IncStageResult(stage, metrics.ResultSuccess)
}

func (s *DefaultBuildService) recordAssets(list []assets.Asset) {
	counts := make(map[string]int)
	for _, a := range list {
		counts[a.Kind]++
	}
	for kind, n := range counts {
		s.recorder.AddAssetsCopied(kind, n)
	}
}

// fail finalizes result for an aborted run. Cancellation is reported as
// BuildStatusCancelled, everything else as BuildStatusFailed.
func (s *DefaultBuildService) fail(result *BuildResult, stage string, err error) (*BuildResult, error) {
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if stage != "" {
		s.recorder.IncStageResult(stage, stageResult(err))
	}
	if isCancellation(err) {
		result.Status = BuildStatusCancelled
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
		return result, err
	}
	result.Status = BuildStatusFailed
	s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
	return result, err
}

func stageResult(err error) metrics.ResultLabel {
	if isCancellation(err) {
		return metrics.ResultCanceled
	}
	return metrics.ResultFatal
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// documents returns the requested documents, or every document under the
// source directory when none were requested.
func (s *DefaultBuildService) documents(ctx context.Context, cfg *config.Config, requested []string) ([]docs.DocFile, error) {
	if len(requested) == 0 {
		discovery := docs.NewDiscovery(s.fs, cfg.Source.Directory, cfg.Source.Extension)
		files, err := discovery.DiscoverDocs()
		if err != nil {
			return nil, err
		}
		bySection := discovery.GetDocFilesBySection()
		sections := make([]string, 0, len(bySection))
		for section := range bySection {
			sections = append(sections, section)
		}
		sort.Strings(sections)
		for _, section := range sections {
			observability.DebugContext(ctx, "Section discovered",
				slog.String("section", section),
				logfields.Count(len(bySection[section])))
		}
		return files, nil
	}

	files := make([]docs.DocFile, 0, len(requested))
	for _, name := range requested {
		docPath, err := page.CleanDocumentPath(strings.TrimSuffix(filepath.ToSlash(name), cfg.Source.Extension))
		if err != nil {
			return nil, err
		}
		srcPath, err := page.SourcePath(cfg.Source.Directory, docPath, cfg.Source.Extension)
		if err != nil {
			return nil, err
		}
		rel := filepath.FromSlash(docPath) + cfg.Source.Extension
		section := filepath.Dir(rel)
		if section == "." {
			section = ""
		}
		files = append(files, docs.DocFile{
			Path:         srcPath,
			RelativePath: rel,
			Section:      section,
			Name:         filepath.Base(filepath.FromSlash(docPath)),
			Extension:    cfg.Source.Extension,
		})
	}
	return files, nil
}

// checkCollisions rejects two documents that would write the same output
// file. Paths differing only in case are allowed but logged, since they
// collide on case-insensitive filesystems.
func checkCollisions(ctx context.Context, outputDir string, files []docs.DocFile) error {
	seen := make(map[string]string, len(files))
	folded := make(map[string]string, len(files))
	for i := range files {
		doc := files[i].DocumentPath()
		out, err := page.OutputPath(outputDir, doc)
		if err != nil {
			return err
		}
		if prev, ok := seen[out]; ok {
			return ferrors.BuildError("documents "+prev+" and "+doc+" both write "+out).
				WithCause(derrors.ErrPathCollision).
				WithContext("output", out).
				WithContext("document", doc).
				WithContext("previous", prev).
				Build()
		}
		seen[out] = doc

		key := strings.ToLower(out)
		if prev, ok := folded[key]; ok {
			observability.WarnContext(ctx, "Output paths differ only in case",
				logfields.Document(doc),
				slog.String("previous", prev),
				logfields.Output(out))
			continue
		}
		folded[key] = doc
	}
	return nil
}

// renderPages renders files in order, or through a bounded pool when more
// than one worker is configured. Results keep the order of files.
func (s *DefaultBuildService) renderPages(ctx context.Context, renderer *page.Renderer, cfg *config.Config, rd markdown.Renderer, files []docs.DocFile) ([]*page.Result, error) {
	workers := cfg.Build.Workers
	if workers < 1 {
		workers = 1
	}
	s.recorder.SetWorkers(workers)
	observability.InfoContext(ctx, "Rendering pages",
		logfields.Count(len(files)),
		logfields.Workers(workers))

	results := make([]*page.Result, len(files))
	render := func(ctx context.Context, i int) error {
		res, err := renderer.RenderFileWith(ctx, files[i].DocumentPath(), cfg.Template.Path, rd)
		if err != nil {
			s.recorder.IncPageResult(stageResult(err))
			return err
		}
		if len(res.Warnings) > 0 {
			s.recorder.IncPageResult(metrics.ResultWarning)
		} else {
			s.recorder.IncPageResult(metrics.ResultSuccess)
		}
		results[i] = res
		return nil
	}

	if workers == 1 {
		for i := range files {
			if err := render(ctx, i); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range files {
		g.Go(func() error { return render(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// loadTemplate reads the template once up front so a missing or malformed
// template fails the build before any asset is copied.
func (s *DefaultBuildService) loadTemplate(cfg *config.Config) ([]byte, []string, error) {
	tmpl, err := afero.ReadFile(s.fs, cfg.Template.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ferrors.ConfigError("template not found: "+cfg.Template.Path).
				WithContext("template", cfg.Template.Path).
				Build()
		}
		return nil, nil, ferrors.FileSystemError("read template "+cfg.Template.Path).
			WithCause(err).
			WithContext("template", cfg.Template.Path).
			Build()
	}
	names, err := templates.Placeholders(string(tmpl), templates.Options{
		Name:       cfg.Template.Path,
		LeftDelim:  cfg.Template.LeftDelim,
		RightDelim: cfg.Template.RightDelim,
	})
	if err != nil {
		return nil, nil, err
	}
	return tmpl, names, nil
}

// unfilledPlaceholders returns the template keys that no rendered page bound.
func unfilledPlaceholders(names []string, pages []*page.Result) []string {
	var out []string
	for _, name := range names {
		defined := false
		for _, p := range pages {
			if p.Vars.Has(name) {
				defined = true
				break
			}
		}
		if !defined {
			out = append(out, name)
		}
	}
	return out
}

// previousManifest returns the manifest left by the last build, or nil.
func (s *DefaultBuildService) previousManifest(ctx context.Context, outputDir string) *manifest.BuildManifest {
	prev, err := manifest.Read(s.fs, outputDir)
	if err != nil {
		observability.DebugContext(ctx, "No previous manifest", logfields.Error(err))
		return nil
	}
	return prev
}

// sameOutputs reports whether two manifests describe the same inputs and
// outputs.
func sameOutputs(a, b *manifest.BuildManifest) bool {
	ha, err := a.Hash()
	if err != nil {
		return false
	}
	hb, err := b.Hash()
	if err != nil {
		return false
	}
	return ha == hb
}

func (s *DefaultBuildService) buildManifest(cfg *config.Config, result *BuildResult, tmpl []byte, files []docs.DocFile, pages []*page.Result, copied []assets.Asset) (*manifest.BuildManifest, error) {
	m := manifest.New(result.BuildID, result.StartTime)
	m.Version = version.Version
	m.Inputs.SourceDir = cfg.Source.Directory
	m.Inputs.Template = cfg.Template.Path
	m.Inputs.TemplateHash = manifest.HashBytes(tmpl)

	var err error
	if m.Inputs.SourcesHash, err = docs.ComputeDocsHash(s.fs, files); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "hash source documents").Build()
	}
	if m.Inputs.ConfigHash, err = manifest.HashValue(cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "hash configuration").Build()
	}

	for _, p := range pages {
		m.AddPage(manifest.Page{
			Document:    p.Document,
			Source:      p.Source,
			Output:      p.Output,
			Fingerprint: manifest.Fingerprint(p.Frontmatter, p.Body),
			Lists:       p.Lists,
			Warnings:    len(p.Warnings),
		})
	}
	m.SortPages()
	for _, a := range copied {
		m.AddAsset(manifest.Asset{Kind: a.Kind, Source: a.Source, Dest: a.Dest})
	}

	m.Status = string(BuildStatusSuccess)
	m.Duration = s.now().Sub(result.StartTime).Milliseconds()
	return m, nil
}
