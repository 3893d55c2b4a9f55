package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebake/internal/config"
	derrors "git.home.luguber.info/inful/sitebake/internal/docs/errors"
	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/manifest"
	"git.home.luguber.info/inful/sitebake/internal/markdown"
	"git.home.luguber.info/inful/sitebake/internal/metrics"
)

func TestBuildStatus_IsSuccess(t *testing.T) {
	tests := []struct {
		status   BuildStatus
		expected bool
	}{
		{BuildStatusSuccess, true},
		{BuildStatusFailed, false},
		{BuildStatusCancelled, false},
		{BuildStatus("running"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsSuccess())
		})
	}
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes map[metrics.BuildOutcomeLabel]int
	stages   map[string]metrics.ResultLabel
	pages    map[metrics.ResultLabel]int
	assets   map[string]int
	workers  int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		outcomes: map[metrics.BuildOutcomeLabel]int{},
		stages:   map[string]metrics.ResultLabel{},
		pages:    map[metrics.ResultLabel]int{},
		assets:   map[string]int{},
	}
}

func (f *fakeRecorder) ObserveStageDuration(string, time.Duration) {}
func (f *fakeRecorder) ObserveBuildDuration(time.Duration)         {}

func (f *fakeRecorder) IncStageResult(stage string, r metrics.ResultLabel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages[stage] = r
}

func (f *fakeRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[o]++
}

func (f *fakeRecorder) IncPageResult(r metrics.ResultLabel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[r]++
}

func (f *fakeRecorder) AddAssetsCopied(kind string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[kind] += n
}

func (f *fakeRecorder) SetWorkers(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workers = n
}

// siteFs lays out a small site matching config.Default().
func siteFs(t *testing.T, docs map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"templates/default.html": "<html>{title}{css}{content}</html>",
		"css/site.css":           "body{}",
		"js/app.js":              "void 0;",
	}
	for name, content := range docs {
		files[filepath.Join("src", name)] = content
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	return fsys
}

func newTestService(fsys afero.Fs) (*DefaultBuildService, *fakeRecorder) {
	rec := newFakeRecorder()
	svc := NewBuildService(fsys).
		WithRecorder(rec).
		WithIDFactory(func() string { return "test-build" })
	return svc, rec
}

func TestNewBuildService(t *testing.T) {
	svc := NewBuildService(nil)
	require.NotNil(t, svc)
	assert.NotNil(t, svc.fs)
	assert.IsType(t, metrics.NoopRecorder{}, svc.recorder)
	assert.NotEmpty(t, svc.idFactory())
}

func TestRun_NilConfig(t *testing.T) {
	svc, rec := newTestService(afero.NewMemMapFs())

	result, err := svc.Run(context.Background(), BuildRequest{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.Equal(t, "test-build", result.BuildID)
	assert.Equal(t, 1, rec.outcomes[metrics.BuildOutcomeFailed])
}

func TestRun_FullBuild(t *testing.T) {
	fsys := siteFs(t, map[string]string{
		"index.md":       "---\ntitle: Home\n---\n# Welcome",
		"guide/intro.md": "---\ntitle: Intro\n---\nHello",
	})
	svc, rec := newTestService(fsys)

	result, err := svc.Run(context.Background(), BuildRequest{Config: config.Default()})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
	assert.Equal(t, "build", result.OutputPath)
	assert.Equal(t, []string{
		filepath.Join("build", "guide", "intro.html"),
		filepath.Join("build", "index.html"),
	}, result.Pages)
	assert.Equal(t, 2, result.AssetsCopied)
	assert.Zero(t, result.Warnings)
	assert.False(t, result.EndTime.Before(result.StartTime))

	out, err := afero.ReadFile(fsys, filepath.Join("build", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html> Home<link rel=\"stylesheet\" href=\"css/site.css\"><h1 id=\"welcome\">Welcome</h1>\n</html>", string(out))

	exists, err := afero.Exists(fsys, filepath.Join("build", "js", "app.js"))
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, filepath.Join("build", manifest.FileName), result.ManifestPath)
	m, err := manifest.Read(fsys, "build")
	require.NoError(t, err)
	assert.Equal(t, "test-build", m.ID)
	assert.Equal(t, "success", m.Status)
	require.Len(t, m.Outputs.Pages, 2)
	assert.Equal(t, "guide/intro", m.Outputs.Pages[0].Document)
	assert.NotEmpty(t, m.Outputs.Pages[0].Fingerprint)
	assert.Len(t, m.Outputs.Assets, 2)
	assert.NotEmpty(t, m.Inputs.TemplateHash)
	assert.NotEmpty(t, m.Inputs.SourcesHash)
	assert.NotEmpty(t, m.Inputs.ConfigHash)

	assert.Equal(t, 1, rec.outcomes[metrics.BuildOutcomeSuccess])
	assert.Equal(t, 2, rec.pages[metrics.ResultSuccess])
	assert.Equal(t, 1, rec.assets["css"])
	assert.Equal(t, 1, rec.assets["js"])
	assert.Equal(t, 1, rec.workers)
	assert.Equal(t, metrics.ResultSuccess, rec.stages["manifest"])
}

func TestRun_IdempotentOutput(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "---\ntitle: Home\n---\n# Welcome"})
	svc, _ := newTestService(fsys)
	cfg := config.Default()

	_, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	first, err := afero.ReadFile(fsys, filepath.Join("build", "index.html"))
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	second, err := afero.ReadFile(fsys, filepath.Join("build", "index.html"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_WarningsRecorded(t *testing.T) {
	fsys := siteFs(t, map[string]string{"odd.md": "---\nnot a pair\n---\nBody"})
	svc, rec := newTestService(fsys)

	result, err := svc.Run(context.Background(), BuildRequest{Config: config.Default()})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
	assert.Equal(t, 1, result.Warnings)
	assert.Equal(t, 1, rec.outcomes[metrics.BuildOutcomeWarning])
	assert.Equal(t, 1, rec.pages[metrics.ResultWarning])
}

func TestRun_RequestedDocuments(t *testing.T) {
	fsys := siteFs(t, map[string]string{
		"index.md": "# Index",
		"other.md": "# Other",
	})
	svc, _ := newTestService(fsys)
	cfg := config.Default()
	cfg.Template.Strict = false

	result, err := svc.Run(context.Background(), BuildRequest{Config: cfg, Documents: []string{"index.md"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("build", "index.html")}, result.Pages)

	exists, err := afero.Exists(fsys, filepath.Join("build", "other.html"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_OutputCollision(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "# Index"})
	svc, rec := newTestService(fsys)

	result, err := svc.Run(context.Background(), BuildRequest{
		Config:    config.Default(),
		Documents: []string{"index", "./index.md"},
	})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
	assert.ErrorIs(t, err, derrors.ErrPathCollision)
	assert.Equal(t, metrics.ResultFatal, rec.stages["collisions"])

	exists, err := afero.Exists(fsys, filepath.Join("build", "index.html"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_MissingDocument(t *testing.T) {
	fsys := siteFs(t, nil)
	svc, _ := newTestService(fsys)

	result, err := svc.Run(context.Background(), BuildRequest{
		Config:    config.Default(),
		Documents: []string{"missing"},
	})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	assert.Contains(t, err.Error(), filepath.Join("src", "missing.md"))
}

func TestRun_EscapingDocumentRejected(t *testing.T) {
	svc, _ := newTestService(siteFs(t, nil))

	_, err := svc.Run(context.Background(), BuildRequest{
		Config:    config.Default(),
		Documents: []string{"../secret"},
	})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestRun_MissingAssetDirectory(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "# Index"})
	require.NoError(t, fsys.RemoveAll("js"))
	svc, rec := newTestService(fsys)

	result, err := svc.Run(context.Background(), BuildRequest{Config: config.Default()})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Equal(t, metrics.ResultFatal, rec.stages["registry"])
}

func TestRun_WorkerPool(t *testing.T) {
	docs := map[string]string{}
	names := []string{"a", "b", "c", "d", "e", "f"}
	for _, n := range names {
		docs[n+".md"] = "---\ntitle: " + n + "\n---\n# " + n
	}
	fsys := siteFs(t, docs)
	svc, rec := newTestService(fsys)
	cfg := config.Default()
	cfg.Build.Workers = 3

	result, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	require.Len(t, result.Pages, len(names))
	for i, n := range names {
		assert.Equal(t, filepath.Join("build", n+".html"), result.Pages[i])
	}
	assert.Equal(t, 3, rec.workers)
	assert.Equal(t, len(names), rec.pages[metrics.ResultSuccess])
}

func TestRun_WorkerPoolStopsOnError(t *testing.T) {
	fsys := siteFs(t, map[string]string{
		"a.md": "# A",
		"b.md": "# B",
	})
	require.NoError(t, afero.WriteFile(fsys, "templates/default.html", []byte("{missing}"), 0o644))
	svc, _ := newTestService(fsys)
	cfg := config.Default()
	cfg.Build.Workers = 2

	result, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))
}

func TestRun_CancelledContext(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "# Index"})
	svc, rec := newTestService(fsys)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.Run(ctx, BuildRequest{Config: config.Default()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, BuildStatusCancelled, result.Status)
	assert.Equal(t, 1, rec.outcomes[metrics.BuildOutcomeCanceled])
}

func TestRun_CleanOutput(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "# Index"})
	require.NoError(t, afero.WriteFile(fsys, filepath.Join("build", "stale.html"), []byte("old"), 0o644))
	svc, _ := newTestService(fsys)
	cfg := config.Default()
	cfg.Output.Clean = true
	cfg.Template.Strict = false

	_, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)

	exists, err := afero.Exists(fsys, filepath.Join("build", "stale.html"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_ManifestDisabled(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "# Index"})
	svc, _ := newTestService(fsys)
	cfg := config.Default()
	cfg.Build.Manifest = false
	cfg.Template.Strict = false

	result, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Empty(t, result.ManifestPath)

	exists, err := afero.Exists(fsys, filepath.Join("build", manifest.FileName))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_RendererOverride(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "---\ntitle: Home\n---\nhello"})
	svc, _ := newTestService(fsys)
	upper := markdown.Func(func(src []byte) (string, error) {
		return "<pre>" + strings.ToUpper(string(src)) + "</pre>", nil
	})

	_, err := svc.Run(context.Background(), BuildRequest{Config: config.Default(), Renderer: upper})
	require.NoError(t, err)

	out, err := afero.ReadFile(fsys, filepath.Join("build", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html> Home<link rel=\"stylesheet\" href=\"css/site.css\"><pre>HELLO</pre></html>", string(out))
}

func TestRun_RendererOverrideFailure(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "# Index"})
	svc, rec := newTestService(fsys)
	broken := markdown.Func(func([]byte) (string, error) { return "", errors.New("boom") })

	result, err := svc.Run(context.Background(), BuildRequest{Config: config.Default(), Renderer: broken})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRender))
	assert.Equal(t, metrics.ResultFatal, rec.stages["pages"])
}

func TestRun_MissingTemplateStopsBeforeAssets(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "# Index"})
	require.NoError(t, fsys.Remove("templates/default.html"))
	svc, rec := newTestService(fsys)

	result, err := svc.Run(context.Background(), BuildRequest{Config: config.Default()})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Contains(t, err.Error(), "templates/default.html")
	assert.Equal(t, metrics.ResultFatal, rec.stages["template"])
	assert.Zero(t, result.AssetsCopied)

	exists, err := afero.Exists(fsys, filepath.Join("build", "css", "site.css"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_UnfilledPlaceholders(t *testing.T) {
	t.Run("reported when no page defines the key", func(t *testing.T) {
		fsys := siteFs(t, map[string]string{
			"a.md": "---\ntitle: A\n---\nA",
			"b.md": "---\ntitle: B\n---\nB",
		})
		require.NoError(t, afero.WriteFile(fsys, "templates/default.html",
			[]byte("<html>{title}{subtitle}{content}{footer}</html>"), 0o644))
		svc, _ := newTestService(fsys)
		cfg := config.Default()
		cfg.Template.Strict = false

		result, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
		require.NoError(t, err)
		assert.Equal(t, []string{"subtitle", "footer"}, result.Unfilled)

		out, err := afero.ReadFile(fsys, filepath.Join("build", "a.html"))
		require.NoError(t, err)
		assert.Contains(t, string(out), "{subtitle}")
	})

	t.Run("defined by one page is enough", func(t *testing.T) {
		fsys := siteFs(t, map[string]string{
			"a.md": "---\ntitle: A\nsubtitle: first\n---\nA",
			"b.md": "---\ntitle: B\n---\nB",
		})
		require.NoError(t, afero.WriteFile(fsys, "templates/default.html",
			[]byte("<html>{title}{subtitle}{content}</html>"), 0o644))
		svc, _ := newTestService(fsys)
		cfg := config.Default()
		cfg.Template.Strict = false

		result, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
		require.NoError(t, err)
		assert.Empty(t, result.Unfilled)
	})
}

func TestRun_PreviousManifest(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "---\ntitle: Home\n---\n# Welcome"})
	n := 0
	svc := NewBuildService(fsys).WithIDFactory(func() string {
		n++
		return fmt.Sprintf("build-%d", n)
	})
	cfg := config.Default()

	first, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Empty(t, first.PreviousBuildID)
	assert.False(t, first.Unchanged)

	second, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, "build-1", second.PreviousBuildID)
	assert.True(t, second.Unchanged)

	require.NoError(t, afero.WriteFile(fsys, filepath.Join("src", "index.md"),
		[]byte("---\ntitle: Home\n---\n# Changed"), 0o644))
	third, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, "build-2", third.PreviousBuildID)
	assert.False(t, third.Unchanged)

	m, err := manifest.Read(fsys, "build")
	require.NoError(t, err)
	assert.Equal(t, "build-3", m.ID)
}

func TestRun_PreviousManifestSurvivesClean(t *testing.T) {
	fsys := siteFs(t, map[string]string{"index.md": "# Index"})
	svc, _ := newTestService(fsys)
	cfg := config.Default()
	cfg.Output.Clean = true

	_, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	result, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, "test-build", result.PreviousBuildID)
	assert.True(t, result.Unchanged)
}

func TestAssetsOnly(t *testing.T) {
	fsys := siteFs(t, nil)
	svc, rec := newTestService(fsys)

	list, err := svc.Assets(context.Background(), config.Default())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "css/site.css", list[0].Dest)
	assert.Equal(t, "js/app.js", list[1].Dest)
	assert.Equal(t, 1, rec.assets["css"])

	_, err = svc.Assets(context.Background(), nil)
	require.Error(t, err)
}
