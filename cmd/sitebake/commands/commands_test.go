package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebake/internal/config"
	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
)

// writeSite lays out a project in a temp dir and returns the config path.
func writeSite(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"templates/default.html": "<html><title>{title}</title>{css}{js}{content}</html>",
		"src/index.md":           "---\ntitle: Home\n---\n# Welcome\n",
		"src/guide/intro.md":     "---\ntitle: Intro\n---\nHello\n",
		"css/site.css":           "body{}",
		"js/app.js":              "void 0;",
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	cfg := strings.Join([]string{
		"source:",
		"  directory: " + filepath.Join(dir, "src"),
		"template:",
		"  path: " + filepath.Join(dir, "templates", "default.html"),
		"output:",
		"  directory: " + filepath.Join(dir, "build"),
		"assets:",
		"  css:",
		"    source: " + filepath.Join(dir, "css"),
		"  js:",
		"    source: " + filepath.Join(dir, "js"),
		"",
	}, "\n")
	cfgPath := filepath.Join(dir, "sitebake.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return dir, cfgPath
}

func TestBuildCmd(t *testing.T) {
	dir, cfgPath := writeSite(t)

	err := (&BuildCmd{}).Run(&Global{}, &CLI{Config: cfgPath})
	require.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(dir, "build", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title> Home</title>")
	assert.Contains(t, string(out), `<link rel="stylesheet" href="css/site.css">`)
	assert.Contains(t, string(out), `<script src="js/app.js"></script>`)
	assert.FileExists(t, filepath.Join(dir, "build", "guide", "intro.html"))
	assert.FileExists(t, filepath.Join(dir, "build", "css", "site.css"))
}

func TestBuildCmdGlobalOverrides(t *testing.T) {
	dir, cfgPath := writeSite(t)
	out := filepath.Join(dir, "public")

	err := (&BuildCmd{}).Run(&Global{}, &CLI{Config: cfgPath, Output: out, Workers: 2})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "index.html"))
}

func TestBuildCmdMetricsTextfile(t *testing.T) {
	dir, cfgPath := writeSite(t)
	prom := filepath.Join(dir, "sitebake.prom")
	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("metrics:\n  textfile: " + prom + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = (&BuildCmd{}).Run(&Global{}, &CLI{Config: cfgPath})
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sitebake_pages_total{result="success"} 2`)
	assert.Contains(t, string(data), `sitebake_build_outcomes_total{outcome="success"} 1`)
}

func TestRenderCmd(t *testing.T) {
	dir, cfgPath := writeSite(t)

	err := (&RenderCmd{Documents: []string{"guide/intro.md"}}).Run(&Global{}, &CLI{Config: cfgPath})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "build", "guide", "intro.html"))
	assert.NoFileExists(t, filepath.Join(dir, "build", "index.html"))
}

func TestRenderCmdMissingDocument(t *testing.T) {
	_, cfgPath := writeSite(t)

	err := (&RenderCmd{Documents: []string{"nope"}}).Run(&Global{}, &CLI{Config: cfgPath})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
	assert.Equal(t, 4, ferrors.NewCLIErrorAdapter(false, slog.Default()).ExitCodeFor(err))
}

func TestAssetsCmd(t *testing.T) {
	dir, cfgPath := writeSite(t)

	err := (&AssetsCmd{}).Run(&Global{}, &CLI{Config: cfgPath})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "build", "css", "site.css"))
	assert.FileExists(t, filepath.Join(dir, "build", "js", "app.js"))
	assert.NoFileExists(t, filepath.Join(dir, "build", "index.html"))
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	cli := &CLI{Config: filepath.Join(t.TempDir(), "missing.yaml")}

	_, err := cli.LoadConfig()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadConfigDefaultsWhenDefaultPathMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := (&CLI{Config: config.DefaultPath}).LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "src", cfg.Source.Directory)
	assert.Equal(t, "build", cfg.Output.Directory)
}

func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	dir, cfgPath := writeSite(t)

	_, err := (&CLI{Config: cfgPath, Output: filepath.Join(dir, "src")}).LoadConfig()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, (&InitCmd{Dir: dir}).Run(&Global{}, &CLI{}))
	path := filepath.Join(dir, config.DefaultPath)
	assert.FileExists(t, path)

	err := (&InitCmd{Dir: dir}).Run(&Global{}, &CLI{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	require.NoError(t, (&InitCmd{Dir: dir, Force: true}).Run(&Global{}, &CLI{}))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Template.Path, cfg.Template.Path)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true))

	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for value, want := range tests {
		t.Run(value, func(t *testing.T) {
			t.Setenv(config.EnvLogLevel, value)
			assert.Equal(t, want, parseLogLevel(false))
		})
	}
}
