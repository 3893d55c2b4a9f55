package commands

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebake/internal/build"
	"git.home.luguber.info/inful/sitebake/internal/config"
	"git.home.luguber.info/inful/sitebake/internal/logfields"
	"git.home.luguber.info/inful/sitebake/internal/metrics"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebake.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Output  string           `short:"o" help:"Override output.directory"`
	Workers int              `short:"w" help:"Override build.workers (0 keeps the configured value)"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Render every document under the source directory"`
	Render RenderCmd `cmd:"" help:"Render the named documents only"`
	Assets AssetsCmd `cmd:"" help:"Collect and copy CSS and JS assets only"`
	Init   InitCmd   `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel returns Debug for --verbose, otherwise the level named by
// SITEBAKE_LOG_LEVEL, defaulting to Info.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(config.EnvLogLevel))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig loads the configuration file and applies the global flag
// overrides. A missing file at the default path falls back to the built-in
// defaults; a missing file named explicitly is an error.
func (c *CLI) LoadConfig() (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(c.Config); errors.Is(err, fs.ErrNotExist) && c.Config == config.DefaultPath {
		if _, envErr := config.LoadEnvFiles(); envErr != nil {
			slog.Warn("Failed to load environment file", logfields.Error(envErr))
		}
		slog.Debug("No configuration file, using defaults", logfields.Path(c.Config))
		cfg = config.Default()
		config.ApplyEnvOverrides(cfg)
	} else {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.Output != "" {
		cfg.Output.Directory = c.Output
	}
	if c.Workers > 0 {
		cfg.Build.Workers = c.Workers
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newService wires a build service on the OS filesystem. The returned
// flush writes the metrics textfile when one is configured.
func newService(cfg *config.Config) (*build.DefaultBuildService, func()) {
	svc := build.NewBuildService(afero.NewOsFs())
	if cfg.Metrics.Textfile == "" {
		return svc, func() {}
	}
	recorder := metrics.NewPrometheusRecorder(nil)
	svc.WithRecorder(recorder)
	return svc, func() {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
			return
		}
		slog.Debug("Metrics written", logfields.Path(cfg.Metrics.Textfile))
	}
}
