package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/logfields"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "sitebake.yaml"

// Config represents the application configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Template    TemplateConfig    `yaml:"template"`
	Frontmatter FrontmatterConfig `yaml:"frontmatter"`
	Output      OutputConfig      `yaml:"output"`
	Assets      AssetsConfig      `yaml:"assets"`
	Markdown    MarkdownConfig    `yaml:"markdown"`
	Render      RenderConfig      `yaml:"render"`
	Build       BuildConfig       `yaml:"build"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// SourceConfig locates the source documents.
type SourceConfig struct {
	Directory string `yaml:"directory"` // Documents root; document paths are relative to it
	Extension string `yaml:"extension"` // Appended to document paths when reading
}

// TemplateConfig describes the page template.
type TemplateConfig struct {
	Path       string `yaml:"path"`
	LeftDelim  string `yaml:"left_delim"`
	RightDelim string `yaml:"right_delim"`
	Strict     bool   `yaml:"strict"` // Unresolved placeholders fail the render
}

// FrontmatterConfig controls the metadata block parser.
type FrontmatterConfig struct {
	Delimiter  string   `yaml:"delimiter"`
	ListFields []string `yaml:"list_fields,omitempty"` // Keys whose values are comma separated lists
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// AssetsConfig holds one entry per asset kind.
type AssetsConfig struct {
	CSS AssetKindConfig `yaml:"css"`
	JS  AssetKindConfig `yaml:"js"`
}

// AssetKindConfig configures discovery and tagging of one asset kind.
type AssetKindConfig struct {
	Source  string `yaml:"source"`
	DestDir string `yaml:"dest_dir"`
	Tag     string `yaml:"tag"`
	Skip    bool   `yaml:"skip,omitempty"` // Do not collect this kind at all
}

// MarkdownConfig tunes the markdown renderer and code highlighting.
type MarkdownConfig struct {
	HardWraps        bool   `yaml:"hard_wraps"`
	Unsafe           bool   `yaml:"unsafe"` // Pass raw HTML through
	HighlightStyle   string `yaml:"highlight_style"`
	HighlightClasses bool   `yaml:"highlight_classes"`
	LineNumbers      bool   `yaml:"line_numbers"`
}

// RenderConfig holds page rendering options.
type RenderConfig struct {
	TitleFallback TitleFallback `yaml:"title_fallback"`
}

// BuildConfig holds batch driver options.
type BuildConfig struct {
	Workers  int  `yaml:"workers"`
	Manifest bool `yaml:"manifest"`
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // Prometheus text exposition written after a build
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Template: TemplateConfig{Strict: true},
		Markdown: MarkdownConfig{Unsafe: true},
		Build:    BuildConfig{Manifest: true},
	}
	_ = applyDefaults(cfg)
	return cfg
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	if loaded, err := LoadEnvFiles(); err != nil {
		slog.Warn("Failed to load environment file", logfields.Error(err))
	} else {
		for _, f := range loaded {
			slog.Debug("Loaded environment variables", logfields.File(f))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found: "+configPath).
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.ConfigError("failed to read config file "+configPath).
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes YAML configuration data, expanding ${VAR} references,
// applying defaults, environment overrides and validation.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, ferrors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, ferrors.ConfigError("failed to apply defaults").WithCause(err).Build()
	}
	ApplyEnvOverrides(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return ferrors.InternalError("failed to marshal config").WithCause(err).Build()
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.FileSystemError("failed to write config file "+configPath).
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}
