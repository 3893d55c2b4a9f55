package config

import "fmt"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&SourceDefaultApplier{},
			&TemplateDefaultApplier{},
			&FrontmatterDefaultApplier{},
			&OutputDefaultApplier{},
			&AssetsDefaultApplier{},
			&MarkdownDefaultApplier{},
			&RenderDefaultApplier{},
			&BuildDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) error {
	return NewDefaultApplier().ApplyDefaults(cfg)
}

// SourceDefaultApplier handles source defaults.
type SourceDefaultApplier struct{}

func (s *SourceDefaultApplier) Domain() string { return "source" }

func (s *SourceDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Source.Directory == "" {
		cfg.Source.Directory = "src"
	}
	if cfg.Source.Extension == "" {
		cfg.Source.Extension = ".md"
	}
	return nil
}

// TemplateDefaultApplier handles template defaults.
type TemplateDefaultApplier struct{}

func (t *TemplateDefaultApplier) Domain() string { return "template" }

func (t *TemplateDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Template.Path == "" {
		cfg.Template.Path = "templates/default.html"
	}
	if cfg.Template.LeftDelim == "" {
		cfg.Template.LeftDelim = "{"
	}
	if cfg.Template.RightDelim == "" {
		cfg.Template.RightDelim = "}"
	}
	return nil
}

// FrontmatterDefaultApplier handles front matter defaults.
type FrontmatterDefaultApplier struct{}

func (f *FrontmatterDefaultApplier) Domain() string { return "frontmatter" }

func (f *FrontmatterDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Frontmatter.Delimiter == "" {
		cfg.Frontmatter.Delimiter = "---"
	}
	return nil
}

// OutputDefaultApplier handles output defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "build"
	}
	return nil
}

// AssetsDefaultApplier handles asset kind defaults.
type AssetsDefaultApplier struct{}

func (a *AssetsDefaultApplier) Domain() string { return "assets" }

func (a *AssetsDefaultApplier) ApplyDefaults(cfg *Config) error {
	fill := func(k *AssetKindConfig, name, tag string) {
		if k.Source == "" {
			k.Source = name
		}
		if k.DestDir == "" {
			k.DestDir = name
		}
		if k.Tag == "" {
			k.Tag = tag
		}
	}
	fill(&cfg.Assets.CSS, "css", `<link rel="stylesheet" href="{src}">`)
	fill(&cfg.Assets.JS, "js", `<script src="{src}"></script>`)
	return nil
}

// MarkdownDefaultApplier handles markdown defaults.
type MarkdownDefaultApplier struct{}

func (m *MarkdownDefaultApplier) Domain() string { return "markdown" }

func (m *MarkdownDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Markdown.HighlightStyle == "" {
		cfg.Markdown.HighlightStyle = "github"
	}
	return nil
}

// RenderDefaultApplier handles page rendering defaults.
type RenderDefaultApplier struct{}

func (r *RenderDefaultApplier) Domain() string { return "render" }

func (r *RenderDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Render.TitleFallback == "" {
		cfg.Render.TitleFallback = TitleFallbackNone
		return nil
	}
	// Unknown values are left in place for validation to report.
	if tf := NormalizeTitleFallback(string(cfg.Render.TitleFallback)); tf != "" {
		cfg.Render.TitleFallback = tf
	}
	return nil
}

// BuildDefaultApplier handles build defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = 1
	}
	return nil
}
