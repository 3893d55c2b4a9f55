package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateSource,
		cv.validateTemplate,
		cv.validateFrontmatter,
		cv.validatePaths,
		cv.validateAssets,
		cv.validateRender,
		cv.validateBuild,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, msg string) error {
	return ferrors.ValidationError(fmt.Sprintf("invalid configuration: %s: %s", field, msg)).
		WithContext("field", field).
		Build()
}

func (cv *configurationValidator) validateSource() error {
	src := cv.config.Source
	if src.Directory == "" {
		return invalid("source.directory", "must not be empty")
	}
	if !strings.HasPrefix(src.Extension, ".") || strings.ContainsAny(src.Extension, `/\`) {
		return invalid("source.extension", fmt.Sprintf("%q must start with a dot and contain no separators", src.Extension))
	}
	return nil
}

func (cv *configurationValidator) validateTemplate() error {
	tpl := cv.config.Template
	if tpl.Path == "" {
		return invalid("template.path", "must not be empty")
	}
	if tpl.LeftDelim == tpl.RightDelim {
		return invalid("template", "left_delim and right_delim must differ")
	}
	return nil
}

func (cv *configurationValidator) validateFrontmatter() error {
	d := cv.config.Frontmatter.Delimiter
	if strings.TrimSpace(d) == "" || strings.ContainsAny(d, "\r\n") {
		return invalid("frontmatter.delimiter", "must be a non-blank single line")
	}
	return nil
}

// validatePaths rejects an output directory that overlaps the source tree,
// since a clean would otherwise delete documents.
func (cv *configurationValidator) validatePaths() error {
	out := filepath.Clean(cv.config.Output.Directory)
	src := filepath.Clean(cv.config.Source.Directory)
	if out == "" || out == "." {
		return invalid("output.directory", "must name a directory other than the working directory")
	}
	if out == src {
		return invalid("output.directory", "must differ from source.directory")
	}
	if rel, err := filepath.Rel(out, src); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return invalid("output.directory", "must not contain source.directory")
	}
	return nil
}

func (cv *configurationValidator) validateAssets() error {
	kinds := []struct {
		name string
		cfg  AssetKindConfig
	}{{"css", cv.config.Assets.CSS}, {"js", cv.config.Assets.JS}}
	for _, kind := range kinds {
		name, k := kind.name, kind.cfg
		if k.Skip {
			continue
		}
		if filepath.IsAbs(k.DestDir) || strings.HasPrefix(filepath.Clean(k.DestDir), "..") {
			return invalid("assets."+name+".dest_dir", "must be relative to the output directory")
		}
		if !strings.Contains(k.Tag, "{src}") {
			return invalid("assets."+name+".tag", "must reference {src}")
		}
	}
	return nil
}

func (cv *configurationValidator) validateRender() error {
	if NormalizeTitleFallback(string(cv.config.Render.TitleFallback)) == "" {
		return invalid("render.title_fallback", fmt.Sprintf("unknown value %q (want none, heading or filename)", cv.config.Render.TitleFallback))
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if cv.config.Build.Workers < 1 {
		return invalid("build.workers", "must be at least 1")
	}
	return nil
}
