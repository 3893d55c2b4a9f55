// Package assets discovers stylesheet and script files, copies them into the
// build output tree and produces the inclusion tags injected into every page.
package assets

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/logfields"
	"git.home.luguber.info/inful/sitebake/internal/observability"
	"git.home.luguber.info/inful/sitebake/internal/templates"
	"git.home.luguber.info/inful/sitebake/internal/vars"
)

// SourceKey is the placeholder a tag template uses for the asset destination.
const SourceKey = "src"

// Kind describes one family of assets.
type Kind struct {
	Name      string
	Extension string
	// DestDir is the directory, relative to the build output, that receives
	// the copied files. Ignored when DestFunc is set.
	DestDir string
	// DestFunc maps a file's base name to its destination path.
	DestFunc func(name string) string
	// TagTemplate is rendered with {src} bound to the destination path.
	TagTemplate string
}

// CSS returns the stylesheet kind.
func CSS(destDir, tag string) Kind {
	if tag == "" {
		tag = `<link rel="stylesheet" href="{src}">`
	}
	return Kind{Name: "css", Extension: ".css", DestDir: destDir, TagTemplate: tag}
}

// JS returns the script kind.
func JS(destDir, tag string) Kind {
	if tag == "" {
		tag = `<script src="{src}"></script>`
	}
	return Kind{Name: "js", Extension: ".js", DestDir: destDir, TagTemplate: tag}
}

// Dest returns the slash separated destination of a file called name.
func (k Kind) Dest(name string) string {
	if k.DestFunc != nil {
		return k.DestFunc(name)
	}
	return path.Join(k.DestDir, name)
}

// Tag renders the inclusion tag for dest.
func (k Kind) Tag(dest string) (string, error) {
	v := vars.New()
	v.Set(SourceKey, dest)
	tag, err := templates.Substitute(k.TagTemplate, v, templates.Options{Strict: true, Name: k.Name + " tag"})
	if err != nil {
		return "", err
	}
	return tag, nil
}

// Asset is a discovered file ready to be copied.
type Asset struct {
	Kind   string
	Source string
	Dest   string
	Tag    string
}

// Discover lists every file under sourceDir whose name ends with the kind's
// extension, in lexical path order. A missing sourceDir is a configuration
// error.
func Discover(fsys afero.Fs, kind Kind, sourceDir string) ([]Asset, error) {
	info, err := fsys.Stat(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("asset source directory not found: "+sourceDir).
				WithContext("path", sourceDir).
				WithContext("kind", kind.Name).
				Build()
		}
		return nil, errors.FileSystemError("stat asset source directory "+sourceDir).
			WithCause(err).
			WithContext("path", sourceDir).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.ConfigError("asset source is not a directory: "+sourceDir).
			WithContext("path", sourceDir).
			WithContext("kind", kind.Name).
			Build()
	}

	var found []Asset
	err = afero.Walk(fsys, sourceDir, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), kind.Extension) {
			return nil
		}
		dest := kind.Dest(fi.Name())
		tag, err := kind.Tag(dest)
		if err != nil {
			return err
		}
		found = append(found, Asset{Kind: kind.Name, Source: p, Dest: dest, Tag: tag})
		return nil
	})
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.FileSystemError("walk asset directory "+sourceDir).
			WithCause(err).
			WithContext("path", sourceDir).
			Build()
	}
	return found, nil
}

// Materialize copies each asset into outputDir, overwriting existing files.
// Two assets with the same destination are copied in order, so the last one
// wins.
func Materialize(ctx context.Context, fsys afero.Fs, outputDir string, list []Asset) error {
	written := make(map[string]string, len(list))
	for _, a := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		if prev, ok := written[a.Dest]; ok {
			observability.WarnContext(ctx, "Asset destination collision, last write wins",
				logfields.Dest(a.Dest),
				logfields.Asset(a.Source),
				logfields.Path(prev))
		}

		target := filepath.Join(outputDir, filepath.FromSlash(a.Dest))
		written[a.Dest] = a.Source
		// Copying a file onto itself would truncate it.
		if filepath.Clean(a.Source) == filepath.Clean(target) {
			observability.DebugContext(ctx, "Asset already in place", logfields.Dest(a.Dest), logfields.Asset(a.Source))
			continue
		}
		observability.InfoContext(ctx, "Creating "+a.Dest, logfields.Kind(a.Kind), logfields.Asset(a.Source))
		if err := copyFile(fsys, a.Source, target); err != nil {
			return err
		}
	}
	return nil
}

// Collect discovers the assets of kind under sourceDir, copies them into
// outputDir and returns them in discovery order.
func Collect(ctx context.Context, fsys afero.Fs, kind Kind, sourceDir, outputDir string) ([]Asset, error) {
	list, err := Discover(fsys, kind, sourceDir)
	if err != nil {
		return nil, err
	}
	if err := Materialize(ctx, fsys, outputDir, list); err != nil {
		return nil, err
	}
	observability.DebugContext(ctx, "Assets collected", logfields.Kind(kind.Name), logfields.Count(len(list)))
	return list, nil
}

// Tags returns the inclusion tags of list in order.
func Tags(list []Asset) []string {
	tags := make([]string, 0, len(list))
	for _, a := range list {
		tags = append(tags, a.Tag)
	}
	return tags
}

// List joins tags into the value bound to the css and js page variables.
func List(tags []string) string {
	return strings.Join(tags, "\n")
}

func copyFile(fsys afero.Fs, src, dst string) error {
	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.FileSystemError("create asset directory").
			WithCause(err).
			WithContext("path", filepath.Dir(dst)).
			Build()
	}

	in, err := fsys.Open(src)
	if err != nil {
		return errors.FileSystemError("open asset "+src).WithCause(err).WithContext("source", src).Build()
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := fsys.Create(dst)
	if err != nil {
		return errors.FileSystemError("create asset "+dst).WithCause(err).WithContext("dest", dst).Build()
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.FileSystemError("copy asset "+src).
			WithCause(err).
			WithContext("source", src).
			WithContext("dest", dst).
			Build()
	}
	if err := out.Close(); err != nil {
		return errors.FileSystemError("close asset "+dst).WithCause(err).WithContext("dest", dst).Build()
	}
	return nil
}
