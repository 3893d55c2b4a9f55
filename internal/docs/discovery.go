package docs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	derrors "git.home.luguber.info/inful/sitebake/internal/docs/errors"
	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/logfields"
)

// DocFile represents a discovered source document.
type DocFile struct {
	Path         string // Path of the file as walked (source directory included)
	RelativePath string // Path relative to the source directory, extension included
	Section      string // Directory part of RelativePath, "" at the root
	Name         string // File name without extension
	Extension    string // File extension
	Content      []byte // File content (loaded on demand)
}

// DocumentPath returns the document path used by the page renderer: the
// relative path without its extension, slash separated.
func (df *DocFile) DocumentPath() string {
	return filepath.ToSlash(strings.TrimSuffix(df.RelativePath, df.Extension))
}

// LoadContent loads the content of a document.
func (df *DocFile) LoadContent(fsys afero.Fs) error {
	if df.Content != nil {
		return nil // Already loaded
	}
	content, err := afero.ReadFile(fsys, df.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", derrors.ErrFileReadFailed, df.Path, err)
	}
	df.Content = content
	return nil
}

// Discovery finds source documents under a directory.
type Discovery struct {
	fs        afero.Fs
	sourceDir string
	extension string
	docFiles  []DocFile
}

// NewDiscovery creates a new discovery instance for documents with the given
// extension under sourceDir.
func NewDiscovery(fsys afero.Fs, sourceDir, extension string) *Discovery {
	return &Discovery{
		fs:        fsys,
		sourceDir: sourceDir,
		extension: extension,
		docFiles:  make([]DocFile, 0),
	}
}

// DiscoverDocs walks the source directory in lexical order. Hidden files and
// directories are skipped.
func (d *Discovery) DiscoverDocs() ([]DocFile, error) {
	d.docFiles = make([]DocFile, 0)

	info, err := d.fs.Stat(d.sourceDir)
	if err != nil || !info.IsDir() {
		return nil, ferrors.ConfigError("source directory not found: "+d.sourceDir).
			WithCause(derrors.ErrDocsPathNotFound).
			WithContext("path", d.sourceDir).
			Build()
	}

	err = afero.Walk(d.fs, d.sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != d.sourceDir && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || filepath.Ext(info.Name()) != d.extension {
			return nil
		}

		relPath, err := filepath.Rel(d.sourceDir, path)
		if err != nil {
			return fmt.Errorf("%w: %w", derrors.ErrInvalidRelativePath, err)
		}
		section := filepath.Dir(relPath)
		if section == "." {
			section = "" // Root level
		}
		ext := filepath.Ext(info.Name())

		d.docFiles = append(d.docFiles, DocFile{
			Path:         path,
			RelativePath: relPath,
			Section:      filepath.ToSlash(section),
			Name:         strings.TrimSuffix(info.Name(), ext),
			Extension:    ext,
		})
		slog.Debug("Discovered document", logfields.File(relPath))
		return nil
	})
	if err != nil {
		return nil, ferrors.FileSystemError("walk source directory "+d.sourceDir).
			WithCause(fmt.Errorf("%w: %w", derrors.ErrDocsDirWalkFailed, err)).
			WithContext("path", d.sourceDir).
			Build()
	}

	slog.Info("Documents discovered", logfields.Path(d.sourceDir), logfields.Count(len(d.docFiles)))
	return d.docFiles, nil
}

// GetDocFilesBySection returns documents grouped by directory.
func (d *Discovery) GetDocFilesBySection() map[string][]DocFile {
	result := make(map[string][]DocFile)
	for _, file := range d.docFiles {
		result[file.Section] = append(result[file.Section], file)
	}
	return result
}
