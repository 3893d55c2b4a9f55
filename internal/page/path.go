package page

import (
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
)

// OutputExtension is appended to every document path to form its output file.
const OutputExtension = ".html"

// CleanDocumentPath normalises a document path (source-relative, without
// extension). Absolute paths and paths leaving the source root are rejected,
// which keeps the document to output mapping injective.
func CleanDocumentPath(docPath string) (string, error) {
	if docPath == "" {
		return "", ferrors.ValidationError("empty document path").Build()
	}
	if filepath.IsAbs(docPath) || strings.HasPrefix(docPath, "/") {
		return "", ferrors.ValidationError("document path must be relative: "+docPath).
			WithContext("document", docPath).
			Build()
	}
	clean := filepath.Clean(filepath.FromSlash(docPath))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ferrors.ValidationError("document path escapes the source directory: "+docPath).
			WithContext("document", docPath).
			Build()
	}
	return clean, nil
}

// OutputPath maps a document path to its file under outputDir. It is a pure
// function of its inputs.
func OutputPath(outputDir, docPath string) (string, error) {
	clean, err := CleanDocumentPath(docPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(outputDir, clean+OutputExtension), nil
}

// SourcePath maps a document path to the file it is read from.
func SourcePath(sourceDir, docPath, extension string) (string, error) {
	clean, err := CleanDocumentPath(docPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(sourceDir, clean+extension), nil
}
