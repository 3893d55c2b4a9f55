package docs

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/spf13/afero"
)

// ComputeDocsHash computes a deterministic hash for a set of documents from
// their relative paths and contents. Content is loaded when missing. The
// result does not depend on the order of docFiles.
func ComputeDocsHash(fsys afero.Fs, docFiles []DocFile) (string, error) {
	if len(docFiles) == 0 {
		// Empty set has a known hash
		h := sha256.Sum256([]byte("empty-docs-set"))
		return hex.EncodeToString(h[:]), nil
	}

	type entry struct {
		path        string
		contentHash string
	}
	entries := make([]entry, 0, len(docFiles))
	for i := range docFiles {
		df := &docFiles[i]
		if err := df.LoadContent(fsys); err != nil {
			return "", err
		}
		h := sha256.Sum256(df.Content)
		entries = append(entries, entry{path: df.DocumentPath(), contentHash: hex.EncodeToString(h[:])})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e.path))
		h.Write([]byte{'|'})
		h.Write([]byte(e.contentHash))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
