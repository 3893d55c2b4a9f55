package docs

import (
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/sitebake/internal/docs/errors"
	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
)

func sourceTree(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"src/index.md":                  "# Index",
		"src/api/overview.md":           "# API Overview",
		"src/api/reference.md":          "# API Reference",
		"src/guides/getting-started.md": "# Getting Started",
		"src/notes.txt":                 "not markdown",
		"src/.drafts/secret.md":         "hidden",
		"src/.hidden.md":                "hidden",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	return fsys
}

func TestDiscoverDocs(t *testing.T) {
	fsys := sourceTree(t)
	d := NewDiscovery(fsys, "src", ".md")

	files, err := d.DiscoverDocs()
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.DocumentPath())
	}
	assert.Equal(t, []string{"api/overview", "api/reference", "guides/getting-started", "index"}, paths)

	assert.Equal(t, filepath.Join("src", "api", "overview.md"), files[0].Path)
	assert.Equal(t, "api", files[0].Section)
	assert.Equal(t, "overview", files[0].Name)
	assert.Equal(t, ".md", files[0].Extension)
	assert.Equal(t, "", files[3].Section)

	bySection := d.GetDocFilesBySection()
	assert.Len(t, bySection["api"], 2)
	assert.Len(t, bySection[""], 1)
}

func TestDiscoverDocsMissingDirectory(t *testing.T) {
	_, err := NewDiscovery(afero.NewMemMapFs(), "nowhere", ".md").DiscoverDocs()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.True(t, stderrors.Is(err, derrors.ErrDocsPathNotFound))
}

func TestLoadContent(t *testing.T) {
	fsys := sourceTree(t)
	df := DocFile{Path: "src/index.md"}
	require.NoError(t, df.LoadContent(fsys))
	assert.Equal(t, "# Index", string(df.Content))

	missing := DocFile{Path: "src/missing.md"}
	err := missing.LoadContent(fsys)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, derrors.ErrFileReadFailed))
}
