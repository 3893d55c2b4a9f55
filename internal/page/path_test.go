package page

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{"index", filepath.Join("build", "index.html")},
		{"guide/intro", filepath.Join("build", "guide", "intro.html")},
		{"guide/../about", filepath.Join("build", "about.html")},
		{"./notes", filepath.Join("build", "notes.html")},
		{"v1.2/release", filepath.Join("build", "v1.2", "release.html")},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			got, err := OutputPath("build", tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := OutputPath("build", tt.doc)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestOutputPathDistinct(t *testing.T) {
	docs := []string{"a", "a/b", "b", "a/index", "A", "a.b"}
	seen := map[string]string{}
	for _, d := range docs {
		out, err := OutputPath("build", d)
		require.NoError(t, err)
		prev, dup := seen[out]
		assert.False(t, dup, "%s collides with %s", d, prev)
		seen[out] = d
	}
}

func TestOutputPathRejects(t *testing.T) {
	for _, doc := range []string{"", "/etc/passwd", "..", "../x", "a/../../x", "."} {
		_, err := OutputPath("build", doc)
		require.Error(t, err, doc)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation), doc)
	}
}

func TestSourcePath(t *testing.T) {
	got, err := SourcePath("src", "guide/intro", ".md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("src", "guide", "intro.md"), got)
}

func TestFirstHeading(t *testing.T) {
	assert.Equal(t, "Title", firstHeading(`<p>x</p><h2 id="t">Title</h2><h1>Later</h1>`))
	assert.Equal(t, "A & B", firstHeading(`<h3>A &amp; <em>B</em></h3>`))
	assert.Equal(t, "", firstHeading(`<p>none</p>`))
}

func TestTitleFromName(t *testing.T) {
	assert.Equal(t, "Getting Started", titleFromName("docs/getting-started"))
	assert.Equal(t, "Release Notes V2", titleFromName("release_notes-v2"))
	assert.Equal(t, "Index", titleFromName("index"))
}
