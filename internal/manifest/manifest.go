// Package manifest records what a build read and wrote. The manifest is
// informational: nothing reads it back to skip work.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/inful/mdfp"
	"github.com/spf13/afero"
)

// FileName is the manifest file written at the root of the output directory.
const FileName = ".sitebake-manifest.json"

// BuildManifest represents a complete record of a build's inputs and outputs.
type BuildManifest struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
	Inputs    Inputs    `json:"inputs"`
	Outputs   Outputs   `json:"outputs"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
}

// Inputs captures all inputs to the build.
type Inputs struct {
	SourceDir    string `json:"source_dir"`
	Template     string `json:"template"`
	TemplateHash string `json:"template_hash,omitempty"`
	SourcesHash  string `json:"sources_hash,omitempty"`
	ConfigHash   string `json:"config_hash,omitempty"`
}

// Outputs captures all outputs from the build.
type Outputs struct {
	Pages  []Page  `json:"pages"`
	Assets []Asset `json:"assets"`
}

// Page is one rendered document.
type Page struct {
	Document    string              `json:"document"`
	Source      string              `json:"source"`
	Output      string              `json:"output"`
	Fingerprint string              `json:"fingerprint"`
	Lists       map[string][]string `json:"lists,omitempty"`
	Warnings    int                 `json:"warnings,omitempty"`
}

// Asset is one copied asset.
type Asset struct {
	Kind   string `json:"kind"`
	Source string `json:"source,omitempty"`
	Dest   string `json:"dest"`
}

// New creates an empty manifest.
func New(id string, ts time.Time) *BuildManifest {
	return &BuildManifest{
		ID:        id,
		Timestamp: ts,
		Outputs:   Outputs{Pages: []Page{}, Assets: []Asset{}},
	}
}

// Fingerprint returns the content fingerprint of a document made of the
// given front matter block and body.
func Fingerprint(frontmatter, body string) string {
	return mdfp.CalculateFingerprintFromParts(frontmatter, body)
}

// HashBytes returns the hex SHA-256 of data.
func HashBytes(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// HashValue returns the hex SHA-256 of v's JSON encoding.
func HashValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return HashBytes(data), nil
}

// AddPage appends a page record.
func (m *BuildManifest) AddPage(p Page) {
	m.Outputs.Pages = append(m.Outputs.Pages, p)
}

// AddAsset appends an asset record.
func (m *BuildManifest) AddAsset(a Asset) {
	m.Outputs.Assets = append(m.Outputs.Assets, a)
}

// SortPages orders pages by document path. Assets keep discovery order.
func (m *BuildManifest) SortPages() {
	sort.Slice(m.Outputs.Pages, func(i, j int) bool {
		return m.Outputs.Pages[i].Document < m.Outputs.Pages[j].Document
	})
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's inputs and outputs,
// ignoring the build id, timestamp and duration. Two builds of unchanged
// inputs hash equal.
func (m *BuildManifest) Hash() (string, error) {
	hashInput := struct {
		Inputs  Inputs  `json:"inputs"`
		Outputs Outputs `json:"outputs"`
	}{Inputs: m.Inputs, Outputs: m.Outputs}
	return HashValue(hashInput)
}

// Write stores the manifest as dir/FileName.
func (m *BuildManifest) Write(fsys afero.Fs, dir string) (string, error) {
	data, err := m.ToJSON()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create manifest directory: %w", err)
	}
	if err := afero.WriteFile(fsys, path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// Read loads dir/FileName.
func Read(fsys afero.Fs, dir string) (*BuildManifest, error) {
	data, err := afero.ReadFile(fsys, filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}
