package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Entry represents a generated constructor file in the manifest. File is
// relative to the module root.
type Entry struct {
	Unit string `yaml:"unit" json:"unit"`
	Type string `yaml:"type" json:"type"`
	File string `yaml:"file" json:"file"`
	Hash string `yaml:"sha256" json:"sha256"`
}

// Manifest tracks the files written by previous runs.
type Manifest struct {
	Module  string  `yaml:"module" json:"module"`
	Entries []Entry `yaml:"entries" json:"entries"`
}

// Load reads a manifest from the provided path. If the file does not exist,
// an empty manifest is returned.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "unmarshal manifest"), "delete "+path+" to start over")
	}

	return &m, nil
}

// Save writes the manifest to the provided path, creating parent directories
// as needed. Entries are written sorted by file.
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create manifest directory")
	}

	sort.Slice(m.Entries, func(i, j int) bool { return m.Entries[i].File < m.Entries[j].File })
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal manifest")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write manifest")
	}

	return nil
}

// Upsert records e, replacing an existing entry for the same file.
func (m *Manifest) Upsert(e Entry) {
	for i := range m.Entries {
		if m.Entries[i].File == e.File {
			m.Entries[i] = e
			return
		}
	}
	m.Entries = append(m.Entries, e)
}

// Lookup returns the entry recorded for file, if present.
func (m *Manifest) Lookup(file string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.File == file {
			return e, true
		}
	}
	return Entry{}, false
}

// Stale returns entries whose file is not in keep.
func (m *Manifest) Stale(keep map[string]bool) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if !keep[e.File] {
			out = append(out, e)
		}
	}
	return out
}

// Remove drops the entry for file.
func (m *Manifest) Remove(file string) {
	out := m.Entries[:0]
	for _, e := range m.Entries {
		if e.File != file {
			out = append(out, e)
		}
	}
	m.Entries = out
}

// Hash is the hex sha256 of content as recorded in entries.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
