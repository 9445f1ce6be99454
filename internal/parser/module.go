package parser

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/mod/modfile"
)

var ErrNoModule = errors.New("no go.mod found")

// Module is the Go module enclosing the scanned directory.
type Module struct {
	Dir  string // directory holding go.mod
	Path string // module path
}

// FindModule walks up from dir until it finds go.mod.
func FindModule(dir string) (*Module, error) {
	from, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", dir)
	}
	for {
		gomod := filepath.Join(from, "go.mod")
		if data, err := os.ReadFile(gomod); err == nil {
			path := modfile.ModulePath(data)
			if path == "" {
				return nil, errors.Newf("%s has no module directive", gomod)
			}
			return &Module{Dir: from, Path: path}, nil
		}
		parent := filepath.Dir(from)
		if parent == from {
			return nil, errors.WithHint(ErrNoModule, "run autoctor inside a Go module or pass --input-directory")
		}
		from = parent
	}
}

// Rel returns path relative to the module root, or path unchanged when it
// lies outside the module.
func (m *Module) Rel(path string) string {
	if m == nil {
		return path
	}
	rel, err := filepath.Rel(m.Dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
