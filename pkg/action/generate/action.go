package generate

import (
	"bytes"
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/autoctor/pkg/autoctor"
	"github.com/cmmoran/autoctor/pkg/manifest"
)

// Summary reports what a run did. Paths are relative to the module root.
type Summary struct {
	Written     []string
	Unchanged   []string
	Removed     []string
	Diagnostics []autoctor.Diagnostic
	Result      *autoctor.Result
}

// Generate writes the constructors for opts, skipping files whose content
// did not change, removes files recorded by a previous run that are no
// longer produced and updates the manifest.
//
// When ctx is cancelled mid-run the units produced so far are still written,
// nothing is removed, and ctx.Err() is returned with the summary.
func Generate(ctx context.Context, opts *autoctor.Options) (*Summary, error) {
	gen, err := autoctor.NewWithOpts(opts)
	if err != nil {
		return nil, err
	}
	res, runErr := gen.Generate(ctx)
	if res == nil {
		return nil, runErr
	}
	if runErr != nil && (ctx.Err() == nil || !errors.Is(runErr, ctx.Err())) {
		return nil, runErr
	}

	l := slog.Default().With("module", res.Module.Path)
	mpath := gen.ManifestPath()
	m, err := manifest.Load(mpath)
	if err != nil {
		return nil, err
	}
	m.Module = res.Module.Path

	s := &Summary{Diagnostics: res.Diagnostics, Result: res}
	keep := make(map[string]bool, len(res.Units))
	for _, u := range res.Units {
		path := res.Path(u)
		rel := filepath.ToSlash(res.Rel(path))
		keep[rel] = true

		changed, err := write(path, u.Source)
		if err != nil {
			return nil, err
		}
		if changed {
			s.Written = append(s.Written, rel)
			l.With("file", rel, "unit", u.Name).Debug("wrote constructor")
		} else {
			s.Unchanged = append(s.Unchanged, rel)
		}
		m.Upsert(manifest.Entry{Unit: u.Name, Type: u.Type, File: rel, Hash: manifest.Hash(u.Source)})
	}

	if runErr == nil {
		for _, e := range m.Stale(keep) {
			path := filepath.Join(res.Module.Dir, filepath.FromSlash(e.File))
			removed, err := removeGenerated(path)
			if err != nil {
				return nil, err
			}
			if removed {
				s.Removed = append(s.Removed, e.File)
				l.With("file", e.File, "unit", e.Unit).Debug("removed stale constructor")
			} else {
				l.With("file", e.File).Warn("stale manifest entry no longer points at a generated file")
			}
			m.Remove(e.File)
		}
	}

	if err := m.Save(mpath); err != nil {
		return nil, err
	}
	return s, runErr
}

// write stores content at path unless the file already holds it.
func write(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, errors.Wrapf(err, "read %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, errors.Wrapf(err, "write %s", path)
	}
	return true, nil
}

// removeGenerated deletes path only if it carries a generated-code header.
// Hand-written files that took over a generated file's name are left alone.
func removeGenerated(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "read %s", path)
	}
	f, err := parser.ParseFile(token.NewFileSet(), path, data, parser.PackageClauseOnly|parser.ParseComments)
	if err != nil || !ast.IsGenerated(f) {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, errors.Wrapf(err, "remove %s", path)
	}
	return true, nil
}
