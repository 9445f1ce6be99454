package check

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/cmmoran/autoctor/pkg/autoctor"
	"github.com/cmmoran/autoctor/pkg/manifest"
)

// Drift is one generated file that does not match what a run would write.
type Drift struct {
	File    string // relative to the module root
	Diff    string // -on disk +generated
	Missing bool   // not written yet
	Stale   bool   // recorded in the manifest but no longer produced
}

// Report is the outcome of a check.
type Report struct {
	Checked     int
	Drifts      []Drift
	Diagnostics []autoctor.Diagnostic
	Result      *autoctor.Result
}

// UpToDate reports whether nothing needs regenerating.
func (r *Report) UpToDate() bool { return len(r.Drifts) == 0 }

// Check runs generation in memory and compares the output against the files
// on disk and the manifest. Nothing is written.
func Check(ctx context.Context, opts *autoctor.Options) (*Report, error) {
	gen, err := autoctor.NewWithOpts(opts)
	if err != nil {
		return nil, err
	}
	res, err := gen.Generate(ctx)
	if err != nil {
		return nil, err
	}

	r := &Report{Checked: len(res.Units), Diagnostics: res.Diagnostics, Result: res}
	keep := make(map[string]bool, len(res.Units))
	for _, u := range res.Units {
		path := res.Path(u)
		rel := filepath.ToSlash(res.Rel(path))
		keep[rel] = true

		onDisk, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			r.Drifts = append(r.Drifts, Drift{File: rel, Missing: true})
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		if diff := cmp.Diff(string(onDisk), string(u.Source)); diff != "" {
			r.Drifts = append(r.Drifts, Drift{File: rel, Diff: diff})
		}
	}

	m, err := manifest.Load(gen.ManifestPath())
	if err != nil {
		return nil, err
	}
	for _, e := range m.Stale(keep) {
		if _, err := os.Stat(filepath.Join(res.Module.Dir, filepath.FromSlash(e.File))); err == nil {
			r.Drifts = append(r.Drifts, Drift{File: e.File, Stale: true})
		}
	}
	return r, nil
}
