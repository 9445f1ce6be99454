// Package autoctor synthesizes NewX constructors for Go struct types marked
// with //autoctor:construct.
//
//	//autoctor:construct
//	type Service struct {
//		store Store
//		log   *slog.Logger
//	}
//
//	//autoctor:postconstruct
//	func (s *Service) init(cfg Config) { ... }
//
// produces
//
//	func NewService(store Store, log *slog.Logger, cfg Config) *Service
//
// A struct embedding another struct treats it as its base: the base's
// constructor parameters are appended and the base is initialised by calling
// its constructor.
package autoctor

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/autoctor/internal/emitter"
	"github.com/cmmoran/autoctor/internal/engine"
	"github.com/cmmoran/autoctor/internal/model"
	"github.com/cmmoran/autoctor/internal/parser"
)

// Header is the first line of every generated file.
const Header = emitter.Header

type (
	Unit       = model.Unit
	Diagnostic = model.Diagnostic
	Program    = model.Program
)

// Generator holds state/results of a generation run.
type Generator struct {
	Opts Options

	logger  *slog.Logger
	module  *parser.Module
	program *model.Program
}

// Result is the output of one run.
type Result struct {
	Units       []*Unit
	Diagnostics []Diagnostic
	Module      *parser.Module
}

// Path is where u is written.
func (r *Result) Path(u *Unit) string {
	return filepath.Join(u.Dir, u.File)
}

// Rel is p relative to the module root when possible.
func (r *Result) Rel(p string) string {
	return r.Module.Rel(p)
}

// New executes the generator with opts.
func New(opts ...Option) (*Generator, error) {
	o := NewOptions()
	for _, fn := range opts {
		fn(o)
	}
	return NewWithOpts(o)
}

func NewWithOpts(opts *Options) (*Generator, error) {
	opts.Normalize()

	mod, err := parser.FindModule(opts.InDir)
	if err != nil {
		return nil, err
	}
	return &Generator{
		Opts:   *opts,
		logger: slog.Default().With("module", mod.Path),
		module: mod,
	}, nil
}

func (g *Generator) Module() *parser.Module { return g.module }

// ManifestPath resolves Opts.Manifest against the module root.
func (g *Generator) ManifestPath() string {
	if filepath.IsAbs(g.Opts.Manifest) {
		return g.Opts.Manifest
	}
	return filepath.Join(g.module.Dir, g.Opts.Manifest)
}

// Parse loads the configured packages into the type model.
func (g *Generator) Parse(ctx context.Context) error {
	prog, err := parser.New(g.Opts.parserConfig(g.logger)).Load(ctx)
	if err != nil {
		return errors.Wrapf(err, "parse %s", g.Opts.InDir)
	}
	g.program = prog
	return nil
}

// Program returns the loaded type model, nil before Parse.
func (g *Generator) Program() *Program { return g.program }

// Generate runs the engine over the loaded program, parsing first when
// needed. A cancelled ctx returns the units produced so far with ctx.Err().
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	if g.program == nil {
		if err := g.Parse(ctx); err != nil {
			return nil, err
		}
	}
	eng := engine.New(emitter.New(), engine.WithLogger(g.logger))
	r, err := eng.Generate(ctx, g.program)
	res := &Result{Module: g.module}
	if r != nil {
		res.Units, res.Diagnostics = r.Units, r.Diagnostics
	}
	if err != nil {
		return res, err
	}
	g.logger.With("units", len(res.Units), "diagnostics", len(res.Diagnostics)).Debug("generated constructors")
	return res, nil
}
