// Package engine resolves constructor parameter lists across a type hierarchy
// and drives emission of one generated unit per auto-construct type.
//
// A run is a pure function of its model.Program: the only state is the base
// parameter cache, which is created per run and never shared.
package engine

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/cmmoran/autoctor/internal/model"
)

// Emitter renders a resolved constructor into a code unit.
type Emitter interface {
	Emit(c *model.Constructor) (*model.Unit, error)
}

// Host receives the output of a run as it is produced.
type Host interface {
	AddUnit(u *model.Unit)
	Report(d model.Diagnostic)
}

type Engine struct {
	emitter Emitter
	logger  *slog.Logger
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(emitter Emitter, opts ...Option) *Engine {
	e := &Engine{
		emitter: emitter,
		logger:  slog.Default(),
	}
	for _, fn := range opts {
		fn(e)
	}
	return e
}

// Run processes every candidate of prog in base-before-derived order and
// hands units and diagnostics to host.
//
// ctx is checked between types. When it is done, Run stops without emitting
// the type in progress and returns ctx.Err(); units already handed to host
// stay valid. The only other error is an emitter failure.
func (e *Engine) Run(ctx context.Context, prog *model.Program, host Host) error {
	if prog == nil {
		return nil
	}
	cache := newBaseCache()

	for _, t := range Schedule(prog.Types) {
		if err := ctx.Err(); err != nil {
			return err
		}

		post := ResolvePostConstruct(t, prog.DefaultPostConstruct)
		c := Resolve(t, cache.inherited(t), post)

		unit, err := e.emitter.Emit(c)
		if err != nil {
			return errors.Wrapf(err, "emit constructor for %s", t.DisplayName())
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		cache.put(t.Key(), c.Params)
		for _, d := range post.Diagnostics {
			host.Report(d)
		}
		host.AddUnit(unit)

		e.logger.With(
			"type", t.DisplayName(),
			"depth", t.Depth(),
			"params", c.Params.Names(),
			"post_construct", post.Outcome.String(),
		).Debug("resolved constructor")
	}
	return nil
}

// Result collects the output of a run.
type Result struct {
	Units       []*model.Unit
	Diagnostics []model.Diagnostic
}

func (r *Result) AddUnit(u *model.Unit)     { r.Units = append(r.Units, u) }
func (r *Result) Report(d model.Diagnostic) { r.Diagnostics = append(r.Diagnostics, d) }

// Generate runs the engine and collects everything it produced. On
// cancellation the partial result is returned together with ctx.Err().
func (e *Engine) Generate(ctx context.Context, prog *model.Program) (*Result, error) {
	r := &Result{}
	err := e.Run(ctx, prog, r)
	return r, err
}
