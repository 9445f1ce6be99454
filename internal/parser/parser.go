// Package parser adapts Go packages to the engine's type model. It loads
// packages with golang.org/x/tools/go/packages, finds struct types carrying
// //autoctor:construct, and describes them (and their bases) with go/types.
package parser

import (
	"context"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/packages"

	"github.com/cmmoran/autoctor/internal/model"
)

const DefaultTagKey = "ctor"

// Config controls loading.
//
// Dir           – directory the patterns are resolved from
// Patterns      – go/packages patterns, default ./...
// TagKey        – struct tag key carrying field options, default ctor
// ExcludeTypes  – type names never treated as candidates (case-insensitive)
// ExcludeByTags – fields matching any filter count as initialized elsewhere
// PostConstruct – program-wide default post-construct method name
type Config struct {
	Dir           string
	Patterns      []string
	TagKey        string
	ExcludeTypes  []string
	ExcludeByTags []TagFilter
	PostConstruct string
	Logger        *slog.Logger
}

// Parser holds state/results of a load.
type Parser struct {
	cfg    Config
	fset   *token.FileSet
	logger *slog.Logger

	pkgs        map[string]*packages.Package           // import path → loaded package
	generated   map[string]bool                        // filename → carries a generated-code header
	typeDocs    map[*types.TypeName]*ast.CommentGroup // declared type → doc comment
	marked      map[*types.Func]bool                   // methods carrying //autoctor:postconstruct
	pkgDefaults map[string]string                      // import path → //autoctor:default name
	order       []*types.TypeName                      // declared types in discovery order

	descs     map[*types.TypeName]*model.TypeDescriptor
	modelPkgs map[string]*model.Package
}

func New(cfg Config) *Parser {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"./..."}
	}
	if cfg.TagKey == "" {
		cfg.TagKey = DefaultTagKey
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Parser{
		cfg:         cfg,
		fset:        token.NewFileSet(),
		logger:      cfg.Logger,
		pkgs:        make(map[string]*packages.Package),
		generated:   make(map[string]bool),
		typeDocs:    make(map[*types.TypeName]*ast.CommentGroup),
		marked:      make(map[*types.Func]bool),
		pkgDefaults: make(map[string]string),
		descs:       make(map[*types.TypeName]*model.TypeDescriptor),
		modelPkgs:   make(map[string]*model.Package),
	}
}

// Load parses the configured packages and returns the engine input.
func (p *Parser) Load(ctx context.Context) (*model.Program, error) {
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports | packages.NeedModule,
		Dir:  p.cfg.Dir,
		Fset: p.fset,
	}, p.cfg.Patterns...)
	if err != nil {
		return nil, errors.Wrapf(err, "load packages %v", p.cfg.Patterns)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	for _, pkg := range pkgs {
		p.index(pkg)
	}
	if err := p.checkErrors(pkgs); err != nil {
		return nil, err
	}

	prog := &model.Program{DefaultPostConstruct: p.cfg.PostConstruct}
	for _, obj := range p.order {
		doc := p.typeDocs[obj]
		if _, ok := hasDirective(doc, DirectiveConstruct); !ok {
			continue
		}
		if p.excludedType(obj.Name()) {
			p.logger.With("type", obj.Name()).Debug("excluded by configuration")
			continue
		}
		named, ok := obj.Type().(*types.Named)
		if !ok {
			continue
		}
		if _, ok := named.Underlying().(*types.Struct); !ok {
			p.logger.With("type", obj.Name(), "pos", p.position(obj.Pos()).String()).
				Warn("//autoctor:construct on a non-struct type is ignored")
			continue
		}
		prog.Types = append(prog.Types, p.describe(named))
	}

	p.logger.With("packages", len(pkgs), "candidates", len(prog.Types)).Debug("loaded type model")
	return prog, nil
}

// index records directives, doc comments and generated files of one package.
func (p *Parser) index(pkg *packages.Package) {
	p.pkgs[pkg.PkgPath] = pkg

	files := append([]*ast.File(nil), pkg.Syntax...)
	sort.Slice(files, func(i, j int) bool {
		return p.fset.Position(files[i].Pos()).Filename < p.fset.Position(files[j].Pos()).Filename
	})

	for _, file := range files {
		filename := p.fset.Position(file.Pos()).Filename
		if ast.IsGenerated(file) {
			p.generated[filename] = true
		}
		if name, ok := hasDirective(file.Doc, DirectiveDefault); ok && name != "" {
			p.pkgDefaults[pkg.PkgPath] = name
		}
		if pkg.TypesInfo == nil {
			continue
		}

		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok || ts.Assign.IsValid() {
						continue
					}
					obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
					if !ok {
						continue
					}
					doc := ts.Doc
					if doc == nil && !d.Lparen.IsValid() {
						doc = d.Doc
					}
					p.typeDocs[obj] = doc
					p.order = append(p.order, obj)
				}

			case *ast.FuncDecl:
				if d.Recv == nil {
					continue
				}
				if _, ok := hasDirective(d.Doc, DirectivePostConstruct); !ok {
					continue
				}
				if fn, ok := pkg.TypesInfo.Defs[d.Name].(*types.Func); ok {
					p.marked[fn] = true
				}
			}
		}
	}
}

// checkErrors fails on package errors outside generated files. Errors in
// previous output are expected when the hierarchy changed and are only
// logged.
func (p *Parser) checkErrors(pkgs []*packages.Package) error {
	var errs []error
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			if p.inGeneratedFile(e.Pos) {
				p.logger.With("error", e.Msg, "pos", e.Pos).Debug("ignoring error in generated file")
				continue
			}
			errs = append(errs, errors.Newf("%s", e.Error()))
		}
	})
	if len(errs) == 0 {
		return nil
	}
	return errors.WithHint(
		errors.Wrapf(errors.Join(errs...), "%d package error(s)", len(errs)),
		"fix compile errors in the scanned packages before generating constructors",
	)
}

// inGeneratedFile reports whether a packages.Error position ("file:line:col")
// points into a generated file.
func (p *Parser) inGeneratedFile(pos string) bool {
	if pos == "" || pos == "-" {
		return false
	}
	file := pos
	for i := 0; i < 2; i++ {
		idx := strings.LastIndex(file, ":")
		if idx < 0 {
			break
		}
		file = file[:idx]
	}
	if p.generated[file] {
		return true
	}
	abs, err := filepath.Abs(file)
	return err == nil && p.generated[abs]
}

func (p *Parser) excludedType(name string) bool {
	for _, ex := range p.cfg.ExcludeTypes {
		if strings.EqualFold(strings.TrimSpace(ex), name) {
			return true
		}
	}
	return false
}

func (p *Parser) position(pos token.Pos) model.Position {
	if !pos.IsValid() {
		return model.Position{}
	}
	ps := p.fset.Position(pos)
	return model.Position{Filename: ps.Filename, Line: ps.Line, Column: ps.Column}
}

// modelPackage returns the shared model.Package for a types.Package.
func (p *Parser) modelPackage(pkg *types.Package) *model.Package {
	if pkg == nil {
		return nil
	}
	if mp, ok := p.modelPkgs[pkg.Path()]; ok {
		return mp
	}
	mp := &model.Package{
		Path:          pkg.Path(),
		Name:          pkg.Name(),
		PostConstruct: p.pkgDefaults[pkg.Path()],
	}
	if lp, ok := p.pkgs[pkg.Path()]; ok && len(lp.GoFiles) > 0 {
		mp.Dir = filepath.Dir(lp.GoFiles[0])
	}
	p.modelPkgs[pkg.Path()] = mp
	return mp
}

// isCandidate reports whether obj is marked for constructor synthesis in
// this load.
func (p *Parser) isCandidate(obj *types.TypeName) bool {
	_, ok := hasDirective(p.typeDocs[obj], DirectiveConstruct)
	return ok && !p.excludedType(obj.Name())
}
