// Package emitter renders resolved constructors into Go source with jennifer.
package emitter

import (
	"bytes"
	"fmt"
	"go/token"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/autoctor/internal/model"
)

// Header marks generated files. It matches the pattern go/ast.IsGenerated
// recognises, which is how the parser skips previous output.
const Header = "Code generated by autoctor. DO NOT EDIT."

type Emitter struct {
	header string
}

type Option func(*Emitter)

func WithHeader(h string) Option { return func(e *Emitter) { e.header = h } }

func New(opts ...Option) *Emitter {
	e := &Emitter{header: Header}
	for _, fn := range opts {
		fn(e)
	}
	return e
}

// Emit renders c as a complete, gofmt'd Go file.
func (e *Emitter) Emit(c *model.Constructor) (*model.Unit, error) {
	f := e.File(c)
	buf := new(bytes.Buffer)
	if err := f.Render(buf); err != nil {
		return nil, errors.Wrapf(err, "render %s", c.Unit)
	}
	t := c.Type
	u := &model.Unit{
		Name:    c.Unit,
		File:    model.FileName(t),
		PkgPath: t.PkgPath(),
		Type:    t.DisplayName(),
		Source:  buf.Bytes(),
	}
	if t.Package != nil {
		u.Dir = t.Package.Dir
	}
	return u, nil
}

// File builds the jennifer file holding c's constructor. An import whose
// name is also a parameter or local of the constructor is renamed so the
// body still resolves it.
func (e *Emitter) File(c *model.Constructor) *jen.File {
	t := c.Type
	f := jen.NewFilePathName(t.PkgPath(), t.PkgName())
	if e.header != "" {
		f.HeaderComment(e.header)
	}
	for _, imp := range shadowedImports(c) {
		f.ImportAlias(imp.path, imp.alias)
	}
	f.Comment(fmt.Sprintf("%s creates a new %s.", c.Name, t.Name))
	f.Add(Constructor(c))
	return f
}

// Constructor renders the constructor declaration:
//
//	func NewT[TP](params) *T[TP] {
//		v := &T[TP]{}
//		v.Base = *NewBase(base params)
//		v.field = param
//		v.postConstruct(post params)
//		return v
//	}
func Constructor(c *model.Constructor) jen.Code {
	t := c.Type
	params := c.Params.All()
	recv := localName(t, params)

	sig := make([]jen.Code, len(params))
	for i, p := range params {
		sig[i] = paramCode(p, i == len(params)-1)
	}

	body := []jen.Code{
		jen.Id(recv).Op(":=").Op("&").Add(TypeCode(t.Ref())).Values(),
	}
	if b := c.Base; b != nil {
		body = append(body, baseCall(recv, b))
	}
	for _, fd := range c.Fields {
		name, ok := c.Params.FieldParameterName(fd.Name)
		if !ok {
			continue
		}
		body = append(body, jen.Id(recv).Dot(fd.Name).Op("=").Id(name))
	}
	if m := c.PostConstruct; m != nil {
		body = append(body, jen.Id(recv).Dot(m.Name).Call(args(c.Params.Segment(model.OriginPostConstruct))...))
	}
	body = append(body, jen.Return(jen.Id(recv)))

	decl := jen.Func().Id(c.Name)
	if t.IsGeneric() {
		decl = decl.Types(typeParams(t.TypeParams)...)
	}
	return decl.Params(sig...).Op("*").Add(TypeCode(t.Ref())).Block(body...)
}

func baseCall(recv string, b *model.BaseCall) jen.Code {
	call := qual(b.PkgPath, b.Func)
	if len(b.TypeArgs) > 0 {
		call = call.Types(typeCodes(b.TypeArgs)...)
	}
	call = call.Call(args(b.Args)...)

	switch {
	case b.Pointer == b.ReturnsPointer:
		return jen.Id(recv).Dot(b.Field).Op("=").Add(call)
	case b.ReturnsPointer:
		return jen.Id(recv).Dot(b.Field).Op("=").Op("*").Add(call)
	default:
		tmp := recv + b.Field
		return jen.Block(
			jen.Id(tmp).Op(":=").Add(call),
			jen.Id(recv).Dot(b.Field).Op("=").Op("&").Id(tmp),
		)
	}
}

// args spreads the final argument when it feeds a variadic parameter.
func args(params []model.Parameter) []jen.Code {
	out := make([]jen.Code, len(params))
	for i, p := range params {
		if p.Variadic && i == len(params)-1 {
			out[i] = jen.Id(p.Name).Op("...")
			continue
		}
		out[i] = jen.Id(p.Name)
	}
	return out
}

// paramCode keeps a parameter variadic only when it ends the signature;
// elsewhere it is declared as its slice type.
func paramCode(p model.Parameter, last bool) jen.Code {
	if p.Variadic && last && p.Type != nil && p.Type.Kind == model.KindSlice {
		return jen.Id(p.Name).Op("...").Add(TypeCode(p.Type.Elem))
	}
	return jen.Id(p.Name).Add(TypeCode(p.Type))
}

func typeParams(tps []model.TypeParam) []jen.Code {
	out := make([]jen.Code, len(tps))
	for i, tp := range tps {
		constraint := jen.Code(jen.Id("any"))
		if tp.Constraint != nil {
			constraint = TypeCode(tp.Constraint)
		}
		out[i] = jen.Id(tp.Name).Add(constraint)
	}
	return out
}

func typeCodes(list []*model.TypeRef) []jen.Code {
	out := make([]jen.Code, len(list))
	for i, a := range list {
		out[i] = TypeCode(a)
	}
	return out
}

func qual(pkgPath, name string) *jen.Statement {
	if pkgPath == "" {
		return jen.Id(name)
	}
	return jen.Qual(pkgPath, name)
}

// TypeCode converts a type reference to jennifer code. Named types from
// other packages become qualified identifiers and pull in their imports.
func TypeCode(t *model.TypeRef) *jen.Statement {
	if t == nil {
		return jen.Id("any")
	}
	switch t.Kind {
	case model.KindBuiltin, model.KindTypeParam, model.KindExpr:
		return jen.Id(t.Name)
	case model.KindNamed:
		s := qual(t.PkgPath, t.Name)
		if len(t.TypeArgs) > 0 {
			s = s.Types(typeCodes(t.TypeArgs)...)
		}
		return s
	case model.KindPointer:
		return jen.Op("*").Add(TypeCode(t.Elem))
	case model.KindSlice:
		return jen.Index().Add(TypeCode(t.Elem))
	case model.KindArray:
		return jen.Index(jen.Lit(int(t.Len))).Add(TypeCode(t.Elem))
	case model.KindMap:
		return jen.Map(TypeCode(t.Key)).Add(TypeCode(t.Elem))
	case model.KindChan:
		switch t.Dir {
		case model.ChanSend:
			return jen.Chan().Op("<-").Add(TypeCode(t.Elem))
		case model.ChanRecv:
			return jen.Op("<-").Chan().Add(TypeCode(t.Elem))
		default:
			return jen.Chan().Add(TypeCode(t.Elem))
		}
	case model.KindFunc:
		ps := make([]jen.Code, len(t.Params))
		for i, p := range t.Params {
			if t.Variadic && i == len(t.Params)-1 && p.Kind == model.KindSlice {
				ps[i] = jen.Op("...").Add(TypeCode(p.Elem))
				continue
			}
			ps[i] = TypeCode(p)
		}
		s := jen.Func().Params(ps...)
		if len(t.Results) > 0 {
			s = s.Params(typeCodes(t.Results)...)
		}
		return s
	default:
		return jen.Id("any")
	}
}

// localName picks the variable holding the value under construction: the
// lower-cased initial of the type, suffixed until it clashes with no
// parameter or type parameter.
func localName(t *model.TypeDescriptor, params []model.Parameter) string {
	taken := make(map[string]bool, len(params)+len(t.TypeParams))
	for _, p := range params {
		taken[p.Name] = true
	}
	for _, tp := range t.TypeParams {
		taken[tp.Name] = true
	}

	r, _ := utf8.DecodeRuneInString(t.Name)
	base := string(unicode.ToLower(r))
	if base == "_" || !unicode.IsLetter(r) {
		base = "v"
	}
	name := base
	for n := 1; taken[name] || token.IsKeyword(name); n++ {
		name = base + strconv.Itoa(n)
	}
	return name
}

type importAlias struct {
	path  string
	alias string
}

// shadowedImports lists the packages referenced by c whose import name
// collides with an identifier declared inside the constructor, each with a
// replacement name.
func shadowedImports(c *model.Constructor) []importAlias {
	locals := localNames(c)
	paths := map[string]bool{}
	for _, p := range c.Params.All() {
		collectPackages(p.Type, paths)
	}
	for _, tp := range c.Type.TypeParams {
		collectPackages(tp.Constraint, paths)
	}
	if b := c.Base; b != nil {
		if b.PkgPath != "" {
			paths[b.PkgPath] = true
		}
		for _, a := range b.TypeArgs {
			collectPackages(a, paths)
		}
	}
	delete(paths, c.Type.PkgPath())

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	taken := make(map[string]bool, len(locals))
	for n := range locals {
		taken[n] = true
	}
	var out []importAlias
	for _, path := range sorted {
		names := importNames(path)
		clash := false
		for _, n := range names {
			clash = clash || locals[n]
		}
		if !clash {
			continue
		}
		base := names[len(names)-1]
		alias := base
		for n := 1; taken[alias] || token.IsKeyword(alias); n++ {
			alias = base + strconv.Itoa(n)
		}
		taken[alias] = true
		out = append(out, importAlias{path: path, alias: alias})
	}
	return out
}

// localNames are the identifiers the constructor declares: parameters,
// type parameters, the receiver variable and the base temporary.
func localNames(c *model.Constructor) map[string]bool {
	params := c.Params.All()
	out := make(map[string]bool, len(params)+len(c.Type.TypeParams)+2)
	for _, p := range params {
		out[p.Name] = true
	}
	for _, tp := range c.Type.TypeParams {
		out[tp.Name] = true
	}
	recv := localName(c.Type, params)
	out[recv] = true
	if c.Base != nil {
		out[recv+c.Base.Field] = true
	}
	return out
}

func collectPackages(t *model.TypeRef, into map[string]bool) {
	if t == nil {
		return
	}
	if t.Kind == model.KindNamed && t.PkgPath != "" {
		into[t.PkgPath] = true
	}
	collectPackages(t.Elem, into)
	collectPackages(t.Key, into)
	for _, list := range [][]*model.TypeRef{t.TypeArgs, t.Params, t.Results} {
		for _, a := range list {
			collectPackages(a, into)
		}
	}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// importNames returns the names jennifer may give path when it picks one
// itself: the sanitised last element and, for a major version suffix, the
// element before it. The last entry is the preferred base for an alias.
func importNames(path string) []string {
	elems := strings.Split(strings.TrimSuffix(path, "/"), "/")
	last := sanitizeImportName(elems[len(elems)-1])
	if len(elems) > 1 && isMajorVersion(elems[len(elems)-1]) {
		return []string{last, sanitizeImportName(elems[len(elems)-2])}
	}
	return []string{last}
}

func sanitizeImportName(elem string) string {
	name := nonAlnum.ReplaceAllString(strings.ToLower(elem), "")
	name = strings.TrimLeft(name, "0123456789")
	if name == "" {
		return "pkg"
	}
	return name
}

func isMajorVersion(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(elem[1:])
	return err == nil
}
