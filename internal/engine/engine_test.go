package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/autoctor/internal/emitter"
	"github.com/cmmoran/autoctor/internal/engine"
	"github.com/cmmoran/autoctor/internal/model"
)

const (
	shapesPath = "example.com/shapes"
	netPath    = "example.com/net"
)

var (
	shapes = &model.Package{Path: shapesPath, Name: "shapes", Dir: "/src/shapes"}
	netPkg = &model.Package{Path: netPath, Name: "net", Dir: "/src/net"}

	intT    = model.Builtin("int")
	stringT = model.Builtin("string")
)

func field(name string, typ *model.TypeRef) *model.FieldDescriptor {
	return &model.FieldDescriptor{
		Name:  name,
		Type:  typ,
		Flags: model.FieldInstance | model.FieldReadOnly | model.FieldNameable,
	}
}

func marked(name string, fields ...*model.FieldDescriptor) *model.TypeDescriptor {
	return &model.TypeDescriptor{
		Package: shapes,
		Name:    name,
		Fields:  fields,
		Markers: model.Markers{AutoConstruct: true},
	}
}

func embed(t, base *model.TypeDescriptor, args ...*model.TypeRef) *model.TypeDescriptor {
	t.Base = &model.BaseRef{Type: base, Field: base.Name, TypeArgs: args}
	return t
}

func method(name string, post bool, line int, params ...model.Parameter) *model.MethodDescriptor {
	return &model.MethodDescriptor{
		Name:          name,
		Params:        params,
		PostConstruct: post,
		Locations:     []model.Position{{Filename: "/src/shapes/shapes.go", Line: line, Column: 1}},
	}
}

func generate(t *testing.T, prog *model.Program) *engine.Result {
	t.Helper()
	res, err := engine.New(emitter.New()).Generate(context.Background(), prog)
	require.NoError(t, err)
	return res
}

func source(t *testing.T, res *engine.Result, unit string) string {
	t.Helper()
	for _, u := range res.Units {
		if u.Name == unit {
			return string(u.Source)
		}
	}
	require.Failf(t, "unit not found", "%s not in %d units", unit, len(res.Units))
	return ""
}

func TestGenerate(ttt *testing.T) {
	tests := []struct {
		name     string
		types    func() []*model.TypeDescriptor
		unit     string
		contains []string
		excludes []string
	}{
		{
			name: "fields in declaration order",
			types: func() []*model.TypeDescriptor {
				return []*model.TypeDescriptor{marked("Widget",
					field("a", model.Builtin("bool")),
					field("b", intT),
					field("c", stringT),
				)}
			},
			unit: "shapes.Widget",
			contains: []string{
				"// " + emitter.Header,
				"package shapes",
				"// NewWidget creates a new Widget.",
				"func NewWidget(a bool, b int, c string) *Widget {",
				"w := &Widget{}",
				"w.a = a\n\tw.b = b\n\tw.c = c\n",
				"return w",
			},
		},
		{
			name: "initialized and exported fields are skipped",
			types: func() []*model.TypeDescriptor {
				skipped := field("cache", model.MapOf(stringT, intT))
				skipped.Flags |= model.FieldHasInitializer
				exported := field("Name", stringT)
				exported.Flags &^= model.FieldReadOnly
				return []*model.TypeDescriptor{marked("Widget", field("a", intT), skipped, exported)}
			},
			unit:     "shapes.Widget",
			contains: []string{"func NewWidget(a int) *Widget {"},
			excludes: []string{"cache", "Name"},
		},
		{
			name: "empty parameter list",
			types: func() []*model.TypeDescriptor {
				return []*model.TypeDescriptor{marked("Empty")}
			},
			unit:     "shapes.Empty",
			contains: []string{"func NewEmpty() *Empty {", "e := &Empty{}", "return e"},
		},
		{
			name: "unexported type",
			types: func() []*model.TypeDescriptor {
				return []*model.TypeDescriptor{marked("widget", field("a", intT))}
			},
			unit:     "shapes.widget",
			contains: []string{"func newWidget(a int) *widget {"},
		},
		{
			name: "keyword and underscore field names",
			types: func() []*model.TypeDescriptor {
				return []*model.TypeDescriptor{marked("Token", field("_type", stringT), field("_id", intT))}
			},
			unit:     "shapes.Token",
			contains: []string{"func NewToken(type_ string, id int) *Token {", "t._type = type_", "t._id = id"},
		},
		{
			name: "generic base closed over int",
			types: func() []*model.TypeDescriptor {
				a := marked("A", field("x", model.TypeParamRef("T")))
				a.TypeParams = []model.TypeParam{{Name: "T"}}
				b := embed(marked("B"), a, intT)
				return []*model.TypeDescriptor{a, b}
			},
			unit:     "shapes.B",
			contains: []string{"func NewB(x int) *B {", "b.A = *NewA[int](x)"},
		},
		{
			name: "generic type signature",
			types: func() []*model.TypeDescriptor {
				a := marked("A", field("x", model.TypeParamRef("T")))
				a.TypeParams = []model.TypeParam{{Name: "T"}}
				return []*model.TypeDescriptor{a}
			},
			unit:     "shapes.A[T]",
			contains: []string{"func NewA[T any](x T) *A[T] {", "a := &A[T]{}"},
		},
		{
			name: "pointer embedded synthesized base",
			types: func() []*model.TypeDescriptor {
				base := marked("Base", field("id", intT))
				d := embed(marked("Derived"), base)
				d.Base.Pointer = true
				return []*model.TypeDescriptor{base, d}
			},
			unit:     "shapes.Derived",
			contains: []string{"func NewDerived(id int) *Derived {", "d.Base = NewBase(id)"},
		},
		{
			name: "colliding names are renamed",
			types: func() []*model.TypeDescriptor {
				base := marked("Base", field("x", intT))
				d := embed(marked("D", field("x", stringT)), base)
				return []*model.TypeDescriptor{base, d}
			},
			unit:     "shapes.D",
			contains: []string{"func NewD(x string, x1 int) *D {", "d.Base = *NewBase(x1)", "d.x = x"},
		},
		{
			name: "renames skip names already in the list",
			types: func() []*model.TypeDescriptor {
				base := marked("Base", field("x", intT))
				e := embed(marked("E", field("x", stringT), field("x1", stringT)), base)
				return []*model.TypeDescriptor{base, e}
			},
			unit:     "shapes.E",
			contains: []string{"func NewE(x string, x1 string, x2 int) *E {", "e.Base = *NewBase(x2)", "e.x1 = x1"},
		},
		{
			name: "receiver name avoids parameters",
			types: func() []*model.TypeDescriptor {
				return []*model.TypeDescriptor{marked("Widget", field("w", intT))}
			},
			unit:     "shapes.Widget",
			contains: []string{"w1 := &Widget{}", "w1.w = w", "return w1"},
		},
		{
			name: "marked post-construct",
			types: func() []*model.TypeDescriptor {
				w := marked("Widget", field("a", intT))
				w.Methods = []*model.MethodDescriptor{
					method("Close", false, 10),
					method("init", true, 20, model.Parameter{Name: "cfg", Type: model.Named(netPath, "Config")}),
				}
				return []*model.TypeDescriptor{w}
			},
			unit: "shapes.Widget",
			contains: []string{
				`"example.com/net"`,
				"func NewWidget(a int, cfg net.Config) *Widget {",
				"w.a = a\n\tw.init(cfg)\n\treturn w",
			},
		},
		{
			name: "post-construct by type marker name",
			types: func() []*model.TypeDescriptor {
				w := marked("Widget")
				w.Markers.PostConstruct = "setup"
				w.Methods = []*model.MethodDescriptor{method("setup", false, 10)}
				return []*model.TypeDescriptor{w}
			},
			unit:     "shapes.Widget",
			contains: []string{"w.setup()"},
		},
		{
			name: "variadic post-construct stays variadic",
			types: func() []*model.TypeDescriptor {
				w := marked("Widget", field("a", intT))
				w.Methods = []*model.MethodDescriptor{
					method("init", true, 20,
						model.Parameter{Name: "name", Type: stringT},
						model.Parameter{Name: "opts", Type: model.SliceOf(model.Named(netPath, "Option")), Variadic: true},
					),
				}
				return []*model.TypeDescriptor{w}
			},
			unit: "shapes.Widget",
			contains: []string{
				"func NewWidget(a int, name string, opts ...net.Option) *Widget {",
				"w.init(name, opts...)",
			},
		},
		{
			name: "explicit base constructor",
			types: func() []*model.TypeDescriptor {
				conn := &model.TypeDescriptor{Package: netPkg, Name: "Conn"}
				s := marked("Server", field("port", intT))
				s.Base = &model.BaseRef{
					Type:    conn,
					Field:   "Conn",
					Pointer: true,
					Constructors: []*model.MethodDescriptor{{
						Name:           "NewConn",
						PkgPath:        netPath,
						Params:         []model.Parameter{{Name: "addr", Type: stringT}},
						ReturnsPointer: true,
					}},
				}
				return []*model.TypeDescriptor{s}
			},
			unit:     "shapes.Server",
			contains: []string{"func NewServer(port int, addr string) *Server {", "s.Conn = net.NewConn(addr)"},
		},
		{
			name: "explicit base constructor returning a value into a pointer embed",
			types: func() []*model.TypeDescriptor {
				conn := &model.TypeDescriptor{Package: netPkg, Name: "Conn"}
				s := marked("Server")
				s.Base = &model.BaseRef{
					Type:    conn,
					Field:   "Conn",
					Pointer: true,
					Constructors: []*model.MethodDescriptor{{
						Name:    "NewConn",
						PkgPath: netPath,
						Params:  []model.Parameter{{Name: "addr", Type: stringT}},
					}},
				}
				return []*model.TypeDescriptor{s}
			},
			unit:     "shapes.Server",
			contains: []string{"sConn := net.NewConn(addr)", "s.Conn = &sConn"},
		},
		{
			name: "variadic base parameter before post-construct parameters",
			types: func() []*model.TypeDescriptor {
				conn := &model.TypeDescriptor{Package: netPkg, Name: "Conn"}
				s := marked("Server")
				s.Base = &model.BaseRef{
					Type:  conn,
					Field: "Conn",
					Constructors: []*model.MethodDescriptor{{
						Name:    "NewConn",
						PkgPath: netPath,
						Params: []model.Parameter{
							{Name: "addr", Type: stringT},
							{Name: "opts", Type: model.SliceOf(model.Named(netPath, "Option")), Variadic: true},
						},
						ReturnsPointer: true,
					}},
				}
				s.Methods = []*model.MethodDescriptor{method("init", true, 30, model.Parameter{Name: "debug", Type: model.Builtin("bool")})}
				return []*model.TypeDescriptor{s}
			},
			unit: "shapes.Server",
			contains: []string{
				"func NewServer(addr string, opts []net.Option, debug bool) *Server {",
				"s.Conn = *net.NewConn(addr, opts...)",
				"s.init(debug)",
			},
		},
		{
			name: "parameterless explicit base constructor is still called",
			types: func() []*model.TypeDescriptor {
				conn := &model.TypeDescriptor{Package: netPkg, Name: "Conn"}
				s := marked("Server", field("port", intT))
				s.Base = &model.BaseRef{
					Type:         conn,
					Field:        "Conn",
					Constructors: []*model.MethodDescriptor{{Name: "NewConn", PkgPath: netPath, ReturnsPointer: true}},
				}
				return []*model.TypeDescriptor{s}
			},
			unit:     "shapes.Server",
			contains: []string{"func NewServer(port int) *Server {", "s.Conn = *net.NewConn()\n\ts.port = port"},
		},
		{
			name: "base hook runs with empty base list",
			types: func() []*model.TypeDescriptor {
				base := marked("Base")
				base.Methods = []*model.MethodDescriptor{method("init", true, 5)}
				d := embed(marked("Derived", field("a", intT)), base)
				return []*model.TypeDescriptor{base, d}
			},
			unit:     "shapes.Derived",
			contains: []string{"func NewDerived(a int) *Derived {", "d.Base = *NewBase()\n\td.a = a"},
		},
		{
			name: "pointer base with empty list is allocated",
			types: func() []*model.TypeDescriptor {
				base := marked("Base")
				d := embed(marked("Derived"), base)
				d.Base.Pointer = true
				return []*model.TypeDescriptor{base, d}
			},
			unit:     "shapes.Derived",
			contains: []string{"func NewDerived() *Derived {", "d.Base = NewBase()"},
		},
		{
			name: "generic base with empty list is instantiated",
			types: func() []*model.TypeDescriptor {
				base := marked("Base")
				base.TypeParams = []model.TypeParam{{Name: "T"}}
				d := embed(marked("Derived"), base, stringT)
				return []*model.TypeDescriptor{base, d}
			},
			unit:     "shapes.Derived",
			contains: []string{"d.Base = *NewBase[string]()"},
		},
		{
			name: "import shadowed by a parameter is renamed",
			types: func() []*model.TypeDescriptor {
				conn := &model.TypeDescriptor{Package: netPkg, Name: "Conn"}
				w := marked("Wrap", field("net", intT))
				w.Base = &model.BaseRef{
					Type:  conn,
					Field: "Conn",
					Constructors: []*model.MethodDescriptor{{
						Name:    "NewConn",
						PkgPath: netPath,
						Params: []model.Parameter{
							{Name: "addr", Type: stringT},
							{Name: "opts", Type: model.SliceOf(model.Named(netPath, "Option")), Variadic: true},
						},
						ReturnsPointer: true,
					}},
				}
				return []*model.TypeDescriptor{w}
			},
			unit: "shapes.Wrap",
			contains: []string{
				`import net1 "example.com/net"`,
				"func NewWrap(net int, addr string, opts ...net1.Option) *Wrap {",
				"w.Conn = *net1.NewConn(addr, opts...)",
				"w.net = net",
			},
		},
		{
			name: "import shadowed through a base type argument is renamed",
			types: func() []*model.TypeDescriptor {
				a := marked("A", field("at", model.TypeParamRef("T")))
				a.TypeParams = []model.TypeParam{{Name: "T"}}
				b := embed(marked("B", field("time", stringT)), a, model.Named("time", "Time"))
				return []*model.TypeDescriptor{a, b}
			},
			unit: "shapes.B",
			contains: []string{
				`import time1 "time"`,
				"func NewB(time string, at time1.Time) *B {",
				"b.A = *NewA[time1.Time](at)",
			},
		},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := generate(t, &model.Program{Types: tt.types()})
			src := source(t, res, tt.unit)
			for _, want := range tt.contains {
				assert.Contains(t, src, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, src, unwanted)
			}
			assert.Empty(t, res.Diagnostics)
		})
	}
}

func TestGenerateAmbiguousPostConstruct(ttt *testing.T) {
	tests := []struct {
		name    string
		methods []*model.MethodDescriptor
		pkgName string
		code    model.DiagnosticCode
		message string
	}{
		{
			name:    "two marked methods",
			methods: []*model.MethodDescriptor{method("init", true, 10), method("setup", true, 20)},
			code:    model.AmbiguousMarkedPostConstruct,
			message: "Only one method in a type should be marked with //autoctor:postconstruct",
		},
		{
			name:    "two methods with the package default name",
			methods: []*model.MethodDescriptor{method("setup", false, 10), method("setup", false, 20)},
			pkgName: "setup",
			code:    model.AmbiguousNamedPostConstruct,
			message: "There are multiple methods with the name `setup`. Select the one to call from the constructor using //autoctor:postconstruct.",
		},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pkg := *shapes
			pkg.PostConstruct = tt.pkgName
			w := marked("Widget", field("a", intT))
			w.Package = &pkg
			w.Methods = tt.methods

			res := generate(t, &model.Program{Types: []*model.TypeDescriptor{w}})
			src := source(t, res, "shapes.Widget")
			assert.Contains(t, src, "func NewWidget(a int) *Widget {")
			assert.NotContains(t, src, "w.init(")
			assert.NotContains(t, src, "w.setup(")

			require.Len(t, res.Diagnostics, 2)
			for i, d := range res.Diagnostics {
				assert.Equal(t, tt.code, d.Code)
				assert.Equal(t, model.SeverityWarning, d.Severity)
				assert.Equal(t, tt.message, d.Message)
				assert.Equal(t, tt.methods[i].Locations[0], d.Location)
			}
		})
	}
}

func TestGenerateOrdersBasesFirst(t *testing.T) {
	a := marked("A", field("x", intT))
	b := embed(marked("B", field("y", intT)), a)
	c := embed(marked("C", field("z", intT)), b)

	res := generate(t, &model.Program{Types: []*model.TypeDescriptor{c, b, a, b}})
	require.Len(t, res.Units, 3)
	assert.Equal(t, "shapes.A", res.Units[0].Name)
	assert.Equal(t, "shapes.B", res.Units[1].Name)
	assert.Equal(t, "shapes.C", res.Units[2].Name)

	assert.Contains(t, source(t, res, "shapes.C"), "func NewC(z int, y int, x int) *C {")
	assert.Contains(t, source(t, res, "shapes.C"), "c.B = *NewB(y, x)")
}

func TestGenerateIsDeterministic(t *testing.T) {
	build := func() *model.Program {
		base := marked("Base", field("x", intT))
		d := embed(marked("D", field("x", stringT)), base)
		d.Methods = []*model.MethodDescriptor{method("init", true, 1), method("setup", true, 2)}
		return &model.Program{Types: []*model.TypeDescriptor{d, base}}
	}
	first := generate(t, build())
	second := generate(t, build())

	require.Len(t, second.Units, len(first.Units))
	for i := range first.Units {
		assert.Equal(t, first.Units[i].Name, second.Units[i].Name)
		assert.Equal(t, string(first.Units[i].Source), string(second.Units[i].Source))
	}
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestGenerateSkipsUnmarkedTypes(t *testing.T) {
	plain := marked("Plain", field("a", intT))
	plain.Markers.AutoConstruct = false

	res := generate(t, &model.Program{Types: []*model.TypeDescriptor{plain, nil}})
	assert.Empty(t, res.Units)
	assert.Empty(t, res.Diagnostics)
}

func TestGenerateUnitNaming(t *testing.T) {
	box := marked("Box", field("v", model.TypeParamRef("T")))
	box.TypeParams = []model.TypeParam{{Name: "T"}, {Name: "U", Constraint: model.Builtin("comparable")}}

	res := generate(t, &model.Program{Types: []*model.TypeDescriptor{box}})
	require.Len(t, res.Units, 1)
	u := res.Units[0]
	assert.Equal(t, "shapes.Box[T, U]", u.Name)
	assert.Equal(t, "box_t_u_autoctor.go", u.File)
	assert.Equal(t, "/src/shapes", u.Dir)
	assert.Equal(t, shapesPath, u.PkgPath)
	assert.Contains(t, string(u.Source), "func NewBox[T any, U comparable](v T) *Box[T, U] {")
}

type cancellingHost struct {
	engine.Result
	cancel context.CancelFunc
}

func (h *cancellingHost) AddUnit(u *model.Unit) {
	h.Result.AddUnit(u)
	h.cancel()
}

func TestRunCancellation(ttt *testing.T) {
	prog := func() *model.Program {
		return &model.Program{Types: []*model.TypeDescriptor{
			marked("A", field("x", intT)),
			marked("B", field("y", intT)),
		}}
	}

	ttt.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := engine.New(emitter.New()).Generate(ctx, prog())
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, res.Units)
	})

	ttt.Run("cancelled between types", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		host := &cancellingHost{cancel: cancel}
		err := engine.New(emitter.New()).Run(ctx, prog(), host)
		require.ErrorIs(t, err, context.Canceled)
		require.Len(t, host.Units, 1)
		assert.Equal(t, "shapes.A", host.Units[0].Name)
	})
}

func TestRunNilProgram(t *testing.T) {
	res, err := engine.New(emitter.New()).Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Units)
}
