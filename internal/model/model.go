package model

import (
	"strconv"
	"strings"
)

type Kind int

const (
	KindInvalid   Kind = iota
	KindBuiltin        // string, int, error, any, etc.
	KindNamed          // declared type, possibly instantiated: pkg.Box[int]
	KindTypeParam      // T
	KindPointer        // *T
	KindSlice          // []T
	KindArray          // [N]T
	KindMap            // map[K]V
	KindChan           // chan T, <-chan T, chan<- T
	KindFunc           // func(...) ...
	KindExpr           // anything else, rendered verbatim
)

type ChanDir int

const (
	ChanBoth ChanDir = iota
	ChanSend
	ChanRecv
)

// TypeRef is a structural reference to a Go type. TypeRefs are treated as
// immutable once built; Substitute returns new nodes instead of editing.
type TypeRef struct {
	Kind     Kind
	PkgPath  string     // "" for builtins and type parameters
	Name     string     // builtin/named/type parameter name; verbatim text for KindExpr
	TypeArgs []*TypeRef // KindNamed instantiation arguments
	Elem     *TypeRef   // pointer, slice, array, map value, chan element
	Key      *TypeRef   // map key
	Len      int64      // array length
	Dir      ChanDir
	Params   []*TypeRef // func parameters; last is a slice when Variadic
	Results  []*TypeRef
	Variadic bool
}

func Builtin(name string) *TypeRef { return &TypeRef{Kind: KindBuiltin, Name: name} }

func Named(pkgPath, name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: KindNamed, PkgPath: pkgPath, Name: name, TypeArgs: args}
}

func TypeParamRef(name string) *TypeRef { return &TypeRef{Kind: KindTypeParam, Name: name} }

func PointerTo(elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindPointer, Elem: elem} }

func SliceOf(elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindSlice, Elem: elem} }

func ArrayOf(n int64, elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindArray, Len: n, Elem: elem} }

func MapOf(key, elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindMap, Key: key, Elem: elem} }

func ChanOf(dir ChanDir, elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindChan, Dir: dir, Elem: elem} }

func FuncOf(params, results []*TypeRef, variadic bool) *TypeRef {
	return &TypeRef{Kind: KindFunc, Params: params, Results: results, Variadic: variadic}
}

func Expr(text string) *TypeRef { return &TypeRef{Kind: KindExpr, Name: text} }

// String renders the canonical form of the reference. Named types are
// qualified by their full package path, so two references are the same type
// iff their strings are equal.
func (t *TypeRef) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *TypeRef) write(sb *strings.Builder) {
	if t == nil {
		sb.WriteString("<nil>")
		return
	}
	switch t.Kind {
	case KindBuiltin, KindTypeParam, KindExpr:
		sb.WriteString(t.Name)
	case KindNamed:
		if t.PkgPath != "" {
			sb.WriteString(t.PkgPath)
			sb.WriteByte('.')
		}
		sb.WriteString(t.Name)
		writeList(sb, "[", "]", t.TypeArgs, false)
	case KindPointer:
		sb.WriteByte('*')
		t.Elem.write(sb)
	case KindSlice:
		sb.WriteString("[]")
		t.Elem.write(sb)
	case KindArray:
		sb.WriteByte('[')
		sb.WriteString(strconv.FormatInt(t.Len, 10))
		sb.WriteByte(']')
		t.Elem.write(sb)
	case KindMap:
		sb.WriteString("map[")
		t.Key.write(sb)
		sb.WriteByte(']')
		t.Elem.write(sb)
	case KindChan:
		switch t.Dir {
		case ChanSend:
			sb.WriteString("chan<- ")
		case ChanRecv:
			sb.WriteString("<-chan ")
		default:
			sb.WriteString("chan ")
		}
		t.Elem.write(sb)
	case KindFunc:
		sb.WriteString("func")
		writeList(sb, "(", ")", t.Params, t.Variadic)
		switch len(t.Results) {
		case 0:
		case 1:
			sb.WriteByte(' ')
			t.Results[0].write(sb)
		default:
			sb.WriteByte(' ')
			writeList(sb, "(", ")", t.Results, false)
		}
	default:
		sb.WriteString("invalid")
	}
}

func writeList(sb *strings.Builder, open, closing string, list []*TypeRef, variadic bool) {
	if len(list) == 0 {
		if open == "(" {
			sb.WriteString("()")
		}
		return
	}
	sb.WriteString(open)
	for i, a := range list {
		if i > 0 {
			sb.WriteString(", ")
		}
		if variadic && i == len(list)-1 && a != nil && a.Kind == KindSlice {
			sb.WriteString("...")
			a.Elem.write(sb)
			continue
		}
		a.write(sb)
	}
	sb.WriteString(closing)
}

// Equal reports whether both references denote the same type.
func (t *TypeRef) Equal(o *TypeRef) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.String() == o.String()
}

// Substitute replaces type parameters named in subst, at any depth. Nodes
// without a replacement below them are returned as-is.
func (t *TypeRef) Substitute(subst map[string]*TypeRef) *TypeRef {
	if t == nil || len(subst) == 0 {
		return t
	}
	switch t.Kind {
	case KindTypeParam:
		if r, ok := subst[t.Name]; ok {
			return r
		}
		return t
	case KindPointer, KindSlice, KindArray, KindChan:
		elem := t.Elem.Substitute(subst)
		if elem == t.Elem {
			return t
		}
		c := *t
		c.Elem = elem
		return &c
	case KindMap:
		key, elem := t.Key.Substitute(subst), t.Elem.Substitute(subst)
		if key == t.Key && elem == t.Elem {
			return t
		}
		c := *t
		c.Key, c.Elem = key, elem
		return &c
	case KindNamed:
		args, changed := substituteAll(t.TypeArgs, subst)
		if !changed {
			return t
		}
		c := *t
		c.TypeArgs = args
		return &c
	case KindFunc:
		params, pc := substituteAll(t.Params, subst)
		results, rc := substituteAll(t.Results, subst)
		if !pc && !rc {
			return t
		}
		c := *t
		c.Params, c.Results = params, results
		return &c
	default:
		return t
	}
}

func substituteAll(list []*TypeRef, subst map[string]*TypeRef) ([]*TypeRef, bool) {
	if len(list) == 0 {
		return list, false
	}
	out := make([]*TypeRef, len(list))
	changed := false
	for i, a := range list {
		out[i] = a.Substitute(subst)
		if out[i] != a {
			changed = true
		}
	}
	return out, changed
}

// Form distinguishes the two shapes of a cache key.
type Form int

const (
	FormClosed  Form = iota // a concrete, non-generic type
	FormUnbound             // a generic type definition with its parameters left open
)

// TypeKey identifies a type in the base parameter cache. All instantiations
// of a generic type share its unbound key.
type TypeKey struct {
	Form    Form
	PkgPath string
	Name    string
}

func ClosedKey(pkgPath, name string) TypeKey {
	return TypeKey{Form: FormClosed, PkgPath: pkgPath, Name: name}
}

func UnboundKey(pkgPath, name string) TypeKey {
	return TypeKey{Form: FormUnbound, PkgPath: pkgPath, Name: name}
}

func (k TypeKey) String() string {
	s := k.Name
	if k.PkgPath != "" {
		s = k.PkgPath + "." + s
	}
	if k.Form == FormUnbound {
		s += "[...]"
	}
	return s
}
