package model

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Position is a source location. The zero value means "unknown".
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		if p.Filename != "" {
			return p.Filename
		}
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Package is the containing scope of a type.
type Package struct {
	Path          string // import path
	Name          string // package clause name
	Dir           string // directory on disk, "" when unknown
	PostConstruct string // package-wide default post-construct method name
}

type TypeParam struct {
	Name       string
	Constraint *TypeRef
}

// Markers carries the directives found on a type declaration.
type Markers struct {
	AutoConstruct bool   // constructor synthesis requested
	PostConstruct string // type-level post-construct method name, "" for none
}

// Program is everything the engine consumes for one run.
type Program struct {
	Types                []*TypeDescriptor // candidates, in discovery order
	DefaultPostConstruct string            // program-wide default post-construct name
}

type TypeDescriptor struct {
	// Identity ------------------------------------------------------------
	Package    *Package
	Name       string
	TypeParams []TypeParam
	Pos        Position

	// Structure ------------------------------------------------------------
	Fields  []*FieldDescriptor // declaration order
	Base    *BaseRef           // nil when the type has no base
	Methods []*MethodDescriptor

	// Metadata -------------------------------------------------------------
	Markers Markers
}

func (t *TypeDescriptor) PkgPath() string {
	if t.Package == nil {
		return ""
	}
	return t.Package.Path
}

func (t *TypeDescriptor) PkgName() string {
	if t.Package == nil {
		return ""
	}
	return t.Package.Name
}

func (t *TypeDescriptor) IsGeneric() bool { return len(t.TypeParams) > 0 }

// Key is the cache key the type is stored under: its unbound form when
// generic, its closed identity otherwise.
func (t *TypeDescriptor) Key() TypeKey {
	if t.IsGeneric() {
		return UnboundKey(t.PkgPath(), t.Name)
	}
	return ClosedKey(t.PkgPath(), t.Name)
}

// Ref is the type as seen from inside its own declaration: Box[T].
func (t *TypeDescriptor) Ref() *TypeRef {
	args := make([]*TypeRef, 0, len(t.TypeParams))
	for _, tp := range t.TypeParams {
		args = append(args, TypeParamRef(tp.Name))
	}
	return Named(t.PkgPath(), t.Name, args...)
}

// DisplayName is the package-qualified name with type parameters, e.g.
// shapes.Box[T, U].
func (t *TypeDescriptor) DisplayName() string {
	var sb strings.Builder
	if n := t.PkgName(); n != "" {
		sb.WriteString(n)
		sb.WriteByte('.')
	}
	sb.WriteString(t.Name)
	if t.IsGeneric() {
		sb.WriteByte('[')
		for i, tp := range t.TypeParams {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(tp.Name)
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// Depth counts base links up to the root. A base chain that loops back on
// itself stops counting at the first repeated type.
func (t *TypeDescriptor) Depth() int {
	seen := map[*TypeDescriptor]bool{t: true}
	depth := 0
	for b := t.Base; b != nil && b.Type != nil; b = b.Type.Base {
		if seen[b.Type] {
			break
		}
		seen[b.Type] = true
		depth++
	}
	return depth
}

func (t *TypeDescriptor) IsExported() bool {
	r, _ := utf8.DecodeRuneInString(t.Name)
	return unicode.IsUpper(r)
}

// BaseRef is the derived type's view of its base: which type, with which
// arguments, and how it is embedded.
type BaseRef struct {
	Type         *TypeDescriptor
	TypeArgs     []*TypeRef          // closed arguments for a generic base, same order as Type.TypeParams
	Field        string              // embedded field name
	Pointer      bool                // embedded as *Base
	Constructors []*MethodDescriptor // hand-written constructors, already closed over TypeArgs
}

type FieldFlags uint8

const (
	FieldInstance FieldFlags = 1 << iota
	FieldReadOnly
	FieldNameable
	FieldHasInitializer
)

type FieldDescriptor struct {
	Name  string
	Type  *TypeRef
	Flags FieldFlags
	Pos   Position
}

func (f *FieldDescriptor) Has(flag FieldFlags) bool { return f.Flags&flag != 0 }

// Eligible reports whether the generated constructor must assign the field.
func (f *FieldDescriptor) Eligible() bool {
	return f.Has(FieldInstance) && f.Has(FieldReadOnly) && f.Has(FieldNameable) && !f.Has(FieldHasInitializer)
}

// MethodDescriptor describes a method, or a constructor function when used in
// BaseRef.Constructors.
type MethodDescriptor struct {
	Name           string
	PkgPath        string      // constructors only: package declaring the function
	Params         []Parameter // declaration order; variadic last param has a slice Type
	ReturnsPointer bool        // constructors only
	PostConstruct  bool        // carries the explicit post-construct marker
	Locations      []Position
}
