package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// BaseCall describes how the generated constructor initialises the embedded
// base.
type BaseCall struct {
	Field          string     // embedded field name
	Pointer        bool       // embedded as *Base
	Func           string     // constructor function to call
	PkgPath        string     // package declaring Func
	TypeArgs       []*TypeRef // explicit instantiation, empty for non-generic bases
	ReturnsPointer bool
	Args           []Parameter // the base segment, in call order
}

// Constructor is the resolved plan for one type, ready for emission.
type Constructor struct {
	Type          *TypeDescriptor
	Name          string
	Params        *ParameterList
	Fields        []*FieldDescriptor // eligible fields, declaration order
	Base          *BaseCall          // nil when the base has no constructor to call
	PostConstruct *MethodDescriptor
	Unit          string
}

// Unit is one generated code unit.
type Unit struct {
	Name    string // deterministic unit name, see UnitName
	File    string // file name inside Dir
	Dir     string
	PkgPath string
	Type    string // display name of the constructed type
	Source  []byte
}

// ConstructorName is the function name synthesized for a type: NewBox for
// Box, newBox for box.
func ConstructorName(typeName string) string {
	r, size := utf8.DecodeRuneInString(typeName)
	if unicode.IsUpper(r) {
		return "New" + typeName
	}
	return "new" + string(unicode.ToUpper(r)) + typeName[size:]
}

var genericMarkers = strings.NewReplacer("<", "[", ">", "]")

// UnitName derives the unit name from the type's qualified display name,
// rewriting angle-bracket generic markers into brackets.
func UnitName(t *TypeDescriptor) string {
	return genericMarkers.Replace(t.DisplayName())
}

var fileUnsafe = strings.NewReplacer(
	"[", "_", "]", "", "<", "_", ">", "",
	", ", "_", ",", "_", " ", "_", "/", "_", ".", "_",
)

// FileName is the file a type's unit is written to inside its package dir.
func FileName(t *TypeDescriptor) string {
	name := t.Name
	if t.IsGeneric() {
		parts := make([]string, len(t.TypeParams))
		for i, tp := range t.TypeParams {
			parts[i] = tp.Name
		}
		name += "[" + strings.Join(parts, ",") + "]"
	}
	return strings.ToLower(fileUnsafe.Replace(name)) + "_autoctor.go"
}
