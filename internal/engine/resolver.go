package engine

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/cmmoran/autoctor/internal/model"
)

// Resolve merges field, base and post-construct parameters of t into its
// constructor plan. inherited is the list of the base's synthesized
// constructor, already closed over t's type arguments, or nil when the base
// was not synthesized in this run. The result depends only on the arguments.
//
// A base that has a constructor is always initialised through it, even when
// that constructor takes no parameters.
func Resolve(t *model.TypeDescriptor, inherited *model.ParameterList, post PostConstruct) *model.Constructor {
	fields := EligibleFields(t)

	params := make([]model.Parameter, 0, len(fields)+inherited.Len())
	for _, f := range fields {
		params = append(params, model.Parameter{
			Name:   ParameterName(f.Name),
			Type:   f.Type,
			Origin: model.OriginField,
		})
	}

	var call *model.BaseCall
	if t.Base != nil && t.Base.Type != nil {
		if ctor := explicitConstructor(t.Base); ctor != nil {
			params = appendSegment(params, ctor.Params, model.OriginBase)
			call = &model.BaseCall{
				Func:           ctor.Name,
				PkgPath:        ctor.PkgPath,
				ReturnsPointer: ctor.ReturnsPointer,
			}
		} else if inherited != nil {
			params = appendSegment(params, inherited.All(), model.OriginBase)
			call = &model.BaseCall{
				Func:           model.ConstructorName(t.Base.Type.Name),
				PkgPath:        t.Base.Type.PkgPath(),
				ReturnsPointer: true,
			}
		}
		if call != nil {
			call.Field = t.Base.Field
			call.Pointer = t.Base.Pointer
			call.TypeArgs = t.Base.TypeArgs
		}
	}

	if post.Method != nil {
		params = appendSegment(params, post.Method.Params, model.OriginPostConstruct)
	}

	makeUnique(params)

	fieldNames := make(map[string]string, len(fields))
	for i, f := range fields {
		fieldNames[f.Name] = params[i].Name
	}
	list := model.NewParameterList(params, fieldNames)

	if call != nil {
		call.Args = list.Segment(model.OriginBase)
	}

	return &model.Constructor{
		Type:          t,
		Name:          model.ConstructorName(t.Name),
		Params:        list,
		Fields:        fields,
		Base:          call,
		PostConstruct: post.Method,
		Unit:          model.UnitName(t),
	}
}

// explicitConstructor returns the base's hand-written constructor, or nil
// when there is none or the choice is ambiguous.
func explicitConstructor(base *model.BaseRef) *model.MethodDescriptor {
	var found *model.MethodDescriptor
	for _, c := range base.Constructors {
		if c == nil {
			continue
		}
		if found != nil {
			return nil
		}
		found = c
	}
	return found
}

func appendSegment(dst, src []model.Parameter, origin model.Origin) []model.Parameter {
	for _, p := range src {
		p.Origin = origin
		dst = append(dst, p)
	}
	return dst
}

// ParameterName derives a parameter name from a field name: leading
// underscores are stripped and keywords get a trailing underscore.
func ParameterName(field string) string {
	name := strings.TrimLeft(field, "_")
	if name == "" {
		name = "p"
	}
	if token.IsKeyword(name) {
		name += "_"
	}
	return name
}

// makeUnique renames, in place, every parameter whose name was taken by an
// earlier one. The replacement is the first name+N that is neither taken nor
// the original name of any parameter in the list.
func makeUnique(params []model.Parameter) {
	reserved := make(map[string]bool, len(params))
	for _, p := range params {
		reserved[p.Name] = true
	}
	used := make(map[string]bool, len(params))
	for i := range params {
		name := params[i].Name
		if used[name] {
			for n := 1; ; n++ {
				c := name + strconv.Itoa(n)
				if !used[c] && !reserved[c] {
					name = c
					break
				}
			}
		}
		used[name] = true
		params[i].Name = name
	}
}
