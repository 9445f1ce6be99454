package parser

import (
	"fmt"
	"go/types"
	"reflect"

	"github.com/cmmoran/autoctor/internal/model"
)

// describe returns the TypeDescriptor of a named struct type, building it
// (and its base chain) on first use. Instantiations are described through
// their generic origin.
func (p *Parser) describe(named *types.Named) *model.TypeDescriptor {
	named = named.Origin()
	obj := named.Obj()
	if d, ok := p.descs[obj]; ok {
		return d
	}

	d := &model.TypeDescriptor{
		Package: p.modelPackage(obj.Pkg()),
		Name:    obj.Name(),
		Pos:     p.position(obj.Pos()),
	}
	// registered before recursing so pointer-embedding cycles terminate
	p.descs[obj] = d

	if arg, ok := hasDirective(p.typeDocs[obj], DirectiveConstruct); ok {
		d.Markers = model.Markers{AutoConstruct: p.isCandidate(obj), PostConstruct: arg}
	}

	tps := named.TypeParams()
	for i := 0; i < tps.Len(); i++ {
		tp := tps.At(i)
		d.TypeParams = append(d.TypeParams, model.TypeParam{
			Name:       tp.Obj().Name(),
			Constraint: p.constraintRef(tp.Constraint()),
		})
	}

	if st, ok := named.Underlying().(*types.Struct); ok {
		p.populateFields(d, obj.Pkg(), st)
	}
	d.Methods = p.methods(named)
	return d
}

// populateFields fills in fields and the base reference. Embedded fields
// other than the base are not nameable.
func (p *Parser) populateFields(d *model.TypeDescriptor, pkg *types.Package, st *types.Struct) {
	baseIdx, base := p.baseField(st, pkg)
	d.Base = base
	for i := 0; i < st.NumFields(); i++ {
		if i == baseIdx {
			continue
		}
		v := st.Field(i)
		tag := reflect.StructTag(st.Tag(i))

		flags := model.FieldInstance
		if !v.Embedded() && v.Name() != "_" {
			flags |= model.FieldNameable
		}
		if !v.Exported() || hasTagOption(tag, p.cfg.TagKey, tagReadOnly) {
			flags |= model.FieldReadOnly
		}
		if hasTagOption(tag, p.cfg.TagKey, tagSkip) || excludedByFilters(tag, p.cfg.ExcludeByTags) {
			flags |= model.FieldHasInitializer
		}

		d.Fields = append(d.Fields, &model.FieldDescriptor{
			Name:  v.Name(),
			Type:  p.typeRef(v.Type()),
			Flags: flags,
			Pos:   p.position(v.Pos()),
		})
	}
}

// baseField picks the embedded struct acting as base: the first one that
// is auto-constructed or has a hand-written constructor, otherwise the first
// embedded struct. Mixins such as sync.Mutex are skipped that way.
func (p *Parser) baseField(st *types.Struct, pkg *types.Package) (int, *model.BaseRef) {
	first, firstRef := -1, (*model.BaseRef)(nil)
	for i := 0; i < st.NumFields(); i++ {
		v := st.Field(i)
		if !v.Embedded() {
			continue
		}
		ref := p.baseRef(v, pkg)
		if ref == nil {
			continue
		}
		if ref.Type.Markers.AutoConstruct || len(ref.Constructors) > 0 {
			return i, ref
		}
		if first < 0 {
			first, firstRef = i, ref
		}
	}
	return first, firstRef
}

// baseRef describes an embedded field when it embeds a named struct type.
func (p *Parser) baseRef(v *types.Var, from *types.Package) *model.BaseRef {
	t := v.Type()
	ptr, isPtr := t.(*types.Pointer)
	if isPtr {
		t = ptr.Elem()
	}
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return nil
	}
	if _, ok := named.Underlying().(*types.Struct); !ok {
		return nil
	}

	ref := &model.BaseRef{
		Type:    p.describe(named),
		Field:   v.Name(),
		Pointer: isPtr,
	}
	targs := named.TypeArgs()
	for i := 0; i < targs.Len(); i++ {
		ref.TypeArgs = append(ref.TypeArgs, p.typeRef(targs.At(i)))
	}
	if !p.isCandidate(named.Origin().Obj()) {
		ref.Constructors = p.constructors(named, from)
	}
	return ref
}

// constructors finds the hand-written constructor of a base: a function
// named like the one autoctor would synthesize, declared outside generated
// files, returning the base by value or pointer. Generic constructors are
// instantiated with the derived type's arguments.
func (p *Parser) constructors(named *types.Named, from *types.Package) []*model.MethodDescriptor {
	origin := named.Origin()
	obj := origin.Obj()
	if obj.Pkg() == nil {
		return nil
	}
	fn, ok := obj.Pkg().Scope().Lookup(model.ConstructorName(obj.Name())).(*types.Func)
	if !ok {
		return nil
	}
	if fn.Pkg() != from && !fn.Exported() {
		return nil
	}
	if p.generated[p.position(fn.Pos()).Filename] {
		return nil
	}

	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() != nil || sig.Results().Len() != 1 {
		return nil
	}

	targs := named.TypeArgs()
	if sig.TypeParams().Len() != targs.Len() {
		return nil
	}
	if targs.Len() > 0 {
		list := make([]types.Type, targs.Len())
		for i := range list {
			list[i] = targs.At(i)
		}
		inst, err := types.Instantiate(nil, sig, list, false)
		if err != nil {
			p.logger.With("func", fn.FullName(), "error", err).Debug("cannot instantiate base constructor")
			return nil
		}
		sig = inst.(*types.Signature)
	}

	res := sig.Results().At(0).Type()
	rptr, returnsPtr := res.(*types.Pointer)
	if returnsPtr {
		res = rptr.Elem()
	}
	rn, ok := types.Unalias(res).(*types.Named)
	if !ok || rn.Origin().Obj() != obj {
		return nil
	}

	return []*model.MethodDescriptor{{
		Name:           fn.Name(),
		PkgPath:        fn.Pkg().Path(),
		Params:         p.params(sig, nil),
		ReturnsPointer: returnsPtr,
		Locations:      []model.Position{p.position(fn.Pos())},
	}}
}

// methods lists the methods declared on named. Receiver type parameters are
// renamed to the type's declared parameter names.
func (p *Parser) methods(named *types.Named) []*model.MethodDescriptor {
	out := make([]*model.MethodDescriptor, 0, named.NumMethods())
	tps := named.TypeParams()
	for i := 0; i < named.NumMethods(); i++ {
		fn := named.Method(i)
		sig, ok := fn.Type().(*types.Signature)
		if !ok {
			continue
		}

		var rename map[string]*model.TypeRef
		if rtp := sig.RecvTypeParams(); rtp.Len() > 0 && rtp.Len() == tps.Len() {
			rename = make(map[string]*model.TypeRef, rtp.Len())
			for j := 0; j < rtp.Len(); j++ {
				if from, to := rtp.At(j).Obj().Name(), tps.At(j).Obj().Name(); from != to {
					rename[from] = model.TypeParamRef(to)
				}
			}
		}

		out = append(out, &model.MethodDescriptor{
			Name:          fn.Name(),
			Params:        p.params(sig, rename),
			PostConstruct: p.marked[fn],
			Locations:     []model.Position{p.position(fn.Pos())},
		})
	}
	return out
}

// params converts a signature's parameters. Unnamed and blank parameters
// are named argN after their position.
func (p *Parser) params(sig *types.Signature, rename map[string]*model.TypeRef) []model.Parameter {
	tuple := sig.Params()
	out := make([]model.Parameter, 0, tuple.Len())
	for i := 0; i < tuple.Len(); i++ {
		v := tuple.At(i)
		name := v.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		out = append(out, model.Parameter{
			Name:     name,
			Type:     p.typeRef(v.Type()).Substitute(rename),
			Variadic: sig.Variadic() && i == tuple.Len()-1,
		})
	}
	return out
}

// typeRef converts a go/types type into the model's structural reference.
func (p *Parser) typeRef(t types.Type) *model.TypeRef {
	switch t := t.(type) {
	case *types.Basic:
		if t.Kind() == types.UnsafePointer {
			return model.Named("unsafe", "Pointer")
		}
		return model.Builtin(t.Name())
	case *types.Alias:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return model.Builtin(obj.Name())
		}
		return model.Named(obj.Pkg().Path(), obj.Name(), p.typeList(t.TypeArgs())...)
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return model.Builtin(obj.Name())
		}
		return model.Named(obj.Pkg().Path(), obj.Name(), p.typeList(t.TypeArgs())...)
	case *types.TypeParam:
		return model.TypeParamRef(t.Obj().Name())
	case *types.Pointer:
		return model.PointerTo(p.typeRef(t.Elem()))
	case *types.Slice:
		return model.SliceOf(p.typeRef(t.Elem()))
	case *types.Array:
		return model.ArrayOf(t.Len(), p.typeRef(t.Elem()))
	case *types.Map:
		return model.MapOf(p.typeRef(t.Key()), p.typeRef(t.Elem()))
	case *types.Chan:
		dir := model.ChanBoth
		switch t.Dir() {
		case types.SendOnly:
			dir = model.ChanSend
		case types.RecvOnly:
			dir = model.ChanRecv
		}
		return model.ChanOf(dir, p.typeRef(t.Elem()))
	case *types.Signature:
		params := make([]*model.TypeRef, 0, t.Params().Len())
		for i := 0; i < t.Params().Len(); i++ {
			params = append(params, p.typeRef(t.Params().At(i).Type()))
		}
		results := make([]*model.TypeRef, 0, t.Results().Len())
		for i := 0; i < t.Results().Len(); i++ {
			results = append(results, p.typeRef(t.Results().At(i).Type()))
		}
		return model.FuncOf(params, results, t.Variadic())
	case *types.Interface:
		if t.Empty() {
			return model.Builtin("any")
		}
		return model.Expr(types.TypeString(t, qualifyByName))
	default:
		return model.Expr(types.TypeString(t, qualifyByName))
	}
}

func (p *Parser) typeList(list *types.TypeList) []*model.TypeRef {
	if list == nil || list.Len() == 0 {
		return nil
	}
	out := make([]*model.TypeRef, list.Len())
	for i := range out {
		out[i] = p.typeRef(list.At(i))
	}
	return out
}

// constraintRef converts a type parameter constraint. Inline constraints
// such as ~int | ~string are kept verbatim.
func (p *Parser) constraintRef(t types.Type) *model.TypeRef {
	if iface, ok := t.(*types.Interface); ok {
		if iface.Empty() {
			return model.Builtin("any")
		}
		if iface.IsImplicit() && iface.NumEmbeddeds() == 1 {
			return model.Expr(types.TypeString(iface.EmbeddedType(0), qualifyByName))
		}
	}
	return p.typeRef(t)
}

func qualifyByName(pkg *types.Package) string { return pkg.Name() }
