package engine

import "github.com/cmmoran/autoctor/internal/model"

// SubstituteBase rewrites the cached parameters of a generic base so their
// types use the arguments the derived type closes the base with. Names are
// never touched. A non-generic base, or an arity mismatch, leaves the types
// as they are.
func SubstituteBase(params []model.Parameter, base *model.BaseRef) []model.Parameter {
	out := append([]model.Parameter(nil), params...)
	if base == nil || base.Type == nil {
		return out
	}
	subst := substitution(base.Type.TypeParams, base.TypeArgs)
	if subst == nil {
		return out
	}
	for i := range out {
		out[i].Type = out[i].Type.Substitute(subst)
	}
	return out
}

// substitution maps type parameter i to argument i.
func substitution(params []model.TypeParam, args []*model.TypeRef) map[string]*model.TypeRef {
	if len(params) == 0 || len(params) != len(args) {
		return nil
	}
	m := make(map[string]*model.TypeRef, len(params))
	for i, tp := range params {
		if args[i] == nil {
			continue
		}
		m[tp.Name] = args[i]
	}
	return m
}
