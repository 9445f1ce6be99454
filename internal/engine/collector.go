package engine

import "github.com/cmmoran/autoctor/internal/model"

// EligibleFields returns the fields the generated constructor assigns, in
// declaration order. Fields with an initializer are already constructed and
// are left alone.
func EligibleFields(t *model.TypeDescriptor) []*model.FieldDescriptor {
	if t == nil {
		return nil
	}
	out := make([]*model.FieldDescriptor, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f == nil || !f.Eligible() {
			continue
		}
		out = append(out, f)
	}
	return out
}
