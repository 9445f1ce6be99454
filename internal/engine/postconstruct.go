package engine

import "github.com/cmmoran/autoctor/internal/model"

// Outcome is the result class of post-construct resolution.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeUniqueMarked
	OutcomeUniqueNamed
	OutcomeAmbiguousMarked
	OutcomeAmbiguousNamed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUniqueMarked:
		return "unique-marked"
	case OutcomeUniqueNamed:
		return "unique-named"
	case OutcomeAmbiguousMarked:
		return "ambiguous-marked"
	case OutcomeAmbiguousNamed:
		return "ambiguous-named"
	default:
		return "none"
	}
}

// PostConstruct is the resolved post-construct hook of one type. Method is
// set only for the two unique outcomes.
type PostConstruct struct {
	Outcome     Outcome
	Method      *model.MethodDescriptor
	Name        string // convention name that was consulted, if any
	Diagnostics []model.Diagnostic
}

// ResolvePostConstruct picks the method called at the end of the generated
// constructor. Explicitly marked methods win over the naming convention; an
// ambiguous phase yields no method and one warning per candidate location.
func ResolvePostConstruct(t *model.TypeDescriptor, defaultName string) PostConstruct {
	var marked []*model.MethodDescriptor
	for _, m := range t.Methods {
		if m != nil && m.PostConstruct {
			marked = append(marked, m)
		}
	}
	switch {
	case len(marked) > 1:
		return PostConstruct{
			Outcome:     OutcomeAmbiguousMarked,
			Diagnostics: ambiguityDiagnostics(model.AmbiguousMarkedPostConstructWarning, marked),
		}
	case len(marked) == 1:
		return PostConstruct{Outcome: OutcomeUniqueMarked, Method: marked[0]}
	}

	name := conventionName(t, defaultName)
	if name == "" {
		return PostConstruct{Outcome: OutcomeNone}
	}

	var named []*model.MethodDescriptor
	for _, m := range t.Methods {
		if m != nil && m.Name == name {
			named = append(named, m)
		}
	}
	switch {
	case len(named) > 1:
		return PostConstruct{
			Outcome:     OutcomeAmbiguousNamed,
			Name:        name,
			Diagnostics: ambiguityDiagnostics(model.AmbiguousNamedPostConstructWarning, named, name),
		}
	case len(named) == 1:
		return PostConstruct{Outcome: OutcomeUniqueNamed, Method: named[0], Name: name}
	}
	return PostConstruct{Outcome: OutcomeNone, Name: name}
}

// conventionName is the type marker's name, else the package default, else
// the program default.
func conventionName(t *model.TypeDescriptor, defaultName string) string {
	if t.Markers.PostConstruct != "" {
		return t.Markers.PostConstruct
	}
	if t.Package != nil && t.Package.PostConstruct != "" {
		return t.Package.PostConstruct
	}
	return defaultName
}

func ambiguityDiagnostics(d model.Descriptor, methods []*model.MethodDescriptor, args ...any) []model.Diagnostic {
	var out []model.Diagnostic
	for _, m := range methods {
		if len(m.Locations) == 0 {
			out = append(out, model.NewDiagnostic(d, model.Position{}, args...))
			continue
		}
		for _, loc := range m.Locations {
			out = append(out, model.NewDiagnostic(d, loc, args...))
		}
	}
	return out
}
