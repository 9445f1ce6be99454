package model

// Origin is the segment a parameter belongs to.
type Origin int

const (
	OriginField Origin = iota
	OriginBase
	OriginPostConstruct
)

func (o Origin) String() string {
	switch o {
	case OriginField:
		return "field"
	case OriginBase:
		return "base"
	case OriginPostConstruct:
		return "post-construct"
	default:
		return "unknown"
	}
}

type Parameter struct {
	Name     string
	Type     *TypeRef // for a variadic parameter, the slice type
	Variadic bool
	Origin   Origin
}

// ParameterList is a resolved, immutable constructor signature. Parameters
// are ordered field segment, base segment, post-construct segment.
type ParameterList struct {
	params []Parameter
	fields map[string]string // field name -> final parameter name
}

// NewParameterList seals params. fieldNames maps each eligible field to the
// name of the parameter it is assigned from.
func NewParameterList(params []Parameter, fieldNames map[string]string) *ParameterList {
	l := &ParameterList{
		params: append([]Parameter(nil), params...),
		fields: make(map[string]string, len(fieldNames)),
	}
	for k, v := range fieldNames {
		l.fields[k] = v
	}
	return l
}

func (l *ParameterList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.params)
}

// All returns a copy of every parameter in signature order.
func (l *ParameterList) All() []Parameter {
	if l == nil {
		return nil
	}
	return append([]Parameter(nil), l.params...)
}

func (l *ParameterList) Segment(o Origin) []Parameter {
	if l == nil {
		return nil
	}
	var out []Parameter
	for _, p := range l.params {
		if p.Origin == o {
			out = append(out, p)
		}
	}
	return out
}

func (l *ParameterList) HasBaseParameters() bool { return len(l.Segment(OriginBase)) > 0 }

// FieldParameterName returns the parameter a field is assigned from.
func (l *ParameterList) FieldParameterName(field string) (string, bool) {
	if l == nil {
		return "", false
	}
	n, ok := l.fields[field]
	return n, ok
}

func (l *ParameterList) Names() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.params))
	for i, p := range l.params {
		out[i] = p.Name
	}
	return out
}
