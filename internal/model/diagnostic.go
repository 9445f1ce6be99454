package model

import "fmt"

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// DiagnosticCode is the stable identifier of a diagnostic kind.
type DiagnosticCode string

const (
	AmbiguousNamedPostConstruct  DiagnosticCode = "ACTR001"
	AmbiguousMarkedPostConstruct DiagnosticCode = "ACTR002"
)

// Descriptor holds the fixed texts of a diagnostic kind.
type Descriptor struct {
	Code     DiagnosticCode
	Title    string
	Format   string
	Severity Severity
}

var (
	AmbiguousNamedPostConstructWarning = Descriptor{
		Code:     AmbiguousNamedPostConstruct,
		Title:    "Ambiguous post-constructor method",
		Format:   "There are multiple methods with the name `%s`. Select the one to call from the constructor using //autoctor:postconstruct.",
		Severity: SeverityWarning,
	}
	AmbiguousMarkedPostConstructWarning = Descriptor{
		Code:     AmbiguousMarkedPostConstruct,
		Title:    "Ambiguous marked post-constructor method",
		Format:   "Only one method in a type should be marked with //autoctor:postconstruct",
		Severity: SeverityWarning,
	}
)

type Diagnostic struct {
	Code     DiagnosticCode
	Title    string
	Message  string
	Severity Severity
	Location Position
}

func NewDiagnostic(d Descriptor, loc Position, args ...any) Diagnostic {
	msg := d.Format
	if len(args) > 0 {
		msg = fmt.Sprintf(d.Format, args...)
	}
	return Diagnostic{
		Code:     d.Code,
		Title:    d.Title,
		Message:  msg,
		Severity: d.Severity,
		Location: loc,
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Location, d.Severity, d.Code, d.Message)
}
