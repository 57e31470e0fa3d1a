// Package preprocessor implements a C/C++ preprocessing engine: macro
// definition and expansion, conditional inclusion, include resolution
// and the diagnostics these produce.
package preprocessor

import "fmt"

// Severity classifies a diagnostic
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the severity name
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one reportable finding produced during preprocessing.
// Expected conditions (bad directives, unresolved includes, macro
// conflicts) become diagnostics rather than errors; the engine keeps
// going after every one of them.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
}

// String formats the diagnostic in the conventional file:line form
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Severity, d.Message)
}
