package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Severity ranks a finding. Only errors make a catalog unusable.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

var severityNames = [...]string{"info", "warning", "error"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}

	return severityNames[s]
}

// Diagnostic is one finding about a catalog entry.
type Diagnostic struct {
	Severity Severity
	// Code is stable across releases, e.g. "unknown_flat_field".
	Code    string
	Message string
	// Entry names the catalog entry, e.g. "output v32".
	Entry string
	// Path is the attribute inside the entry, e.g. "special_cases.pa".
	Path string
	// Suggestions are close matches for a misspelled name.
	Suggestions []string
}

// Diagnostics are the findings of one validation run, by severity.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

func (d *Diagnostics) add(sev Severity, code, message, entry, path string, suggestions []string) {
	diag := Diagnostic{
		Severity:    sev,
		Code:        code,
		Message:     message,
		Entry:       entry,
		Path:        path,
		Suggestions: suggestions,
	}

	switch sev {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

// AddError records a finding that makes the catalog unusable.
func (d *Diagnostics) AddError(code, message, entry, path string, suggestions ...string) {
	d.add(SeverityError, code, message, entry, path, suggestions)
}

// AddWarning records a finding that resolution tolerates.
func (d *Diagnostics) AddWarning(code, message, entry, path string, suggestions ...string) {
	d.add(SeverityWarning, code, message, entry, path, suggestions)
}

// AddInfo records a note, such as an entry excluded from resolution.
func (d *Diagnostics) AddInfo(code, message, entry, path string) {
	d.add(SeverityInfo, code, message, entry, path, nil)
}

// IsValid reports whether no errors were recorded.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// All returns errors, warnings and infos in that order.
func (d *Diagnostics) All() []Diagnostic {
	out := make([]Diagnostic, 0, len(d.Errors)+len(d.Warnings)+len(d.Infos))
	out = append(out, d.Errors...)
	out = append(out, d.Warnings...)

	return append(out, d.Infos...)
}

// Error joins the error findings into one error, or returns nil.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, len(d.Errors))
	for i, e := range d.Errors {
		parts[i] = e.String()
	}

	return errors.New(strings.Join(parts, "; "))
}

// String renders "[entry] path: [code] message (did you mean ...?)",
// leaving out the parts that are empty.
func (d Diagnostic) String() string {
	msg := d.Message
	if d.Code != "" {
		msg = "[" + d.Code + "] " + msg
	}

	if len(d.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(d.Suggestions, ", "))
	}

	var where []string

	if d.Entry != "" {
		where = append(where, "["+d.Entry+"]")
	}

	if d.Path != "" {
		where = append(where, d.Path)
	}

	if len(where) == 0 {
		return msg
	}

	return strings.Join(where, " ") + ": " + msg
}
