package diagnostic

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic is a single model error, warning, or info message. Models have
// no source positions once loaded, so diagnostics point at a symbol.
type Diagnostic struct {
	Severity Severity
	Message  string
	Symbol   string // optional model symbol the message refers to
	Hint     string // optional suggestion
}

// Diagnostics manages a collection of diagnostic messages
type Diagnostics struct {
	items []Diagnostic
}

// New creates a new empty Diagnostics collection
func New() *Diagnostics {
	return &Diagnostics{
		items: make([]Diagnostic, 0),
	}
}

func (d *Diagnostics) add(sev Severity, symbol, msg, hint string) {
	d.items = append(d.items, Diagnostic{
		Severity: sev,
		Message:  msg,
		Symbol:   symbol,
		Hint:     hint,
	})
}

// Errorf adds an error diagnostic with formatted message
func (d *Diagnostics) Errorf(symbol string, format string, args ...interface{}) {
	d.add(Error, symbol, fmt.Sprintf(format, args...), "")
}

// Warningf adds a warning diagnostic with formatted message
func (d *Diagnostics) Warningf(symbol string, format string, args ...interface{}) {
	d.add(Warning, symbol, fmt.Sprintf(format, args...), "")
}

// Infof adds an info diagnostic with formatted message
func (d *Diagnostics) Infof(symbol string, format string, args ...interface{}) {
	d.add(Info, symbol, fmt.Sprintf(format, args...), "")
}

// ErrorWithHint adds an error diagnostic with an optional hint
func (d *Diagnostics) ErrorWithHint(symbol, msg, hint string) {
	d.add(Error, symbol, msg, hint)
}

// WarningWithHint adds a warning diagnostic with an optional hint
func (d *Diagnostics) WarningWithHint(symbol, msg, hint string) {
	d.add(Warning, symbol, msg, hint)
}

// Merge appends all diagnostics of other.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.items = append(d.items, other.items...)
}

// HasErrors returns true if there are any error-level diagnostics
func (d *Diagnostics) HasErrors() bool {
	for _, item := range d.items {
		if item.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-level diagnostics
func (d *Diagnostics) Errors() []Diagnostic {
	errors := make([]Diagnostic, 0)
	for _, item := range d.items {
		if item.Severity == Error {
			errors = append(errors, item)
		}
	}
	return errors
}

// All returns all diagnostics regardless of severity
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns the total number of diagnostics
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// ErrorCount returns the number of error-level diagnostics
func (d *Diagnostics) ErrorCount() int {
	return d.count(Error)
}

// WarningCount returns the number of warning-level diagnostics
func (d *Diagnostics) WarningCount() int {
	return d.count(Warning)
}

func (d *Diagnostics) count(sev Severity) int {
	count := 0
	for _, item := range d.items {
		if item.Severity == sev {
			count++
		}
	}
	return count
}

// Format returns human-readable messages
// Output format:
//
//	error[model.yaml:Stock]: symbols 'Stock' and 'Stock!' both map to 'Stock'
//	  hint: rename one of them
//	warning[model.yaml]: lookup 'effect' is never applied
func (d *Diagnostics) Format(filename string) string {
	if len(d.items) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, item := range d.items {
		location := filename
		if item.Symbol != "" {
			location += ":" + item.Symbol
		}

		builder.WriteString(fmt.Sprintf("%s[%s]: %s",
			item.Severity.String(),
			location,
			item.Message,
		))

		if item.Hint != "" {
			builder.WriteString(fmt.Sprintf("\n  hint: %s", item.Hint))
		}

		// Add newline unless it's the last item
		if i < len(d.items)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

