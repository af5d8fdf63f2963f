// Package diagnostics collects non-fatal findings from code generation.
package diagnostics

import "fmt"

// Severity of a diagnostic
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Diagnostic is one finding. Index is the position of the instruction in
// program order, or -1 when the finding is not tied to one.
type Diagnostic struct {
	Severity Severity
	Source   string
	Index    int
	Message  string
}

func (d *Diagnostic) String() string {
	if d.Index < 0 {
		return fmt.Sprintf("%s: %s: %s", d.Source, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s at instruction %d: %s", d.Source, d.Severity, d.Index, d.Message)
}

// Bag collects diagnostics for one generation run
type Bag struct {
	source      string
	diagnostics []*Diagnostic
	errorCount  int
	warnCount   int
}

// NewBag creates a bag whose diagnostics are attributed to source
func NewBag(source string) *Bag {
	return &Bag{source: source}
}

func (b *Bag) Add(diag *Diagnostic) {
	b.diagnostics = append(b.diagnostics, diag)
	switch diag.Severity {
	case Error:
		b.errorCount++
	case Warning:
		b.warnCount++
	}
}

// Warnf records a warning for the instruction at index
func (b *Bag) Warnf(index int, format string, args ...any) {
	b.Add(&Diagnostic{
		Severity: Warning,
		Source:   b.source,
		Index:    index,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Errorf records an error for the instruction at index
func (b *Bag) Errorf(index int, format string, args ...any) {
	b.Add(&Diagnostic{
		Severity: Error,
		Source:   b.source,
		Index:    index,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (b *Bag) HasErrors() bool   { return b.errorCount > 0 }
func (b *Bag) ErrorCount() int   { return b.errorCount }
func (b *Bag) WarningCount() int { return b.warnCount }

// Diagnostics returns a copy of the collected diagnostics
func (b *Bag) Diagnostics() []*Diagnostic {
	out := make([]*Diagnostic, len(b.diagnostics))
	copy(out, b.diagnostics)
	return out
}
