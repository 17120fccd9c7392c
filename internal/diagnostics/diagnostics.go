// Package diagnostics collects translation-time problems.
//
// Diagnostics are accumulated, never thrown: every phase appends to a
// Collection and the pipeline decides at the end whether lowering output may
// be handed to the renderer. Generated-program failures (the result values a
// translated program produces at its own runtime) are a separate universe and
// never appear here.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pylift/pylift/internal/token"
)

// ErrorCode is a stable identifier for one diagnostic condition.
type ErrorCode string

const (
	// Parse phase
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // bad indentation
	ErrP003 ErrorCode = "P003" // malformed literal
	ErrP004 ErrorCode = "P004" // unterminated string

	// Typecheck phase
	ErrT001 ErrorCode = "T001" // undefined name
	ErrT002 ErrorCode = "T002" // duplicate binding
	ErrT003 ErrorCode = "T003" // type mismatch
	ErrT004 ErrorCode = "T004" // ambiguous parameter type
	ErrT005 ErrorCode = "T005" // unresolvable type
	ErrT006 ErrorCode = "T006" // implicit numeric narrowing
	ErrT007 ErrorCode = "T007" // wrong number of arguments

	// Ownership phase
	ErrO001 ErrorCode = "O001" // invalid mutation target

	// Dispatch phase
	ErrD001 ErrorCode = "D001" // malformed call shape for builtin

	// Exception phase
	ErrE001 ErrorCode = "E001" // bare re-raise outside handler
	ErrE002 ErrorCode = "E002" // unreachable handler clause

	// Lowering phase
	ErrL001 ErrorCode = "L001" // unsupported construct
	ErrL002 ErrorCode = "L002" // internal lowering invariant broken
)

// Severity of a diagnostic. Errors block lowering; warnings do not.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Phase names the analysis stage that produced a diagnostic.
type Phase string

const (
	PhaseParse     Phase = "parse"
	PhaseTypecheck Phase = "typecheck"
	PhaseOwnership Phase = "ownership"
	PhaseDispatch  Phase = "dispatch"
	PhaseException Phase = "exception"
	PhaseLowering  Phase = "lowering"
)

// Span is a source region, 1-based and inclusive.
type Span struct {
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// SpanFor derives a single-line span from a token.
func SpanFor(tok token.Token) Span {
	end := tok.Column
	if n := len(tok.Lexeme); n > 1 {
		end = tok.Column + n - 1
	}
	return Span{Line: tok.Line, Column: tok.Column, EndLine: tok.Line, EndColumn: end}
}

// Diagnostic is one recorded problem with the program under translation.
type Diagnostic struct {
	Code     ErrorCode
	Message  string
	Severity Severity
	Span     Span
	Phase    Phase
	File     string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	file := d.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("[%s] %s:%d:%d %s: %s", d.Code, file, d.Span.Line, d.Span.Column, d.Severity, d.Message)
}

// NewError builds an error-severity diagnostic positioned at tok.
func NewError(code ErrorCode, phase Phase, tok token.Token, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
		Span:     SpanFor(tok),
		Phase:    phase,
	}
}

// NewWarning builds a warning-severity diagnostic positioned at tok.
func NewWarning(code ErrorCode, phase Phase, tok token.Token, format string, args ...interface{}) *Diagnostic {
	d := NewError(code, phase, tok, format, args...)
	d.Severity = SeverityWarning
	return d
}

// Collection is an append-only, deduplicating diagnostics sink.
// Duplicates (same position and code) collapse to one record so that
// re-visiting a node during a second inference pass cannot double-report.
type Collection struct {
	set   map[string]*Diagnostic
	order []string
}

func NewCollection() *Collection {
	return &Collection{set: make(map[string]*Diagnostic)}
}

// Add records a diagnostic. Nil diagnostics are ignored.
func (c *Collection) Add(d *Diagnostic) {
	if d == nil {
		return
	}
	key := fmt.Sprintf("%d:%d:%s", d.Span.Line, d.Span.Column, d.Code)
	if _, seen := c.set[key]; !seen {
		c.order = append(c.order, key)
	}
	c.set[key] = d
}

// AddAll records every diagnostic in ds.
func (c *Collection) AddAll(ds []*Diagnostic) {
	for _, d := range ds {
		c.Add(d)
	}
}

// HasErrors reports whether any error-severity record is present.
func (c *Collection) HasErrors() bool {
	for _, d := range c.set {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Len returns the number of unique records.
func (c *Collection) Len() int { return len(c.set) }

// All returns every record sorted by position then code. The returned slice
// is a fresh copy; callers may not mutate the collection through it.
func (c *Collection) All() []*Diagnostic {
	out := make([]*Diagnostic, 0, len(c.set))
	for _, key := range c.order {
		out = append(out, c.set[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Line != out[j].Span.Line {
			return out[i].Span.Line < out[j].Span.Line
		}
		if out[i].Span.Column != out[j].Span.Column {
			return out[i].Span.Column < out[j].Span.Column
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Text renders the whole collection as one human-readable summary.
func (c *Collection) Text() string {
	var b strings.Builder
	for _, d := range c.All() {
		b.WriteString(d.Error())
		b.WriteByte('\n')
	}
	return b.String()
}
