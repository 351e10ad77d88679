// Package diag defines the compile error taxonomy. Every failure raised while
// evaluating or verifying a pattern is a *Error carrying enough context to be
// shown to a user without walking the pattern again.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Kind classifies a compile error.
type Kind int

const (
	UnknownPattern Kind = iota + 1
	ArityMismatch
	UnknownStitch
	AmbiguousExpansion
	NotEnoughStitches
	StitchCountMismatch
	IncompleteBindOff
	SideConflict
	IrreconcilableBlock
	InvalidArgument
	RecursionLimit
	RowLimit
)

var kindNames = map[Kind]string{
	UnknownPattern:      "UnknownPattern",
	ArityMismatch:       "ArityMismatch",
	UnknownStitch:       "UnknownStitch",
	AmbiguousExpansion:  "AmbiguousExpansion",
	NotEnoughStitches:   "NotEnoughStitches",
	StitchCountMismatch: "StitchCountMismatch",
	IncompleteBindOff:   "IncompleteBindOff",
	SideConflict:        "SideConflict",
	IrreconcilableBlock: "IrreconcilableBlock",
	InvalidArgument:     "InvalidArgument",
	RecursionLimit:      "RecursionLimit",
	RowLimit:            "RowLimit",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText lets a Kind appear by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Frame is one pattern call on the stack at the time of the error.
type Frame struct {
	Pattern string   `json:"pattern"`
	Args    []string `json:"args,omitempty"`
}

func (f Frame) String() string {
	return fmt.Sprintf("%s(%s)", f.Pattern, strings.Join(f.Args, ", "))
}

// Error is a compile error. Row is the 1-based physical row index, or 0 when
// the error is not tied to a row. Stack lists the innermost call first.
type Error struct {
	Kind     Kind       `json:"kind"`
	Message  string     `json:"message"`
	Row      int        `json:"row,omitempty"`
	Expected int        `json:"expected,omitempty"`
	Actual   int        `json:"actual,omitempty"`
	Lanes    []int      `json:"lanes,omitempty"`
	Stack    []Frame    `json:"stack,omitempty"`
	Subject  *hcl.Range `json:"-"`
}

// Errorf builds an error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Row > 0 {
		fmt.Fprintf(&b, " (row %d)", e.Row)
	}
	if len(e.Stack) > 0 {
		frames := make([]string, len(e.Stack))
		for i, f := range e.Stack {
			frames[i] = f.String()
		}
		b.WriteString(" in ")
		b.WriteString(strings.Join(frames, " <- "))
	}
	return b.String()
}

// At sets the source range if none is recorded yet.
func (e *Error) At(rng hcl.Range) *Error {
	if e.Subject == nil && rng.Filename != "" {
		r := rng
		e.Subject = &r
	}
	return e
}

// InRow sets the row index.
func (e *Error) InRow(row int) *Error {
	e.Row = row
	return e
}

// Counts sets the expected and actual counts, usually stitches.
func (e *Error) Counts(expected, actual int) *Error {
	e.Expected = expected
	e.Actual = actual
	return e
}

// Push records a caller frame as the error unwinds.
func (e *Error) Push(f Frame) *Error {
	e.Stack = append(e.Stack, f)
	return e
}

// Diagnostic converts the error to an HCL diagnostic so it can be printed with
// the source snippet it points at.
func (e *Error) Diagnostic() *hcl.Diagnostic {
	d := &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  e.Kind.String(),
		Detail:   e.Error(),
		Subject:  e.Subject,
	}
	return d
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Is reports whether err is a compile error of the given kind.
func Is(err error, kind Kind) bool {
	de, ok := As(err)
	return ok && de.Kind == kind
}
