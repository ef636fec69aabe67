// Package finder implements the tree-walking analyzers that turn a parsed
// build recipe and its keyword rules into diagnostics and sort targets.
//
// Every analyzer satisfies Finder. The set of kinds is closed: required,
// invalid and unsorted keywords, unsorted lists, and user rule scripts.
// Finders keep no state between runs.
package finder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jward/pkgls/internal/syntax"
)

// Source is the diagnostic source reported to editors.
const Source = "pkgls"

// ErrNoDocument is returned when a finder is run without a parsed document.
var ErrNoDocument = errors.New("finder: no document")

// Kind tags a finder variant. Its string form doubles as the diagnostic code.
type Kind int

const (
	KindRequired Kind = iota
	KindInvalid
	KindUnsortedKeyword
	KindUnsortedList
	KindScript
)

var kindNames = [...]string{
	KindRequired:        "missing-keyword",
	KindInvalid:         "invalid-keyword",
	KindUnsortedKeyword: "unsorted-keyword",
	KindUnsortedList:    "unsorted-list",
	KindScript:          "script",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a diagnostic code back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("finder: unknown kind %q", s)
}

// Severity follows the editor protocol numbering.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity parses a severity name. "info" is accepted for information.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "information", "info":
		return SeverityInformation, nil
	case "hint":
		return SeverityHint, nil
	}
	return 0, fmt.Errorf("finder: unknown severity %q", s)
}

// Diagnostic is one finding reported against a document.
type Diagnostic struct {
	Range    syntax.Range `json:"range"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
	Code     string       `json:"code"`
	Source   string       `json:"source"`
}

// Token is one element of an ordered sequence: a keyword declaration or a
// list value. Key is what gets compared, Range is the source moved when the
// sequence is re-sorted, and Anchor is what diagnostics point at.
type Token struct {
	Key    string
	Text   string
	Range  syntax.Range
	Anchor syntax.Range
}

// Reorder is the sort target of one sequence: Sorted[i] belongs in the
// place currently held by Slots[i].
type Reorder struct {
	Slots  []Token
	Sorted []Token
}

// Findings is the output of one finder run.
type Findings struct {
	Diagnostics []Diagnostic
	// Reorders is only filled by the unsorted finders.
	Reorders []Reorder
}

// Finder is the single capability shared by every analyzer.
type Finder interface {
	Kind() Kind
	Run(ctx context.Context, doc *syntax.Document) (Findings, error)
}

// Name returns a human label for f, used when attributing failures.
func Name(f Finder) string {
	if s, ok := f.(*Script); ok && s.Name != "" {
		return s.Name
	}
	return f.Kind().String()
}

// RunSafely runs f and converts a panic inside it into an error, so one
// broken analyzer cannot take down its siblings.
func RunSafely(ctx context.Context, f Finder, doc *syntax.Document) (findings Findings, err error) {
	if doc == nil || doc.Root() == nil {
		return Findings{}, ErrNoDocument
	}
	defer func() {
		if r := recover(); r != nil {
			findings = Findings{}
			err = fmt.Errorf("finder %s: panic: %v", Name(f), r)
		}
	}()
	return f.Run(ctx, doc)
}

func orDefault(s, def Severity) Severity {
	if s == 0 {
		return def
	}
	return s
}
