package pkgls

import (
	"github.com/jward/pkgls/internal/diagnose"
	"github.com/jward/pkgls/internal/finder"
	"github.com/jward/pkgls/internal/format"
	"github.com/jward/pkgls/internal/lookup"
	"github.com/jward/pkgls/internal/syntax"
)

// Public type aliases for the internal result types. These are Go type
// aliases (=), so no conversion is needed.

type Position = syntax.Position
type Range = syntax.Range
type Diagnostic = finder.Diagnostic
type Severity = finder.Severity
type Result = diagnose.Result
type Failure = diagnose.Failure
type TextEdit = format.TextEdit
type HoverResult = lookup.HoverResult
type CompletionItem = lookup.CompletionItem
type CompletionKind = lookup.CompletionKind
type Link = lookup.Link

const (
	SeverityError       = finder.SeverityError
	SeverityWarning     = finder.SeverityWarning
	SeverityInformation = finder.SeverityInformation
	SeverityHint        = finder.SeverityHint
)
