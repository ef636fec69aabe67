package finder

import (
	"context"
	"fmt"

	"github.com/jward/pkgls/internal/syntax"
)

// Keyword is the name of a top-level declaration.
type Keyword struct {
	Name string
	Decl syntax.Declaration
}

// Keywords returns the public top-level declaration names of doc in
// declaration order. Underscore-prefixed helpers are skipped.
func Keywords(doc *syntax.Document) []Keyword {
	var out []Keyword
	for _, d := range syntax.Declarations(doc) {
		name := doc.Text(d.Name)
		if syntax.IsPrivate(name) {
			continue
		}
		out = append(out, Keyword{Name: name, Decl: d})
	}
	return out
}

// Required reports every required keyword the document never declares.
type Required struct {
	Keywords []string
	Severity Severity
}

// NewRequired returns a Required finder for keywords.
func NewRequired(keywords []string) *Required {
	return &Required{Keywords: keywords}
}

func (f *Required) Kind() Kind { return KindRequired }

func (f *Required) Run(_ context.Context, doc *syntax.Document) (Findings, error) {
	present := make(map[string]bool)
	for _, kw := range Keywords(doc) {
		present[kw.Name] = true
	}

	// Absence has no node of its own, so the whole document is the anchor.
	root := doc.Range(doc.Root())
	var diags []Diagnostic
	for _, name := range f.Keywords {
		if present[name] {
			continue
		}
		diags = append(diags, Diagnostic{
			Range:    root,
			Severity: orDefault(f.Severity, SeverityError),
			Message:  fmt.Sprintf("%s: missing required keyword", name),
			Code:     KindRequired.String(),
			Source:   Source,
		})
	}
	return Findings{Diagnostics: diags}, nil
}

// Invalid reports declarations whose name is not a known keyword.
type Invalid struct {
	Valid    map[string]bool
	Severity Severity
}

// NewInvalid returns an Invalid finder accepting the names in valid.
func NewInvalid(valid []string) *Invalid {
	set := make(map[string]bool, len(valid))
	for _, name := range valid {
		set[name] = true
	}
	return &Invalid{Valid: set}
}

func (f *Invalid) Kind() Kind { return KindInvalid }

func (f *Invalid) Run(_ context.Context, doc *syntax.Document) (Findings, error) {
	var diags []Diagnostic
	for _, kw := range Keywords(doc) {
		if f.Valid[kw.Name] {
			continue
		}
		diags = append(diags, Diagnostic{
			Range:    doc.Range(kw.Decl.Name),
			Severity: orDefault(f.Severity, SeverityError),
			Message:  fmt.Sprintf("%s: unknown keyword", kw.Name),
			Code:     KindInvalid.String(),
			Source:   Source,
		})
	}
	return Findings{Diagnostics: diags}, nil
}

// UnsortedKeyword reports adjacent known keywords declared out of the
// canonical order, and provides the sorted declaration order for edits.
type UnsortedKeyword struct {
	Ranks    map[string]int
	Severity Severity
}

// NewUnsortedKeyword returns an UnsortedKeyword finder for the canonical
// order valid.
func NewUnsortedKeyword(valid []string) *UnsortedKeyword {
	ranks := make(map[string]int, len(valid))
	for i, name := range valid {
		if _, ok := ranks[name]; !ok {
			ranks[name] = i
		}
	}
	return &UnsortedKeyword{Ranks: ranks}
}

func (f *UnsortedKeyword) Kind() Kind { return KindUnsortedKeyword }

func (f *UnsortedKeyword) Run(_ context.Context, doc *syntax.Document) (Findings, error) {
	var tokens []Token
	for _, kw := range Keywords(doc) {
		// Unknown names have no rank; Invalid reports them.
		if _, ok := f.Ranks[kw.Name]; !ok {
			continue
		}
		// Moving one name of "export A=1 B=2" would change what is exported.
		if kw.Decl.Shared {
			continue
		}
		// Attached comments move with their declaration.
		extent := kw.Decl.Extent(doc)
		tokens = append(tokens, Token{
			Key:    kw.Name,
			Text:   doc.Slice(extent.StartByte, extent.EndByte),
			Range:  extent,
			Anchor: doc.Range(kw.Decl.Name),
		})
	}

	compare := byRank(f.Ranks)
	var findings Findings
	for _, i := range inversions(tokens, compare) {
		a, b := tokens[i], tokens[i+1]
		findings.Diagnostics = append(findings.Diagnostics, Diagnostic{
			Range:    doc.Span(a.Anchor, b.Anchor),
			Severity: orDefault(f.Severity, SeverityWarning),
			Message:  fmt.Sprintf("%s: should be declared before %s", b.Key, a.Key),
			Code:     KindUnsortedKeyword.String(),
			Source:   Source,
		})
	}
	if r, ok := reorder(tokens, compare); ok {
		findings.Reorders = append(findings.Reorders, r)
	}
	return findings, nil
}
