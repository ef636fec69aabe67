package finder

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/pkgls/internal/schema"
	"github.com/jward/pkgls/internal/syntax"
)

// List is the value sequence of one list-valued declaration.
type List struct {
	Name   string
	Decl   syntax.Declaration
	Tokens []Token
}

// Lists extracts the value tokens of every top-level declaration named in
// rule. Array values split by element; string and word values split on
// rule.Separator. Values mixing quoting and expansions (concatenations)
// are not lists and are skipped.
func Lists(doc *syntax.Document, rule schema.ListRule) []List {
	var out []List
	for _, kw := range Keywords(doc) {
		if kw.Decl.Kind != syntax.DeclVariable || kw.Decl.Value == nil || !rule.Has(kw.Name) {
			continue
		}
		tokens := valueTokens(doc, kw.Decl.Value, rule.Separator)
		if len(tokens) == 0 {
			continue
		}
		out = append(out, List{Name: kw.Name, Decl: kw.Decl, Tokens: tokens})
	}
	return out
}

func valueTokens(doc *syntax.Document, value *sitter.Node, sep string) []Token {
	switch value.Type() {
	case syntax.NodeArray:
		var tokens []Token
		for _, el := range syntax.NamedChildren(value) {
			if el.Type() == "comment" {
				continue
			}
			text := doc.Text(el)
			r := doc.Range(el)
			tokens = append(tokens, Token{Key: unquote(text), Text: text, Range: r, Anchor: r})
		}
		return tokens
	case syntax.NodeString, syntax.NodeRawString, syntax.NodeWord:
		start, end := value.StartByte(), value.EndByte()
		if text := doc.Slice(start, end); len(text) >= 2 && isQuote(text[0]) && text[len(text)-1] == text[0] {
			start++
			end--
		}
		return splitTokens(doc, start, end, sep)
	default:
		return nil
	}
}

// splitTokens splits the source between start and end on sep (whitespace
// when sep is empty), trimming each piece and dropping empty ones.
func splitTokens(doc *syntax.Document, start, end uint32, sep string) []Token {
	content := doc.Slice(start, end)

	type piece struct{ from, to int }
	var pieces []piece
	if sep == "" {
		from := -1
		for i, r := range content {
			if unicode.IsSpace(r) {
				if from >= 0 {
					pieces = append(pieces, piece{from, i})
					from = -1
				}
			} else if from < 0 {
				from = i
			}
		}
		if from >= 0 {
			pieces = append(pieces, piece{from, len(content)})
		}
	} else {
		from := 0
		for {
			i := strings.Index(content[from:], sep)
			if i < 0 {
				pieces = append(pieces, piece{from, len(content)})
				break
			}
			pieces = append(pieces, piece{from, from + i})
			from += i + len(sep)
		}
	}

	var tokens []Token
	for _, p := range pieces {
		raw := content[p.from:p.to]
		trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
		from := p.from + len(raw) - len(trimmed)
		trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
		if trimmed == "" {
			continue
		}
		s := start + uint32(from)
		r := doc.RangeOf(s, s+uint32(len(trimmed)))
		tokens = append(tokens, Token{Key: trimmed, Text: trimmed, Range: r, Anchor: r})
	}
	return tokens
}

func isQuote(b byte) bool {
	return b == '"' || b == '\''
}

func unquote(s string) string {
	if len(s) >= 2 && isQuote(s[0]) && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// UnsortedList reports adjacent list values out of lexicographic order and
// provides the sorted order for edits.
type UnsortedList struct {
	Rule     schema.ListRule
	Severity Severity
}

// NewUnsortedList returns an UnsortedList finder for rule.
func NewUnsortedList(rule schema.ListRule) *UnsortedList {
	return &UnsortedList{Rule: rule}
}

func (f *UnsortedList) Kind() Kind { return KindUnsortedList }

func (f *UnsortedList) Run(_ context.Context, doc *syntax.Document) (Findings, error) {
	var findings Findings
	for _, list := range Lists(doc, f.Rule) {
		for _, i := range inversions(list.Tokens, byKey) {
			a, b := list.Tokens[i], list.Tokens[i+1]
			findings.Diagnostics = append(findings.Diagnostics, Diagnostic{
				Range:    doc.Span(a.Anchor, b.Anchor),
				Severity: orDefault(f.Severity, SeverityWarning),
				Message:  fmt.Sprintf("%s: should be listed before %s in %s", b.Key, a.Key, list.Name),
				Code:     KindUnsortedList.String(),
				Source:   Source,
			})
		}
		if r, ok := reorder(list.Tokens, byKey); ok {
			findings.Reorders = append(findings.Reorders, r)
		}
	}
	return findings, nil
}
