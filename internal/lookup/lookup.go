// Package lookup answers point queries against the knowledge base: hover
// documentation, completion candidates and document links.
package lookup

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jward/pkgls/internal/finder"
	"github.com/jward/pkgls/internal/schema"
	"github.com/jward/pkgls/internal/syntax"
)

// HoverResult is the documentation of the symbol under the cursor.
type HoverResult struct {
	Name          string       `json:"name"`
	Documentation string       `json:"documentation"`
	Range         syntax.Range `json:"range"`
}

// Hover resolves pos to a node and looks its text up in s. Symbols owned by
// another filetype, or without documentation, give no result.
func Hover(doc *syntax.Document, pos syntax.Position, s *schema.Schema, filetype string) (HoverResult, bool) {
	match, ok := syntax.Resolve(doc, pos)
	if !ok {
		return HoverResult{}, false
	}
	name := doc.Text(match.Node)
	sym, ok := s.Lookup(name)
	if !ok || sym.Filetype != filetype || sym.Documentation == "" {
		return HoverResult{}, false
	}
	return HoverResult{Name: name, Documentation: sym.Documentation, Range: match.Range}, true
}

// CompletionKind classifies a completion candidate.
type CompletionKind int

const (
	// KindValue marks variables, named in all caps by convention.
	KindValue CompletionKind = iota + 1
	KindFunction
)

func (k CompletionKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k CompletionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CompletionItem is one completion candidate.
type CompletionItem struct {
	Label         string         `json:"label"`
	Kind          CompletionKind `json:"kind"`
	Documentation string         `json:"documentation"`
}

// Complete returns every symbol of filetype whose name starts with the word
// prefix at column, in schema order. No fuzzy matching or ranking.
func Complete(line string, column int, s *schema.Schema, filetype string) []CompletionItem {
	prefix, _, _ := ExtractWordAt(line, column)

	var items []CompletionItem
	for _, sym := range s.Symbols() {
		if sym.Filetype != filetype || !strings.HasPrefix(sym.Name, prefix) {
			continue
		}
		items = append(items, CompletionItem{
			Label:         sym.Name,
			Kind:          kindOf(sym.Name),
			Documentation: sym.Documentation,
		})
	}
	return items
}

func kindOf(name string) CompletionKind {
	if isUpper(name) {
		return KindValue
	}
	return KindFunction
}

// isUpper reports whether name has at least one letter and no lowercase.
func isUpper(name string) bool {
	cased := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

var wordPattern = regexp.MustCompile(`\w+`)

// ExtractWordAt finds the word of line touching column (start <= column <=
// end) and returns its part before column with its byte span. It returns
// an empty token at column when no word touches it.
func ExtractWordAt(line string, column int) (token string, start, end int) {
	if column < 0 {
		column = 0
	}
	if column > len(line) {
		column = len(line)
	}
	for _, loc := range wordPattern.FindAllStringIndex(line, -1) {
		if loc[0] <= column && column <= loc[1] {
			return line[loc[0]:column], loc[0], column
		}
	}
	return "", column, column
}

// Link is a cross reference from a list value to an external page.
type Link struct {
	Name   string       `json:"name"`
	Target string       `json:"target"`
	Range  syntax.Range `json:"range"`
}

// NamePlaceholder is replaced by the package name in link templates.
const NamePlaceholder = "{{name}}"

// Links returns one link per value of every list variable in rule. An
// empty template yields no links.
func Links(doc *syntax.Document, rule schema.ListRule, template string) []Link {
	if template == "" || doc.Root() == nil {
		return nil
	}
	var links []Link
	for _, list := range finder.Lists(doc, rule) {
		for _, tok := range list.Tokens {
			name := PackageName(tok.Key)
			if name == "" {
				continue
			}
			links = append(links, Link{
				Name:   name,
				Target: strings.ReplaceAll(template, NamePlaceholder, name),
				Range:  tok.Range,
			})
		}
	}
	return links
}

// PackageName strips quoting, version constraints, slots and USE flags from
// a dependency: "libc++ (>= 1.0)", "glibc>=2.3", "dev-libs/foo:0[ssl]".
func PackageName(dep string) string {
	s := strings.TrimSpace(dep)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimLeft(s, "<>=~!")
	if i := strings.IndexAny(s, " \t(<>=:["); i >= 0 {
		s = s[:i]
	}
	return s
}
