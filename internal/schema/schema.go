// Package schema holds the per-filetype knowledge base: known symbols with
// their documentation, required keywords and list-valued variables.
//
// A Schema is built once and never mutated afterwards; it can be shared by
// any number of concurrent requests.
package schema

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrDuplicateSymbol is returned when two symbols share a name.
var ErrDuplicateSymbol = errors.New("schema: duplicate symbol")

// Symbol is a documented name owned by one filetype.
type Symbol struct {
	Name          string `json:"name"`
	Documentation string `json:"documentation"`
	Filetype      string `json:"filetype"`
}

// Schema maps symbol names to symbols, remembering insertion order.
type Schema struct {
	order  []string
	byName map[string]Symbol
}

// NewSchema builds a Schema. Names must be unique.
func NewSchema(symbols ...Symbol) (*Schema, error) {
	s := &Schema{
		order:  make([]string, 0, len(symbols)),
		byName: make(map[string]Symbol, len(symbols)),
	}
	for _, sym := range symbols {
		if prev, ok := s.byName[sym.Name]; ok {
			return nil, fmt.Errorf("%w: %s (%s and %s)", ErrDuplicateSymbol, sym.Name, prev.Filetype, sym.Filetype)
		}
		s.order = append(s.order, sym.Name)
		s.byName[sym.Name] = sym
	}
	return s, nil
}

// Lookup returns the symbol called name.
func (s *Schema) Lookup(name string) (Symbol, bool) {
	if s == nil {
		return Symbol{}, false
	}
	sym, ok := s.byName[name]
	return sym, ok
}

// Symbols returns every symbol in insertion order.
func (s *Schema) Symbols() []Symbol {
	if s == nil {
		return nil
	}
	out := make([]Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Keywords returns the names owned by filetype in insertion order.
func (s *Schema) Keywords(filetype string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, name := range s.order {
		if s.byName[name].Filetype == filetype {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of symbols.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// ListRule names the variables whose values are package lists. Separator
// splits string values; an empty separator splits on whitespace. Array
// values are always split by element.
type ListRule struct {
	Variables []string `json:"variables"`
	Separator string   `json:"separator"`
}

// Has reports whether name is a list variable.
func (r ListRule) Has(name string) bool {
	return slices.Contains(r.Variables, name)
}

// Rules is the keyword rule set of one filetype. Valid defines the
// canonical declaration order.
type Rules struct {
	Filetype string
	Required []string
	Valid    []string
	Lists    ListRule
}

// Ranks maps each valid keyword to its position in the canonical order.
func (r Rules) Ranks() map[string]int {
	ranks := make(map[string]int, len(r.Valid))
	for i, name := range r.Valid {
		if _, ok := ranks[name]; !ok {
			ranks[name] = i
		}
	}
	return ranks
}

// Document is a loaded knowledge base covering several filetypes.
type Document struct {
	schema   *Schema
	required map[string][]string
	lists    map[string]ListRule
}

// NewDocument assembles a knowledge base.
func NewDocument(s *Schema, required map[string][]string, lists map[string]ListRule) *Document {
	if required == nil {
		required = map[string][]string{}
	}
	if lists == nil {
		lists = map[string]ListRule{}
	}
	return &Document{schema: s, required: required, lists: lists}
}

// Schema returns the symbol schema.
func (d *Document) Schema() *Schema {
	return d.schema
}

// Required returns the required keywords of filetype.
func (d *Document) Required(filetype string) []string {
	return d.required[filetype]
}

// Lists returns the list rule of filetype.
func (d *Document) Lists(filetype string) ListRule {
	return d.lists[filetype]
}

// Filetypes returns every filetype with at least one symbol, required
// keyword or list rule, sorted.
func (d *Document) Filetypes() []string {
	seen := map[string]bool{}
	for _, sym := range d.schema.Symbols() {
		seen[sym.Filetype] = true
	}
	for ft := range d.required {
		seen[ft] = true
	}
	for ft := range d.lists {
		seen[ft] = true
	}
	out := make([]string, 0, len(seen))
	for ft := range seen {
		out = append(out, ft)
	}
	sort.Strings(out)
	return out
}

// Rules returns the rule set of filetype. It reports false when the
// knowledge base knows nothing about the filetype.
func (d *Document) Rules(filetype string) (Rules, bool) {
	if d == nil {
		return Rules{}, false
	}
	r := Rules{
		Filetype: filetype,
		Required: d.required[filetype],
		Valid:    d.schema.Keywords(filetype),
		Lists:    d.lists[filetype],
	}
	if len(r.Valid) == 0 && len(r.Required) == 0 && len(r.Lists.Variables) == 0 {
		return Rules{}, false
	}
	return r, true
}
