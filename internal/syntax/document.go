// Package syntax wraps tree-sitter bash trees for build-recipe files.
//
// A Document owns the source bytes and the parsed tree and exposes the
// read-only node contract the analyzers consume: node text, node range and
// child traversal. Columns are byte offsets within a line; mapping them to an
// editor's column unit is the protocol adapter's job.
package syntax

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
)

// Position is a zero-based line and byte column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func pointPosition(pt sitter.Point) Position {
	return Position{Line: int(pt.Row), Column: int(pt.Column)}
}

// Range is a source span. Start/End are inclusive/exclusive in byte terms,
// but containment checks treat End as inclusive so a cursor sitting right
// after a token still addresses it.
type Range struct {
	Start     Position `json:"start"`
	End       Position `json:"end"`
	StartByte uint32   `json:"-"`
	EndByte   uint32   `json:"-"`
}

// Contains reports whether pos lies within r, both ends inclusive.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

// Covers reports whether o lies entirely within r (byte offsets).
func (r Range) Covers(o Range) bool {
	return r.StartByte <= o.StartByte && o.EndByte <= r.EndByte
}

// Overlaps reports whether r and o share at least one byte.
func (r Range) Overlaps(o Range) bool {
	return r.StartByte < o.EndByte && o.StartByte < r.EndByte
}

// Document is a parsed build recipe. It is immutable after Parse and safe
// for concurrent readers.
type Document struct {
	src        []byte
	tree       *sitter.Tree
	lineStarts []uint32
}

// Language returns the tree-sitter grammar used for every build-recipe filetype.
func Language() *sitter.Language {
	return bash.GetLanguage()
}

// Parse parses src with the bash grammar.
func Parse(ctx context.Context, src []byte) (*Document, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: tree-sitter parse failed: %w", err)
	}

	starts := []uint32{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &Document{src: src, tree: tree, lineStarts: starts}, nil
}

// Close releases the tree. The document must not be used afterwards.
func (d *Document) Close() {
	if d != nil && d.tree != nil {
		d.tree.Close()
	}
}

// Source returns the document bytes. Callers must not modify them.
func (d *Document) Source() []byte {
	return d.src
}

// Root returns the root node, or nil for an empty document handle.
func (d *Document) Root() *sitter.Node {
	if d == nil || d.tree == nil {
		return nil
	}
	return d.tree.RootNode()
}

// Text returns the source text of n.
func (d *Document) Text(n *sitter.Node) string {
	return string(d.src[n.StartByte():n.EndByte()])
}

// Slice returns the source text between two byte offsets.
func (d *Document) Slice(start, end uint32) string {
	return string(d.src[start:end])
}

// Range returns the range of n.
func (d *Document) Range(n *sitter.Node) Range {
	return Range{
		Start:     pointPosition(n.StartPoint()),
		End:       pointPosition(n.EndPoint()),
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
	}
}

// Span returns the range covering a and b.
func (d *Document) Span(a, b Range) Range {
	r := a
	if b.StartByte < r.StartByte {
		r.Start, r.StartByte = b.Start, b.StartByte
	}
	if b.EndByte > r.EndByte {
		r.End, r.EndByte = b.End, b.EndByte
	}
	return r
}

// RangeOf returns the range between two byte offsets.
func (d *Document) RangeOf(start, end uint32) Range {
	return Range{
		Start:     d.PointAt(start),
		End:       d.PointAt(end),
		StartByte: start,
		EndByte:   end,
	}
}

// PointAt converts a byte offset into a Position.
func (d *Document) PointAt(offset uint32) Position {
	line := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line, Column: int(offset - d.lineStarts[line])}
}

// Line returns line n without its terminator.
func (d *Document) Line(n int) (string, bool) {
	if d == nil || n < 0 || n >= len(d.lineStarts) {
		return "", false
	}
	start := d.lineStarts[n]
	end := uint32(len(d.src))
	if n+1 < len(d.lineStarts) {
		end = d.lineStarts[n+1]
	}
	line := d.src[start:end]
	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return string(line), true
}

// Children returns all children of n in source order.
func Children(n *sitter.Node) []*sitter.Node {
	count := int(n.ChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.Child(i))
	}
	return out
}

// NamedChildren returns the named children of n in source order.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}
