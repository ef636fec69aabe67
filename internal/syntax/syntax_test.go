package syntax

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipeSource = `TERMUX_PKG_HOMEPAGE=https://example.com
TERMUX_PKG_DEPENDS="libc++, openssl"
export TERMUX_PKG_BUILD_IN_SRC=true
termux_step_make() {
	make
}
if true; then
	NESTED=1
fi
`

func parseSource(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	return doc
}

func TestParse_RootIsProgram(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, recipeSource)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, NodeProgram, root.Type())
	assert.Equal(t, recipeSource, string(doc.Source()))
}

func TestDeclarations_TopLevelOnly(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, recipeSource)

	decls := Declarations(doc)
	require.Len(t, decls, 4)

	var names []string
	for _, d := range decls {
		names = append(names, doc.Text(d.Name))
	}
	assert.Equal(t, []string{
		"TERMUX_PKG_HOMEPAGE",
		"TERMUX_PKG_DEPENDS",
		"TERMUX_PKG_BUILD_IN_SRC",
		"termux_step_make",
	}, names)

	assert.Equal(t, DeclVariable, decls[1].Kind)
	require.NotNil(t, decls[1].Value)
	assert.Equal(t, NodeString, decls[1].Value.Type())
	assert.Equal(t, `"libc++, openssl"`, doc.Text(decls[1].Value))

	// A single-assignment export moves as a whole statement.
	assert.Equal(t, NodeDeclarationCommand, decls[2].Statement.Type())
	assert.Equal(t, "export TERMUX_PKG_BUILD_IN_SRC=true", doc.Text(decls[2].Statement))

	assert.Equal(t, DeclFunction, decls[3].Kind)
	assert.Nil(t, decls[3].Value)
}

func TestDeclarations_ArrayValue(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "depends=(glibc 'openssl>=1.1')\n")

	decls := Declarations(doc)
	require.Len(t, decls, 1)
	require.NotNil(t, decls[0].Value)
	assert.Equal(t, NodeArray, decls[0].Value.Type())
	assert.Len(t, NamedChildren(decls[0].Value), 2)
}

func TestDeclarations_SharedCommand(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "export A=1 B=2\nexport C=3\n")

	decls := Declarations(doc)
	require.Len(t, decls, 3)
	for _, d := range decls[:2] {
		assert.True(t, d.Shared, doc.Text(d.Name))
		assert.Equal(t, "export A=1 B=2", doc.Text(d.Statement))
	}
	assert.False(t, decls[2].Shared)
}

func TestDeclaration_Extent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"bare", "A=1\nB=2\n", "B=2"},
		{"comment above", "A=1\n# about b\n# more\nB=2\n", "# about b\n# more\nB=2"},
		{"trailing comment", "A=1\nB=2 # b\nC=3\n", "B=2 # b"},
		{"blank line detaches", "A=1\n# about b\n\nB=2\n", "B=2"},
		{"trailing comment of previous", "A=1 # a\nB=2\n", "B=2"},
		{"interpreter line", "#!/bin/sh\nB=2\n", "B=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := parseSource(t, tt.src)
			var got string
			for _, d := range Declarations(doc) {
				if doc.Text(d.Name) == "B" {
					r := d.Extent(doc)
					got = doc.Slice(r.StartByte, r.EndByte)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPrivate(t *testing.T) {
	t.Parallel()
	assert.True(t, IsPrivate("_pkgname"))
	assert.False(t, IsPrivate("pkgname"))
}

func TestDocument_PointAtAndLine(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "a=1\nbb=2\r\nccc=3")

	assert.Equal(t, Position{Line: 0, Column: 0}, doc.PointAt(0))
	assert.Equal(t, Position{Line: 1, Column: 1}, doc.PointAt(5))
	assert.Equal(t, Position{Line: 2, Column: 2}, doc.PointAt(12))

	line, ok := doc.Line(1)
	require.True(t, ok)
	assert.Equal(t, "bb=2", line)

	line, ok = doc.Line(2)
	require.True(t, ok)
	assert.Equal(t, "ccc=3", line)

	_, ok = doc.Line(3)
	assert.False(t, ok)
}

func TestRange_ContainsInclusive(t *testing.T) {
	t.Parallel()
	r := Range{Start: Position{Line: 3, Column: 5}, End: Position{Line: 3, Column: 10}}

	for col := 5; col <= 10; col++ {
		assert.True(t, r.Contains(Position{Line: 3, Column: col}), "col %d", col)
	}
	assert.False(t, r.Contains(Position{Line: 3, Column: 4}))
	assert.False(t, r.Contains(Position{Line: 3, Column: 11}))
	assert.False(t, r.Contains(Position{Line: 2, Column: 7}))
}

func TestResolve_FindsSmallestNode(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, recipeSource)

	m, ok := Resolve(doc, Position{Line: 1, Column: 5})
	require.True(t, ok)
	assert.Equal(t, NodeVariableName, m.Node.Type())
	assert.Equal(t, "TERMUX_PKG_DEPENDS", doc.Text(m.Node))
	assert.Equal(t, doc.Range(m.Node), m.Range)
}

func TestResolve_BoundaryPrefersStartingSibling(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, recipeSource)

	// Column 18 is both the end of the name and the start of "=".
	m, ok := Resolve(doc, Position{Line: 1, Column: 18})
	require.True(t, ok)
	assert.Equal(t, "=", m.Node.Type())
}

func TestResolve_ExpansionAfterEquals(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, "A=$TERMUX_PKG_VERSION\n")

	tests := []struct {
		name     string
		col      int
		wantType string
		wantText string
	}{
		{"dollar sign", 2, "$", "$"},
		{"first letter of name", 3, NodeVariableName, "TERMUX_PKG_VERSION"},
		{"inside name", 10, NodeVariableName, "TERMUX_PKG_VERSION"},
		{"end of line", 21, NodeVariableName, "TERMUX_PKG_VERSION"},
		{"equals sign", 1, "=", "="},
		{"assigned name", 0, NodeVariableName, "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, ok := Resolve(doc, Position{Line: 0, Column: tt.col})
			require.True(t, ok)
			assert.Equal(t, tt.wantType, m.Node.Type())
			assert.Equal(t, tt.wantText, doc.Text(m.Node))
		})
	}
}

func TestResolve_EveryColumnOfNodeStaysInside(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, recipeSource)

	decls := Declarations(doc)
	require.NotEmpty(t, decls)
	value := doc.Range(decls[0].Value)
	require.Equal(t, value.Start.Line, value.End.Line)

	// The value is the last token of its line, so both ends belong to it.
	for col := value.Start.Column; col <= value.End.Column; col++ {
		m, ok := Resolve(doc, Position{Line: 0, Column: col})
		require.True(t, ok, "col %d", col)
		assert.True(t, value.Covers(m.Range), "col %d resolved to %s", col, doc.Text(m.Node))
	}

	// The name touches "=", which owns the shared column.
	name := doc.Range(decls[0].Name)
	for col := name.Start.Column; col < name.End.Column; col++ {
		m, ok := Resolve(doc, Position{Line: 0, Column: col})
		require.True(t, ok, "col %d", col)
		assert.True(t, name.Covers(m.Range), "col %d resolved to %s", col, doc.Text(m.Node))
	}
}

func TestResolve_OutsideRoot(t *testing.T) {
	t.Parallel()
	doc := parseSource(t, recipeSource)

	_, ok := Resolve(doc, Position{Line: 100, Column: 0})
	assert.False(t, ok)

	var empty *Document
	_, ok = Resolve(empty, Position{})
	assert.False(t, ok)
}
