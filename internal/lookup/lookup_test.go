package lookup

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pkgls/internal/schema"
	"github.com/jward/pkgls/internal/syntax"
)

func parseRecipe(t *testing.T, src string) *syntax.Document {
	t.Helper()
	doc, err := syntax.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	return doc
}

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema(
		schema.Symbol{Name: "DEPENDS", Documentation: "Runtime dependencies.", Filetype: "build.sh"},
		schema.Symbol{Name: "DEPENDS_PKG", Documentation: "Dependency package.", Filetype: "build.sh"},
		schema.Symbol{Name: "PROVIDES", Documentation: "Provided packages.", Filetype: "build.sh"},
		schema.Symbol{Name: "depends", Documentation: "PKGBUILD dependencies.", Filetype: "PKGBUILD"},
		schema.Symbol{Name: "termux_step_make", Documentation: "Overrides make.", Filetype: "build.sh"},
		schema.Symbol{Name: "UNDOCUMENTED", Filetype: "build.sh"},
	)
	require.NoError(t, err)
	return s
}

// --- Hover ---

func TestHover(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, "DEPENDS=\"a\"\ndepends=(b)\n")
	s := testSchema(t)

	res, ok := Hover(doc, syntax.Position{Line: 0, Column: 3}, s, "build.sh")
	require.True(t, ok)
	assert.Equal(t, "DEPENDS", res.Name)
	assert.Equal(t, "Runtime dependencies.", res.Documentation)
	assert.Equal(t, syntax.Position{Line: 0, Column: 0}, res.Range.Start)
	assert.Equal(t, syntax.Position{Line: 0, Column: 7}, res.Range.End)
}

func TestHover_ExpansionFirstLetter(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, "PROVIDES=$DEPENDS\n")
	s := testSchema(t)

	res, ok := Hover(doc, syntax.Position{Line: 0, Column: 10}, s, "build.sh")
	require.True(t, ok)
	assert.Equal(t, "DEPENDS", res.Name)
	assert.Equal(t, syntax.Position{Line: 0, Column: 10}, res.Range.Start)
}

func TestHover_NoResult(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, "DEPENDS=\"a\"\ndepends=(b)\nUNDOCUMENTED=1\nOTHER=2\n")
	s := testSchema(t)

	tests := []struct {
		name string
		pos  syntax.Position
	}{
		{"other filetype", syntax.Position{Line: 1, Column: 2}},
		{"no documentation", syntax.Position{Line: 2, Column: 2}},
		{"unknown symbol", syntax.Position{Line: 3, Column: 2}},
		{"value not a symbol", syntax.Position{Line: 0, Column: 9}},
		{"outside document", syntax.Position{Line: 40, Column: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, ok := Hover(doc, tt.pos, s, "build.sh")
			assert.False(t, ok)
		})
	}
}

// --- Completion ---

func labels(items []CompletionItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestComplete_PrefixIndependentOfCursor(t *testing.T) {
	t.Parallel()
	s := testSchema(t)
	want := []string{"DEPENDS", "DEPENDS_PKG"}

	assert.Equal(t, want, labels(Complete("DEP", 3, s, "build.sh")))
	assert.Equal(t, want, labels(Complete("  DEP  ", 5, s, "build.sh")))
	assert.Equal(t, want, labels(Complete("X=$DEPXYZ", 6, s, "build.sh")))
}

func TestComplete_TruncatesAtCursor(t *testing.T) {
	t.Parallel()
	s := testSchema(t)

	// Cursor after "DE" inside "DEPXYZ": the prefix is "DE".
	items := Complete("DEPXYZ", 2, s, "build.sh")
	assert.Equal(t, []string{"DEPENDS", "DEPENDS_PKG"}, labels(items))
}

func TestComplete_KindsAndFiletype(t *testing.T) {
	t.Parallel()
	s := testSchema(t)

	items := Complete("", 0, s, "build.sh")
	want := []CompletionItem{
		{Label: "DEPENDS", Kind: KindValue, Documentation: "Runtime dependencies."},
		{Label: "DEPENDS_PKG", Kind: KindValue, Documentation: "Dependency package."},
		{Label: "PROVIDES", Kind: KindValue, Documentation: "Provided packages."},
		{Label: "termux_step_make", Kind: KindFunction, Documentation: "Overrides make."},
		{Label: "UNDOCUMENTED", Kind: KindValue},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("completion mismatch (-want +got):\n%s", diff)
	}

	items = Complete("dep", 3, s, "PKGBUILD")
	require.Len(t, items, 1)
	assert.Equal(t, "depends", items[0].Label)
	assert.Equal(t, KindFunction, items[0].Kind)
}

func TestComplete_NoMatch(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Complete("ZZZ", 3, testSchema(t), "build.sh"))
}

// --- ExtractWordAt ---

func TestExtractWordAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line       string
		column     int
		token      string
		start, end int
	}{
		{"DEPENDS", 7, "DEPENDS", 0, 7},
		{"DEPENDS", 3, "DEP", 0, 3},
		{"DEPENDS", 0, "", 0, 0},
		{"A=foo bar", 4, "fo", 2, 4},
		{"A=foo bar", 6, "", 6, 6},
		{"A=foo  bar", 6, "", 6, 6},
		{"", 0, "", 0, 0},
		{"abc", 99, "abc", 0, 3},
		{"abc", -1, "", 0, 0},
	}
	for _, tt := range tests {
		token, start, end := ExtractWordAt(tt.line, tt.column)
		assert.Equal(t, tt.token, token, "%q@%d", tt.line, tt.column)
		assert.Equal(t, tt.start, start, "%q@%d", tt.line, tt.column)
		assert.Equal(t, tt.end, end, "%q@%d", tt.line, tt.column)
	}
}

// --- Links ---

func TestLinks(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, `DEPENDS="libc++ (>= 1.0), openssl"
OTHER="x, y"
`)
	rule := schema.ListRule{Variables: []string{"DEPENDS"}, Separator: ","}

	links := Links(doc, rule, "https://example.com/{{name}}/build.sh")
	require.Len(t, links, 2)
	assert.Equal(t, "libc++", links[0].Name)
	assert.Equal(t, "https://example.com/libc++/build.sh", links[0].Target)
	assert.Equal(t, syntax.Position{Line: 0, Column: 9}, links[0].Range.Start)
	assert.Equal(t, "https://example.com/openssl/build.sh", links[1].Target)
	assert.Equal(t, syntax.Position{Line: 0, Column: 26}, links[1].Range.Start)
}

func TestLinks_ArrayAndEmptyTemplate(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, "depends=('glibc>=2.3' zlib)\n")
	rule := schema.ListRule{Variables: []string{"depends"}}

	links := Links(doc, rule, "https://archlinux.org/packages/?q={{name}}")
	require.Len(t, links, 2)
	assert.Equal(t, "glibc", links[0].Name)
	assert.Equal(t, "https://archlinux.org/packages/?q=zlib", links[1].Target)

	assert.Empty(t, Links(doc, rule, ""))
}

func TestPackageName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"openssl":               "openssl",
		"libc++ (>= 1.0)":       "libc++",
		"glibc>=2.3":            "glibc",
		"'python'":              "python",
		">=dev-libs/foo:0[ssl]": "dev-libs/foo",
		"  zlib  ":              "zlib",
		"":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, PackageName(in), in)
	}
}
