package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pkgls/assets"
	"github.com/jward/pkgls/internal/syntax"
)

const recipeSource = `TERMUX_PKG_HOMEPAGE=https://example.com
TERMUX_PKG_SRCURL=http://example.com/foo-1.0.tar.gz
TERMUX_PKG_DEPENDS="libc++, openssl"
termux_step_make() {
	make
}
`

func parseRecipe(t *testing.T, src string) *syntax.Document {
	t.Helper()
	doc, err := syntax.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	return doc
}

// --- Host function tests (via Run) ---

func TestRun_RootAndNodeText(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New()

	script := `
assert(root.Type() == "program", 'expected program, got {root.Type()}')

names := []
count := int(root.NamedChildCount())
for i := 0; i < count; i++ {
    child := root.NamedChild(i)
    if child.Type() == "variable_assignment" {
        names.append(node_text(node_child(child, "name")))
    }
}

assert(len(names) == 3, 'expected 3 assignments, got {len(names)}')
assert(names[0] == "TERMUX_PKG_HOMEPAGE", 'got {names[0]}')
assert(names[2] == "TERMUX_PKG_DEPENDS", 'got {names[2]}')
`
	reports, err := rt.Run(context.Background(), "inline", script, doc, nil)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestRun_NodeChildMissingFieldIsNil(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New()

	script := `
child := node_child(root, "nonexistent")
assert(child == nil, "expected nil for a missing field")
`
	_, err := rt.Run(context.Background(), "inline", script, doc, nil)
	require.NoError(t, err)
}

func TestRun_QueryHostFunction(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New()

	script := `
matches := query("(function_definition name: (word) @name)", root)
assert(len(matches) == 1, 'expected 1 match, got {len(matches)}')
text := node_text(matches[0]["name"])
assert(text == "termux_step_make", 'expected termux_step_make, got {text}')
`
	_, err := rt.Run(context.Background(), "inline", script, doc, nil)
	require.NoError(t, err)
}

func TestRun_QueryPredicates(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New()

	script := `
matches := query("((variable_name) @name (#eq? @name \"TERMUX_PKG_DEPENDS\"))", root)
assert(len(matches) == 1, 'expected 1 match, got {len(matches)}')
`
	_, err := rt.Run(context.Background(), "inline", script, doc, nil)
	require.NoError(t, err)
}

func TestRun_QueryNoMatches(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, "X=1\n")
	rt := New()

	script := `
matches := query("(function_definition) @fn", root)
assert(len(matches) == 0, 'expected 0 matches, got {len(matches)}')
`
	_, err := rt.Run(context.Background(), "inline", script, doc, nil)
	require.NoError(t, err)
}

func TestRun_QueryInvalidPattern(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New()

	_, err := rt.Run(context.Background(), "inline", `query("(not_a_node_type) @x", root)`, doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}

func TestRun_Report(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New()

	script := `
matches := query("(function_definition name: (word) @name)", root)
report(matches[0]["name"], "step functions are discouraged")
report(matches[0]["name"], "second", "hint", "custom-code")
`
	reports, err := rt.Run(context.Background(), "inline", script, doc, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "step functions are discouraged", reports[0].Message)
	assert.Empty(t, reports[0].Severity)
	assert.Equal(t, syntax.Position{Line: 3, Column: 0}, reports[0].Range.Start)
	assert.Equal(t, syntax.Position{Line: 3, Column: 16}, reports[0].Range.End)

	assert.Equal(t, "hint", reports[1].Severity)
	assert.Equal(t, "custom-code", reports[1].Code)
}

func TestRun_ReportArgErrors(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New()

	tests := []struct {
		name   string
		script string
	}{
		{"too few", `report(root)`},
		{"not a node", `report("x", "msg")`},
		{"message not a string", `report(root, 1)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := rt.Run(context.Background(), "inline", tt.script, doc, nil)
			assert.Error(t, err)
		})
	}
}

func TestRun_ExtraGlobals(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New()

	script := `assert(filetype == "build.sh", 'got {filetype}')`
	_, err := rt.Run(context.Background(), "inline", script, doc, map[string]any{
		"filetype": "build.sh",
	})
	require.NoError(t, err)
}

func TestRun_ScriptErrorIsWrapped(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New()

	_, err := rt.Run(context.Background(), "broken.risor", `assert(false, "boom")`, doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.risor")
}

func TestRun_NilRoot(t *testing.T) {
	t.Parallel()
	rt := New()

	_, err := rt.Run(context.Background(), "inline", `1`, &syntax.Document{}, nil)
	assert.Error(t, err)
}

// --- Script loading tests ---

func TestLoadScript(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rule.risor"), []byte(`x := 1`), 0644))

	rt := New(WithScriptsDir(dir))
	src, err := rt.LoadScript("rule.risor")
	require.NoError(t, err)
	assert.Equal(t, "x := 1", src)
}

func TestLoadScript_Missing(t *testing.T) {
	t.Parallel()
	rt := New(WithScriptsDir(t.TempDir()))
	_, err := rt.LoadScript("nope.risor")
	assert.Error(t, err)
}

func TestLoadScript_FromFS_StripsLeadingSeparator(t *testing.T) {
	t.Parallel()
	mapFS := fstest.MapFS{
		"rules/a.risor": &fstest.MapFile{Data: []byte(`y := 2`)},
	}
	rt := New(WithFS(mapFS))

	src, err := rt.LoadScript("/rules/a.risor")
	require.NoError(t, err)
	assert.Equal(t, "y := 2", src)
}

func TestRunScript_EmbeddedInsecureURL(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	rt := New(WithFS(assets.FS))

	reports, err := rt.RunScript(context.Background(), "rules/insecure-url.risor", doc)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "TERMUX_PKG_SRCURL: source fetched over plain http", reports[0].Message)
	assert.Equal(t, "warning", reports[0].Severity)
	assert.Equal(t, 1, reports[0].Range.Start.Line)
}

// --- Importer wiring tests ---

func TestImport_FSImporter(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, recipeSource)
	mapFS := fstest.MapFS{
		"helpers.risor": &fstest.MapFile{Data: []byte(`
func is_source(name) {
	return name == "TERMUX_PKG_SRCURL" || name == "source"
}
`)},
	}
	rt := New(WithFS(mapFS))

	script := `
import helpers

assert(helpers.is_source("source"), "expected source to match")
assert(!helpers.is_source("depends"), "expected depends not to match")
`
	_, err := rt.Run(context.Background(), "inline", script, doc, nil)
	require.NoError(t, err)
}

func TestImport_ScriptsDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0644))
	doc := parseRecipe(t, recipeSource)
	rt := New(WithScriptsDir(dir))

	script := `
import math_utils

assert(math_utils.double(21) == 42, "expected 42")
`
	_, err := rt.Run(context.Background(), "inline", script, doc, nil)
	require.NoError(t, err)
}
