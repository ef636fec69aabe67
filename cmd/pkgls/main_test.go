package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	err := validateFormat("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json or text")
}

func TestParseIntArg(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"-1", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		got, err := parseIntArg(tt.in, "line")
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCollectRecipes(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	for _, rel := range []string{
		"packages/vim/build.sh",
		"packages/vim/vim-runtime.subpackage.sh",
		"packages/vim/fix.patch",
		"arch/vim/PKGBUILD",
		".git/hooks/build.sh",
	} {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
	notes := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(notes, nil, 0o644))

	got, err := collectRecipes([]string{root, notes})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "arch/vim/PKGBUILD"),
		filepath.Join(root, "packages/vim/build.sh"),
		filepath.Join(root, "packages/vim/vim-runtime.subpackage.sh"),
		notes,
	}, got)

	_, err = collectRecipes([]string{filepath.Join(root, "missing")})
	assert.Error(t, err)
}

// Not parallel: flips the global color and format settings.
func TestFormatReportsText(t *testing.T) {
	color.NoColor = true
	prev := flagFormat
	flagFormat = "text"
	t.Cleanup(func() { flagFormat = prev })

	var buf bytes.Buffer
	err := writeResult(&buf, CLIResult{Command: "check", Results: []CLIFileReport{{
		File: "build.sh",
		Diagnostics: []CLIDiagnostic{{
			File: "build.sh", StartLine: 2, StartCol: 0,
			Severity: "error", Code: "invalid-keyword", Message: "FOO: unknown keyword",
		}},
		Edits: []CLIEdit{{NewText: "x"}},
	}}})
	require.NoError(t, err)
	assert.Equal(t,
		"build.sh:3:1: error: FOO: unknown keyword [invalid-keyword]\nbuild.sh: would reformat (1 edit(s))\n",
		buf.String())
}

func TestOutputResultText_Unsupported(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Results: 42})
	assert.Error(t, err)
}
