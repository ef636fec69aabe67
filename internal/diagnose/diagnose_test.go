package diagnose

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pkgls/internal/finder"
	"github.com/jward/pkgls/internal/syntax"
)

func parseRecipe(t *testing.T, src string) *syntax.Document {
	t.Helper()
	doc, err := syntax.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	return doc
}

type failingFinder struct {
	err   error
	panic bool
}

func (f failingFinder) Kind() finder.Kind { return finder.KindRequired }

func (f failingFinder) Run(context.Context, *syntax.Document) (finder.Findings, error) {
	if f.panic {
		panic("boom")
	}
	return finder.Findings{}, f.err
}

var valid = []string{"DEPENDS", "CONFLICTS", "PROVIDES"}

func codes(diags []finder.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestRun_ConcatenatesInFinderOrder(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, "PROVIDES=b\nDEPNDS=x\nDEPENDS=a\n")

	res := Run(context.Background(), []finder.Finder{
		finder.NewUnsortedKeyword(valid),
		finder.NewInvalid(valid),
		finder.NewRequired([]string{"CONFLICTS"}),
	}, "file:///build.sh", doc)

	require.NoError(t, res.Err())
	assert.Equal(t, []string{"unsorted-keyword", "invalid-keyword", "missing-keyword"}, codes(res.Diagnostics))
}

func TestRun_NoDeduplication(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, "NOPE=1\n")

	inv := finder.NewInvalid(valid)
	res := Run(context.Background(), []finder.Finder{inv, inv}, "uri", doc)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, res.Diagnostics[0], res.Diagnostics[1])
}

func TestRun_FailureIsolated(t *testing.T) {
	t.Parallel()
	doc := parseRecipe(t, "NOPE=1\n")
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	errBroken := errors.New("broken")
	res := Run(context.Background(), []finder.Finder{
		failingFinder{err: errBroken},
		failingFinder{panic: true},
		finder.NewInvalid(valid),
	}, "file:///x/build.sh", doc, WithLogger(logger))

	require.Len(t, res.Failures, 2)
	assert.ErrorIs(t, res.Failures[0], errBroken)
	assert.Contains(t, res.Failures[1].Error(), "boom")
	assert.Equal(t, []string{"invalid-keyword"}, codes(res.Diagnostics))

	err := res.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "had 2 error(s)")
	assert.Contains(t, buf.String(), "file:///x/build.sh")
	assert.Contains(t, buf.String(), "finder failed")
}

func TestRun_NilDocument(t *testing.T) {
	t.Parallel()
	res := Run(context.Background(), []finder.Finder{finder.NewInvalid(valid)}, "uri", nil)
	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, res.Failures)
	assert.NoError(t, res.Err())
}
