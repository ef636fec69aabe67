// Package diagnose runs a set of finders against one document and merges
// their diagnostics.
package diagnose

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jward/pkgls/internal/finder"
	"github.com/jward/pkgls/internal/syntax"
)

// Failure records a finder that could not complete.
type Failure struct {
	Finder string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Finder, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result is the merged output of one diagnosis.
type Result struct {
	// Diagnostics follow finder order, then each finder's emission order.
	Diagnostics []finder.Diagnostic
	Failures    []Failure
}

// Err summarizes the failures, or returns nil when every finder completed.
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("diagnosis had %d error(s): %w", len(r.Failures), r.Failures[0])
}

type options struct {
	logger *slog.Logger
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger finder failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Run runs every finder against doc. A finder that errors or panics is
// recorded in Failures and the rest still run. Diagnostics are not
// deduplicated. A nil document yields an empty result.
func Run(ctx context.Context, finders []finder.Finder, uri string, doc *syntax.Document, opts ...Option) Result {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var res Result
	if doc == nil || doc.Root() == nil {
		o.logger.Debug("diagnose: no document", "uri", uri)
		return res
	}

	for _, f := range finders {
		findings, err := finder.RunSafely(ctx, f, doc)
		if err != nil {
			name := finder.Name(f)
			o.logger.Warn("finder failed", "uri", uri, "finder", name, "error", err)
			res.Failures = append(res.Failures, Failure{Finder: name, Err: err})
			continue
		}
		res.Diagnostics = append(res.Diagnostics, findings.Diagnostics...)
	}
	o.logger.Debug("diagnosed", "uri", uri, "diagnostics", len(res.Diagnostics), "failures", len(res.Failures))
	return res
}
