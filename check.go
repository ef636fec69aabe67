package pkgls

import (
	"context"
	"errors"
	"fmt"
	"os"
	goruntime "runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jward/pkgls/internal/diagnose"
	"github.com/jward/pkgls/internal/filetype"
	"github.com/jward/pkgls/internal/format"
	"github.com/jward/pkgls/internal/syntax"
)

// FileResult is the diagnosis of one file checked by CheckFiles.
type FileResult struct {
	Path     string
	Filetype string
	Result   Result
}

// CheckFiles diagnoses paths concurrently with at most jobs workers, or one
// per CPU when jobs is not positive. Files of unknown filetype are skipped.
// Results follow the order of paths. Files that could not be read or
// parsed are left out and summarized in the returned error; the other
// results are still returned.
func (s *Session) CheckFiles(ctx context.Context, paths []string, jobs int) ([]FileResult, error) {
	if jobs <= 0 {
		jobs = goruntime.NumCPU()
	}

	type slot struct {
		res FileResult
		ok  bool
		err error
	}
	slots := make([]slot, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, p := range paths {
		ft, ok := filetype.Classify(p)
		if !ok {
			s.logger.Debug("skipping file of unknown filetype", "path", p)
			continue
		}
		g.Go(func() error {
			res, err := s.checkFile(gctx, p, ft)
			if err != nil {
				slots[i].err = fmt.Errorf("check %s: %w", p, err)
				return nil
			}
			slots[i] = slot{res: FileResult{Path: p, Filetype: ft, Result: res}, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	var (
		out  []FileResult
		errs []error
	)
	for _, sl := range slots {
		if sl.err != nil {
			errs = append(errs, sl.err)
		}
		if sl.ok {
			out = append(out, sl.res)
		}
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	if len(errs) > 0 {
		return out, fmt.Errorf("check had %d error(s): %w", len(errs), errors.Join(errs...))
	}
	return out, nil
}

func (s *Session) checkFile(ctx context.Context, path, ft string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	doc, err := syntax.Parse(ctx, src)
	if err != nil {
		return Result{}, err
	}
	defer doc.Close()
	return diagnose.Run(ctx, s.Finders(ft), path, doc, diagnose.WithLogger(s.logger)), nil
}

// FormatFile computes the sorting edits of the file at path and returns
// its source with them applied.
func (s *Session) FormatFile(ctx context.Context, path string) ([]byte, []TextEdit, error) {
	ft, ok := filetype.Classify(path)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownFiletype, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("pkgls: format: %w", err)
	}
	doc, err := syntax.Parse(ctx, src)
	if err != nil {
		return nil, nil, fmt.Errorf("pkgls: format %s: %w", path, err)
	}
	defer doc.Close()

	edits, err := format.Run(ctx, s.SortFinders(ft), path, doc, format.WithLogger(s.logger))
	if err != nil {
		return nil, nil, fmt.Errorf("pkgls: format %s: %w", path, err)
	}
	out, err := format.Apply(src, edits)
	if err != nil {
		return nil, nil, fmt.Errorf("pkgls: format %s: %w", path, err)
	}
	return out, edits, nil
}
