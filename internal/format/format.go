// Package format turns the sort targets of the unsorted finders into text
// edits.
//
// Each reordered slot becomes one edit replacing the slot's source with the
// source of the token that belongs there. Edits from different finders are
// composed: an edit that falls inside a token being moved is applied to the
// moved copy instead of the original location, which is overwritten anyway.
// The resulting batch never overlaps.
package format

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jward/pkgls/internal/finder"
	"github.com/jward/pkgls/internal/syntax"
)

// ErrOverlappingEdits is returned when the configured finders produce edits
// that cannot be composed.
var ErrOverlappingEdits = errors.New("format: overlapping edits")

// TextEdit replaces Range with NewText.
type TextEdit struct {
	Range   syntax.Range `json:"range"`
	NewText string       `json:"newText"`
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

// patch is an edit applied to the moved copy of a token.
type patch struct {
	start, end uint32
	text       string
}

// edit is a TextEdit under construction. moved is set when text was taken
// from origin, so later edits inside origin can be rebased onto it. Edits
// of one sequence share a group and never compose with each other.
type edit struct {
	group   int
	target  syntax.Range
	origin  syntax.Range
	moved   bool
	text    string
	patches []patch
}

func (e *edit) finalText() (string, error) {
	if len(e.patches) == 0 {
		return e.text, nil
	}
	ps := slices.Clone(e.patches)
	slices.SortFunc(ps, func(a, b patch) int { return cmp.Compare(a.start, b.start) })

	base := e.origin.StartByte
	out := make([]byte, 0, len(e.text))
	cursor := uint32(0)
	for _, p := range ps {
		from, to := p.start-base, p.end-base
		if from < cursor {
			return "", fmt.Errorf("%w: %d-%d inside moved text", ErrOverlappingEdits, p.start, p.end)
		}
		out = append(out, e.text[cursor:from]...)
		out = append(out, p.text...)
		cursor = to
	}
	out = append(out, e.text[cursor:]...)
	return string(out), nil
}

// Run runs every finder against doc and synthesizes the edits that apply
// their sort targets, ordered by position. A finder that fails is logged
// and contributes no edits. A nil document yields no edits.
func Run(ctx context.Context, finders []finder.Finder, uri string, doc *syntax.Document, opts ...Option) ([]TextEdit, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if doc == nil || doc.Root() == nil {
		return nil, nil
	}

	var edits []*edit
	group := 0
	for _, f := range finders {
		findings, err := finder.RunSafely(ctx, f, doc)
		if err != nil {
			o.logger.Warn("finder failed", "uri", uri, "finder", finder.Name(f), "error", err)
			continue
		}
		for _, r := range findings.Reorders {
			group++
			for _, n := range slotEdits(r, group) {
				if edits, err = compose(edits, n); err != nil {
					return nil, fmt.Errorf("format: %s: %w", uri, err)
				}
			}
		}
	}

	out, err := finish(edits)
	if err != nil {
		return nil, fmt.Errorf("format: %s: %w", uri, err)
	}
	o.logger.Debug("formatted", "uri", uri, "edits", len(out))
	return out, nil
}

// slotEdits returns one edit per slot whose token changes.
func slotEdits(r finder.Reorder, group int) []*edit {
	var out []*edit
	for i, slot := range r.Slots {
		target := r.Sorted[i]
		if slot.Range.StartByte == target.Range.StartByte && slot.Range.EndByte == target.Range.EndByte {
			continue
		}
		out = append(out, &edit{
			group:  group,
			target: slot.Range,
			origin: target.Range,
			moved:  true,
			text:   target.Text,
		})
	}
	return out
}

// compose adds n to edits, rebasing it into a moved token it falls inside,
// or absorbing earlier edits that fall inside the token n moves.
func compose(edits []*edit, n *edit) ([]*edit, error) {
	for _, e := range edits {
		if e.target == n.target && e.text == n.text && len(e.patches) == 0 && len(n.patches) == 0 {
			return edits, nil
		}
	}

	text, err := n.finalText()
	if err != nil {
		return nil, err
	}
	for _, e := range edits {
		if e.group != n.group && e.moved && e.origin.Covers(n.target) {
			e.patches = append(e.patches, patch{start: n.target.StartByte, end: n.target.EndByte, text: text})
			return edits, nil
		}
	}

	if n.moved {
		kept := edits[:0]
		for _, e := range edits {
			if e.group != n.group && n.origin.Covers(e.target) {
				et, err := e.finalText()
				if err != nil {
					return nil, err
				}
				n.patches = append(n.patches, patch{start: e.target.StartByte, end: e.target.EndByte, text: et})
				continue
			}
			kept = append(kept, e)
		}
		edits = kept
	}
	return append(edits, n), nil
}

// finish renders the edits, sorted by position, and verifies they do not
// overlap.
func finish(edits []*edit) ([]TextEdit, error) {
	out := make([]TextEdit, 0, len(edits))
	for _, e := range edits {
		text, err := e.finalText()
		if err != nil {
			return nil, err
		}
		out = append(out, TextEdit{Range: e.target, NewText: text})
	}
	slices.SortFunc(out, func(a, b TextEdit) int {
		return cmp.Compare(a.Range.StartByte, b.Range.StartByte)
	})
	if err := checkOverlap(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkOverlap expects edits sorted by start offset.
func checkOverlap(edits []TextEdit) error {
	for i := 1; i < len(edits); i++ {
		prev, cur := edits[i-1].Range, edits[i].Range
		if prev.Overlaps(cur) || prev.StartByte == cur.StartByte {
			return fmt.Errorf("%w: %s-%s and %s-%s", ErrOverlappingEdits, prev.Start, prev.End, cur.Start, cur.End)
		}
	}
	return nil
}

// Apply applies a batch of non-overlapping edits to src.
func Apply(src []byte, edits []TextEdit) ([]byte, error) {
	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, b TextEdit) int {
		return cmp.Compare(a.Range.StartByte, b.Range.StartByte)
	})
	if err := checkOverlap(sorted); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(src))
	cursor := uint32(0)
	for _, e := range sorted {
		if e.Range.EndByte > uint32(len(src)) || e.Range.StartByte > e.Range.EndByte {
			return nil, fmt.Errorf("format: edit %s-%s out of bounds", e.Range.Start, e.Range.End)
		}
		out = append(out, src[cursor:e.Range.StartByte]...)
		out = append(out, e.NewText...)
		cursor = e.Range.EndByte
	}
	return append(out, src[cursor:]...), nil
}
