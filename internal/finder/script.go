package finder

import (
	"context"
	"fmt"

	"github.com/jward/pkgls/internal/runtime"
	"github.com/jward/pkgls/internal/syntax"
)

// Script runs a user rule written in Risor. Every report() call in the
// script becomes one diagnostic.
type Script struct {
	// Name labels the rule in diagnostics and failures, usually its path.
	Name   string
	Source string
	// Globals are passed to the script alongside the host functions.
	Globals  map[string]any
	Runtime  *runtime.Runtime
	Severity Severity
}

func (f *Script) Kind() Kind { return KindScript }

func (f *Script) Run(ctx context.Context, doc *syntax.Document) (Findings, error) {
	rt := f.Runtime
	if rt == nil {
		rt = runtime.New()
	}
	reports, err := rt.Run(ctx, orName(f.Name), f.Source, doc, f.Globals)
	if err != nil {
		return Findings{}, fmt.Errorf("finder: %w", err)
	}

	diags := make([]Diagnostic, 0, len(reports))
	for _, rep := range reports {
		sev := orDefault(f.Severity, SeverityWarning)
		if rep.Severity != "" {
			if sev, err = ParseSeverity(rep.Severity); err != nil {
				return Findings{}, fmt.Errorf("finder: script %s: %w", orName(f.Name), err)
			}
		}
		code := rep.Code
		if code == "" {
			code = orName(f.Name)
		}
		diags = append(diags, Diagnostic{
			Range:    rep.Range,
			Severity: sev,
			Message:  rep.Message,
			Code:     code,
			Source:   Source,
		})
	}
	return Findings{Diagnostics: diags}, nil
}

func orName(name string) string {
	if name == "" {
		return KindScript.String()
	}
	return name
}
