package main

import "github.com/jward/pkgls"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIDiagnostic is a JSON-friendly diagnostic.
type CLIDiagnostic struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	Severity  string `json:"severity"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// CLIFileReport is the outcome of checking or formatting one file.
type CLIFileReport struct {
	File        string          `json:"file"`
	Filetype    string          `json:"filetype"`
	Diagnostics []CLIDiagnostic `json:"diagnostics,omitempty"`
	Edits       []CLIEdit       `json:"edits,omitempty"`
	Failures    []string        `json:"failures,omitempty"`
	Written     bool            `json:"written,omitempty"`
}

// CLIEdit is a JSON-friendly text edit.
type CLIEdit struct {
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	NewText   string `json:"new_text"`
}

// CLIHover is the documentation of a symbol under the cursor.
type CLIHover struct {
	Name          string `json:"name"`
	Documentation string `json:"documentation"`
	StartLine     int    `json:"start_line"`
	StartCol      int    `json:"start_col"`
}

// CLICompletion is one completion candidate.
type CLICompletion struct {
	Label         string `json:"label"`
	Kind          string `json:"kind"`
	Documentation string `json:"documentation,omitempty"`
}

// CLILink is a dependency link.
type CLILink struct {
	Name      string `json:"name"`
	Target    string `json:"target"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
}

// CLISymbol is a knowledge-base symbol.
type CLISymbol struct {
	Name          string `json:"name"`
	Filetype      string `json:"filetype"`
	Documentation string `json:"documentation,omitempty"`
}

// CLIImport summarizes a knowledge-base import.
type CLIImport struct {
	Database  string `json:"database"`
	Symbols   int    `json:"symbols"`
	Filetypes int    `json:"filetypes"`
	Changed   bool   `json:"changed"`
}

func toCLIDiagnostic(file string, d pkgls.Diagnostic) CLIDiagnostic {
	return CLIDiagnostic{
		File:      file,
		StartLine: d.Range.Start.Line,
		StartCol:  d.Range.Start.Column,
		EndLine:   d.Range.End.Line,
		EndCol:    d.Range.End.Column,
		Severity:  d.Severity.String(),
		Code:      d.Code,
		Message:   d.Message,
	}
}

func toCLIEdits(edits []pkgls.TextEdit) []CLIEdit {
	out := make([]CLIEdit, 0, len(edits))
	for _, e := range edits {
		out = append(out, CLIEdit{
			StartLine: e.Range.Start.Line,
			StartCol:  e.Range.Start.Column,
			EndLine:   e.Range.End.Line,
			EndCol:    e.Range.End.Column,
			NewText:   e.NewText,
		})
	}
	return out
}

func toCLIFileReport(fr pkgls.FileResult) CLIFileReport {
	rep := CLIFileReport{File: fr.Path, Filetype: fr.Filetype}
	for _, d := range fr.Result.Diagnostics {
		rep.Diagnostics = append(rep.Diagnostics, toCLIDiagnostic(fr.Path, d))
	}
	for _, f := range fr.Result.Failures {
		rep.Failures = append(rep.Failures, f.Error())
	}
	return rep
}
