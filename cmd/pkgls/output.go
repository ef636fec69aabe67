package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgBlue)
	hintColor    = color.New(color.FgCyan)
	fileColor    = color.New(color.Bold)
)

func setupColor() {
	if flagNoColor || flagFormat == "json" {
		color.NoColor = true
	}
}

func severityColor(sev string) *color.Color {
	switch sev {
	case "error":
		return errorColor
	case "warning":
		return warningColor
	case "information":
		return infoColor
	default:
		return hintColor
	}
}

// formatReportsText writes diagnostics as "file:line:col: severity: message [code]".
// Lines and columns are printed 1-based.
func formatReportsText(w io.Writer, reports []CLIFileReport) {
	for _, r := range reports {
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n",
				fileColor.Sprint(d.File), d.StartLine+1, d.StartCol+1,
				severityColor(d.Severity).Sprint(d.Severity), d.Message, d.Code)
		}
		for _, f := range r.Failures {
			fmt.Fprintf(w, "%s: %s: %s\n", fileColor.Sprint(r.File), errorColor.Sprint("failed"), f)
		}
		if len(r.Edits) > 0 {
			verb := "would reformat"
			if r.Written {
				verb = "reformatted"
			}
			fmt.Fprintf(w, "%s: %s (%d edit(s))\n", fileColor.Sprint(r.File), verb, len(r.Edits))
		}
	}
}

// formatCompletionsText formats completion items as aligned columns.
func formatCompletionsText(w io.Writer, items []CLICompletion) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tKIND\tDOCUMENTATION")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", it.Label, it.Kind, it.Documentation)
	}
	tw.Flush()
}

// formatLinksText formats links as aligned columns.
func formatLinksText(w io.Writer, links []CLILink) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLINE\tTARGET")
	for _, l := range links {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", l.Name, l.StartLine+1, l.Target)
	}
	tw.Flush()
}

// formatSymbolsText formats knowledge-base symbols as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFILETYPE\tDOCUMENTATION")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Filetype, s.Documentation)
	}
	tw.Flush()
}

// outputResultText dispatches to the text formatter of the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIFileReport:
		formatReportsText(w, v)
	case CLIHover:
		fmt.Fprintf(w, "%s\n\n%s\n", fileColor.Sprint(v.Name), v.Documentation)
	case []CLICompletion:
		formatCompletionsText(w, v)
	case []CLILink:
		formatLinksText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case CLIImport:
		state := "unchanged"
		if v.Changed {
			state = "updated"
		}
		fmt.Fprintf(w, "%s: %s (%d symbols, %d filetypes)\n", v.Database, state, v.Symbols, v.Filetypes)
	case nil:
		// No output for nil results (e.g. hover with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputResult writes result to stdout in the selected format.
func outputResult(result CLIResult) error {
	return writeResult(os.Stdout, result)
}

func writeResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorColor.Sprint("Error:"), err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
