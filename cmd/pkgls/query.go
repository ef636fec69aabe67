package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/pkgls"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Point queries against a recipe file",
	Long:  "Look up documentation, completions and dependency links. All line and column numbers are 0-based.",
}

func init() {
	queryCmd.AddCommand(hoverCmd)
	queryCmd.AddCommand(completeCmd)
	queryCmd.AddCommand(linksCmd)
}

var hoverCmd = &cobra.Command{
	Use:   "hover <file> <line> <col>",
	Short: "Show the documentation of the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, pos, err := openAt(cmd.Context(), args)
		if err != nil {
			return outputError("hover", err)
		}
		h, ok := s.Hover(args[0], pos)
		if !ok {
			return outputResult(CLIResult{Command: "hover"})
		}
		return outputResult(CLIResult{Command: "hover", Results: CLIHover{
			Name:          h.Name,
			Documentation: h.Documentation,
			StartLine:     h.Range.Start.Line,
			StartCol:      h.Range.Start.Column,
		}})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <file> <line> <col>",
	Short: "List the symbols completing the word before a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, pos, err := openAt(cmd.Context(), args)
		if err != nil {
			return outputError("complete", err)
		}
		items := s.Complete(args[0], pos)
		out := make([]CLICompletion, 0, len(items))
		for _, it := range items {
			out = append(out, CLICompletion{Label: it.Label, Kind: it.Kind.String(), Documentation: it.Documentation})
		}
		return outputResult(CLIResult{Command: "complete", Results: out})
	},
}

var linksCmd = &cobra.Command{
	Use:   "links <file>",
	Short: "List the links of every dependency in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openFile(cmd.Context(), args[0])
		if err != nil {
			return outputError("links", err)
		}
		links := s.Links(args[0])
		out := make([]CLILink, 0, len(links))
		for _, l := range links {
			out = append(out, CLILink{
				Name:      l.Name,
				Target:    l.Target,
				StartLine: l.Range.Start.Line,
				StartCol:  l.Range.Start.Column,
			})
		}
		return outputResult(CLIResult{Command: "links", Results: out})
	},
}

// openFile creates a session with the file at path opened under its path.
func openFile(ctx context.Context, path string) (*pkgls.Session, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s, err := newSession()
	if err != nil {
		return nil, err
	}
	if _, err := s.Open(ctx, path, src); err != nil {
		return nil, err
	}
	return s, nil
}

// openAt opens args[0] and parses the <line> <col> arguments after it.
func openAt(ctx context.Context, args []string) (*pkgls.Session, pkgls.Position, error) {
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return nil, pkgls.Position{}, err
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return nil, pkgls.Position{}, err
	}
	s, err := openFile(ctx, args[0])
	if err != nil {
		return nil, pkgls.Position{}, err
	}
	return s, pkgls.Position{Line: line, Column: col}, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}
