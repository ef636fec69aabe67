package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/pkgls/internal/filetype"
)

var flagWrite bool

var formatCmd = &cobra.Command{
	Use:   "format <file>...",
	Short: "Sort declarations and dependency lists",
	Long:  "Computes the edits that restore canonical keyword order and sorted dependency lists. Without --write the edits are only printed.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFormat,
}

func init() {
	formatCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "write the result back to the files")
}

func runFormat(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return outputError("format", err)
	}

	var reports []CLIFileReport
	for _, path := range args {
		out, edits, err := s.FormatFile(cmd.Context(), path)
		if err != nil {
			return outputError("format", err)
		}
		ft, _ := filetype.Classify(path)
		rep := CLIFileReport{File: path, Filetype: ft, Edits: toCLIEdits(edits)}
		if flagWrite && len(edits) > 0 {
			info, err := os.Stat(path)
			if err != nil {
				return outputError("format", err)
			}
			if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
				return outputError("format", fmt.Errorf("writing %s: %w", path, err))
			}
			rep.Written = true
		}
		reports = append(reports, rep)
	}
	return outputResult(CLIResult{Command: "format", Results: reports})
}
