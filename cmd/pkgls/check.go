package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/pkgls"
	"github.com/jward/pkgls/internal/filetype"
	"github.com/jward/pkgls/internal/watch"
)

var (
	flagJobs  int
	flagWatch bool
)

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Report diagnostics for recipe files",
	Long:  "Checks every recipe file under the given files and directories (default: current directory). Exits non-zero when any diagnostic is reported.",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "files checked concurrently (default: number of CPUs)")
	checkCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "re-check files as they change")
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return outputError("check", err)
	}
	if len(args) == 0 {
		args = []string{"."}
	}
	paths, err := collectRecipes(args)
	if err != nil {
		return outputError("check", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	found, err := checkAndReport(ctx, s, paths)
	if err != nil {
		return outputError("check", err)
	}
	if !flagWatch {
		if found {
			return errFindings
		}
		return nil
	}

	w, err := watch.New(args, func(changed []string) {
		if _, err := checkAndReport(ctx, s, changed); err != nil {
			slog.Error("re-check failed", "error", err)
		}
	}, watch.WithFilter(isRecipe))
	if err != nil {
		return outputError("check", err)
	}
	defer w.Close()
	fmt.Fprintf(os.Stderr, "Watching %s\n", strings.Join(args, ", "))
	return w.Run(ctx)
}

// checkAndReport checks paths and prints the results. It reports whether
// any diagnostic was found.
func checkAndReport(ctx context.Context, s *pkgls.Session, paths []string) (bool, error) {
	results, err := s.CheckFiles(ctx, paths, flagJobs)
	if err != nil && len(results) == 0 {
		return false, err
	}
	if err != nil {
		slog.Warn("some files could not be checked", "error", err)
	}

	reports := make([]CLIFileReport, 0, len(results))
	found := false
	for _, fr := range results {
		rep := toCLIFileReport(fr)
		found = found || len(rep.Diagnostics) > 0
		reports = append(reports, rep)
	}
	return found, outputResult(CLIResult{Command: "check", Results: reports})
}

func isRecipe(path string) bool {
	_, ok := filetype.Classify(path)
	return ok
}

// collectRecipes expands directories into the recipe files below them.
// Named files are kept as given; CheckFiles skips unknown filetypes.
func collectRecipes(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("path not found: %s", arg)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if isRecipe(p) {
				out = append(out, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return out, nil
}
