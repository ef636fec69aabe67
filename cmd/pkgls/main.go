package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/pkgls"
	"github.com/jward/pkgls/internal/config"
)

var (
	flagFormat  string
	flagConfig  string
	flagDB      string
	flagVerbose bool
	flagNoColor bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// errFindings makes the process exit non-zero after findings were printed.
var errFindings = errors.New("findings reported")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled && !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pkgls",
	Short:         "Lint and format build recipes",
	Long:          "pkgls checks Termux build.sh, PKGBUILD, ebuild and make.conf files against a knowledge base of known keywords, and sorts their declarations and dependency lists.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		setupColor()
		return validateFormat(flagFormat)
	},
	// No Run; prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: nearest "+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite knowledge base to use instead of the built-in one")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored text output")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(schemaCmd)
}

func setupLogger() {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads --config, or discovers the config above the working
// directory. --db overrides the configured database.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		var cwd string
		if cwd, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("getting cwd: %w", err)
		}
		cfg, err = config.Discover(cwd)
	}
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		abs, err := filepath.Abs(flagDB)
		if err != nil {
			return nil, fmt.Errorf("resolving database path %q: %w", flagDB, err)
		}
		cfg.DB = abs
	}
	return cfg, nil
}

// newSession builds a Session from the flags and config.
func newSession() (*pkgls.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s, err := pkgls.New(pkgls.WithConfig(cfg), pkgls.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return s, nil
}
