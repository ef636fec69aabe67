// Package config loads the optional .pkgls.toml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jward/pkgls/internal/finder"
)

// FileName is the config file looked up from the working directory upward.
const FileName = ".pkgls.toml"

// ErrUnknownKey is returned when the config file has keys pkgls does not read.
var ErrUnknownKey = errors.New("unknown config key")

// Config is the decoded project configuration.
type Config struct {
	// DB is a SQLite knowledge base to load instead of the built-in one.
	DB string `toml:"db"`
	// Disable lists finder codes to skip, e.g. "unsorted-list".
	Disable []string `toml:"disable"`
	// Severity overrides the severity per diagnostic code.
	Severity map[string]string `toml:"severity"`
	// Links maps a filetype to its document-link template.
	Links map[string]string `toml:"links"`
	// Scripts maps a filetype to the Risor rule scripts run against it.
	// Paths starting with "builtin:" name embedded rules.
	Scripts map[string][]string `toml:"scripts"`

	// Dir is the directory holding the config file; relative paths resolve
	// against it. Empty for the default config.
	Dir string `toml:"-"`

	severities map[string]finder.Severity
	disabled   []finder.Kind
}

// Default returns the empty configuration.
func Default() *Config {
	return &Config{}
}

// Load parses and validates the config file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve path: %w", path, err)
	}
	cfg.Dir = filepath.Dir(abs)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.disabled = c.disabled[:0]
	for _, code := range c.Disable {
		k, err := finder.ParseKind(code)
		if err != nil {
			return fmt.Errorf("disable: %w", err)
		}
		c.disabled = append(c.disabled, k)
	}

	c.severities = make(map[string]finder.Severity, len(c.Severity))
	for code, name := range c.Severity {
		sev, err := finder.ParseSeverity(name)
		if err != nil {
			return fmt.Errorf("severity.%s: %w", code, err)
		}
		c.severities[code] = sev
	}

	for ft, tmpl := range c.Links {
		if !strings.Contains(tmpl, "{{name}}") {
			return fmt.Errorf("links.%s: template %q has no {{name}} placeholder", ft, tmpl)
		}
	}
	return nil
}

// Find walks up from startDir to locate FileName.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest config file above startDir, or the default
// config when there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Disabled reports whether findings of kind k are turned off.
func (c *Config) Disabled(k finder.Kind) bool {
	return c != nil && slices.Contains(c.disabled, k)
}

// SeverityFor returns the configured severity for a diagnostic code.
func (c *Config) SeverityFor(code string) (finder.Severity, bool) {
	if c == nil {
		return 0, false
	}
	sev, ok := c.severities[code]
	return sev, ok
}

// Resolve returns p relative to the config directory unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c == nil || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
