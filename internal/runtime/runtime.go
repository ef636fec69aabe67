package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/pkgls/internal/syntax"
)

// Runtime embeds a Risor VM and exposes a parsed recipe to rule scripts.
// A Runtime holds configuration only; every Run gets fresh globals, so one
// Runtime may serve concurrent runs.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFS reads scripts and the modules they import from fsys instead of
// the disk.
func WithFS(fsys fs.FS) Option {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithScriptsDir sets the directory relative script paths and imports
// resolve against.
func WithScriptsDir(dir string) Option {
	return func(r *Runtime) {
		r.scriptsDir = dir
	}
}

// WithLogger sets the logger behind the scripts' log object.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report is one finding emitted by a script through report().
type Report struct {
	Range    syntax.Range
	Message  string
	Severity string
	Code     string
}

// Run executes source against doc. The script sees the globals documented
// in hostfuncs.go plus extraGlobals, and the reports it emits are returned
// in emission order.
func (r *Runtime) Run(ctx context.Context, label, source string, doc *syntax.Document, extraGlobals map[string]any) ([]Report, error) {
	var reports []Report
	globals, err := r.buildGlobals(doc, &reports, label)
	if err != nil {
		return nil, err
	}
	for k, v := range extraGlobals {
		globals[k] = v
	}

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.newImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return reports, nil
}

// RunScript loads the script at path and runs it against doc.
func (r *Runtime) RunScript(ctx context.Context, path string, doc *syntax.Document) ([]Report, error) {
	src, err := r.LoadScript(path)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, path, src, doc, nil)
}

const scriptExt = ".risor"

// source returns the filesystem imported modules are read from: the
// configured fs.FS, else the scripts directory. Nil disables imports.
func (r *Runtime) source() fs.FS {
	switch {
	case r.fsys != nil:
		return r.fsys
	case r.scriptsDir != "":
		return os.DirFS(r.scriptsDir)
	}
	return nil
}

// newImporter resolves Risor import statements against the script source.
// Host globals stay visible inside imported modules.
func (r *Runtime) newImporter(globals map[string]any) importer.Importer {
	src := r.source()
	if src == nil {
		return nil
	}
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	return importer.NewFSImporter(importer.FSImporterOptions{
		GlobalNames: names,
		SourceFS:    src,
		Extensions:  []string{scriptExt},
	})
}

// LoadScript returns the source of the rule script at p. With an fs.FS
// configured, p names a file inside it; otherwise relative paths resolve
// against the scripts directory.
func (r *Runtime) LoadScript(p string) (string, error) {
	if r.fsys != nil {
		name := path.Clean(strings.TrimLeft(filepath.ToSlash(p), "/"))
		data, err := fs.ReadFile(r.fsys, name)
		if err != nil {
			return "", fmt.Errorf("runtime: load script %s: %w", name, err)
		}
		return string(data), nil
	}

	if r.scriptsDir != "" && !filepath.IsAbs(p) {
		p = filepath.Join(r.scriptsDir, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("runtime: load script: %w", err)
	}
	return string(data), nil
}

func mustProxy(v any) object.Object {
	proxy, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: cannot proxy %T: %v", v, err))
	}
	return proxy
}
