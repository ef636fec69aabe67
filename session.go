package pkgls

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/jward/pkgls/assets"
	"github.com/jward/pkgls/internal/cache"
	"github.com/jward/pkgls/internal/config"
	"github.com/jward/pkgls/internal/diagnose"
	"github.com/jward/pkgls/internal/filetype"
	"github.com/jward/pkgls/internal/finder"
	"github.com/jward/pkgls/internal/format"
	"github.com/jward/pkgls/internal/lookup"
	"github.com/jward/pkgls/internal/runtime"
	"github.com/jward/pkgls/internal/schema"
	"github.com/jward/pkgls/internal/store"
	"github.com/jward/pkgls/internal/syntax"
)

var (
	// ErrUnknownFiletype is returned when a path is not a recognized recipe.
	ErrUnknownFiletype = errors.New("pkgls: unknown filetype")
	// ErrNotOpen is returned for a URI that was never opened or was closed.
	ErrNotOpen = errors.New("pkgls: document not open")
)

// BuiltinPrefix marks script paths that name embedded rules.
const BuiltinPrefix = "builtin:"

// DefaultLinkTemplates maps filetypes to the page a dependency links to.
var DefaultLinkTemplates = map[string]string{
	filetype.BuildSh:      "https://github.com/termux/termux-packages/tree/master/packages/{{name}}/build.sh",
	filetype.SubpackageSh: "https://github.com/termux/termux-packages/tree/master/packages/{{name}}/build.sh",
	filetype.PKGBUILD:     "https://archlinux.org/packages/?q={{name}}",
}

// Session is the per-session context every analysis runs in: knowledge
// base, configuration, rule scripts and the cache of open documents. The
// analyzers themselves keep no state. Safe for concurrent use.
type Session struct {
	kb      *schema.Document
	cfg     *config.Config
	logger  *slog.Logger
	runtime *runtime.Runtime
	links   map[string]string
	scripts map[string][]*finder.Script
	docs    *cache.Cache

	extraLinks map[string]string
}

// Option configures a Session.
type Option func(*Session)

// WithKnowledgeBase uses doc instead of loading one.
func WithKnowledgeBase(doc *schema.Document) Option {
	return func(s *Session) {
		s.kb = doc
	}
}

// WithConfig applies a project configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Session) {
		s.cfg = cfg
	}
}

// WithLogger sets the logger for finder failures and script output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithLinkTemplate sets the document-link template of a filetype. An empty
// template disables links for it.
func WithLinkTemplate(ft, template string) Option {
	return func(s *Session) {
		if s.extraLinks == nil {
			s.extraLinks = make(map[string]string)
		}
		s.extraLinks[ft] = template
	}
}

// New creates a Session. Without WithKnowledgeBase, the knowledge base is
// read from the configured SQLite database, or the built-in one.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		cfg:    config.Default(),
		logger: slog.Default(),
		docs:   cache.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.kb == nil {
		kb, err := loadKnowledgeBase(s.cfg)
		if err != nil {
			return nil, err
		}
		s.kb = kb
	}

	s.links = make(map[string]string, len(DefaultLinkTemplates))
	for ft, tmpl := range DefaultLinkTemplates {
		s.links[ft] = tmpl
	}
	for ft, tmpl := range s.cfg.Links {
		s.links[ft] = tmpl
	}
	for ft, tmpl := range s.extraLinks {
		s.links[ft] = tmpl
	}

	s.runtime = runtime.New(runtime.WithScriptsDir(s.cfg.Dir), runtime.WithLogger(s.logger))
	if err := s.loadScripts(); err != nil {
		return nil, err
	}
	return s, nil
}

func loadKnowledgeBase(cfg *config.Config) (*schema.Document, error) {
	if cfg.DB == "" {
		kb, err := schema.LoadFS(assets.FS, assets.KnowledgeBaseDir)
		if err != nil {
			return nil, fmt.Errorf("pkgls: load built-in knowledge base: %w", err)
		}
		return kb, nil
	}

	st, err := store.Open(cfg.Resolve(cfg.DB))
	if err != nil {
		return nil, fmt.Errorf("pkgls: open knowledge base: %w", err)
	}
	defer st.Close()
	kb, err := st.LoadDocument()
	if err != nil {
		return nil, fmt.Errorf("pkgls: load knowledge base: %w", err)
	}
	if kb.Schema().Len() == 0 {
		return nil, fmt.Errorf("pkgls: knowledge base %s is empty; run 'pkgls schema import' first", cfg.DB)
	}
	return kb, nil
}

func (s *Session) loadScripts() error {
	s.scripts = make(map[string][]*finder.Script, len(s.cfg.Scripts))
	for ft, paths := range s.cfg.Scripts {
		for _, p := range paths {
			src, err := s.loadScript(p)
			if err != nil {
				return fmt.Errorf("pkgls: %w", err)
			}
			s.scripts[ft] = append(s.scripts[ft], &finder.Script{
				Name:     p,
				Source:   src,
				Globals:  map[string]any{"filetype": ft},
				Runtime:  s.runtime,
				Severity: s.severity(p),
			})
		}
	}
	return nil
}

func (s *Session) loadScript(p string) (string, error) {
	if name, ok := strings.CutPrefix(p, BuiltinPrefix); ok {
		data, err := fs.ReadFile(assets.FS, name)
		if err != nil {
			return "", fmt.Errorf("load builtin script %s: %w", name, err)
		}
		return string(data), nil
	}
	return s.runtime.LoadScript(p)
}

// KnowledgeBase returns the loaded knowledge base.
func (s *Session) KnowledgeBase() *schema.Document {
	return s.kb
}

// Open parses src as the document at uri, replacing any earlier version.
func (s *Session) Open(ctx context.Context, uri string, src []byte) (cache.Entry, error) {
	ft, ok := filetype.Classify(uri)
	if !ok {
		return cache.Entry{}, fmt.Errorf("%w: %s", ErrUnknownFiletype, uri)
	}
	doc, err := syntax.Parse(ctx, src)
	if err != nil {
		return cache.Entry{}, fmt.Errorf("pkgls: open %s: %w", uri, err)
	}
	e := s.docs.Put(uri, ft, doc)
	s.logger.Debug("opened", "uri", uri, "filetype", ft, "version", e.Version)
	return e, nil
}

// Close forgets the document at uri.
func (s *Session) Close(uri string) {
	s.docs.Delete(uri)
}

func (s *Session) entry(uri string) (cache.Entry, error) {
	e, ok := s.docs.Get(uri)
	if !ok {
		return cache.Entry{}, fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}
	return e, nil
}

// Finders returns the diagnostic finders of a filetype in run order:
// required, invalid, unsorted keywords, unsorted lists, then rule scripts.
// A filetype the knowledge base does not cover has no finders.
func (s *Session) Finders(ft string) []finder.Finder {
	rules, ok := s.kb.Rules(ft)
	if !ok {
		return nil
	}

	required := finder.NewRequired(rules.Required)
	required.Severity = s.severity(finder.KindRequired.String())
	invalid := finder.NewInvalid(rules.Valid)
	invalid.Severity = s.severity(finder.KindInvalid.String())

	var out []finder.Finder
	for _, f := range []finder.Finder{required, invalid} {
		if !s.cfg.Disabled(f.Kind()) {
			out = append(out, f)
		}
	}
	out = append(out, s.sortFinders(rules)...)
	if !s.cfg.Disabled(finder.KindScript) {
		for _, sc := range s.scripts[ft] {
			out = append(out, sc)
		}
	}
	return out
}

// SortFinders returns the finders whose sort targets Format applies.
func (s *Session) SortFinders(ft string) []finder.Finder {
	rules, ok := s.kb.Rules(ft)
	if !ok {
		return nil
	}
	return s.sortFinders(rules)
}

func (s *Session) sortFinders(rules schema.Rules) []finder.Finder {
	var out []finder.Finder
	if !s.cfg.Disabled(finder.KindUnsortedKeyword) {
		f := finder.NewUnsortedKeyword(rules.Valid)
		f.Severity = s.severity(finder.KindUnsortedKeyword.String())
		out = append(out, f)
	}
	if !s.cfg.Disabled(finder.KindUnsortedList) && len(rules.Lists.Variables) > 0 {
		f := finder.NewUnsortedList(rules.Lists)
		f.Severity = s.severity(finder.KindUnsortedList.String())
		out = append(out, f)
	}
	return out
}

func (s *Session) severity(code string) finder.Severity {
	sev, _ := s.cfg.SeverityFor(code)
	return sev
}

// Diagnose runs every finder of the document's filetype.
func (s *Session) Diagnose(ctx context.Context, uri string) (Result, error) {
	e, err := s.entry(uri)
	if err != nil {
		return Result{}, err
	}
	return diagnose.Run(ctx, s.Finders(e.Filetype), uri, e.Doc, diagnose.WithLogger(s.logger)), nil
}

// Format returns the edits that sort the document.
func (s *Session) Format(ctx context.Context, uri string) ([]TextEdit, error) {
	e, err := s.entry(uri)
	if err != nil {
		return nil, err
	}
	return format.Run(ctx, s.SortFinders(e.Filetype), uri, e.Doc, format.WithLogger(s.logger))
}

// Hover returns the documentation of the symbol at pos.
func (s *Session) Hover(uri string, pos Position) (HoverResult, bool) {
	e, err := s.entry(uri)
	if err != nil {
		return HoverResult{}, false
	}
	return lookup.Hover(e.Doc, pos, s.kb.Schema(), e.Filetype)
}

// Complete returns the symbols completing the word before pos.
func (s *Session) Complete(uri string, pos Position) []CompletionItem {
	e, err := s.entry(uri)
	if err != nil {
		return nil
	}
	line, ok := e.Doc.Line(pos.Line)
	if !ok {
		return nil
	}
	return lookup.Complete(line, pos.Column, s.kb.Schema(), e.Filetype)
}

// Links returns a link for every dependency in the document's list
// variables.
func (s *Session) Links(uri string) []Link {
	e, err := s.entry(uri)
	if err != nil {
		return nil
	}
	return lookup.Links(e.Doc, s.kb.Lists(e.Filetype), s.links[e.Filetype])
}

// LinkTemplate returns the document-link template of a filetype.
func (s *Session) LinkTemplate(ft string) string {
	return s.links[ft]
}
