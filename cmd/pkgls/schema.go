package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/pkgls/assets"
	"github.com/jward/pkgls/internal/schema"
	"github.com/jward/pkgls/internal/store"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the knowledge base",
}

func init() {
	schemaCmd.AddCommand(schemaImportCmd)
	schemaCmd.AddCommand(schemaListCmd)
}

var schemaImportCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import knowledge-base JSON files into the --db database",
	Long:  "Reads every *.json knowledge-base file in dir (default: the built-in knowledge base) and replaces the contents of the --db database with it.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSchemaImport,
}

func runSchemaImport(cmd *cobra.Command, args []string) error {
	if flagDB == "" {
		return outputError("schema import", errors.New("--db is required"))
	}

	var (
		doc *schema.Document
		err error
	)
	if len(args) == 1 {
		doc, err = schema.LoadFS(os.DirFS(args[0]), ".")
	} else {
		doc, err = schema.LoadFS(assets.FS, assets.KnowledgeBaseDir)
	}
	if err != nil {
		return outputError("schema import", err)
	}

	st, err := store.Open(flagDB)
	if err != nil {
		return outputError("schema import", fmt.Errorf("opening database: %w", err))
	}
	defer st.Close()

	changed, err := st.Import(doc)
	if err != nil {
		return outputError("schema import", err)
	}
	return outputResult(CLIResult{Command: "schema import", Results: CLIImport{
		Database:  flagDB,
		Symbols:   doc.Schema().Len(),
		Filetypes: len(doc.Filetypes()),
		Changed:   changed,
	}})
}

var schemaListCmd = &cobra.Command{
	Use:   "list [filetype...]",
	Short: "List known symbols, optionally of some filetypes only",
	RunE:  runSchemaList,
}

func runSchemaList(cmd *cobra.Command, args []string) error {
	syms, err := listSymbols(args)
	if err != nil {
		return outputError("schema list", err)
	}
	out := make([]CLISymbol, 0, len(syms))
	for _, sym := range syms {
		out = append(out, CLISymbol{Name: sym.Name, Filetype: sym.Filetype, Documentation: sym.Documentation})
	}
	return outputResult(CLIResult{Command: "schema list", Results: out})
}

// listSymbols reads symbols straight from --db when given, otherwise from
// the knowledge base a session would use.
func listSymbols(filetypes []string) ([]schema.Symbol, error) {
	if flagDB != "" {
		if _, err := os.Stat(flagDB); err != nil {
			return nil, fmt.Errorf("database not found: %s (run 'pkgls schema import' first)", flagDB)
		}
		st, err := store.Open(flagDB)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.SymbolsByFiletype(filetypes...)
	}

	s, err := newSession()
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(filetypes))
	for _, ft := range filetypes {
		want[ft] = true
	}
	var out []schema.Symbol
	for _, sym := range s.KnowledgeBase().Schema().Symbols() {
		if len(want) == 0 || want[sym.Filetype] {
			out = append(out, sym)
		}
	}
	return out, nil
}
