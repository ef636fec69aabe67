package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/pkgls/internal/schema"
)

const hashKey = "content_hash"

// Import replaces the stored knowledge base with doc. It reports false and
// leaves the database untouched when doc matches what is already stored.
func (s *Store) Import(doc *schema.Document) (bool, error) {
	hash := ComputeContentHash(doc)
	stored, err := s.ContentHash()
	if err != nil {
		return false, err
	}
	if stored == hash {
		return false, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"list_variables", "list_rules", "required_keywords", "symbols"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return false, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	symStmt, err := tx.Prepare("INSERT INTO symbols (name, documentation, filetype, ordinal) VALUES (?, ?, ?, ?)")
	if err != nil {
		return false, fmt.Errorf("prepare insert symbol: %w", err)
	}
	defer symStmt.Close()
	for i, sym := range doc.Schema().Symbols() {
		if _, err := symStmt.Exec(sym.Name, sym.Documentation, sym.Filetype, i); err != nil {
			return false, fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
	}

	for _, ft := range doc.Filetypes() {
		for i, name := range doc.Required(ft) {
			if _, err := tx.Exec(
				"INSERT INTO required_keywords (filetype, name, ordinal) VALUES (?, ?, ?)", ft, name, i,
			); err != nil {
				return false, fmt.Errorf("insert required keyword %s/%s: %w", ft, name, err)
			}
		}

		rule := doc.Lists(ft)
		if len(rule.Variables) == 0 {
			continue
		}
		if _, err := tx.Exec("INSERT INTO list_rules (filetype, separator) VALUES (?, ?)", ft, rule.Separator); err != nil {
			return false, fmt.Errorf("insert list rule %s: %w", ft, err)
		}
		for i, name := range rule.Variables {
			if _, err := tx.Exec(
				"INSERT INTO list_variables (filetype, name, ordinal) VALUES (?, ?, ?)", ft, name, i,
			); err != nil {
				return false, fmt.Errorf("insert list variable %s/%s: %w", ft, name, err)
			}
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		hashKey, hash,
	); err != nil {
		return false, fmt.Errorf("store content hash: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit import: %w", err)
	}
	return true, nil
}

// ContentHash returns the hash recorded by the last Import, or "" when
// nothing was imported yet.
func (s *Store) ContentHash() (string, error) {
	var hash string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", hashKey).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	return hash, nil
}

// LoadDocument reads the stored knowledge base back.
func (s *Store) LoadDocument() (*schema.Document, error) {
	symbols, err := s.SymbolsByFiletype()
	if err != nil {
		return nil, err
	}
	sch, err := schema.NewSchema(symbols...)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	required := map[string][]string{}
	rows, err := s.db.Query("SELECT filetype, name FROM required_keywords ORDER BY filetype, ordinal")
	if err != nil {
		return nil, fmt.Errorf("required keywords: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ft, name string
		if err := rows.Scan(&ft, &name); err != nil {
			return nil, fmt.Errorf("scan required keyword: %w", err)
		}
		required[ft] = append(required[ft], name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lists, err := s.listRules()
	if err != nil {
		return nil, err
	}
	return schema.NewDocument(sch, required, lists), nil
}

func (s *Store) listRules() (map[string]schema.ListRule, error) {
	rows, err := s.db.Query(`
		SELECT r.filetype, r.separator, v.name
		FROM list_rules r JOIN list_variables v ON v.filetype = r.filetype
		ORDER BY r.filetype, v.ordinal`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	lists := map[string]schema.ListRule{}
	for rows.Next() {
		var ft, sep, name string
		if err := rows.Scan(&ft, &sep, &name); err != nil {
			return nil, fmt.Errorf("scan list rule: %w", err)
		}
		rule := lists[ft]
		rule.Separator = sep
		rule.Variables = append(rule.Variables, name)
		lists[ft] = rule
	}
	return lists, rows.Err()
}

// SymbolsByFiletype returns the stored symbols of the given filetypes in
// import order, or every symbol when no filetype is given.
func (s *Store) SymbolsByFiletype(filetypes ...string) ([]schema.Symbol, error) {
	query := "SELECT name, documentation, filetype FROM symbols"
	if len(filetypes) > 0 {
		query += " WHERE filetype IN (" + placeholderList(len(filetypes)) + ")"
	}
	query += " ORDER BY ordinal"

	rows, err := s.db.Query(query, stringsToArgs(filetypes)...)
	if err != nil {
		return nil, fmt.Errorf("symbols by filetype: %w", err)
	}
	defer rows.Close()

	var out []schema.Symbol
	for rows.Next() {
		var sym schema.Symbol
		if err := rows.Scan(&sym.Name, &sym.Documentation, &sym.Filetype); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
