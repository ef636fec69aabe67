package store

import (
	"crypto/sha256"
	"fmt"

	"github.com/jward/pkgls/internal/schema"
)

// ComputeContentHash computes a deterministic hash of a knowledge base.
// Covers symbols in order, required keywords and list rules per filetype.
func ComputeContentHash(doc *schema.Document) string {
	h := sha256.New()

	for _, sym := range doc.Schema().Symbols() {
		fmt.Fprintf(h, "symbol:%q:%q:%q\n", sym.Name, sym.Filetype, sym.Documentation)
	}

	// Filetypes are sorted, so per-filetype data hashes in a stable order.
	for _, ft := range doc.Filetypes() {
		for _, name := range doc.Required(ft) {
			fmt.Fprintf(h, "required:%q:%q\n", ft, name)
		}
		rule := doc.Lists(ft)
		if len(rule.Variables) == 0 {
			continue
		}
		fmt.Fprintf(h, "separator:%q:%q\n", ft, rule.Separator)
		for _, name := range rule.Variables {
			fmt.Fprintf(h, "list:%q:%q\n", ft, name)
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
