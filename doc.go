// Package pkgls analyzes build-recipe files: Termux build.sh and
// subpackage scripts, pacman PKGBUILD and install files, Gentoo ebuilds and
// eclasses, and make.conf. It parses them with tree-sitter's bash grammar
// and checks them against a per-filetype knowledge base of known symbols.
//
// # Analysis
//
// A [Session] holds the knowledge base, the project configuration and the
// parsed documents it was given. For each document it offers:
//
//   - [Session.Diagnose]: missing required keywords, unknown keywords,
//     keywords declared out of canonical order, list values (dependency
//     lists) out of lexical order, and findings of user rule scripts.
//   - [Session.Format]: non-overlapping edits that restore sorted order.
//     Applying them and formatting again yields no edits.
//   - [Session.Hover], [Session.Complete] and [Session.Links]: point queries
//     against the knowledge base.
//
// Ordering checks compare adjacent pairs only. Every inversion in a
// sequence implies an adjacent one, so repeated fixes converge.
//
// # Usage
//
//	s, err := pkgls.New()
//	if err != nil { ... }
//
//	ctx := context.Background()
//	_, err = s.Open(ctx, "packages/vim/build.sh", src)
//	res, err := s.Diagnose(ctx, "packages/vim/build.sh")
//	edits, err := s.Format(ctx, "packages/vim/build.sh")
//
// [Session.CheckFiles] diagnoses many files concurrently without a Session cache.
//
// # Rule scripts
//
// Rules written in Risor run as extra finders. They receive the parsed
// document through host functions (root, node_text, node_child, query) and
// emit findings with report(node, message[, severity[, code]]). Scripts are
// enabled per filetype in .pkgls.toml; see the internal/runtime package for
// the full set of globals.
package pkgls
