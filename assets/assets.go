// Package assets embeds the built-in knowledge base and rule scripts.
//
//   - json/{filetype}.json: symbols, required keywords and list variables
//   - rules/*.risor: optional rule scripts, enabled per filetype from the
//     config file with a "builtin:" prefix
package assets

import "embed"

// FS holds the json/ and rules/ trees.
//
//go:embed json/*.json rules/*.risor
var FS embed.FS

// KnowledgeBaseDir is the directory of knowledge-base files inside FS.
const KnowledgeBaseDir = "json"
