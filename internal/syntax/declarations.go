package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Node types of the bash grammar used by the analyzers.
const (
	NodeProgram            = "program"
	NodeVariableAssignment = "variable_assignment"
	NodeFunctionDefinition = "function_definition"
	NodeDeclarationCommand = "declaration_command"
	NodeVariableName       = "variable_name"
	NodeWord               = "word"
	NodeString             = "string"
	NodeRawString          = "raw_string"
	NodeArray              = "array"
	NodeConcatenation      = "concatenation"
	NodeComment            = "comment"
)

// DeclarationKind distinguishes variable and function declarations.
type DeclarationKind int

const (
	DeclVariable DeclarationKind = iota
	DeclFunction
)

// Declaration is a top-level variable assignment or function definition.
type Declaration struct {
	Kind DeclarationKind
	// Statement is the node that moves when declarations are reordered:
	// the assignment or function itself, or the wrapping declaration
	// command (export, readonly, declare).
	Statement *sitter.Node
	Name      *sitter.Node
	// Value is nil for functions and for empty assignments.
	Value *sitter.Node
	// Shared is set when Statement declares other names too, as in
	// "export A=1 B=2". Such a declaration cannot move on its own.
	Shared bool
}

// Declarations returns the top-level declarations of doc in source order.
// Only direct children of the program node count; assignments nested in
// conditionals or functions are not declarations of the recipe.
func Declarations(doc *Document) []Declaration {
	root := doc.Root()
	if root == nil || root.Type() != NodeProgram {
		return nil
	}

	var decls []Declaration
	for _, stmt := range NamedChildren(root) {
		switch stmt.Type() {
		case NodeVariableAssignment:
			if d, ok := assignment(stmt, stmt); ok {
				decls = append(decls, d)
			}
		case NodeFunctionDefinition:
			name := stmt.ChildByFieldName("name")
			if name == nil {
				continue
			}
			decls = append(decls, Declaration{Kind: DeclFunction, Statement: stmt, Name: name})
		case NodeDeclarationCommand:
			var assigns []*sitter.Node
			for _, child := range NamedChildren(stmt) {
				if child.Type() == NodeVariableAssignment {
					assigns = append(assigns, child)
				}
			}
			for _, a := range assigns {
				if d, ok := assignment(stmt, a); ok {
					d.Shared = len(assigns) > 1
					decls = append(decls, d)
				}
			}
		}
	}
	return decls
}

func assignment(stmt, assign *sitter.Node) (Declaration, bool) {
	name := assign.ChildByFieldName("name")
	if name == nil || name.Type() != NodeVariableName {
		return Declaration{}, false
	}
	return Declaration{
		Kind:      DeclVariable,
		Statement: stmt,
		Name:      name,
		Value:     assign.ChildByFieldName("value"),
	}, true
}

// Extent returns the range of the statement together with the comments
// attached to it: the whole-line comments directly above it, with no blank
// line between, and a comment following it on its last line. An interpreter
// line is never attached.
func (d Declaration) Extent(doc *Document) Range {
	first, last := d.Statement, d.Statement
	for prev := first.PrevNamedSibling(); prev != nil && prev.Type() == NodeComment; prev = prev.PrevNamedSibling() {
		if prev.EndPoint().Row+1 != first.StartPoint().Row || strings.HasPrefix(doc.Text(prev), "#!") {
			break
		}
		// A comment sharing its line with an earlier statement trails it.
		if before := prev.PrevNamedSibling(); before != nil && before.EndPoint().Row == prev.StartPoint().Row {
			break
		}
		first = prev
	}
	if next := last.NextNamedSibling(); next != nil && next.Type() == NodeComment && next.StartPoint().Row == last.EndPoint().Row {
		last = next
	}
	return doc.RangeOf(first.StartByte(), last.EndByte())
}

// IsPrivate reports whether a declaration name is a private helper by the
// leading-underscore convention shared by PKGBUILD and Termux recipes.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, "_")
}
