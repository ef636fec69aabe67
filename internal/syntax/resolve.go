package syntax

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// CursorMatch is the node found under a cursor. It is valid only for the
// Document it was resolved against.
type CursorMatch struct {
	Node  *sitter.Node
	Range Range
}

// Resolve returns the smallest node whose range contains pos, or false when
// the root does not contain it.
//
// Each level binary-searches the ordered children for the first child that
// ends after pos, so the cost is proportional to depth times the log of the
// fan-out. Children are start-inclusive and end-exclusive; a child ending
// exactly at pos matches only when no sibling starts there. Should a
// malformed tree contain overlapping siblings, the earliest one ending after
// pos wins; no other tie-breaking is attempted.
func Resolve(doc *Document, pos Position) (CursorMatch, bool) {
	node := doc.Root()
	if node == nil || !doc.Range(node).Contains(pos) {
		return CursorMatch{}, false
	}

	for {
		child := childAt(node, pos)
		if child == nil {
			break
		}
		node = child
	}
	return CursorMatch{Node: node, Range: doc.Range(node)}, true
}

func childAt(node *sitter.Node, pos Position) *sitter.Node {
	count := int(node.ChildCount())
	i := sort.Search(count, func(i int) bool {
		return pos.Before(pointPosition(node.Child(i).EndPoint()))
	})
	if i < count {
		if child := node.Child(i); !pos.Before(pointPosition(child.StartPoint())) {
			return child
		}
	}
	if i > 0 {
		if prev := node.Child(i - 1); pointPosition(prev.EndPoint()) == pos {
			return prev
		}
	}
	return nil
}
