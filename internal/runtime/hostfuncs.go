package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/risor-io/risor/object"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/pkgls/internal/syntax"
)

// buildGlobals constructs the globals exposed to a rule script:
//
//	root                        → root Node of the document
//	node_text(node)             → source text of node
//	node_child(node, field)     → child by field name, or nil
//	query(pattern, node)        → list of {capture: Node} maps
//	report(node, msg[, severity[, code]])
//	log.Info/Warn/Error(msg)
//
// Host functions close over the document, so no lookup from node back to
// source is needed.
func (r *Runtime) buildGlobals(doc *syntax.Document, reports *[]Report, label string) (map[string]any, error) {
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("runtime: script %s: no document", label)
	}
	rootProxy, err := object.NewProxy(root)
	if err != nil {
		return nil, fmt.Errorf("runtime: proxy root: %w", err)
	}

	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}

	return map[string]any{
		"root":       rootProxy,
		"node_text":  makeNodeTextFn(doc),
		"node_child": makeNodeChildFn(),
		"query":      makeQueryFn(doc),
		"report":     makeReportFn(doc, reports),
		"log":        mustProxy(&logObject{logger: logger.With("script", label)}),
	}, nil
}

// nodeArg unwraps a proxied *sitter.Node argument.
func nodeArg(fn string, arg object.Object) (*sitter.Node, *object.Error) {
	proxy, ok := arg.(*object.Proxy)
	if !ok {
		return nil, object.Errorf("%s: expected proxy (Node), got %s", fn, arg.Type())
	}
	node, ok := proxy.Interface().(*sitter.Node)
	if !ok || node == nil {
		return nil, object.Errorf("%s: expected *sitter.Node, got %T", fn, proxy.Interface())
	}
	return node, nil
}

func stringArg(fn, what string, arg object.Object) (string, *object.Error) {
	s, ok := arg.(*object.String)
	if !ok {
		return "", object.Errorf("%s: %s must be a string, got %s", fn, what, arg.Type())
	}
	return s.Value(), nil
}

// makeNodeTextFn creates the "node_text" host function.
//
// node_text(node) → string
func makeNodeTextFn(doc *syntax.Document) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		node, errObj := nodeArg("node_text", args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewString(doc.Text(node))
	})
}

// makeNodeChildFn creates "node_child", a safe wrapper for ChildByFieldName
// that returns Risor nil instead of a proxied Go nil pointer.
//
// node_child(node, fieldName) → Node or nil
func makeNodeChildFn() *object.Builtin {
	return object.NewBuiltin("node_child", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("node_child", 2, len(args))
		}
		node, errObj := nodeArg("node_child", args[0])
		if errObj != nil {
			return errObj
		}
		field, errObj := stringArg("node_child", "field", args[1])
		if errObj != nil {
			return errObj
		}

		child := node.ChildByFieldName(field)
		if child == nil {
			return object.Nil
		}
		p, err := object.NewProxy(child)
		if err != nil {
			return object.Errorf("node_child: proxy error: %v", err)
		}
		return p
	})
}

// makeQueryFn creates the "query" host function.
//
// query(pattern, node) → []map[string]Node
func makeQueryFn(doc *syntax.Document) *object.Builtin {
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("query", 2, len(args))
		}
		pattern, errObj := stringArg("query", "pattern", args[0])
		if errObj != nil {
			return errObj
		}
		node, errObj := nodeArg("query", args[1])
		if errObj != nil {
			return errObj
		}

		q, err := sitter.NewQuery([]byte(pattern), syntax.Language())
		if err != nil {
			return object.Errorf("query: invalid pattern: %v", err)
		}
		defer q.Close()

		cursor := sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.Exec(q, node)

		results := []object.Object{}
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, doc.Source())

			matchMap := make(map[string]object.Object)
			for _, capture := range match.Captures {
				name := q.CaptureNameForId(capture.Index)
				nodeP, err := object.NewProxy(capture.Node)
				if err != nil {
					return object.Errorf("query: proxy error for capture %q: %v", name, err)
				}
				matchMap[name] = nodeP
			}
			results = append(results, object.NewMap(matchMap))
		}
		return object.NewList(results)
	})
}

// makeReportFn creates the "report" host function.
//
// report(node, message[, severity[, code]]) → nil
func makeReportFn(doc *syntax.Document, reports *[]Report) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 || len(args) > 4 {
			return object.Errorf("report: expected 2 to 4 arguments, got %d", len(args))
		}
		node, errObj := nodeArg("report", args[0])
		if errObj != nil {
			return errObj
		}
		rep := Report{Range: doc.Range(node)}
		if rep.Message, errObj = stringArg("report", "message", args[1]); errObj != nil {
			return errObj
		}
		if len(args) > 2 {
			if rep.Severity, errObj = stringArg("report", "severity", args[2]); errObj != nil {
				return errObj
			}
		}
		if len(args) > 3 {
			if rep.Code, errObj = stringArg("report", "code", args[3]); errObj != nil {
				return errObj
			}
		}
		*reports = append(*reports, rep)
		return object.Nil
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}
