// Package gqlrewrite implements the GraphQL AST Rewriter (component E) and
// the Belonging Oracle (component F): it parses each proxied GraphQL
// operation, injects or validates tenant-scoping on every selection, and
// re-serializes the result for forwarding upstream.
package gqlrewrite

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// Operation is a single GraphQL request: a query/mutation document plus its
// bound variables. Variables are kept as tagged JSON (map[string]any /
// []any / string / float64 / bool / nil) since the wire format carries
// arbitrary JSON and the rewriter only ever needs to read and patch specific
// keys, never the whole shape.
type Operation struct {
	Query     string
	Variables map[string]any
}

func parseQuery(query string) (*ast.QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return nil, fmt.Errorf("gqlrewrite: parse query: %w", err)
	}
	return doc, nil
}

// printQuery re-serializes doc back to GraphQL query text.
func printQuery(doc *ast.QueryDocument) string {
	var b strings.Builder
	formatter.NewFormatter(&b).FormatQueryDocument(doc)
	return b.String()
}

// stringify coerces a decoded-JSON variable value to the string form the
// rewriter's entity/id extraction works with. IDs are always strings on the
// wire, but numeric variables (the odd int flow_run_id) are tolerated too.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return trimFloat(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
