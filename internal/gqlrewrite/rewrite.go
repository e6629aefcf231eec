package gqlrewrite

import (
	"context"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

// Result is the outcome of rewriting a batch of operations.
type Result struct {
	// Allowed is false if any operation in the batch was denied.
	Allowed bool
	// Operations holds the rewritten operations, ready to forward upstream.
	Operations []Operation
	// TenantQuery marks, per operation, whether it contained a `tenant*`
	// root query whose response needs post-hoc filtering.
	TenantQuery []bool
}

// Rewrite authorizes and rewrites every operation in ops for tenantID. It
// always returns a fully re-serialized set of operations (even denied ones),
// matching the implementation this proxy was ported from, which serializes
// every operation it parsed regardless of the authorization outcome; callers must still check
// Allowed before forwarding anything.
func Rewrite(ctx context.Context, ops []Operation, tenantID string, oracle *Oracle) (Result, error) {
	result := Result{
		Allowed:     true,
		Operations:  make([]Operation, 0, len(ops)),
		TenantQuery: make([]bool, 0, len(ops)),
	}

	for _, op := range ops {
		doc, err := parseQuery(op.Query)
		if err != nil {
			return Result{}, err
		}

		// A fragment-only document (no executable operation) must be denied,
		// not default-allowed, so allowed starts out true only when the loop
		// below has at least one operation to check.
		allowed := len(doc.Operations) > 0
		tenantQuery := false

		for _, def := range doc.Operations {
			switch def.Operation {
			case ast.Query:
				for _, sel := range def.SelectionSet {
					field, ok := sel.(*ast.Field)
					if !ok {
						continue
					}
					ok2, isTenant, err := classifyQuery(ctx, field, op.Variables, tenantID, oracle)
					if err != nil {
						return Result{}, fmt.Errorf("gqlrewrite: %s: %w", field.Name, err)
					}
					if isTenant {
						tenantQuery = true
					}
					if !ok2 {
						allowed = false
						break
					}
				}

			case ast.Mutation:
				for _, sel := range def.SelectionSet {
					field, ok := sel.(*ast.Field)
					if !ok {
						continue
					}
					ok2, err := classifyMutation(ctx, field, op.Variables, tenantID, oracle)
					if err != nil {
						return Result{}, fmt.Errorf("gqlrewrite: %s: %w", field.Name, err)
					}
					if !ok2 {
						allowed = false
						break
					}
				}

			default:
				allowed = false
			}

			if !allowed {
				break
			}
		}

		if !allowed {
			result.Allowed = false
		}

		op.Query = printQuery(doc)
		result.Operations = append(result.Operations, op)
		result.TenantQuery = append(result.TenantQuery, tenantQuery)
	}

	return result, nil
}
