package gqlrewrite

import (
	"context"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

var publicQuerySelections = map[string]bool{
	"hello":          true,
	"reference_data": true,
	"api":            true,
	"__schema":       true,
}

// classifyQuery authorizes a single top-level query selection, mutating its
// `where` argument in place when it needs tenant scoping. It reports whether
// the selection is allowed and whether it is a `tenant*` query (in which
// case the response, not the request, is where the authorization happens --
// see internal/responsefilter).
func classifyQuery(ctx context.Context, field *ast.Field, variables map[string]any, tenantID string, oracle *Oracle) (allowed, isTenantQuery bool, err error) {
	name := field.Name

	switch {
	case publicQuerySelections[name]:
		return true, false, nil

	case name == "mapped_children" || name == "get_task_run_info":
		id, err := entityID("task_run", field, variables, false)
		if err != nil {
			return false, false, err
		}
		belongs, err := oracle.Belongs(ctx, "task_run", id, tenantID)
		if err != nil {
			return false, false, err
		}
		return belongs, false, nil

	case strings.HasSuffix(name, "_by_pk"):
		entity := strings.TrimSuffix(name, "_by_pk")
		secondEntity := ""
		if name == "flow_by_pk" {
			entity = "flow"
			secondEntity = "flow_group"
		}
		id, err := entityID(entity, field, variables, false)
		if err != nil {
			return false, false, err
		}
		belongs, err := oracle.Belongs(ctx, entity, id, tenantID)
		if err != nil {
			return false, false, err
		}
		if !belongs && secondEntity != "" {
			belongs, err = oracle.Belongs(ctx, secondEntity, id, tenantID)
			if err != nil {
				return false, false, err
			}
		}
		return belongs, false, nil

	case strings.HasPrefix(name, "tenant"):
		// Authorized post-hoc by filtering the response, not the request
		// (see internal/responsefilter). The filter matches on `id`, so make
		// sure the selection set actually asks for it.
		ensureIDSelected(field)
		return true, true, nil

	default:
		applyTenantWhere(field, variables, tenantID)
		return true, false, nil
	}
}

// ensureIDSelected adds a bare `id` field to field's selection set if it
// isn't already requested.
func ensureIDSelected(field *ast.Field) {
	for _, sel := range field.SelectionSet {
		if f, ok := sel.(*ast.Field); ok && f.Name == "id" {
			return
		}
	}
	field.SelectionSet = append(field.SelectionSet, &ast.Field{Name: "id"})
}
