package gqlrewrite

import "github.com/vektah/gqlparser/v2/ast"

// applyTenantWhere injects or overwrites `where: { tenant_id: { _eq: $tenantID } }`
// on field, creating the `where` argument if none exists.
func applyTenantWhere(field *ast.Field, variables map[string]any, tenantID string) {
	for _, arg := range field.Arguments {
		if arg.Name != "where" {
			continue
		}
		switch arg.Value.Kind {
		case ast.ObjectValue:
			addTenantIDToWhereObject(arg.Value, variables, tenantID)
		case ast.Variable:
			whereVar, ok := variables[arg.Value.Raw].(map[string]any)
			if !ok {
				whereVar = map[string]any{}
				variables[arg.Value.Raw] = whereVar
			}
			addTenantIDToWhereVariable(whereVar, tenantID)
		}
		return
	}

	// No `where` argument yet: build one from scratch.
	field.Arguments = append(field.Arguments, buildWhereArgument(tenantID))
}

// addTenantIDToWhereObject mutates an inline `where: {...}` object value in
// place, setting tenant_id._eq to tenantID.
func addTenantIDToWhereObject(where *ast.Value, variables map[string]any, tenantID string) {
	for _, child := range where.Children {
		if child.Name != "tenant_id" {
			continue
		}
		for _, eq := range child.Value.Children {
			if eq.Name != "_eq" {
				continue
			}
			switch eq.Value.Kind {
			case ast.StringValue:
				eq.Value.Raw = tenantID
			case ast.Variable:
				variables[eq.Value.Raw] = tenantID
			}
			return
		}
		// tenant_id exists but has no _eq sub-field: add one.
		child.Value.Children = append(child.Value.Children, &ast.ChildValue{
			Name:  "_eq",
			Value: &ast.Value{Kind: ast.StringValue, Raw: tenantID},
		})
		return
	}

	// No tenant_id field at all: add it.
	where.Children = append(where.Children, &ast.ChildValue{
		Name: "tenant_id",
		Value: &ast.Value{
			Kind: ast.ObjectValue,
			Children: ast.ChildValueList{
				{Name: "_eq", Value: &ast.Value{Kind: ast.StringValue, Raw: tenantID}},
			},
		},
	})
}

// addTenantIDToWhereVariable mutates a variable-bound where clause
// (already-decoded JSON) in place.
func addTenantIDToWhereVariable(where map[string]any, tenantID string) {
	if tenantIDField, ok := where["tenant_id"].(map[string]any); ok {
		tenantIDField["_eq"] = tenantID
	} else {
		where["tenant_id"] = map[string]any{"_eq": tenantID}
	}
}

// buildWhereArgument constructs a fresh `where: { tenant_id: { _eq: tenantID } }`
// argument node.
func buildWhereArgument(tenantID string) *ast.Argument {
	return &ast.Argument{
		Name: "where",
		Value: &ast.Value{
			Kind: ast.ObjectValue,
			Children: ast.ChildValueList{
				{
					Name: "tenant_id",
					Value: &ast.Value{
						Kind: ast.ObjectValue,
						Children: ast.ChildValueList{
							{Name: "_eq", Value: &ast.Value{Kind: ast.StringValue, Raw: tenantID}},
						},
					},
				},
			},
		},
	}
}
