package gqlrewrite

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// valueOrVariable resolves a literal string value or dereferences a bound
// variable, returning the string form used throughout the rewriter.
func valueOrVariable(v *ast.Value, variables map[string]any) (string, bool) {
	switch v.Kind {
	case ast.Variable:
		val, ok := variables[v.Raw]
		if !ok {
			return "", false
		}
		return stringify(val), true
	case ast.NullValue:
		return "", false
	case ast.ObjectValue:
		// A comparison such as `{_eq: "..."}`: the id is its _eq operand.
		if eq := v.Children.ForName("_eq"); eq != nil {
			return valueOrVariable(eq, variables)
		}
		return "", false
	default:
		return v.Raw, true
	}
}

// entityID finds the `{entity}_id` value for a selection, searching (in
// order) the operation variables, the selection's own arguments, its `where`
// argument, and its `input` argument. With loosen set, any argument or field
// ending in "_id" is accepted, not just the exact `{entity}_id` name.
func entityID(entity string, field *ast.Field, variables map[string]any, loosen bool) (string, error) {
	name := entity + "_id"

	if v, ok := variables[name]; ok {
		return stringify(v), nil
	}

	for _, arg := range field.Arguments {
		if arg.Name == name || arg.Name == "id" || (loosen && strings.HasSuffix(arg.Name, "_id")) {
			if id, ok := valueOrVariable(arg.Value, variables); ok {
				return id, nil
			}
			continue
		}

		if arg.Name == "where" {
			if id, ok := entityIDFromWhere(name, arg.Value, variables, loosen); ok {
				return id, nil
			}
		}

		if arg.Name == "input" {
			if id, ok := entityIDFromInput(name, arg.Value, variables, loosen); ok {
				return id, nil
			}
		}
	}

	return "", fmt.Errorf("gqlrewrite: couldn't find %s in selection arguments or variables", name)
}

func entityIDFromWhere(name string, where *ast.Value, variables map[string]any, loosen bool) (string, bool) {
	switch where.Kind {
	case ast.ObjectValue:
		for _, field := range where.Children {
			if field.Name == "_and" {
				if id, ok := entityIDFromAnd(name, field.Value, variables, loosen); ok {
					return id, ok
				}
				continue
			}
			if field.Name == name || (loosen && strings.HasSuffix(field.Name, "_id")) {
				if id, ok := valueOrVariable(field.Value, variables); ok {
					return id, true
				}
			}
		}
	case ast.Variable:
		whereVar, ok := variables[where.Raw].(map[string]any)
		if !ok {
			return "", false
		}
		return entityIDFromJSONWhere(name, whereVar, loosen)
	}
	return "", false
}

func entityIDFromAnd(name string, and *ast.Value, variables map[string]any, loosen bool) (string, bool) {
	if and.Kind == ast.ListValue {
		for _, item := range and.Children {
			if id, ok := entityIDFromAnd(name, item.Value, variables, loosen); ok {
				return id, true
			}
		}
		return "", false
	}
	for _, child := range and.Children {
		if child.Name == name || (loosen && strings.HasSuffix(child.Name, "_id")) {
			if id, ok := valueOrVariable(child.Value, variables); ok {
				return id, true
			}
		}
	}
	return "", false
}

func entityIDFromJSONWhere(name string, where map[string]any, loosen bool) (string, bool) {
	if and, ok := where["_and"]; ok {
		switch andVal := and.(type) {
		case []any:
			for _, item := range andVal {
				if m, ok := item.(map[string]any); ok {
					if id, ok := idFromJSONCondition(name, m, loosen); ok {
						return id, true
					}
				}
			}
		case map[string]any:
			if id, ok := idFromJSONCondition(name, andVal, loosen); ok {
				return id, true
			}
		}
	}
	return idFromJSONCondition(name, where, loosen)
}

func idFromJSONCondition(name string, condition map[string]any, loosen bool) (string, bool) {
	for key, val := range condition {
		if key != name && key != "id" && !(loosen && strings.HasSuffix(key, "_id")) {
			continue
		}
		if m, ok := val.(map[string]any); ok {
			if eq, ok := m["_eq"]; ok {
				return stringify(eq), true
			}
			continue
		}
		return stringify(val), true
	}
	return "", false
}

func entityIDFromInput(name string, input *ast.Value, variables map[string]any, loosen bool) (string, bool) {
	switch input.Kind {
	case ast.ObjectValue:
		for _, field := range input.Children {
			if field.Name == name || (loosen && strings.HasSuffix(field.Name, "_id")) {
				if id, ok := valueOrVariable(field.Value, variables); ok {
					return id, true
				}
			}
		}
	case ast.Variable:
		inputVar, ok := variables[input.Raw].(map[string]any)
		if !ok {
			return "", false
		}
		return idFromJSONCondition(name, inputVar, loosen)
	}
	return "", false
}

// entitiesAndIDsFromObjectValue walks an inline object value (an `objects`
// array element, an `object` argument, or an `input` argument) and extracts
// every `{entity}_id`-suffixed field as an (entity, id) pair.
func entitiesAndIDsFromObjectValue(obj *ast.Value, variables map[string]any) (entities, ids []string) {
	for _, field := range obj.Children {
		if !strings.HasSuffix(field.Name, "_id") {
			continue
		}
		entity := strings.SplitN(field.Name, "_id", 2)[0]
		switch field.Value.Kind {
		case ast.StringValue:
			entities = append(entities, entity)
			ids = append(ids, field.Value.Raw)
		case ast.Variable:
			if val, ok := variables[field.Value.Raw]; ok {
				entities = append(entities, entity)
				ids = append(ids, stringify(val))
			}
		}
	}
	return entities, ids
}

// entitiesAndIDsFromJSONObject is the same walk as
// entitiesAndIDsFromObjectValue but over already-decoded JSON, for
// variable-bound objects/input.
func entitiesAndIDsFromJSONObject(obj map[string]any) (entities, ids []string) {
	for name, val := range obj {
		if !strings.HasSuffix(name, "_id") {
			continue
		}
		entity := strings.SplitN(name, "_id", 2)[0]
		entities = append(entities, entity)
		ids = append(ids, stringify(val))
	}
	return entities, ids
}

// entitiesAndIDsFromInsert extracts (entity, id) pairs from an insert
// mutation's `objects` (a list) or `object` (a single value) argument.
func entitiesAndIDsFromInsert(field *ast.Field, variables map[string]any) (entities, ids []string, err error) {
	for _, arg := range field.Arguments {
		switch arg.Name {
		case "objects":
			switch arg.Value.Kind {
			case ast.ListValue:
				for _, item := range arg.Value.Children {
					if item.Value.Kind != ast.ObjectValue {
						return nil, nil, fmt.Errorf("gqlrewrite: invalid objects argument")
					}
					e, i := entitiesAndIDsFromObjectValue(item.Value, variables)
					entities = append(entities, e...)
					ids = append(ids, i...)
				}
			case ast.Variable:
				list, ok := variables[arg.Value.Raw].([]any)
				if !ok {
					return nil, nil, fmt.Errorf("gqlrewrite: invalid objects argument")
				}
				for _, item := range list {
					obj, ok := item.(map[string]any)
					if !ok {
						return nil, nil, fmt.Errorf("gqlrewrite: invalid objects argument")
					}
					e, i := entitiesAndIDsFromJSONObject(obj)
					entities = append(entities, e...)
					ids = append(ids, i...)
				}
			default:
				return nil, nil, fmt.Errorf("gqlrewrite: invalid objects argument")
			}
		case "object":
			switch arg.Value.Kind {
			case ast.ObjectValue:
				e, i := entitiesAndIDsFromObjectValue(arg.Value, variables)
				entities = append(entities, e...)
				ids = append(ids, i...)
			case ast.Variable:
				if obj, ok := variables[arg.Value.Raw].(map[string]any); ok {
					e, i := entitiesAndIDsFromJSONObject(obj)
					entities = append(entities, e...)
					ids = append(ids, i...)
				}
			}
		}
	}
	return entities, ids, nil
}

// entitiesAndIDsFromInput extracts (entity, id) pairs from the `input`
// argument.
func entitiesAndIDsFromInput(field *ast.Field, variables map[string]any) (entities, ids []string) {
	for _, arg := range field.Arguments {
		if arg.Name != "input" {
			continue
		}
		switch arg.Value.Kind {
		case ast.ObjectValue:
			return entitiesAndIDsFromObjectValue(arg.Value, variables)
		case ast.Variable:
			if obj, ok := variables[arg.Value.Raw].(map[string]any); ok {
				return entitiesAndIDsFromJSONObject(obj)
			}
		}
	}
	return nil, nil
}

// flowRunIDsFromWrite extracts every flow_run_id from `input.logs`, the
// shape the one `write_run_logs` mutation takes.
func flowRunIDsFromWrite(field *ast.Field, variables map[string]any) []string {
	var flowRunIDs []string

	for _, arg := range field.Arguments {
		if arg.Name != "input" {
			continue
		}
		switch arg.Value.Kind {
		case ast.ObjectValue:
			for _, f := range arg.Value.Children {
				if f.Name != "logs" {
					continue
				}
				switch f.Value.Kind {
				case ast.ListValue:
					for _, logEntry := range f.Value.Children {
						if logEntry.Value.Kind != ast.ObjectValue {
							continue
						}
						entities, ids := entitiesAndIDsFromObjectValue(logEntry.Value, variables)
						for idx, e := range entities {
							if e == "flow_run" {
								flowRunIDs = append(flowRunIDs, ids[idx])
							}
						}
					}
				case ast.Variable:
					logs, ok := variables[f.Value.Raw].([]any)
					if !ok {
						continue
					}
					flowRunIDs = append(flowRunIDs, flowRunIDsFromJSONLogs(logs)...)
				}
			}
		case ast.Variable:
			inputVar, ok := variables[arg.Value.Raw].(map[string]any)
			if !ok {
				continue
			}
			logs, ok := inputVar["logs"].([]any)
			if !ok {
				continue
			}
			flowRunIDs = append(flowRunIDs, flowRunIDsFromJSONLogs(logs)...)
		}
	}

	return flowRunIDs
}

func flowRunIDsFromJSONLogs(logs []any) []string {
	var ids []string
	for _, raw := range logs {
		log, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := log["flow_run_id"]; ok {
			ids = append(ids, stringify(id))
		}
	}
	return ids
}
