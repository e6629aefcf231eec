package gqlrewrite

import (
	"context"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

var mutationActionEntityModifiers = map[string]bool{
	"delete": true,
	"set":    true,
	"update": true,
}

var mutationInputActions = map[string]bool{
	"archive":  true,
	"cancel":   true,
	"create":   true,
	"disable":  true,
	"enable":   true,
	"get":      true,
	"register": true,
}

// classifyMutation authorizes a single top-level mutation selection.
func classifyMutation(ctx context.Context, field *ast.Field, variables map[string]any, tenantID string, oracle *Oracle) (bool, error) {
	action, entity, _ := splitOperationEntityMode(field.Name)

	switch {
	case strings.HasPrefix(entity, "cloud_hook"),
		strings.HasPrefix(entity, "project_description"),
		strings.HasPrefix(entity, "message"),
		strings.Contains(entity, "artifact"):
		return false, nil

	case mutationActionEntityModifiers[action]:
		canonical, ok := canonicalizeEntity(entity)
		if !ok {
			return false, nil
		}
		id, err := entityID(canonical, field, variables, true)
		if err != nil {
			return false, err
		}
		return oracle.Belongs(ctx, canonical, id, tenantID)

	case action == "insert":
		entities, ids, err := entitiesAndIDsFromInsert(field, variables)
		if err != nil {
			return false, err
		}
		for i, e := range entities {
			belongs, err := oracle.Belongs(ctx, e, ids[i], tenantID)
			if err != nil {
				return false, err
			}
			if !belongs {
				return false, nil
			}
		}
		return true, nil

	case mutationInputActions[action]:
		entities, ids := entitiesAndIDsFromInput(field, variables)
		canonical := make([]string, len(entities))
		for i, e := range entities {
			canonical[i], _ = canonicalizeEntity(e)
		}
		if idx := indexOf(canonical, "tenant"); idx >= 0 {
			return ids[idx] == tenantID, nil
		}
		for i, e := range canonical {
			belongs, err := oracle.Belongs(ctx, e, ids[i], tenantID)
			if err != nil {
				return false, err
			}
			if !belongs {
				return false, nil
			}
		}
		return true, nil

	case action == "get_or_create":
		entities, ids := entitiesAndIDsFromInput(field, variables)
		if idx := indexOf(entities, "tenant"); idx >= 0 {
			return ids[idx] == tenantID, nil
		}
		for i, e := range entities {
			if e == "task" {
				continue
			}
			belongs, err := oracle.Belongs(ctx, e, ids[i], tenantID)
			if err != nil {
				return false, err
			}
			if !belongs {
				return false, nil
			}
		}
		return true, nil

	case action == "write":
		flowRunIDs := flowRunIDsFromWrite(field, variables)
		for _, id := range flowRunIDs {
			belongs, err := oracle.Belongs(ctx, "flow_run", id, tenantID)
			if err != nil {
				return false, err
			}
			if !belongs {
				return false, nil
			}
		}
		return true, nil

	default:
		return false, nil
	}
}

func indexOf(s []string, v string) int {
	for i, item := range s {
		if item == v {
			return i
		}
	}
	return -1
}
