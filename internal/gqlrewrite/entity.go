package gqlrewrite

import "strings"

// canonicalizeEntity maps a raw selection/field entity name onto the
// canonical entity name the Belonging Oracle probes with `{entity}_by_pk`.
// The prefix table, including the `schedule*` -> `flow` and `run*` ->
// `flow_run` cases, is kept verbatim from the implementation this proxy was
// ported from; it is not a guess, it is how that code groups these mutations.
func canonicalizeEntity(name string) (string, bool) {
	switch {
	case strings.HasPrefix(name, "_task_run"):
		return "task_run", true
	case strings.HasPrefix(name, "agent"):
		return "agent", true
	case strings.HasPrefix(name, "cloud_hook"):
		return "cloud_hook", true
	case strings.HasPrefix(name, "edge"):
		return "edge", true
	case strings.HasPrefix(name, "flow_group"):
		return "flow_group", true
	case strings.HasPrefix(name, "flow_run"):
		return "flow_run", true
	case strings.HasPrefix(name, "flow"):
		return "flow", true
	case strings.HasPrefix(name, "log"):
		return "log", true
	case strings.HasPrefix(name, "message"):
		return "message", true
	case strings.HasPrefix(name, "project"):
		return "project", true
	case strings.HasPrefix(name, "run"):
		return "flow_run", true
	case strings.HasPrefix(name, "schedule"):
		return "flow", true
	case strings.HasPrefix(name, "task"):
		return "task", true
	case strings.HasPrefix(name, "tenant"):
		return "tenant", true
	case strings.HasPrefix(name, "utility"):
		return "task", true
	default:
		return "", false
	}
}

// splitOperationEntityMode splits a mutation selection name such as
// "update_flow_run_by_pk" into its action ("update"), entity ("flow_run"),
// and mode ("pk"). "get_or_create_*" selections are special-cased into a
// single "get_or_create" action, matching the one irregular verb in the
// mutation surface.
func splitOperationEntityMode(selectionName string) (action, entity, mode string) {
	parts := strings.SplitN(selectionName, "_", 2)
	action = parts[0]
	entityMode := ""
	if len(parts) == 2 {
		entityMode = parts[1]
	}

	if action == "get" && strings.Count(selectionName, "get_or_create") == 1 {
		idx := strings.Index(selectionName, "get_or_create")
		action = "get_or_create"
		entityMode = selectionName[idx+len("get_or_create"):]
	}

	byParts := strings.SplitN(entityMode, "_by_", 2)
	entity = byParts[0]
	if len(byParts) == 2 {
		mode = byParts[1]
	}
	return action, entity, mode
}
