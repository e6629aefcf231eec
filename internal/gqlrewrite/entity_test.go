package gqlrewrite

import "testing"

func TestCanonicalizeEntity(t *testing.T) {
	cases := map[string]string{
		"_task_run_by_pk_helper": "task_run",
		"agent_config":           "agent",
		"flow_group_by_pk":       "flow_group",
		"flow_run_by_pk":         "flow_run",
		"flow_by_pk":             "flow",
		"schedule_clock":         "flow",
		"run_something":          "flow_run",
		"tenant_settings":        "tenant",
		"utility_thing":          "task",
	}
	for in, want := range cases {
		got, ok := canonicalizeEntity(in)
		if !ok {
			t.Errorf("canonicalizeEntity(%q) unmatched, want %q", in, want)
			continue
		}
		if got != want {
			t.Errorf("canonicalizeEntity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalizeEntityUnmatched(t *testing.T) {
	if _, ok := canonicalizeEntity("widget"); ok {
		t.Fatal("expected no match for an entity name outside the known prefixes")
	}
}

func TestSplitOperationEntityMode(t *testing.T) {
	tests := []struct {
		in             string
		action, entity string
	}{
		{"update_flow_run_by_pk", "update", "flow_run"},
		{"delete_flow", "delete", "flow"},
		{"insert_flow_run", "insert", "flow_run"},
		{"get_or_create_task_run", "get_or_create", "_task_run"},
		{"write_run_logs", "write", "run_logs"},
	}
	for _, tt := range tests {
		action, entity, _ := splitOperationEntityMode(tt.in)
		if action != tt.action || entity != tt.entity {
			t.Errorf("splitOperationEntityMode(%q) = (%q, %q), want (%q, %q)",
				tt.in, action, entity, tt.action, tt.entity)
		}
	}
}

func TestSplitOperationEntityModeWithMode(t *testing.T) {
	action, entity, mode := splitOperationEntityMode("update_flow_run_by_pk")
	if action != "update" || entity != "flow_run" || mode != "pk" {
		t.Fatalf("got (%q, %q, %q)", action, entity, mode)
	}
}
