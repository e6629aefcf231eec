package gqlrewrite

import "testing"

func TestEntitiesAndIDsFromJSONObjectSkipsBareID(t *testing.T) {
	entities, ids := entitiesAndIDsFromJSONObject(map[string]any{
		"id":          "should-be-ignored",
		"flow_run_id": "flow-run-1",
		"tenant_id":   "tenant-a",
		"name":        "irrelevant",
	})

	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d: %v", len(entities), entities)
	}
	for i, e := range entities {
		switch e {
		case "flow_run":
			if ids[i] != "flow-run-1" {
				t.Errorf("flow_run id = %q, want flow-run-1", ids[i])
			}
		case "tenant":
			if ids[i] != "tenant-a" {
				t.Errorf("tenant id = %q, want tenant-a", ids[i])
			}
		default:
			t.Errorf("unexpected entity %q extracted from bare id/name fields", e)
		}
	}
}
