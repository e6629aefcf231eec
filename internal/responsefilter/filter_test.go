package responsefilter

import (
	"encoding/json"
	"testing"
)

func TestFilterNarrowsToMemberTenants(t *testing.T) {
	body := []byte(`{"data":{"tenant":[{"id":"a","slug":"acme"},{"id":"b","slug":"globex"}]}}`)

	out, err := Filter(body, []string{"a"})
	if err != nil {
		t.Fatalf("Filter returned error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	tenants := decoded["data"].(map[string]any)["tenant"].([]any)
	if len(tenants) != 1 {
		t.Fatalf("expected 1 tenant after filtering, got %d", len(tenants))
	}
	if tenants[0].(map[string]any)["id"] != "a" {
		t.Fatalf("expected remaining tenant to be 'a'")
	}
}

func TestFilterPassesThroughNonTenantResponses(t *testing.T) {
	body := []byte(`{"data":{"flow_runs":[{"id":"x"}]}}`)
	out, err := Filter(body, []string{"a"})
	if err != nil {
		t.Fatalf("Filter returned error: %v", err)
	}
	if string(out) != string(mustCanonicalize(t, body)) {
		t.Fatalf("expected unchanged body, got: %s", out)
	}
}

func TestFilterBatchOnlyTouchesFlaggedElements(t *testing.T) {
	batch := []byte(`[
		{"data":{"tenant":[{"id":"a"},{"id":"b"}]}},
		{"data":{"flow_runs":[{"id":"x"}]}}
	]`)

	out, err := FilterBatch(batch, []bool{true, false}, []string{"a"})
	if err != nil {
		t.Fatalf("FilterBatch returned error: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(decoded))
	}
	tenants := decoded[0]["data"].(map[string]any)["tenant"].([]any)
	if len(tenants) != 1 {
		t.Fatalf("expected element 0 filtered to 1 tenant, got %d", len(tenants))
	}
	flowRuns := decoded[1]["data"].(map[string]any)["flow_runs"].([]any)
	if len(flowRuns) != 1 {
		t.Fatalf("expected element 1 untouched, got %d flow_runs", len(flowRuns))
	}
}

func mustCanonicalize(t *testing.T, body []byte) []byte {
	t.Helper()
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("invalid JSON fixture: %v", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return out
}
