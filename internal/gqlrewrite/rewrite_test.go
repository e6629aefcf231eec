package gqlrewrite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prefeitura-rio/prefect-auth-proxy/internal/membership"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/upstream"
)

// memCache is a trivial in-process Cache for tests, avoiding a Redis
// dependency in unit tests.
type memCache struct {
	values map[string][]byte
}

func newMemCache() *memCache { return &memCache{values: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string, dest any) error {
	raw, ok := c.values[key]
	if !ok {
		return membership.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.values, key)
	return nil
}

// fakeUpstream serves `{entity}_by_pk` probes from a fixed ownership table
// keyed by the id being probed (tests use globally unique ids, so the id
// alone is enough to decide ownership).
func fakeUpstream(t *testing.T, owners map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode probe request: %v", err)
		}
		fname := fieldNameFromQuery(body.Query)
		w.Header().Set("Content-Type", "application/json")

		for id, tenant := range owners {
			if contains(body.Query, id) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"data": map[string]any{fname: map[string]any{"tenant_id": tenant}},
				})
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{fname: nil},
		})
	}))
}

func contains(haystack, needle string) bool {
	return len(needle) > 0 && (len(haystack) >= len(needle)) && (indexOfSubstr(haystack, needle) >= 0)
}

func indexOfSubstr(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func fieldNameFromQuery(query string) string {
	idx := indexOfSubstr(query, "_by_pk")
	if idx < 0 {
		return ""
	}
	start := idx
	for start > 0 && query[start-1] != '{' && query[start-1] != ' ' && query[start-1] != '\n' {
		start--
	}
	return query[start : idx+len("_by_pk")]
}

func newTestOracle(t *testing.T, owners map[string]string) *Oracle {
	t.Helper()
	srv := fakeUpstream(t, owners)
	t.Cleanup(srv.Close)
	client := upstream.New(srv.URL, 2*time.Second)
	return NewOracle(client, newMemCache())
}

func TestRewriteByPKAllowed(t *testing.T) {
	owners := map[string]string{"flow-run-1": "tenant-a"}
	oracle := newTestOracle(t, owners)

	ops := []Operation{{
		Query: `query { flow_run_by_pk(id: "flow-run-1") { id } }`,
	}}

	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected allowed=true for matching tenant")
	}
}

func TestRewriteByPKDenied(t *testing.T) {
	owners := map[string]string{"flow-run-1": "tenant-b"}
	oracle := newTestOracle(t, owners)

	ops := []Operation{{
		Query: `query { flow_run_by_pk(id: "flow-run-1") { id } }`,
	}}

	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected allowed=false: entity belongs to a different tenant")
	}
}

func TestRewriteInjectsWhereOnGenericQuery(t *testing.T) {
	oracle := newTestOracle(t, nil)

	ops := []Operation{{
		Query: `query { flow_runs { id } }`,
	}}

	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("generic list queries are always allowed, scoping happens via where")
	}
	if got := result.Operations[0].Query; !contains(got, "tenant_id") || !contains(got, "tenant-a") {
		t.Fatalf("expected injected tenant_id where clause, got: %s", got)
	}
}

func TestRewriteTenantQueryFlaggedNotRewritten(t *testing.T) {
	oracle := newTestOracle(t, nil)

	ops := []Operation{{
		Query: `query { tenant { id slug } }`,
	}}

	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("tenant queries are always allowed at the request stage")
	}
	if !result.TenantQuery[0] {
		t.Fatalf("expected TenantQuery flag to be set")
	}
	if contains(result.Operations[0].Query, "tenant_id") {
		t.Fatalf("tenant query should not be rewritten with a where clause")
	}
}

func TestRewriteTenantQueryAddsIDSelection(t *testing.T) {
	oracle := newTestOracle(t, nil)

	ops := []Operation{{Query: `query { tenant { slug } }`}}
	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if !contains(result.Operations[0].Query, "id") {
		t.Fatalf("expected id field to be added to tenant query selection, got: %s", result.Operations[0].Query)
	}
}

func TestRewritePublicQueryPassesThrough(t *testing.T) {
	oracle := newTestOracle(t, nil)

	ops := []Operation{{Query: `query { hello }`}}
	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("public queries must always be allowed")
	}
}

func TestRewriteBlockedEntityMutation(t *testing.T) {
	oracle := newTestOracle(t, nil)

	ops := []Operation{{
		Query: `mutation { delete_cloud_hook(id: "x") { id } }`,
	}}
	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if result.Allowed {
		t.Fatalf("cloud_hook mutations must always be denied")
	}
}

func TestRewriteUnknownMutationDenied(t *testing.T) {
	oracle := newTestOracle(t, nil)

	ops := []Operation{{
		Query: `mutation { frobnicate_widget(id: "x") { id } }`,
	}}
	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if result.Allowed {
		t.Fatalf("unrecognized mutation actions must be denied by default")
	}
}

func TestRewriteSubscriptionDenied(t *testing.T) {
	oracle := newTestOracle(t, nil)

	ops := []Operation{{
		Query: `subscription { flow_run_by_pk(id: "x") { id } }`,
	}}
	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if result.Allowed {
		t.Fatalf("subscriptions are always denied")
	}
}

func TestRewriteFragmentOnlyDocumentDenied(t *testing.T) {
	oracle := newTestOracle(t, nil)

	ops := []Operation{{
		Query: `fragment FlowRunFields on flow_run { id name }`,
	}}
	result, err := Rewrite(context.Background(), ops, "tenant-a", oracle)
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if result.Allowed {
		t.Fatalf("a document with no executable operation must be denied")
	}
}
