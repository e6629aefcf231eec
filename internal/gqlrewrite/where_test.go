package gqlrewrite

import (
	"strings"
	"testing"

	"github.com/vektah/gqlparser/v2/ast"
)

func mustParse(t *testing.T, query string) *ast.QueryDocument {
	t.Helper()
	doc, err := parseQuery(query)
	if err != nil {
		t.Fatalf("parseQuery(%q): %v", query, err)
	}
	return doc
}

func firstField(t *testing.T, doc *ast.QueryDocument) *ast.Field {
	t.Helper()
	for _, sel := range doc.Operations[0].SelectionSet {
		if field, ok := sel.(*ast.Field); ok {
			return field
		}
	}
	t.Fatal("no field selection found")
	return nil
}

func TestApplyTenantWhereAddsArgument(t *testing.T) {
	doc := mustParse(t, `query { flow_runs { id } }`)
	field := firstField(t, doc)
	vars := map[string]any{}

	applyTenantWhere(field, vars, "tenant-a")

	out := printQuery(doc)
	if !strings.Contains(out, "where") || !strings.Contains(out, "tenant_id") || !strings.Contains(out, "tenant-a") {
		t.Fatalf("expected injected where clause, got: %s", out)
	}
}

func TestApplyTenantWhereOverwritesExisting(t *testing.T) {
	doc := mustParse(t, `query { flow_runs(where: {tenant_id: {_eq: "stale"}}) { id } }`)
	field := firstField(t, doc)
	vars := map[string]any{}

	applyTenantWhere(field, vars, "tenant-a")

	out := printQuery(doc)
	if strings.Contains(out, "stale") {
		t.Fatalf("expected stale tenant_id to be overwritten, got: %s", out)
	}
	if !strings.Contains(out, "tenant-a") {
		t.Fatalf("expected tenant-a in rewritten query, got: %s", out)
	}
}

func TestApplyTenantWhereMergesAlongsideOtherFields(t *testing.T) {
	doc := mustParse(t, `query { flow_runs(where: {name: {_eq: "foo"}}) { id } }`)
	field := firstField(t, doc)
	vars := map[string]any{}

	applyTenantWhere(field, vars, "tenant-a")

	out := printQuery(doc)
	if !strings.Contains(out, `name`) || !strings.Contains(out, "tenant_id") {
		t.Fatalf("expected both name and tenant_id filters preserved, got: %s", out)
	}
}

func TestApplyTenantWhereOnVariableBoundWhere(t *testing.T) {
	doc := mustParse(t, `query($where: flow_run_bool_exp) { flow_runs(where: $where) { id } }`)
	field := firstField(t, doc)
	vars := map[string]any{"where": map[string]any{}}

	applyTenantWhere(field, vars, "tenant-a")

	whereVar := vars["where"].(map[string]any)
	tenantIDField, ok := whereVar["tenant_id"].(map[string]any)
	if !ok {
		t.Fatalf("expected tenant_id key in variable-bound where, got: %#v", whereVar)
	}
	if tenantIDField["_eq"] != "tenant-a" {
		t.Fatalf("expected _eq to be tenant-a, got: %#v", tenantIDField)
	}
}
