// Package responsefilter implements the Response Filter (component G): for
// queries whose root selection is `tenant*`, the rewriter never narrows the
// request (a single GraphQL `where` clause can't express "this session's
// list of tenants" cleanly against the upstream's schema), so the response
// is filtered post-hoc instead, down to just the tenants the caller is a
// member of.
package responsefilter

import "encoding/json"

// Filter narrows body's `data.tenant` array (if present) to only the
// entries whose `id` field is in memberTenantIDs, preserving array order.
// Non-tenant responses, or responses without a `tenant` field, pass through
// unchanged.
func Filter(body []byte, memberTenantIDs []string) ([]byte, error) {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, err
	}

	data, ok := decoded["data"].(map[string]any)
	if !ok {
		return body, nil
	}

	tenants, ok := data["tenant"].([]any)
	if !ok {
		return body, nil
	}

	member := make(map[string]bool, len(memberTenantIDs))
	for _, id := range memberTenantIDs {
		member[id] = true
	}

	filtered := make([]any, 0, len(tenants))
	for _, raw := range tenants {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := entry["id"].(string)
		if member[id] {
			filtered = append(filtered, entry)
		}
	}

	data["tenant"] = filtered
	return json.Marshal(decoded)
}

// FilterBatch applies Filter to each element of a batched GraphQL response
// (a JSON array of per-operation responses), using the matching
// tenantQuery flag to decide which elements need filtering.
func FilterBatch(responses []byte, tenantQuery []bool, memberTenantIDs []string) ([]byte, error) {
	var decoded []json.RawMessage
	if err := json.Unmarshal(responses, &decoded); err != nil {
		return nil, err
	}

	for i, raw := range decoded {
		if i >= len(tenantQuery) || !tenantQuery[i] {
			continue
		}
		filtered, err := Filter(raw, memberTenantIDs)
		if err != nil {
			return nil, err
		}
		decoded[i] = filtered
	}

	return json.Marshal(decoded)
}
