package gqlrewrite

import (
	"context"
	"time"

	"github.com/prefeitura-rio/prefect-auth-proxy/internal/membership"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/upstream"
)

// Oracle is the Belonging Oracle (component F): it authorizes an arbitrary
// (entity, id, tenant) triple by probing the upstream GraphQL backend with
// `{entity}_by_pk(id) { tenant_id }`, caching the result.
//
// Positive results are cached for a long time since ownership rarely
// changes. Negative results are cached too, but with a short bounded TTL:
// the implementation this proxy was ported from cached negatives forever, which meant a
// just-created entity could be denied for the lifetime of the process if it
// was probed before the write committed. A 60-second ceiling keeps the
// common-case cache hit while bounding that failure mode.
type Oracle struct {
	client      *upstream.Client
	cache       membership.Cache
	positiveTTL time.Duration
	negativeTTL time.Duration
}

// NewOracle constructs an Oracle with the default cache TTLs.
func NewOracle(client *upstream.Client, cache membership.Cache) *Oracle {
	return &Oracle{
		client:      client,
		cache:       cache,
		positiveTTL: 12 * time.Hour,
		negativeTTL: 60 * time.Second,
	}
}

// Belongs reports whether entity/id belongs to tenantID.
func (o *Oracle) Belongs(ctx context.Context, entity, id, tenantID string) (bool, error) {
	key := membership.EntityTenantKey(entity, id)

	var cachedTenant string
	if err := o.cache.Get(ctx, key, &cachedTenant); err == nil {
		if cachedTenant == "" {
			return false, nil
		}
		return cachedTenant == tenantID, nil
	}

	actualTenant, err := o.client.EntityTenantID(ctx, entity, id)
	if err != nil {
		return false, err
	}
	if actualTenant == "" {
		_ = o.cache.Set(ctx, key, "", o.negativeTTL)
		return false, nil
	}

	_ = o.cache.Set(ctx, key, actualTenant, o.positiveTTL)
	return actualTenant == tenantID, nil
}
