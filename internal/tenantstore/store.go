// Package tenantstore implements the Tenant Store (component B): tenant
// existence lookups, cached so a hot tenant doesn't hit Postgres on every
// proxied request.
package tenantstore

import (
	"context"
	"time"

	"github.com/prefeitura-rio/prefect-auth-proxy/internal/membership"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/store"
)

// DefaultTTL is how long a tenant-exists result is cached.
const DefaultTTL = 12 * time.Hour

// Store resolves tenant IDs to tenants, backed by Postgres and fronted by
// the Membership Cache.
type Store struct {
	db    *store.Store
	cache membership.Cache
	ttl   time.Duration
}

// New constructs a Store with the default cache TTL.
func New(db *store.Store, cache membership.Cache) *Store {
	return &Store{db: db, cache: cache, ttl: DefaultTTL}
}

// Exists reports whether tenantID names a known tenant.
func (s *Store) Exists(ctx context.Context, tenantID string) (bool, error) {
	key := membership.TenantExistsKey(tenantID)

	var cached bool
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	_, err := s.db.TenantByID(ctx, tenantID)
	switch {
	case err == nil:
		_ = s.cache.Set(ctx, key, true, s.ttl)
		return true, nil
	case err == store.ErrNotFound:
		_ = s.cache.Set(ctx, key, false, s.ttl)
		return false, nil
	default:
		return false, err
	}
}

// BySlug fetches a tenant by its unique slug, uncached (used only by the
// non-core CRUD surface, not the hot proxy path).
func (s *Store) BySlug(ctx context.Context, slug string) (*store.Tenant, error) {
	return s.db.TenantBySlug(ctx, slug)
}

// ByID fetches a tenant by ID, uncached.
func (s *Store) ByID(ctx context.Context, id string) (*store.Tenant, error) {
	return s.db.TenantByID(ctx, id)
}

// Create inserts a new tenant and invalidates any cached non-existence.
func (s *Store) Create(ctx context.Context, t *store.Tenant) error {
	if err := s.db.CreateTenant(ctx, t); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, membership.TenantExistsKey(t.ID))
	return nil
}

// Delete removes a tenant and evicts its cached existence, so the proxy's
// hot-path Exists check can't keep trusting a stale positive cache entry
// for up to DefaultTTL after the tenant is gone.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.DeleteTenant(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, membership.TenantExistsKey(id))
	return nil
}
