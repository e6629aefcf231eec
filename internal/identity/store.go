// Package identity implements the Identity Store (component A): bearer
// token resolution and per-user tenant membership, the latter cached by the
// Membership Cache so the proxy pipeline's hot path avoids a join query on
// every request.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/prefeitura-rio/prefect-auth-proxy/internal/membership"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/store"
)

// Errors returned by Resolve, carrying the exact reason strings the HTTP
// layer surfaces in its 401 response body.
var (
	ErrInvalidToken = errors.New("Invalid token")
	ErrInactiveUser = errors.New("Inactive user")
	ErrExpiredToken = errors.New("Expired token")
)

// TenantsTTL is how long a user's tenant membership set is cached.
const TenantsTTL = 5 * time.Minute

// Store resolves bearer tokens to users and looks up tenant membership.
type Store struct {
	db    *store.Store
	cache membership.Cache
	now   func() time.Time
}

// New constructs a Store.
func New(db *store.Store, cache membership.Cache) *Store {
	return &Store{db: db, cache: cache, now: time.Now}
}

// Resolve looks up the user owning token, failing with ErrInvalidToken,
// ErrInactiveUser, or ErrExpiredToken per the same checks as the
// implementation this proxy was ported from: unknown token, inactive
// account, or a token_expiry in the past.
func (s *Store) Resolve(ctx context.Context, token string) (*store.User, error) {
	u, err := s.db.UserByToken(ctx, token)
	if err == store.ErrNotFound {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	if u.TokenExpiry != nil && u.TokenExpiry.Before(s.now()) {
		return nil, ErrExpiredToken
	}
	return u, nil
}

// TenantsOf returns the tenant IDs the user is a member of, cached.
func (s *Store) TenantsOf(ctx context.Context, userID int64) ([]string, error) {
	key := membership.UserTenantsKey(userID)

	var cached []string
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	ids, err := s.db.UserTenantIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, ids, TenantsTTL)
	return ids, nil
}

// IsMember reports whether userID belongs to tenantID, using the cached
// TenantsOf set.
func (s *Store) IsMember(ctx context.Context, userID int64, tenantID string) (bool, error) {
	ids, err := s.TenantsOf(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == tenantID {
			return true, nil
		}
	}
	return false, nil
}

// InvalidateTenants evicts the cached tenant-membership set for a user. Must
// be called whenever a user's tenant links change.
func (s *Store) InvalidateTenants(ctx context.Context, userID int64) error {
	return s.cache.Delete(ctx, membership.UserTenantsKey(userID))
}
