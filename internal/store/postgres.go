package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup finds no matching row.
var ErrNotFound = errors.New("store: not found")

// Store is the Postgres-backed persistence layer, pooled via pgxpool the
// same way the rest of this codebase pools its upstream connections.
type Store struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a connection pool against dsn and verifies it with a
// ping before returning.
func NewPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return pool, nil
}

// New wraps an already-constructed pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UserByToken fetches the user owning the given bearer token.
func (s *Store) UserByToken(ctx context.Context, token string) (*User, error) {
	const q = `
		SELECT id, username, password, is_active, is_admin, token, token_expiry,
		       scopes, created_at, updated_at
		FROM "user" WHERE token = $1`
	return s.scanUser(s.pool.QueryRow(ctx, q, token))
}

// UserByUsername fetches a user by their unique username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
		SELECT id, username, password, is_active, is_admin, token, token_expiry,
		       scopes, created_at, updated_at
		FROM "user" WHERE username = $1`
	return s.scanUser(s.pool.QueryRow(ctx, q, username))
}

// UserByID fetches a user by primary key.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	const q = `
		SELECT id, username, password, is_active, is_admin, token, token_expiry,
		       scopes, created_at, updated_at
		FROM "user" WHERE id = $1`
	return s.scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.IsActive, &u.IsAdmin,
		&u.Token, &u.TokenExpiry, &u.Scopes, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return &u, nil
}

// ListUsers returns every user row.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	const q = `
		SELECT id, username, password, is_active, is_admin, token, token_expiry,
		       scopes, created_at, updated_at
		FROM "user" ORDER BY id`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.IsActive, &u.IsAdmin,
			&u.Token, &u.TokenExpiry, &u.Scopes, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// CreateUser inserts a new user row and returns it with its assigned ID.
func (s *Store) CreateUser(ctx context.Context, u *User) (*User, error) {
	const q = `
		INSERT INTO "user" (username, password, is_active, is_admin, token, token_expiry, scopes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	row := s.pool.QueryRow(ctx, q, u.Username, u.Password, u.IsActive, u.IsAdmin,
		u.Token, u.TokenExpiry, u.Scopes)
	out := *u
	if err := row.Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, fmt.Errorf("store: create user: %w", err)
	}
	return &out, nil
}

// UpdateUser updates the mutable fields of an existing user.
func (s *Store) UpdateUser(ctx context.Context, u *User) error {
	const q = `
		UPDATE "user"
		SET username = $2, password = $3, is_active = $4, is_admin = $5,
		    token = $6, token_expiry = $7, scopes = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, u.ID, u.Username, u.Password, u.IsActive, u.IsAdmin,
		u.Token, u.TokenExpiry, u.Scopes)
	if err != nil {
		return fmt.Errorf("store: update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user by ID.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TenantByID fetches a tenant by its UUID primary key.
func (s *Store) TenantByID(ctx context.Context, id string) (*Tenant, error) {
	const q = `SELECT id, slug FROM tenant WHERE id = $1`
	var t Tenant
	err := s.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: tenant by id: %w", err)
	}
	return &t, nil
}

// TenantBySlug fetches a tenant by its unique slug.
func (s *Store) TenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	const q = `SELECT id, slug FROM tenant WHERE slug = $1`
	var t Tenant
	err := s.pool.QueryRow(ctx, q, slug).Scan(&t.ID, &t.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: tenant by slug: %w", err)
	}
	return &t, nil
}

// ListTenants returns every tenant row.
func (s *Store) ListTenants(ctx context.Context) ([]*Tenant, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, slug FROM tenant ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("store: list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Slug); err != nil {
			return nil, fmt.Errorf("store: scan tenant: %w", err)
		}
		tenants = append(tenants, &t)
	}
	return tenants, rows.Err()
}

// CreateTenant inserts a new tenant row.
func (s *Store) CreateTenant(ctx context.Context, t *Tenant) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO tenant (id, slug) VALUES ($1, $2)`, t.ID, t.Slug)
	if err != nil {
		return fmt.Errorf("store: create tenant: %w", err)
	}
	return nil
}

// UpdateTenantSlug updates a tenant's slug.
func (s *Store) UpdateTenantSlug(ctx context.Context, id, slug string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tenant SET slug = $2 WHERE id = $1`, id, slug)
	if err != nil {
		return fmt.Errorf("store: update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTenant removes a tenant by ID.
func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenant WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UserTenantIDs returns the tenant IDs a user belongs to.
func (s *Store) UserTenantIDs(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT tenant_id FROM user_tenant WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: user tenant ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan tenant id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UserBelongsToTenant reports whether userID is a member of tenantID.
func (s *Store) UserBelongsToTenant(ctx context.Context, userID int64, tenantID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM user_tenant WHERE user_id = $1 AND tenant_id = $2`
	var count int
	if err := s.pool.QueryRow(ctx, q, userID, tenantID).Scan(&count); err != nil {
		return false, fmt.Errorf("store: user belongs to tenant: %w", err)
	}
	return count > 0, nil
}

// AddUserTenant links a user to a tenant. Idempotent.
func (s *Store) AddUserTenant(ctx context.Context, userID int64, tenantID string) error {
	const q = `
		INSERT INTO user_tenant (user_id, tenant_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	_, err := s.pool.Exec(ctx, q, userID, tenantID)
	if err != nil {
		return fmt.Errorf("store: add user tenant: %w", err)
	}
	return nil
}

// RemoveUserTenant unlinks a user from a tenant.
func (s *Store) RemoveUserTenant(ctx context.Context, userID int64, tenantID string) error {
	const q = `DELETE FROM user_tenant WHERE user_id = $1 AND tenant_id = $2`
	_, err := s.pool.Exec(ctx, q, userID, tenantID)
	if err != nil {
		return fmt.Errorf("store: remove user tenant: %w", err)
	}
	return nil
}
