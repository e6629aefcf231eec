// Package store is the Postgres-backed persistence layer for users and
// tenants. It replaces a sqlc-generated query layer with hand-written pgx
// queries against the schema in migrations/.
package store

import "time"

// User mirrors the "user" table.
type User struct {
	ID          int64
	Username    string
	Password    string
	IsActive    bool
	IsAdmin     bool
	Token       string
	TokenExpiry *time.Time
	Scopes      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tenant mirrors the "tenant" table.
type Tenant struct {
	ID   string
	Slug string
}
