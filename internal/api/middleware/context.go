package middleware

import (
	"context"
	"fmt"
)

// contextKey is a custom type for context keys to avoid collisions with
// other packages' plain-string keys.
type contextKey string

// Context keys for request-scoped values.
const (
	UserIDKey  contextKey = "user_id"
	IsAdminKey contextKey = "is_admin"
)

// GetUserID safely extracts the resolved user ID from context.
func GetUserID(ctx context.Context) (int64, error) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return 0, fmt.Errorf("user_id not found in context")
	}
	id, ok := val.(int64)
	if !ok {
		return 0, fmt.Errorf("user_id has wrong type: %T", val)
	}
	return id, nil
}

// GetIsAdmin safely extracts the resolved user's admin flag from context.
func GetIsAdmin(ctx context.Context) bool {
	val, _ := ctx.Value(IsAdminKey).(bool)
	return val
}

// MustGetUserID extracts the user ID and panics if not found. Use only in
// handlers reached through a middleware chain that guarantees it's set.
func MustGetUserID(ctx context.Context) int64 {
	id, err := GetUserID(ctx)
	if err != nil {
		panic(fmt.Sprintf("CRITICAL: %v", err))
	}
	return id
}
