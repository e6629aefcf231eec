package membership

import "fmt"

// UserTenantsKey is the cache key for a user's set of member tenant IDs.
func UserTenantsKey(userID int64) string {
	return fmt.Sprintf("user_tenants_%d", userID)
}

// TenantExistsKey is the cache key for whether a tenant ID is a known tenant.
func TenantExistsKey(tenantID string) string {
	return fmt.Sprintf("tenant_exists_%s", tenantID)
}

// EntityTenantKey is the cache key for a Belonging Oracle result: which
// tenant a given (entity, id) pair belongs to.
func EntityTenantKey(entity, id string) string {
	return fmt.Sprintf("entity_tenant_%s_%s", entity, id)
}
