package ability

import "context"

// Repository is the read-only grant store consumed by the resolver.
type Repository interface {
	// RoleForUser returns the single active role assignment for the user
	// within the tenant, or ErrRoleNotAssigned.
	RoleForUser(ctx context.Context, userID, tenantID int64) (int64, error)
	// RoleGrants returns the raw grant rows for a role. A role with no
	// stored grants yields an empty slice, not an error.
	RoleGrants(ctx context.Context, roleID int64) ([]Grant, error)
	// UserOverrides returns the privilege override rows for the user and
	// tenant, ordered by creation time so conflict resolution is
	// deterministic.
	UserOverrides(ctx context.Context, userID, tenantID int64) ([]OverrideRecord, error)
}
