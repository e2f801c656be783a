package auth

import "time"

// User represents an authenticated user account within a tenant.
type User struct {
	ID           int64
	TenantID     int64
	Email        string
	FullName     string
	PasswordHash string
	RoleID       int64
	RoleCode     string
	IsSuperAdmin bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
