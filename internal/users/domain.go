package users

import "time"

// User represents a user account for management listings.
type User struct {
	ID           int64
	TenantID     int64
	Email        string
	FullName     string
	RoleID       int64
	RoleCode     string
	IsSuperAdmin bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
