package roles

import "time"

// Role is a named permission bundle assignable to users within a tenant.
// TenantID zero marks a global, system-level role.
type Role struct {
	ID        int64
	TenantID  int64
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Grant is one (action, subject) permission attached to a role.
type Grant struct {
	Action  string
	Subject string
}
