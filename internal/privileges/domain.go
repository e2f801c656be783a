package privileges

import "time"

// Override is a per-user privilege override for one form subject. Each
// nullable flag either grants (true), revokes (false), or leaves the
// role-derived rule untouched (nil).
type Override struct {
	ID         int64
	UserID     int64
	TenantID   int64
	Subject    string
	CanRead    *bool
	CanCreate  *bool
	CanUpdate  *bool
	CanDelete  *bool
	CanApprove *bool
	CanPost    *bool
	CanExport  *bool
	CanImport  *bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
