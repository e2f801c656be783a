package ability

import "errors"

var (
	// ErrGrantLoad indicates the role-grant read failed.
	ErrGrantLoad = errors.New("ability: grant load failed")
	// ErrPrivilegeLoad indicates the user-privilege read failed.
	ErrPrivilegeLoad = errors.New("ability: privilege load failed")
	// ErrRoleNotAssigned indicates the user holds no role in the tenant.
	ErrRoleNotAssigned = errors.New("ability: role not assigned")
	// ErrInvalidIdentity indicates a missing user or tenant identifier.
	ErrInvalidIdentity = errors.New("ability: invalid identity")
)
