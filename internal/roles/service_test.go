package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vertex-erp/vertex/internal/shared"
	_ "github.com/vertex-erp/vertex/testing"
)

type memoryRolesRepo struct {
	roles  map[int64]Role
	grants map[int64][]Grant
	nextID int64
}

func newMemoryRolesRepo() *memoryRolesRepo {
	return &memoryRolesRepo{roles: make(map[int64]Role), grants: make(map[int64][]Grant)}
}

func (r *memoryRolesRepo) ListRoles(ctx context.Context, tenantID int64) ([]Role, error) {
	var out []Role
	for _, role := range r.roles {
		if role.TenantID == tenantID || role.TenantID == 0 {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *memoryRolesRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (r *memoryRolesRepo) CreateRole(ctx context.Context, tenantID int64, code, name string) (Role, error) {
	for _, existing := range r.roles {
		if existing.TenantID == tenantID && existing.Code == code {
			return Role{}, shared.ErrDuplicate
		}
	}
	r.nextID++
	role := Role{ID: r.nextID, TenantID: tenantID, Code: code, Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.roles[role.ID] = role
	return role, nil
}

func (r *memoryRolesRepo) UpdateRole(ctx context.Context, id int64, name string) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	role.Name = name
	r.roles[id] = role
	return role, nil
}

func (r *memoryRolesRepo) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := r.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.roles, id)
	delete(r.grants, id)
	return nil
}

func (r *memoryRolesRepo) ListGrants(ctx context.Context, roleID int64) ([]Grant, error) {
	return r.grants[roleID], nil
}

func (r *memoryRolesRepo) ReplaceGrants(ctx context.Context, roleID int64, grants []Grant) error {
	r.grants[roleID] = grants
	return nil
}

func TestCreateRoleFoldsCodeUpper(t *testing.T) {
	svc := NewService(newMemoryRolesRepo(), nil)
	role, err := svc.CreateRole(context.Background(), 1, 1, "  gerente ", "Manager")
	require.NoError(t, err)
	require.Equal(t, "GERENTE", role.Code)
}

func TestCreateRoleRejectsBlankInput(t *testing.T) {
	svc := NewService(newMemoryRolesRepo(), nil)
	_, err := svc.CreateRole(context.Background(), 1, 1, "  ", "Manager")
	require.Error(t, err)
	_, err = svc.CreateRole(context.Background(), 1, 1, "ADMIN", "")
	require.Error(t, err)
}

func TestCreateRoleDuplicateCode(t *testing.T) {
	repo := newMemoryRolesRepo()
	svc := NewService(repo, nil)
	_, err := svc.CreateRole(context.Background(), 1, 1, "admin", "Administrator")
	require.NoError(t, err)
	_, err = svc.CreateRole(context.Background(), 1, 1, "ADMIN", "Second Admin")
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestSetGrantsValidatesAndDedups(t *testing.T) {
	repo := newMemoryRolesRepo()
	svc := NewService(repo, nil)
	role, err := svc.CreateRole(context.Background(), 1, 1, "GERENTE", "Manager")
	require.NoError(t, err)

	err = svc.SetGrants(context.Background(), 1, role.ID, []Grant{
		{Action: "READ", Subject: " all "},
		{Action: "read", Subject: "all"},
		{Action: "update", Subject: "Sales"},
	})
	require.NoError(t, err)

	grants := repo.grants[role.ID]
	require.Len(t, grants, 2)
	require.Equal(t, Grant{Action: "read", Subject: "all"}, grants[0])
	require.Equal(t, Grant{Action: "update", Subject: "Sales"}, grants[1])
}

func TestSetGrantsRejectsUnknownAction(t *testing.T) {
	repo := newMemoryRolesRepo()
	svc := NewService(repo, nil)
	role, err := svc.CreateRole(context.Background(), 1, 1, "USER", "Standard User")
	require.NoError(t, err)

	err = svc.SetGrants(context.Background(), 1, role.ID, []Grant{{Action: "write", Subject: "Sales"}})
	require.Error(t, err)
	require.Empty(t, repo.grants[role.ID])
}

func TestSetGrantsUnknownRole(t *testing.T) {
	svc := NewService(newMemoryRolesRepo(), nil)
	err := svc.SetGrants(context.Background(), 1, 99, []Grant{{Action: "read", Subject: "all"}})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteRoleRemovesGrants(t *testing.T) {
	repo := newMemoryRolesRepo()
	svc := NewService(repo, nil)
	role, err := svc.CreateRole(context.Background(), 1, 1, "TEMP", "Temporary")
	require.NoError(t, err)
	require.NoError(t, svc.SetGrants(context.Background(), 1, role.ID, []Grant{{Action: "read", Subject: "all"}}))

	require.NoError(t, svc.DeleteRole(context.Background(), 1, role.ID))
	_, _, err = svc.GetRole(context.Background(), role.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
