package users

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertex-erp/vertex/internal/shared"
	_ "github.com/vertex-erp/vertex/testing"
)

type memoryUsersRepo struct {
	users       map[int64]User
	assignments map[int64]int64
}

func newMemoryUsersRepo(users ...User) *memoryUsersRepo {
	repo := &memoryUsersRepo{users: make(map[int64]User), assignments: make(map[int64]int64)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *memoryUsersRepo) ListUsers(ctx context.Context, tenantID int64, limit, offset int) ([]User, error) {
	var all []User
	for _, user := range r.users {
		if user.TenantID == tenantID {
			all = append(all, user)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memoryUsersRepo) CountUsers(ctx context.Context, tenantID int64) (int, error) {
	total := 0
	for _, user := range r.users {
		if user.TenantID == tenantID {
			total++
		}
	}
	return total, nil
}

func (r *memoryUsersRepo) GetUser(ctx context.Context, id, tenantID int64) (User, error) {
	user, ok := r.users[id]
	if !ok || user.TenantID != tenantID {
		return User{}, shared.ErrNotFound
	}
	return user, nil
}

func (r *memoryUsersRepo) AssignRole(ctx context.Context, userID, tenantID, roleID int64) error {
	r.assignments[userID] = roleID
	return nil
}

func seedUsers(n int) []User {
	out := make([]User, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, User{ID: int64(i), TenantID: 1, Email: "user@example.com", IsActive: true})
	}
	return out
}

func TestListUsersPaginates(t *testing.T) {
	repo := newMemoryUsersRepo(seedUsers(7)...)
	svc := NewService(repo, nil)

	list, meta, err := svc.ListUsers(context.Background(), 1, 2, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, int64(4), list[0].ID)
	require.Equal(t, 2, meta.Page)
	require.Equal(t, 3, meta.PerPage)
	require.Equal(t, 7, meta.Total)
	require.Equal(t, 3, meta.TotalPages)
}

func TestListUsersDefaultsPageParams(t *testing.T) {
	repo := newMemoryUsersRepo(seedUsers(3)...)
	svc := NewService(repo, nil)

	list, meta, err := svc.ListUsers(context.Background(), 1, 0, -5)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, 1, meta.Page)
	require.Equal(t, 20, meta.PerPage)
	require.Equal(t, 1, meta.TotalPages)
}

func TestListUsersScopedToTenant(t *testing.T) {
	repo := newMemoryUsersRepo(
		User{ID: 1, TenantID: 1},
		User{ID: 2, TenantID: 2},
	)
	svc := NewService(repo, nil)

	list, meta, err := svc.ListUsers(context.Background(), 2, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(2), list[0].ID)
	require.Equal(t, 1, meta.Total)
}

func TestAssignRoleValidatesInput(t *testing.T) {
	repo := newMemoryUsersRepo(seedUsers(1)...)
	svc := NewService(repo, nil)

	require.Error(t, svc.AssignRole(context.Background(), 9, 0, 1, 3))
	require.Error(t, svc.AssignRole(context.Background(), 9, 1, 1, 0))
	require.Empty(t, repo.assignments)
}

func TestAssignRoleUnknownUser(t *testing.T) {
	repo := newMemoryUsersRepo(seedUsers(1)...)
	svc := NewService(repo, nil)

	err := svc.AssignRole(context.Background(), 9, 42, 1, 3)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.assignments)
}

func TestAssignRoleStoresAssignment(t *testing.T) {
	repo := newMemoryUsersRepo(seedUsers(1)...)
	svc := NewService(repo, nil)

	require.NoError(t, svc.AssignRole(context.Background(), 9, 1, 1, 3))
	require.Equal(t, int64(3), repo.assignments[1])
}
