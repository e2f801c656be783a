package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vertex-erp/vertex/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `u.id, u.tenant_id, u.email, u.full_name,
COALESCE(ur.role_id, 0), COALESCE(r.code, ''), u.is_super_admin, u.is_active, u.created_at, u.updated_at`

const userJoins = `FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id AND ur.tenant_id = u.tenant_id
LEFT JOIN roles r ON r.id = ur.role_id`

// ListUsers returns one page of the tenant's users with their assigned role.
func (r *Repository) ListUsers(ctx context.Context, tenantID int64, limit, offset int) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` `+userJoins+` WHERE u.tenant_id = $1 ORDER BY u.id LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.TenantID, &user.Email, &user.FullName,
			&user.RoleID, &user.RoleCode, &user.IsSuperAdmin, &user.IsActive,
			&user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// CountUsers returns the total number of users in a tenant.
func (r *Repository) CountUsers(ctx context.Context, tenantID int64) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID).Scan(&total)
	return total, err
}

// GetUser fetches a single user within a tenant.
func (r *Repository) GetUser(ctx context.Context, id, tenantID int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` `+userJoins+` WHERE u.id = $1 AND u.tenant_id = $2`, id, tenantID).
		Scan(&user.ID, &user.TenantID, &user.Email, &user.FullName,
			&user.RoleID, &user.RoleCode, &user.IsSuperAdmin, &user.IsActive,
			&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// AssignRole replaces the user's role assignment within the tenant.
func (r *Repository) AssignRole(ctx context.Context, userID, tenantID, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, tenant_id, role_id)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, tenant_id) DO UPDATE SET role_id = EXCLUDED.role_id`,
		userID, tenantID, roleID)
	return err
}
