package ability

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// RoleForUser resolves the active role assignment for a user in a tenant.
func (r *PGRepository) RoleForUser(ctx context.Context, userID, tenantID int64) (int64, error) {
	var roleID int64
	err := r.pool.QueryRow(ctx,
		`SELECT role_id FROM user_roles WHERE user_id = $1 AND tenant_id = $2 LIMIT 1`,
		userID, tenantID).Scan(&roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRoleNotAssigned
		}
		return 0, err
	}
	return roleID, nil
}

// RoleGrants returns the stored grant rows for a role in insertion order, so
// the first-occurrence-wins dedup rule is stable.
func (r *PGRepository) RoleGrants(ctx context.Context, roleID int64) ([]Grant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role_id, action, subject FROM role_permissions WHERE role_id = $1 ORDER BY id`,
		roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		var action string
		if err := rows.Scan(&g.RoleID, &action, &g.Subject); err != nil {
			return nil, err
		}
		g.Action = Action(action)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}

// UserOverrides returns the privilege rows for a user and tenant ordered by
// creation time, oldest first.
func (r *PGRepository) UserOverrides(ctx context.Context, userID, tenantID int64) ([]OverrideRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, tenant_id, subject, can_read, can_create, can_update, can_delete, can_approve, can_post, can_export, can_import
FROM user_privileges WHERE user_id = $1 AND tenant_id = $2 ORDER BY created_at, id`,
		userID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []OverrideRecord
	for rows.Next() {
		var rec OverrideRecord
		if err := rows.Scan(&rec.UserID, &rec.TenantID, &rec.Subject,
			&rec.CanRead, &rec.CanCreate, &rec.CanUpdate, &rec.CanDelete,
			&rec.CanApprove, &rec.CanPost, &rec.CanExport, &rec.CanImport); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

var _ Repository = (*PGRepository)(nil)
