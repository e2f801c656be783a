package privileges

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vertex-erp/vertex/internal/shared"
)

const overrideColumns = `id, user_id, tenant_id, subject,
can_read, can_create, can_update, can_delete, can_approve, can_post, can_export, can_import,
created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListForUser returns the overrides stored for a user within a tenant, in
// creation order.
func (r *Repository) ListForUser(ctx context.Context, userID, tenantID int64) ([]Override, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+overrideColumns+` FROM user_privileges
WHERE user_id = $1 AND tenant_id = $2 ORDER BY created_at, id`, userID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var overrides []Override
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, ov)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return overrides, nil
}

// Get fetches a single override by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Override, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+overrideColumns+` FROM user_privileges WHERE id = $1`, id)
	ov, err := scanOverride(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Override{}, shared.ErrNotFound
		}
		return Override{}, err
	}
	return ov, nil
}

// Create inserts a new override. A second override for the same
// (user, tenant, subject) trips the unique constraint and surfaces as
// shared.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, ov Override) (Override, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO user_privileges
(user_id, tenant_id, subject, can_read, can_create, can_update, can_delete, can_approve, can_post, can_export, can_import)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+overrideColumns,
		ov.UserID, ov.TenantID, ov.Subject,
		ov.CanRead, ov.CanCreate, ov.CanUpdate, ov.CanDelete,
		ov.CanApprove, ov.CanPost, ov.CanExport, ov.CanImport)
	created, err := scanOverride(row)
	if err != nil {
		if shared.ConstraintViolated(err, "uq_user_privileges_subject") {
			return Override{}, shared.ErrDuplicate
		}
		return Override{}, err
	}
	return created, nil
}

// Update rewrites the flag columns of an existing override.
func (r *Repository) Update(ctx context.Context, ov Override) (Override, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE user_privileges SET
can_read = $2, can_create = $3, can_update = $4, can_delete = $5,
can_approve = $6, can_post = $7, can_export = $8, can_import = $9,
updated_at = NOW()
WHERE id = $1
RETURNING `+overrideColumns,
		ov.ID,
		ov.CanRead, ov.CanCreate, ov.CanUpdate, ov.CanDelete,
		ov.CanApprove, ov.CanPost, ov.CanExport, ov.CanImport)
	updated, err := scanOverride(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Override{}, shared.ErrNotFound
		}
		return Override{}, err
	}
	return updated, nil
}

// Delete removes an override.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_privileges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanOverride(row pgx.Row) (Override, error) {
	var ov Override
	err := row.Scan(&ov.ID, &ov.UserID, &ov.TenantID, &ov.Subject,
		&ov.CanRead, &ov.CanCreate, &ov.CanUpdate, &ov.CanDelete,
		&ov.CanApprove, &ov.CanPost, &ov.CanExport, &ov.CanImport,
		&ov.CreatedAt, &ov.UpdatedAt)
	return ov, err
}
