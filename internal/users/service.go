package users

import (
	"context"
	"errors"
	"strconv"

	"github.com/vertex-erp/vertex/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, tenantID int64, limit, offset int) ([]User, error)
	CountUsers(ctx context.Context, tenantID int64) (int, error)
	GetUser(ctx context.Context, id, tenantID int64) (User, error)
	AssignRole(ctx context.Context, userID, tenantID, roleID int64) error
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns one page of the tenant's users with their role
// assignments, plus the pagination metadata for the full set.
func (s *Service) ListUsers(ctx context.Context, tenantID int64, page, perPage int) ([]User, shared.Pagination, error) {
	total, err := s.repo.CountUsers(ctx, tenantID)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	meta := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListUsers(ctx, tenantID, meta.PerPage, (meta.Page-1)*meta.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, meta, nil
}

// GetUser fetches a single user within the tenant.
func (s *Service) GetUser(ctx context.Context, id, tenantID int64) (User, error) {
	return s.repo.GetUser(ctx, id, tenantID)
}

// AssignRole switches the user's role. The new rule set takes effect on the
// user's next login; live sessions keep the rules resolved at login time.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, tenantID, roleID int64) error {
	if userID <= 0 || roleID <= 0 {
		return errors.New("users: user and role required")
	}
	if _, err := s.repo.GetUser(ctx, userID, tenantID); err != nil {
		return err
	}
	if err := s.repo.AssignRole(ctx, userID, tenantID, roleID); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			TenantID: tenantID,
			Action:   "user.role.assign",
			Entity:   "users",
			EntityID: strconv.FormatInt(userID, 10),
			Meta:     map[string]any{"role_id": roleID},
		})
	}
	return nil
}
