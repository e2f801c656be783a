package privileges

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/vertex-erp/vertex/internal/shared"
)

// RepositoryPort defines data access methods for privilege overrides.
type RepositoryPort interface {
	ListForUser(ctx context.Context, userID, tenantID int64) ([]Override, error)
	Get(ctx context.Context, id int64) (Override, error)
	Create(ctx context.Context, ov Override) (Override, error)
	Update(ctx context.Context, ov Override) (Override, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles privilege override business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListForUser returns the overrides recorded for a user within a tenant.
func (s *Service) ListForUser(ctx context.Context, userID, tenantID int64) ([]Override, error) {
	if userID <= 0 || tenantID <= 0 {
		return nil, errors.New("privileges: user and tenant required")
	}
	return s.repo.ListForUser(ctx, userID, tenantID)
}

// Create records a new override. One row per (user, tenant, subject); the
// storage constraint rejects a second row for the same key.
func (s *Service) Create(ctx context.Context, actorID int64, ov Override) (Override, error) {
	ov.Subject = strings.TrimSpace(ov.Subject)
	if ov.UserID <= 0 || ov.TenantID <= 0 || ov.Subject == "" {
		return Override{}, errors.New("privileges: user, tenant and subject required")
	}
	created, err := s.repo.Create(ctx, ov)
	if err != nil {
		return Override{}, err
	}
	s.recordAudit(ctx, actorID, created, "privilege.create")
	return created, nil
}

// Update rewrites the flags of an existing override. The key columns
// (user, tenant, subject) stay fixed; flipping a subject means delete + create.
func (s *Service) Update(ctx context.Context, actorID int64, ov Override) (Override, error) {
	if ov.ID <= 0 {
		return Override{}, errors.New("privileges: override id required")
	}
	updated, err := s.repo.Update(ctx, ov)
	if err != nil {
		return Override{}, err
	}
	s.recordAudit(ctx, actorID, updated, "privilege.update")
	return updated, nil
}

// Delete removes an override, restoring the role-derived rule for its subject.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	ov, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, ov, "privilege.delete")
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, ov Override, action string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		TenantID: ov.TenantID,
		Action:   action,
		Entity:   "user_privileges",
		EntityID: strconv.FormatInt(ov.ID, 10),
		Meta:     map[string]any{"user_id": ov.UserID, "subject": ov.Subject},
	})
}
