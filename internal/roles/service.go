package roles

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vertex-erp/vertex/internal/ability"
	"github.com/vertex-erp/vertex/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context, tenantID int64) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, tenantID int64, code, name string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	ListGrants(ctx context.Context, roleID int64) ([]Grant, error)
	ReplaceGrants(ctx context.Context, roleID int64, grants []Grant) error
}

// Service handles role business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
	upper cases.Caser
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit, upper: cases.Upper(language.Und)}
}

// ListRoles returns the roles visible to the tenant.
func (s *Service) ListRoles(ctx context.Context, tenantID int64) ([]Role, error) {
	return s.repo.ListRoles(ctx, tenantID)
}

// GetRole fetches one role with its grants.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, []Grant, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, nil, err
	}
	grants, err := s.repo.ListGrants(ctx, id)
	if err != nil {
		return Role{}, nil, err
	}
	return role, grants, nil
}

// CreateRole inserts a role. Codes are folded to upper case so lookups by
// symbolic code ("ADMIN", "GERENTE") are case-stable.
func (s *Service) CreateRole(ctx context.Context, actorID, tenantID int64, code, name string) (Role, error) {
	code = s.upper.String(strings.TrimSpace(code))
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return Role{}, errors.New("roles: code and name required")
	}
	role, err := s.repo.CreateRole(ctx, tenantID, code, name)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, actorID, tenantID, "role.create", role.ID, map[string]any{"code": role.Code})
	return role, nil
}

// UpdateRole renames a role.
func (s *Service) UpdateRole(ctx context.Context, actorID, id int64, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("roles: name required")
	}
	role, err := s.repo.UpdateRole(ctx, id, name)
	if err != nil {
		return Role{}, err
	}
	s.recordAudit(ctx, actorID, role.TenantID, "role.update", role.ID, map[string]any{"name": name})
	return role, nil
}

// DeleteRole removes a role and its grants.
func (s *Service) DeleteRole(ctx context.Context, actorID, id int64) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, role.TenantID, "role.delete", id, map[string]any{"code": role.Code})
	return nil
}

// SetGrants replaces the role's grant set. Grants are validated against the
// action enumeration and deduplicated before writing.
func (s *Service) SetGrants(ctx context.Context, actorID, roleID int64, grants []Grant) error {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(grants))
	cleaned := make([]Grant, 0, len(grants))
	for _, g := range grants {
		action, ok := ability.ParseAction(strings.TrimSpace(strings.ToLower(g.Action)))
		if !ok {
			return errors.New("roles: unknown action " + g.Action)
		}
		subject := strings.TrimSpace(g.Subject)
		if subject == "" {
			return errors.New("roles: grant subject required")
		}
		key := string(action) + "-" + subject
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, Grant{Action: string(action), Subject: subject})
	}
	if err := s.repo.ReplaceGrants(ctx, roleID, cleaned); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, role.TenantID, "role.grants.replace", roleID, map[string]any{"count": len(cleaned)})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, tenantID int64, action string, roleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		TenantID: tenantID,
		Action:   action,
		Entity:   "roles",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
}
