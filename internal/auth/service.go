package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vertex-erp/vertex/internal/ability"
	"github.com/vertex-erp/vertex/internal/shared"
)

// Service wraps authentication business rules. Authenticating also resolves
// the user's effective ability rules; the session is not established until
// that resolution has completed.
type Service struct {
	repo      Repository
	abilities *ability.Resolver
}

// NewService constructs a new Service.
func NewService(repo Repository, abilities *ability.Resolver) *Service {
	return &Service{repo: repo, abilities: abilities}
}

// Authenticate validates email/password credentials and resolves the
// effective rule set for the user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, ability.RuleSet, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}

	rules, err := s.abilities.ResolveAbilities(ctx, ability.Identity{
		UserID:       user.ID,
		TenantID:     user.TenantID,
		RoleID:       user.RoleID,
		IsSuperAdmin: user.IsSuperAdmin,
	})
	if err != nil {
		return nil, nil, err
	}
	return user, rules, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
