package ability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultLoadTimeout = 3 * time.Second

// Resolver computes effective rule sets at authentication time.
type Resolver struct {
	repo        Repository
	logger      *slog.Logger
	loadTimeout time.Duration
}

// NewResolver constructs a Resolver. A non-positive timeout falls back to
// the default load timeout.
func NewResolver(repo Repository, logger *slog.Logger, loadTimeout time.Duration) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	return &Resolver{repo: repo, logger: logger, loadTimeout: loadTimeout}
}

// ResolveAbilities builds the full effective rule set for the identity. It
// runs the grant and privilege loads concurrently, joins them, and merges
// under override precedence. Loader failures are absorbed fail-closed: the
// failing source contributes nothing and a warning is logged, so a transient
// read error can only narrow access, never widen it.
//
// A non-superuser without a role assignment receives the baseline set. A
// missing user or tenant identifier is a contract violation and returns
// ErrInvalidIdentity.
func (r *Resolver) ResolveAbilities(ctx context.Context, identity Identity) (RuleSet, error) {
	if identity.UserID == 0 || identity.TenantID == 0 {
		return nil, fmt.Errorf("%w: user=%d tenant=%d", ErrInvalidIdentity, identity.UserID, identity.TenantID)
	}

	roleID := identity.RoleID
	if roleID == 0 {
		var err error
		roleID, err = r.lookupRole(ctx, identity)
		if err != nil {
			if identity.IsSuperAdmin {
				// Superusers bypass rule evaluation entirely; an
				// empty set is sufficient.
				return NewRuleSet(), nil
			}
			return Baseline(), nil
		}
	}

	var (
		roleRules RuleSet
		overrides []OverrideTuple
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		roleRules = r.rolePermissions(gctx, roleID)
		return nil
	})
	g.Go(func() error {
		overrides = r.userPrivileges(gctx, identity.UserID, identity.TenantID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(roleRules, overrides), nil
}

// lookupRole resolves the role assignment, distinguishing a missing
// assignment from a store failure. Both end in the baseline for
// non-superusers, but the failure is logged as a grant-load problem.
func (r *Resolver) lookupRole(ctx context.Context, identity Identity) (int64, error) {
	lctx, cancel := context.WithTimeout(ctx, r.loadTimeout)
	defer cancel()
	roleID, err := r.repo.RoleForUser(lctx, identity.UserID, identity.TenantID)
	if err == nil {
		return roleID, nil
	}
	if errors.Is(err, ErrRoleNotAssigned) {
		r.logger.Info("no role assigned, using baseline rules",
			slog.Int64("user_id", identity.UserID),
			slog.Int64("tenant_id", identity.TenantID))
		return 0, ErrRoleNotAssigned
	}
	r.logger.Warn("role lookup failed, failing closed",
		slog.Int64("user_id", identity.UserID),
		slog.Int64("tenant_id", identity.TenantID),
		slog.Any("error", fmt.Errorf("%w: %v", ErrGrantLoad, err)))
	return 0, fmt.Errorf("%w: %v", ErrGrantLoad, err)
}

// rolePermissions loads and deduplicates the role's grants, failing closed
// to an empty set on storage errors.
func (r *Resolver) rolePermissions(ctx context.Context, roleID int64) RuleSet {
	lctx, cancel := context.WithTimeout(ctx, r.loadTimeout)
	defer cancel()
	grants, err := r.repo.RoleGrants(lctx, roleID)
	if err != nil {
		r.logger.Warn("grant load failed, failing closed",
			slog.Int64("role_id", roleID),
			slog.Any("error", fmt.Errorf("%w: %v", ErrGrantLoad, err)))
		return NewRuleSet()
	}
	return DedupGrants(grants)
}

// userPrivileges loads and expands the user's overrides, failing closed to
// no overrides on storage errors so role grants stand unmodified.
func (r *Resolver) userPrivileges(ctx context.Context, userID, tenantID int64) []OverrideTuple {
	lctx, cancel := context.WithTimeout(ctx, r.loadTimeout)
	defer cancel()
	records, err := r.repo.UserOverrides(lctx, userID, tenantID)
	if err != nil {
		r.logger.Warn("privilege load failed, failing closed",
			slog.Int64("user_id", userID),
			slog.Int64("tenant_id", tenantID),
			slog.Any("error", fmt.Errorf("%w: %v", ErrPrivilegeLoad, err)))
		return nil
	}
	return ExpandOverrides(records)
}
