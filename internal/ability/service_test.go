package ability_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vertex-erp/vertex/internal/ability"
	_ "github.com/vertex-erp/vertex/testing"
)

type stubRepo struct {
	roleID       int64
	roleErr      error
	roleCalled   bool
	grants       []ability.Grant
	grantsErr    error
	overrides    []ability.OverrideRecord
	overridesErr error
}

func (s *stubRepo) RoleForUser(ctx context.Context, userID, tenantID int64) (int64, error) {
	s.roleCalled = true
	if s.roleErr != nil {
		return 0, s.roleErr
	}
	return s.roleID, nil
}

func (s *stubRepo) RoleGrants(ctx context.Context, roleID int64) ([]ability.Grant, error) {
	if s.grantsErr != nil {
		return nil, s.grantsErr
	}
	return s.grants, nil
}

func (s *stubRepo) UserOverrides(ctx context.Context, userID, tenantID int64) ([]ability.OverrideRecord, error) {
	if s.overridesErr != nil {
		return nil, s.overridesErr
	}
	return s.overrides, nil
}

func newResolver(repo ability.Repository) *ability.Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ability.NewResolver(repo, logger, time.Second)
}

func TestResolveAbilitiesInvalidIdentity(t *testing.T) {
	resolver := newResolver(&stubRepo{})
	for _, identity := range []ability.Identity{
		{UserID: 0, TenantID: 1},
		{UserID: 1, TenantID: 0},
		{},
	} {
		_, err := resolver.ResolveAbilities(context.Background(), identity)
		if !errors.Is(err, ability.ErrInvalidIdentity) {
			t.Fatalf("identity %+v: expected ErrInvalidIdentity, got %v", identity, err)
		}
	}
}

func TestResolveAbilitiesNoRoleAssignedYieldsBaseline(t *testing.T) {
	resolver := newResolver(&stubRepo{roleErr: ability.ErrRoleNotAssigned})
	rules, err := resolver.ResolveAbilities(context.Background(), ability.Identity{UserID: 7, TenantID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.Len() != 1 || !rules.Has(ability.ActionRead, ability.SubjectAuth) {
		t.Fatalf("expected the baseline rule set, got %v", rules.Rules())
	}
}

func TestResolveAbilitiesRoleLookupFailureFailsClosed(t *testing.T) {
	resolver := newResolver(&stubRepo{roleErr: errors.New("connection refused")})
	rules, err := resolver.ResolveAbilities(context.Background(), ability.Identity{UserID: 7, TenantID: 1})
	if err != nil {
		t.Fatalf("loader failures must be absorbed, got %v", err)
	}
	if rules.Len() != 1 || !rules.Has(ability.ActionRead, ability.SubjectAuth) {
		t.Fatalf("store failure must fall back to the baseline, got %v", rules.Rules())
	}
}

func TestResolveAbilitiesSuperuserWithoutRoleGetsEmptySet(t *testing.T) {
	resolver := newResolver(&stubRepo{roleErr: ability.ErrRoleNotAssigned})
	rules, err := resolver.ResolveAbilities(context.Background(), ability.Identity{UserID: 7, TenantID: 1, IsSuperAdmin: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.Len() != 0 {
		t.Fatalf("superuser bypasses rules, expected empty set, got %v", rules.Rules())
	}
}

func TestResolveAbilitiesMergesGrantsAndOverrides(t *testing.T) {
	repo := &stubRepo{
		roleID: 3,
		grants: []ability.Grant{
			{RoleID: 3, Action: ability.ActionRead, Subject: ability.SubjectAll},
			{RoleID: 3, Action: ability.ActionDelete, Subject: "Invoices"},
		},
		overrides: []ability.OverrideRecord{
			{UserID: 7, TenantID: 1, Subject: "Invoices", CanDelete: boolPtr(false)},
			{UserID: 7, TenantID: 1, Subject: "Accounting", CanPost: boolPtr(true)},
		},
	}
	resolver := newResolver(repo)
	rules, err := resolver.ResolveAbilities(context.Background(), ability.Identity{UserID: 7, TenantID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.roleCalled {
		t.Fatalf("role lookup expected when RoleID is zero")
	}
	if rules.Has(ability.ActionDelete, "Invoices") {
		t.Fatalf("revoked grant must be absent")
	}
	if !rules.Has(ability.ActionPost, "Accounting") {
		t.Fatalf("granted override must be present")
	}
	if !rules.Has(ability.ActionRead, ability.SubjectAll) {
		t.Fatalf("untouched role grant must survive")
	}
}

func TestResolveAbilitiesKnownRoleSkipsLookup(t *testing.T) {
	repo := &stubRepo{
		roleErr: errors.New("must not be called"),
		grants:  []ability.Grant{{RoleID: 3, Action: ability.ActionRead, Subject: "Sales"}},
	}
	resolver := newResolver(repo)
	rules, err := resolver.ResolveAbilities(context.Background(), ability.Identity{UserID: 7, TenantID: 1, RoleID: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.roleCalled {
		t.Fatalf("lookup must be skipped when the role is already known")
	}
	if !rules.Has(ability.ActionRead, "Sales") {
		t.Fatalf("expected the role's grants, got %v", rules.Rules())
	}
}

func TestResolveAbilitiesGrantLoadFailureFailsClosed(t *testing.T) {
	repo := &stubRepo{
		roleID:    3,
		grantsErr: errors.New("timeout"),
		overrides: []ability.OverrideRecord{
			{UserID: 7, TenantID: 1, Subject: "Sales", CanRead: boolPtr(true)},
		},
	}
	resolver := newResolver(repo)
	rules, err := resolver.ResolveAbilities(context.Background(), ability.Identity{UserID: 7, TenantID: 1})
	if err != nil {
		t.Fatalf("loader failures must be absorbed, got %v", err)
	}
	if rules.Len() != 1 || !rules.Has(ability.ActionRead, "Sales") {
		t.Fatalf("failed grant load contributes nothing; only granted overrides remain, got %v", rules.Rules())
	}
}

func TestResolveAbilitiesPrivilegeLoadFailureKeepsRoleRules(t *testing.T) {
	repo := &stubRepo{
		roleID:       3,
		grants:       []ability.Grant{{RoleID: 3, Action: ability.ActionRead, Subject: ability.SubjectAll}},
		overridesErr: errors.New("timeout"),
	}
	resolver := newResolver(repo)
	rules, err := resolver.ResolveAbilities(context.Background(), ability.Identity{UserID: 7, TenantID: 1})
	if err != nil {
		t.Fatalf("loader failures must be absorbed, got %v", err)
	}
	if rules.Len() != 1 || !rules.Has(ability.ActionRead, ability.SubjectAll) {
		t.Fatalf("role rules must stand unmodified when overrides fail to load, got %v", rules.Rules())
	}
}

// blockingRepo never answers; every load waits for its context deadline.
type blockingRepo struct{}

func (blockingRepo) RoleForUser(ctx context.Context, userID, tenantID int64) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (blockingRepo) RoleGrants(ctx context.Context, roleID int64) ([]ability.Grant, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingRepo) UserOverrides(ctx context.Context, userID, tenantID int64) ([]ability.OverrideRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolveAbilitiesLoaderTimeoutFailsClosed(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := ability.NewResolver(blockingRepo{}, logger, 10*time.Millisecond)

	start := time.Now()
	rules, err := resolver.ResolveAbilities(context.Background(), ability.Identity{UserID: 7, TenantID: 1, RoleID: 3})
	if err != nil {
		t.Fatalf("expired loads must be absorbed, got %v", err)
	}
	if rules.Len() != 0 {
		t.Fatalf("expired loads contribute nothing, got %v", rules.Rules())
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("resolve must honor the per-load timeout, took %v", elapsed)
	}
}

func TestResolveAbilitiesRoleLookupTimeoutYieldsBaseline(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := ability.NewResolver(blockingRepo{}, logger, 10*time.Millisecond)

	rules, err := resolver.ResolveAbilities(context.Background(), ability.Identity{UserID: 7, TenantID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.Len() != 1 || !rules.Has(ability.ActionRead, ability.SubjectAuth) {
		t.Fatalf("expired role lookup falls back to the baseline, got %v", rules.Rules())
	}
}
