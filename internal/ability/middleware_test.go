package ability_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vertex-erp/vertex/internal/ability"
	"github.com/vertex-erp/vertex/internal/shared"
	_ "github.com/vertex-erp/vertex/testing"
)

func newSession(t *testing.T) *shared.Session {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return sess
}

func attachRules(t *testing.T, sess *shared.Session, identity ability.Identity, rules ability.RuleSet) {
	t.Helper()
	if err := ability.AttachToSession(sess, identity, "GERENTE", rules); err != nil {
		t.Fatalf("attach: %v", err)
	}
}

func guardRequest(t *testing.T, guard ability.Guard, sess *shared.Session, action ability.Action, subject string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	res := httptest.NewRecorder()
	guard.Require(action, subject)(next).ServeHTTP(res, req)
	return res, nextCalled
}

func testGuard() ability.Guard {
	return ability.Guard{
		Evaluator: ability.NewEvaluator(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestGuardRejectsMissingSession(t *testing.T) {
	res, nextCalled := guardRequest(t, testGuard(), nil, ability.ActionRead, "Sales")
	if nextCalled {
		t.Fatalf("handler must not run without a session")
	}
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestGuardRejectsSessionWithoutRules(t *testing.T) {
	sess := newSession(t)
	res, nextCalled := guardRequest(t, testGuard(), sess, ability.ActionRead, "Sales")
	if nextCalled {
		t.Fatalf("handler must not run before abilities are attached")
	}
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestGuardDeniesOutsideRuleSet(t *testing.T) {
	sess := newSession(t)
	attachRules(t, sess, ability.Identity{UserID: 7, TenantID: 1},
		ability.NewRuleSet(ability.Rule{Action: ability.ActionRead, Subject: "Sales"}))

	res, nextCalled := guardRequest(t, testGuard(), sess, ability.ActionDelete, "Sales")
	if nextCalled {
		t.Fatalf("handler must not run on denial")
	}
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestGuardPermitsMatchingRule(t *testing.T) {
	sess := newSession(t)
	attachRules(t, sess, ability.Identity{UserID: 7, TenantID: 1},
		ability.NewRuleSet(ability.Rule{Action: ability.ActionRead, Subject: ability.SubjectAll}))

	res, nextCalled := guardRequest(t, testGuard(), sess, ability.ActionRead, "Invoices")
	if !nextCalled {
		t.Fatalf("handler must run on permit")
	}
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestGuardPermitsSuperuserWithEmptyRules(t *testing.T) {
	sess := newSession(t)
	attachRules(t, sess, ability.Identity{UserID: 7, TenantID: 1, IsSuperAdmin: true}, ability.NewRuleSet())

	_, nextCalled := guardRequest(t, testGuard(), sess, ability.ActionManage, "Roles")
	if !nextCalled {
		t.Fatalf("superuser must pass any guard")
	}
}
