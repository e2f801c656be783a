package privileges

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vertex-erp/vertex/internal/ability"
	"github.com/vertex-erp/vertex/internal/shared"
	_ "github.com/vertex-erp/vertex/testing"
)

func newPrivilegesRouter(t *testing.T) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	sess, err := manager.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	rules := ability.NewRuleSet(ability.Rule{Action: ability.ActionManage, Subject: shared.SubjectUsers})
	require.NoError(t, ability.AttachToSession(sess, ability.Identity{UserID: 9, TenantID: 1}, "ADMIN", rules))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := ability.Guard{Evaluator: ability.NewEvaluator(), Logger: logger}
	handler := NewHandler(logger, NewService(newMemoryOverridesRepo(), nil), guard)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	r.Route("/api/privileges", handler.MountRoutes)
	return r
}

func postOverride(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/privileges/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestCreateOverrideDuplicateSubjectConflicts(t *testing.T) {
	router := newPrivilegesRouter(t)

	body := `{"userId":4,"subject":"Sales","canExport":true}`
	res := postOverride(t, router, body)
	require.Equal(t, http.StatusCreated, res.Code)

	res = postOverride(t, router, body)
	require.Equal(t, http.StatusConflict, res.Code)
	require.Contains(t, res.Body.String(), "duplicate")
}
