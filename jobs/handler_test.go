package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	_ "github.com/vertex-erp/vertex/testing"
)

type stubEnqueuer struct {
	called bool
	err    error
}

func (s *stubEnqueuer) EnqueueSessionSweep(ctx context.Context, payload SessionSweepPayload) (*asynq.TaskInfo, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func jobsRouter(enqueuer SweepEnqueuer) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, enqueuer, logger).MountRoutes)
	return r
}

func TestSessionSweepEnqueuesTask(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	res := httptest.NewRecorder()
	jobsRouter(enqueuer).ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/jobs/session-sweep", nil))
	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if !enqueuer.called {
		t.Fatal("expected the sweep to be enqueued")
	}
	if !strings.Contains(res.Body.String(), "task-1") {
		t.Fatalf("expected the task id in the response, got %s", res.Body.String())
	}
}

func TestSessionSweepWithoutClientUnavailable(t *testing.T) {
	res := httptest.NewRecorder()
	jobsRouter(nil).ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/jobs/session-sweep", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestSessionSweepEnqueueFailureUnavailable(t *testing.T) {
	enqueuer := &stubEnqueuer{err: errors.New("redis down")}
	res := httptest.NewRecorder()
	jobsRouter(enqueuer).ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/jobs/session-sweep", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}
