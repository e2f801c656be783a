package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/vertex-erp/vertex/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionSweep is the task type for purging expired session rows.
	TaskSessionSweep = "session:sweep"
)

// SessionSweepPayload bounds a sweep run. A zero Before means "now".
type SessionSweepPayload struct {
	Before time.Time `json:"before"`
}

// NewSessionSweepTask constructs an Asynq task.
func NewSessionSweepTask(payload SessionSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionSweep, data), nil
}

// SessionSweeper deletes expired session rows from Postgres. The live session
// store is Redis with its own TTL; the Postgres rows exist for auditing and
// would otherwise accumulate forever.
type SessionSweeper struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewSessionSweeper constructs a SessionSweeper.
func NewSessionSweeper(pool *pgxpool.Pool, logger *slog.Logger) *SessionSweeper {
	return &SessionSweeper{pool: pool, logger: logger, metrics: jobmetrics.NewMetrics(nil)}
}

// HandleTask processes TaskSessionSweep tasks.
func (s *SessionSweeper) HandleTask(ctx context.Context, t *asynq.Task) error {
	tracker := s.metrics.Track("session_sweep")
	var payload SessionSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	before := payload.Before
	if before.IsZero() {
		before = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		s.logger.Error("session sweep", slog.Any("error", err))
		return tracker.End(err)
	}
	if removed := tag.RowsAffected(); removed > 0 {
		s.logger.Info("session sweep", slog.Int64("removed", removed))
	}
	return tracker.End(nil)
}
