package ability

import (
	"log/slog"
	"net/http"

	"github.com/vertex-erp/vertex/internal/platform/httpx"
	"github.com/vertex-erp/vertex/internal/shared"
)

// Guard wires capability checks into HTTP handlers. The check consults only
// the rule set already attached to the session; it never touches storage.
type Guard struct {
	Evaluator Evaluator
	Logger    *slog.Logger
	Metrics   *Metrics
}

// Require permits the request only when the session's rule set allows the
// action on the subject. Requests without an established session are
// rejected outright.
func (g Guard) Require(action Action, subject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, rules, ok := FromSession(shared.SessionFromContext(r.Context()))
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session required")
				return
			}
			permitted := g.Evaluator.Can(rules, action, subject, identity.IsSuperAdmin)
			g.Metrics.Observe(action, subject, permitted)
			if !permitted {
				if g.Logger != nil {
					g.Logger.Warn("capability denied",
						slog.Int64("user_id", identity.UserID),
						slog.String("action", string(action)),
						slog.String("subject", subject))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
