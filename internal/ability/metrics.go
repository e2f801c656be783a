package ability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts authorization decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the decision counter on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vertex_ability_decisions_total",
		Help: "Authorization decisions by action, subject and outcome.",
	}, []string{"action", "subject", "decision"})
	if reg != nil {
		reg.MustRegister(decisions)
	}
	return &Metrics{decisions: decisions}
}

// Observe records one decision.
func (m *Metrics) Observe(action Action, subject string, permitted bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if permitted {
		decision = "permit"
	}
	m.decisions.WithLabelValues(string(action), subject, decision).Inc()
}
