// Package metrics provides Prometheus-based metrics recording and querying
// for session coordination.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts coordination events: skill completions, broadcast
// failures, transport reconnects, and interaction wait times.
type Recorder struct {
	skillCompletions  *prometheus.CounterVec
	broadcastFailures *prometheus.CounterVec
	reconnectsTotal   prometheus.Counter
	interactionWait   *prometheus.HistogramVec
}

// NewRecorder creates a recorder registered on the default registry.
func NewRecorder() *Recorder {
	return NewRecorderWith(prometheus.DefaultRegisterer)
}

// NewRecorderWith creates a recorder on an explicit registry. Tests use this
// to avoid duplicate registration on the default registry.
func NewRecorderWith(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		skillCompletions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_skill_completions_total",
				Help: "Total skill completions by project, session, skill, and status",
			},
			[]string{"project", "session", "skill", "status"},
		),
		broadcastFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_broadcast_failures_total",
				Help: "Total best-effort notification failures (swallowed, never surfaced)",
			},
			[]string{"project", "session"},
		),
		reconnectsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "transport_reconnects_total",
				Help: "Total automatic transport reconnections",
			},
		),
		interactionWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "session_interaction_wait_seconds",
				Help:    "Time a blocking interaction waited for a browser response",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"project", "session"},
		),
	}
}

// ObserveSkillCompletion records one completeSkill call.
func (r *Recorder) ObserveSkillCompletion(project, session, skill string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	r.skillCompletions.WithLabelValues(project, session, skill, status).Inc()
}

// IncBroadcastFailure records a swallowed notification failure.
func (r *Recorder) IncBroadcastFailure(project, session string) {
	r.broadcastFailures.WithLabelValues(project, session).Inc()
}

// IncReconnect records one automatic transport reconnection.
func (r *Recorder) IncReconnect() {
	r.reconnectsTotal.Inc()
}

// ObserveInteractionWait records how long a blocking interaction waited.
func (r *Recorder) ObserveInteractionWait(project, session string, duration time.Duration) {
	r.interactionWait.WithLabelValues(project, session).Observe(duration.Seconds())
}
