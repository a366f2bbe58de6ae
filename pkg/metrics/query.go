package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// SessionMetrics aggregates coordination metrics for one session.
type SessionMetrics struct {
	Project          string `json:"project"`
	Session          string `json:"session"`
	SkillCompletions int64  `json:"skill_completions"`
	BroadcastFails   int64  `json:"broadcast_failures"`
}

// QueryService reads aggregated session metrics back out of Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a metrics query service for the given Prometheus URL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{Address: prometheusURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetSessionMetrics aggregates skill completions and broadcast failures for
// one (project, session) pair across the retention window.
func (q *QueryService) GetSessionMetrics(ctx context.Context, project, session string) (*SessionMetrics, error) {
	metrics := &SessionMetrics{Project: project, Session: session}

	completionsQuery := fmt.Sprintf(
		`sum(session_skill_completions_total{project=%q, session=%q, status="success"})`, project, session)
	completionsResult, _, err := q.queryAPI.Query(ctx, completionsQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query skill completions: %w", err)
	}
	if vector, ok := completionsResult.(model.Vector); ok && len(vector) > 0 {
		metrics.SkillCompletions = int64(vector[0].Value)
	}

	failuresQuery := fmt.Sprintf(
		`sum(session_broadcast_failures_total{project=%q, session=%q})`, project, session)
	failuresResult, _, err := q.queryAPI.Query(ctx, failuresQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query broadcast failures: %w", err)
	}
	if vector, ok := failuresResult.(model.Vector); ok && len(vector) > 0 {
		metrics.BroadcastFails = int64(vector[0].Value)
	}

	return metrics, nil
}
