package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSkillCompletion(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorderWith(reg)

	r.ObserveSkillCompletion("demo", "main", "brainstorming", true)
	r.ObserveSkillCompletion("demo", "main", "brainstorming", true)
	r.ObserveSkillCompletion("demo", "main", "brainstorming", false)

	success := testutil.ToFloat64(r.skillCompletions.WithLabelValues("demo", "main", "brainstorming", "success"))
	assert.Equal(t, 2.0, success)

	failure := testutil.ToFloat64(r.skillCompletions.WithLabelValues("demo", "main", "brainstorming", "error"))
	assert.Equal(t, 1.0, failure)
}

func TestIncBroadcastFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorderWith(reg)

	r.IncBroadcastFailure("demo", "main")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.broadcastFailures.WithLabelValues("demo", "main")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.broadcastFailures.WithLabelValues("demo", "other")))
}

func TestIncReconnect(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorderWith(reg)

	r.IncReconnect()
	r.IncReconnect()
	assert.Equal(t, 2.0, testutil.ToFloat64(r.reconnectsTotal))
}

func TestObserveInteractionWait(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorderWith(reg)

	r.ObserveInteractionWait("demo", "main", 150*time.Millisecond)

	count := testutil.CollectAndCount(reg, "session_interaction_wait_seconds")
	require.Equal(t, 1, count)
}

func TestMetricNamesLint(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorderWith(reg)
	r.ObserveSkillCompletion("demo", "main", "brainstorming", true)

	problems, err := testutil.GatherAndLint(reg)
	require.NoError(t, err)
	assert.Empty(t, problems)
}
