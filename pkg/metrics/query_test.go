package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePrometheus serves canned vector responses for the two session queries.
func fakePrometheus(t *testing.T, completions, failures float64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		query := r.Form.Get("query")

		value := completions
		if strings.Contains(query, "broadcast_failures") {
			value = failures
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"status": "success",
			"data": {
				"resultType": "vector",
				"result": [{"metric": {}, "value": [1700000000, "%g"]}]
			}
		}`, value)
	}))
}

func TestGetSessionMetrics(t *testing.T) {
	server := fakePrometheus(t, 42, 3)
	defer server.Close()

	svc, err := NewQueryService(server.URL)
	require.NoError(t, err)

	m, err := svc.GetSessionMetrics(context.Background(), "demo", "main")
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Project)
	assert.Equal(t, "main", m.Session)
	assert.Equal(t, int64(42), m.SkillCompletions)
	assert.Equal(t, int64(3), m.BroadcastFails)
}

func TestGetSessionMetricsEmptyVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "success", "data": {"resultType": "vector", "result": []}}`)
	}))
	defer server.Close()

	svc, err := NewQueryService(server.URL)
	require.NoError(t, err)

	m, err := svc.GetSessionMetrics(context.Background(), "demo", "main")
	require.NoError(t, err)
	assert.Zero(t, m.SkillCompletions)
	assert.Zero(t, m.BroadcastFails)
}

func TestGetSessionMetricsServerDown(t *testing.T) {
	svc, err := NewQueryService("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = svc.GetSessionMetrics(context.Background(), "demo", "main")
	require.Error(t, err)
}
