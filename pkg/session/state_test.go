package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/pkg/workflow"
)

func demoItems() []WorkItem {
	return []WorkItem{
		{Number: 1, Title: "auth flow", Type: workflow.ItemTypeCode, Status: StatusPending},
		{Number: 2, Title: "write docs", Type: workflow.ItemTypeTask, Status: StatusPending},
		{Number: 3, Title: "fix race", Type: workflow.ItemTypeBugfix, Status: StatusPending},
	}
}

func TestNewSession(t *testing.T) {
	s := New(workflow.SessionStructured, demoItems())

	assert.Equal(t, workflow.StateSessionStart, s.State)
	require.NotNil(t, s.CurrentItem)
	assert.Equal(t, 1, *s.CurrentItem)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestNewSessionWithoutItems(t *testing.T) {
	s := New(workflow.SessionVibe, nil)
	assert.Nil(t, s.CurrentItem)
	assert.Nil(t, s.CurrentWorkItem())
}

func TestCurrentWorkItemStaleNumber(t *testing.T) {
	s := New(workflow.SessionStructured, demoItems())
	s.SetCurrentItem(99)
	assert.Nil(t, s.CurrentWorkItem())
}

func TestBuildContextPendingBrainstorm(t *testing.T) {
	s := New(workflow.SessionStructured, demoItems())
	ctx := s.BuildContext()

	assert.Equal(t, workflow.SessionStructured, ctx.SessionType)
	assert.True(t, ctx.HasCurrentItem)
	assert.Equal(t, workflow.ItemTypeCode, ctx.CurrentItemType)
	assert.True(t, ctx.HasPendingBrainstorm)
	assert.False(t, ctx.HasPendingRoughDraft)
	assert.False(t, ctx.HasBatchesRemaining)
}

func TestBuildContextRoughDraftPhase(t *testing.T) {
	s := New(workflow.SessionStructured, demoItems())
	for i := range s.Items {
		s.Items[i].Status = StatusBrainstormed
	}
	s.SetCurrentItem(3)

	ctx := s.BuildContext()
	assert.False(t, ctx.HasPendingBrainstorm)
	assert.True(t, ctx.HasPendingRoughDraft)
	assert.Equal(t, workflow.ItemTypeBugfix, ctx.CurrentItemType)
}

func TestBatchProgress(t *testing.T) {
	s := New(workflow.SessionStructured, demoItems())
	s.Batches = []Batch{
		{Name: "batch-1", Items: []int{1, 2}},
		{Name: "batch-2", Items: []int{3}},
	}

	assert.True(t, s.HasBatchesRemaining())
	assert.True(t, s.CompleteNextBatch())
	assert.True(t, s.Batches[0].Done)
	assert.True(t, s.HasBatchesRemaining())
	assert.True(t, s.CompleteNextBatch())
	assert.False(t, s.HasBatchesRemaining())
	assert.False(t, s.CompleteNextBatch())
}

func TestFirstPendingAndRoughDraft(t *testing.T) {
	s := New(workflow.SessionStructured, demoItems())

	pending := s.FirstPendingItem()
	require.NotNil(t, pending)
	assert.Equal(t, 1, pending.Number)

	s.Items[0].Status = StatusBrainstormed
	pending = s.FirstPendingItem()
	require.NotNil(t, pending)
	assert.Equal(t, 2, pending.Number)

	draft := s.FirstRoughDraftItem()
	require.NotNil(t, draft)
	assert.Equal(t, 1, draft.Number)
}

func TestStateJSONRoundTrip(t *testing.T) {
	s := New(workflow.SessionStructured, demoItems())
	s.State = workflow.StateBrainstorming
	s.Batches = []Batch{{Name: "batch-1", Items: []int{1}}}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, workflow.StateBrainstorming, decoded.State)
	assert.Len(t, decoded.Items, 3)
	require.NotNil(t, decoded.CurrentItem)
	assert.Equal(t, 1, *decoded.CurrentItem)
	assert.Len(t, decoded.Batches, 1)
}
