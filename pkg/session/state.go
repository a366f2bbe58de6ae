package session

import (
	"time"

	"studio/pkg/workflow"
)

// Batch groups item numbers for one round of implementation work. Batches
// execute in declaration order; Done marks a finished round.
type Batch struct {
	Name  string `json:"name"`
	Items []int  `json:"items"`
	Done  bool   `json:"done"`
}

// State is the single JSON-serializable record kept per (project, session)
// pair. Items are appended at session creation and never deleted; read-modify-
// write is performed by whichever caller currently holds the session file.
type State struct {
	State       workflow.StateName   `json:"state"`
	CurrentItem *int                 `json:"currentItem,omitempty"`
	Items       []WorkItem           `json:"items"`
	Batches     []Batch              `json:"batches,omitempty"`
	SessionType workflow.SessionType `json:"sessionType"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// New creates a session record positioned at the workflow entry state.
func New(sessionType workflow.SessionType, items []WorkItem) *State {
	now := time.Now().UTC()
	s := &State{
		State:       workflow.StateSessionStart,
		Items:       items,
		SessionType: sessionType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(items) > 0 {
		first := items[0].Number
		s.CurrentItem = &first
	}
	return s
}

// CurrentWorkItem returns a pointer into Items for the current item, or nil
// when no current item is set or the number is stale.
func (s *State) CurrentWorkItem() *WorkItem {
	if s.CurrentItem == nil {
		return nil
	}
	return s.ItemByNumber(*s.CurrentItem)
}

// ItemByNumber returns a pointer into Items, or nil when absent.
func (s *State) ItemByNumber(number int) *WorkItem {
	for i := range s.Items {
		if s.Items[i].Number == number {
			return &s.Items[i]
		}
	}
	return nil
}

// SetCurrentItem repositions the pipeline on the given item number.
func (s *State) SetCurrentItem(number int) {
	n := number
	s.CurrentItem = &n
}

// ClearCurrentItem unsets the current item.
func (s *State) ClearCurrentItem() {
	s.CurrentItem = nil
}

// FirstPendingItem returns the first item (declaration order) still awaiting
// brainstorming, or nil.
func (s *State) FirstPendingItem() *WorkItem {
	for i := range s.Items {
		if s.Items[i].Status == StatusPending {
			return &s.Items[i]
		}
	}
	return nil
}

// FirstRoughDraftItem returns the first item that is brainstormed but not yet
// drafted, or nil. Task items are planned rather than drafted but share the
// same phase, so they count as draft candidates like code and bugfix items.
func (s *State) FirstRoughDraftItem() *WorkItem {
	for i := range s.Items {
		if s.Items[i].Status == StatusBrainstormed {
			return &s.Items[i]
		}
	}
	return nil
}

// HasPendingBrainstorm reports whether any item still awaits brainstorming.
func (s *State) HasPendingBrainstorm() bool {
	return s.FirstPendingItem() != nil
}

// HasPendingRoughDraft reports whether any item awaits drafting.
func (s *State) HasPendingRoughDraft() bool {
	return s.FirstRoughDraftItem() != nil
}

// HasBatchesRemaining reports whether any execution batch is unfinished.
func (s *State) HasBatchesRemaining() bool {
	for i := range s.Batches {
		if !s.Batches[i].Done {
			return true
		}
	}
	return false
}

// CompleteNextBatch marks the first unfinished batch done. Returns false when
// every batch already finished.
func (s *State) CompleteNextBatch() bool {
	for i := range s.Batches {
		if !s.Batches[i].Done {
			s.Batches[i].Done = true
			return true
		}
	}
	return false
}

// BuildContext derives the ephemeral routing snapshot from the current
// session state. The snapshot is rebuilt before every resolution call and
// never persisted.
func (s *State) BuildContext() *workflow.Context {
	ctx := &workflow.Context{
		SessionType:          s.SessionType,
		HasPendingBrainstorm: s.HasPendingBrainstorm(),
		HasPendingRoughDraft: s.HasPendingRoughDraft(),
		HasBatchesRemaining:  s.HasBatchesRemaining(),
	}
	if item := s.CurrentWorkItem(); item != nil {
		ctx.HasCurrentItem = true
		ctx.CurrentItemType = item.Type
	}
	return ctx
}

// Touch refreshes the bookkeeping timestamp.
func (s *State) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
