// Package session defines the persisted session record, its work items, and
// the per-item status pipeline coupled to skill completion.
package session

import (
	"errors"
	"fmt"

	"studio/pkg/workflow"
)

// ItemStatus is a stage in the per-item pipeline. Statuses only move forward
// along the declared order; a reverse transition is a programming error.
type ItemStatus string

const (
	StatusPending      ItemStatus = "pending"
	StatusBrainstormed ItemStatus = "brainstormed"
	StatusComplete     ItemStatus = "complete"
)

// statusOrder fixes the pipeline ordering for forward-only validation.
//
//nolint:gochecknoglobals // Immutable pipeline definition.
var statusOrder = map[ItemStatus]int{
	StatusPending:      0,
	StatusBrainstormed: 1,
	StatusComplete:     2,
}

// ErrInvalidStatusTransition indicates a backward or unknown status move.
var ErrInvalidStatusTransition = errors.New("invalid work item status transition")

// WorkItem is one deliverable tracked through the session pipeline. Number is
// unique within a session's item list and stable across updates.
type WorkItem struct {
	Number int               `json:"number"`
	Title  string            `json:"title"`
	Type   workflow.ItemType `json:"type"`
	Status ItemStatus        `json:"status"`
}

// IsValidStatus reports whether s belongs to the pipeline.
func IsValidStatus(s ItemStatus) bool {
	_, ok := statusOrder[s]
	return ok
}

// AdvanceStatus moves the item to next, validating that the move is forward
// along the pipeline order. On failure the item is left untouched.
func (w *WorkItem) AdvanceStatus(next ItemStatus) error {
	from, ok := statusOrder[w.Status]
	if !ok {
		return fmt.Errorf("%w: item %d has unknown status %q", ErrInvalidStatusTransition, w.Number, w.Status)
	}
	to, ok := statusOrder[next]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, next)
	}
	if to <= from {
		return fmt.Errorf("%w: item %d cannot move %s -> %s", ErrInvalidStatusTransition, w.Number, w.Status, next)
	}
	w.Status = next
	return nil
}

// statusBySkill maps skill identifiers to the status their completion
// produces. Skills absent from the table never mutate item status.
//
//nolint:gochecknoglobals // Immutable skill-to-status mapping.
var statusBySkill = map[string]ItemStatus{
	workflow.SkillBrainstormValidating: StatusBrainstormed,
	workflow.SkillRoughDraftBlueprint:  StatusComplete,
	workflow.SkillTaskPlanning:         StatusComplete,
	workflow.SkillSystematicDebugging:  StatusComplete,
}

// StatusUpdateForSkill returns the status produced by completing the given
// skill, or false when the skill does not touch item status.
func StatusUpdateForSkill(skill string) (ItemStatus, bool) {
	status, ok := statusBySkill[skill]
	return status, ok
}
