package orchestrator

import (
	"studio/pkg/session"
	"studio/pkg/workflow"
)

// A phaseRouter repositions the session's current work item after a
// phase-batched skill completes and names the routing node the walk should
// restart from. Brainstorming and drafting run breadth-first: every item
// passes through a phase before any item enters the next one.
type phaseRouter func(st *session.State) workflow.StateName

var phaseRouters = map[workflow.StateName]phaseRouter{
	workflow.StateBrainstormValidation: routeAfterBrainstormValidation,
	workflow.StateRoughDraftBlueprint:  routeAfterDraft,
	workflow.StateTaskPlanning:         routeAfterDraft,
	workflow.StateSystematicDebugging:  routeAfterDraft,
}

// routeAfterBrainstormValidation picks the next item still awaiting its
// brainstorm pass, falling back to the first brainstormed item once the
// phase drains. The brainstorm gate re-checks the phase condition on the
// refreshed context.
func routeAfterBrainstormValidation(st *session.State) workflow.StateName {
	if next := st.FirstPendingItem(); next != nil {
		st.SetCurrentItem(next.Number)
	} else if draft := st.FirstRoughDraftItem(); draft != nil {
		st.SetCurrentItem(draft.Number)
	} else {
		st.ClearCurrentItem()
	}
	return workflow.StateBrainstormGate
}

// routeAfterDraft advances to the next brainstormed item awaiting its draft
// pass, clearing the current item once the phase drains so the draft gate
// falls through to execution.
func routeAfterDraft(st *session.State) workflow.StateName {
	if next := st.FirstRoughDraftItem(); next != nil {
		st.SetCurrentItem(next.Number)
	} else {
		st.ClearCurrentItem()
	}
	return workflow.StateDraftGate
}
