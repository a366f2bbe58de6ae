// Package orchestrator couples skill completion to the work-item pipeline and
// the workflow graph: it decides what the agent should do next after
// finishing a unit of work, persists the result, and keeps browser observers
// notified on a best-effort basis.
package orchestrator

import (
	"fmt"
	"time"

	"studio/pkg/interact"
	"studio/pkg/logx"
	"studio/pkg/metrics"
	"studio/pkg/proto"
	"studio/pkg/session"
	"studio/pkg/workflow"
)

// Store is the persistence collaborator holding session records.
type Store interface {
	Load(project, name string) (*session.State, error)
	Save(project, name string, state *session.State) error
}

// Broadcaster delivers wire messages to browser observers. Failures are
// tolerated: persisted results stay authoritative regardless of
// notification outcome.
type Broadcaster interface {
	Send(msg any) error
}

// Archive receives one record per skill completion for offline inspection.
// Writes are best-effort.
type Archive interface {
	RecordSkillEvent(project, name, skill, sessionType string, nextState workflow.StateName, nextSkill string) error
}

// EventSink receives outbound wire messages for audit logging. Writes are
// best-effort.
type EventSink interface {
	WriteMessage(msg any) error
}

// ActionSessionComplete marks a result whose graph walk dead-ended: no
// further progress is possible under the current session state.
const ActionSessionComplete = "session_complete"

// Result is what the agent receives after completing a skill.
type Result struct {
	NextSkill string         `json:"nextSkill"`
	Params    map[string]any `json:"params,omitempty"`
	Action    string         `json:"action,omitempty"`
}

// Orchestrator coordinates skill completion for all sessions of one
// deployment.
type Orchestrator struct {
	store        Store
	bus          Broadcaster
	interactions *interact.Manager
	archive      Archive           // Optional
	events       EventSink         // Optional
	recorder     *metrics.Recorder // Optional
	logger       *logx.Logger
}

// New creates an orchestrator over the given collaborators.
func New(store Store, bus Broadcaster, interactions *interact.Manager) *Orchestrator {
	return &Orchestrator{
		store:        store,
		bus:          bus,
		interactions: interactions,
		logger:       logx.NewLogger("orchestrator"),
	}
}

// SetArchive attaches a best-effort skill-event archive.
func (o *Orchestrator) SetArchive(archive Archive) {
	o.archive = archive
}

// SetEventSink attaches a best-effort outbound message log.
func (o *Orchestrator) SetEventSink(sink EventSink) {
	o.events = sink
}

// SetMetrics attaches a metrics recorder.
func (o *Orchestrator) SetMetrics(recorder *metrics.Recorder) {
	o.recorder = recorder
}

// CompleteSkill advances the session after the agent finished skillName.
// It loads session state, advances the current work item when the skill maps
// to a status, resolves the next skill, persists, and notifies observers.
//
// Load and status errors are fatal to the call with nothing persisted;
// notification failures are swallowed. There is no mutual exclusion across
// concurrent calls for one session: the later write wins.
func (o *Orchestrator) CompleteSkill(project, name, skillName string) (*Result, error) {
	st, err := o.store.Load(project, name)
	if err != nil {
		o.observeCompletion(project, name, skillName, false)
		return nil, fmt.Errorf("failed to load session %s/%s: %w", project, name, err)
	}

	item := st.CurrentWorkItem()
	if status, ok := session.StatusUpdateForSkill(skillName); ok && item != nil {
		if err := item.AdvanceStatus(status); err != nil {
			o.observeCompletion(project, name, skillName, false)
			return nil, err
		}
		o.logger.Info("item #%d -> %s (%s/%s)", item.Number, status, project, name)
	}

	// Implementation rounds consume execution batches.
	if skillName == workflow.SkillImplementing {
		st.CompleteNextBatch()
	}

	resolution, err := o.resolveNext(st)
	if err != nil {
		o.observeCompletion(project, name, skillName, false)
		return nil, err
	}

	st.State = resolution.State
	if err := o.store.Save(project, name, st); err != nil {
		o.observeCompletion(project, name, skillName, false)
		return nil, fmt.Errorf("failed to persist session %s/%s: %w", project, name, err)
	}

	// Persistence happens-before notification; broadcast failures never
	// propagate past this point.
	o.notifyStateUpdated(project, name, st)
	o.archiveEvent(project, name, skillName, st, resolution)
	o.observeCompletion(project, name, skillName, true)

	result := &Result{NextSkill: resolution.Skill}
	if resolution.Skill == "" {
		result.Action = ActionSessionComplete
	}
	if current := st.CurrentWorkItem(); current != nil && resolution.Skill != "" {
		result.Params = map[string]any{
			"itemNumber": current.Number,
			"itemTitle":  current.Title,
			"itemType":   string(current.Type),
		}
	}
	return result, nil
}

// resolveNext determines the destination of a completed skill: the
// phase-batching router for the current state when one exists, otherwise one
// graph hop from the current state, then a walk to the next skill. The
// routing context is rebuilt fresh after every state mutation.
func (o *Orchestrator) resolveNext(st *session.State) (workflow.Resolution, error) {
	if router, ok := phaseRouters[st.State]; ok {
		dest := router(st)
		return workflow.ResolveToSkill(dest, st.BuildContext())
	}

	ctx := st.BuildContext()
	next, matched, err := workflow.NextState(st.State, ctx)
	if err != nil {
		return workflow.Resolution{}, err
	}
	if !matched {
		return workflow.Resolution{State: st.State}, nil // Dead end at the current state
	}
	return workflow.ResolveToSkill(next, st.BuildContext())
}

// RenderAndWait broadcasts a ui_render for the session and, when blocking,
// suspends until a browser response or dismissal arrives. Non-blocking
// renders return an immediate acknowledgment and record nothing.
func (o *Orchestrator) RenderAndWait(project, name string, ui map[string]any, blocking bool) (interact.Outcome, error) {
	msg := proto.NewUIRenderMsg(ui, blocking)

	if !blocking {
		o.broadcast(project, name, msg)
		return interact.Acknowledged(), nil
	}

	key := interact.Key{Project: project, Session: name}
	pending := o.interactions.Begin(key)
	msg.UIID = pending.ID // Correlate ui_response with the pending record
	o.broadcast(project, name, msg)

	started := time.Now()
	outcome, err := pending.Wait()
	if o.recorder != nil {
		o.recorder.ObserveInteractionWait(project, name, time.Since(started))
	}
	return outcome, err
}

// Respond routes a browser ui_response into the pending interaction for the
// session. A stale or unknown id returns false, never an error.
func (o *Orchestrator) Respond(project, name string, msg *proto.UIResponseMsg) bool {
	key := interact.Key{Project: project, Session: name}
	return o.interactions.Respond(key, msg.ComponentID, msg.ActionID, msg.Data)
}

// Dismiss rejects the session's pending interaction, if any.
func (o *Orchestrator) Dismiss(project, name string) bool {
	return o.interactions.Dismiss(interact.Key{Project: project, Session: name})
}

// notifyStateUpdated broadcasts the new session state. Failures are caught,
// logged, and never propagate.
func (o *Orchestrator) notifyStateUpdated(project, name string, st *session.State) {
	items := make([]any, 0, len(st.Items))
	for i := range st.Items {
		items = append(items, st.Items[i])
	}
	msg := &proto.SessionStateUpdatedMsg{
		Type:        proto.MsgTypeSessionStateUpdated,
		Project:     project,
		Session:     name,
		State:       string(st.State),
		CurrentItem: st.CurrentItem,
		Items:       items,
		SessionType: string(st.SessionType),
	}
	o.broadcast(project, name, msg)
}

func (o *Orchestrator) broadcast(project, name string, msg any) {
	if o.events != nil {
		if err := o.events.WriteMessage(msg); err != nil {
			o.logger.Warn("event log write failed for %s/%s: %v", project, name, err)
		}
	}
	if err := o.bus.Send(msg); err != nil {
		o.logger.Warn("notification failed for %s/%s: %v", project, name, err)
		if o.recorder != nil {
			o.recorder.IncBroadcastFailure(project, name)
		}
	}
}

func (o *Orchestrator) archiveEvent(project, name, skill string, st *session.State, res workflow.Resolution) {
	if o.archive == nil {
		return
	}
	if err := o.archive.RecordSkillEvent(project, name, skill, string(st.SessionType), res.State, res.Skill); err != nil {
		o.logger.Warn("skill event archive failed for %s/%s: %v", project, name, err)
	}
}

func (o *Orchestrator) observeCompletion(project, name, skill string, success bool) {
	if o.recorder != nil {
		o.recorder.ObserveSkillCompletion(project, name, skill, success)
	}
}
