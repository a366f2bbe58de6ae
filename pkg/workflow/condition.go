// Package workflow implements the session state-routing engine: a fixed
// graph of named states with guarded transitions and a resolver that walks
// routing nodes until it reaches the next unit of work.
package workflow

// ItemType classifies a work item.
type ItemType string

const (
	ItemTypeCode   ItemType = "code"
	ItemTypeTask   ItemType = "task"
	ItemTypeBugfix ItemType = "bugfix"
)

// SessionType selects between the structured multi-phase workflow and
// free-form vibe sessions.
type SessionType string

const (
	SessionStructured SessionType = "structured"
	SessionVibe       SessionType = "vibe"
)

// Context is an ephemeral snapshot of session state built fresh before each
// resolution call. It is never persisted.
type Context struct {
	CurrentItemType      ItemType // Empty when no current item is set
	SessionType          SessionType
	HasCurrentItem       bool
	HasPendingBrainstorm bool // Any item still pending
	HasPendingRoughDraft bool // Any item brainstormed but not yet drafted/planned
	HasBatchesRemaining  bool
}

// Condition is a guard on a transition. The set of variants is closed: each
// variant compares itself against exactly one Context field. A nil Condition
// on a transition always matches.
type Condition interface {
	Evaluate(ctx *Context) bool
	// isCondition keeps the set of implementations sealed to this package.
	isCondition()
}

// ItemTypeIs matches when the current item has the given type.
type ItemTypeIs struct {
	Type ItemType
}

func (c ItemTypeIs) Evaluate(ctx *Context) bool { return ctx.CurrentItemType == c.Type }
func (ItemTypeIs) isCondition()                 {}

// SessionTypeIs matches when the session has the given type.
type SessionTypeIs struct {
	Type SessionType
}

func (c SessionTypeIs) Evaluate(ctx *Context) bool { return ctx.SessionType == c.Type }
func (SessionTypeIs) isCondition()                 {}

// ItemsRemaining matches when a current item is set.
type ItemsRemaining struct{}

func (ItemsRemaining) Evaluate(ctx *Context) bool { return ctx.HasCurrentItem }
func (ItemsRemaining) isCondition()               {}

// NoItemsRemaining is the exact negation of ItemsRemaining.
type NoItemsRemaining struct{}

func (NoItemsRemaining) Evaluate(ctx *Context) bool { return !ctx.HasCurrentItem }
func (NoItemsRemaining) isCondition()               {}

// PendingBrainstormItems matches when any item still awaits brainstorming.
type PendingBrainstormItems struct{}

func (PendingBrainstormItems) Evaluate(ctx *Context) bool { return ctx.HasPendingBrainstorm }
func (PendingBrainstormItems) isCondition()               {}

// NoPendingBrainstormItems is the exact negation of PendingBrainstormItems.
type NoPendingBrainstormItems struct{}

func (NoPendingBrainstormItems) Evaluate(ctx *Context) bool { return !ctx.HasPendingBrainstorm }
func (NoPendingBrainstormItems) isCondition()               {}

// PendingRoughDraftItems matches when any code/bugfix item is brainstormed
// but not yet drafted.
type PendingRoughDraftItems struct{}

func (PendingRoughDraftItems) Evaluate(ctx *Context) bool { return ctx.HasPendingRoughDraft }
func (PendingRoughDraftItems) isCondition()               {}

// NoPendingRoughDraftItems is the exact negation of PendingRoughDraftItems.
type NoPendingRoughDraftItems struct{}

func (NoPendingRoughDraftItems) Evaluate(ctx *Context) bool { return !ctx.HasPendingRoughDraft }
func (NoPendingRoughDraftItems) isCondition()               {}

// BatchesRemaining matches when any execution batch is unfinished.
type BatchesRemaining struct{}

func (BatchesRemaining) Evaluate(ctx *Context) bool { return ctx.HasBatchesRemaining }
func (BatchesRemaining) isCondition()               {}

// NoBatchesRemaining is the exact negation of BatchesRemaining.
type NoBatchesRemaining struct{}

func (NoBatchesRemaining) Evaluate(ctx *Context) bool { return !ctx.HasBatchesRemaining }
func (NoBatchesRemaining) isCondition()               {}

// Always matches unconditionally. Equivalent to a nil guard; provided so
// transition tables can state it explicitly.
type Always struct{}

func (Always) Evaluate(_ *Context) bool { return true }
func (Always) isCondition()             {}

// EvaluateCondition applies a guard to a context. A nil guard always matches.
func EvaluateCondition(cond Condition, ctx *Context) bool {
	if cond == nil {
		return true
	}
	return cond.Evaluate(ctx)
}
