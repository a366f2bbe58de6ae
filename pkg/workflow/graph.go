package workflow

// StateName identifies a state in the session workflow graph.
type StateName string

// State constants - single source of truth for state names.
// States without a skill are pure routing nodes.
const (
	StateSessionStart         StateName = "session-start"
	StateVibeCoding           StateName = "vibe-coding"
	StateBrainstormGate       StateName = "brainstorm-gate"
	StateBrainstorming        StateName = "brainstorming"
	StateBrainstormValidation StateName = "brainstorm-validation"
	StateDraftGate            StateName = "draft-gate"
	StateItemDraftRoute       StateName = "item-draft-route"
	StateRoughDraftBlueprint  StateName = "rough-draft-blueprint"
	StateTaskPlanning         StateName = "task-planning"
	StateSystematicDebugging  StateName = "systematic-debugging"
	StateExecutionGate        StateName = "execution-gate"
	StateImplementing         StateName = "implementing"
)

// Skill identifiers carried by skill-bearing states.
const (
	SkillVibeCoding           = "vibe-coding"
	SkillBrainstorming        = "brainstorming"
	SkillBrainstormValidating = "brainstorm-validating"
	SkillRoughDraftBlueprint  = "rough-draft-blueprint"
	SkillTaskPlanning         = "task-planning"
	SkillSystematicDebugging  = "systematic-debugging"
	SkillImplementing         = "implementing"
)

// Transition points at a destination state, guarded by an optional condition.
// A nil When always matches.
type Transition struct {
	To   StateName
	When Condition
}

// State couples an optional skill with an ordered transition list. Transition
// order is significant: the first satisfied guard wins, ties broken by
// declaration order.
type State struct {
	Name        StateName
	Skill       string // Empty for pure routing nodes
	Transitions []Transition
}

// HasSkill reports whether the state carries a unit of work.
func (s *State) HasSkill() bool {
	return s.Skill != ""
}

// Table maps state names to their definitions. The canonical session
// workflow lives in Graph; tests may build their own tables.
type Table map[StateName]*State

// Graph is the canonical session workflow. Defined once at process start and
// never mutated at runtime.
//
// Structured sessions batch all items through brainstorming, then through
// rough drafting, then execute implementation batches. Vibe sessions skip the
// pipeline entirely and loop on free-form coding.
//
//nolint:gochecknoglobals // Immutable workflow definition, the single source of truth.
var Graph = Table{
	StateSessionStart: {
		Name: StateSessionStart,
		Transitions: []Transition{
			{To: StateVibeCoding, When: SessionTypeIs{Type: SessionVibe}},
			{To: StateBrainstormGate},
		},
	},
	StateVibeCoding: {
		Name:  StateVibeCoding,
		Skill: SkillVibeCoding,
		Transitions: []Transition{
			{To: StateVibeCoding},
		},
	},
	StateBrainstormGate: {
		Name: StateBrainstormGate,
		Transitions: []Transition{
			{To: StateBrainstorming, When: PendingBrainstormItems{}},
			{To: StateDraftGate},
		},
	},
	StateBrainstorming: {
		Name:  StateBrainstorming,
		Skill: SkillBrainstorming,
		Transitions: []Transition{
			{To: StateBrainstormValidation},
		},
	},
	StateBrainstormValidation: {
		Name:  StateBrainstormValidation,
		Skill: SkillBrainstormValidating,
		Transitions: []Transition{
			{To: StateBrainstorming, When: PendingBrainstormItems{}},
			{To: StateDraftGate},
		},
	},
	StateDraftGate: {
		Name: StateDraftGate,
		Transitions: []Transition{
			{To: StateItemDraftRoute, When: PendingRoughDraftItems{}},
			{To: StateExecutionGate},
		},
	},
	StateItemDraftRoute: {
		Name: StateItemDraftRoute,
		Transitions: []Transition{
			{To: StateTaskPlanning, When: ItemTypeIs{Type: ItemTypeTask}},
			{To: StateSystematicDebugging, When: ItemTypeIs{Type: ItemTypeBugfix}},
			{To: StateRoughDraftBlueprint},
		},
	},
	StateRoughDraftBlueprint: {
		Name:  StateRoughDraftBlueprint,
		Skill: SkillRoughDraftBlueprint,
		Transitions: []Transition{
			{To: StateItemDraftRoute, When: PendingRoughDraftItems{}},
			{To: StateExecutionGate},
		},
	},
	StateTaskPlanning: {
		Name:  StateTaskPlanning,
		Skill: SkillTaskPlanning,
		Transitions: []Transition{
			{To: StateItemDraftRoute, When: PendingRoughDraftItems{}},
			{To: StateExecutionGate},
		},
	},
	StateSystematicDebugging: {
		Name:  StateSystematicDebugging,
		Skill: SkillSystematicDebugging,
		Transitions: []Transition{
			{To: StateItemDraftRoute, When: PendingRoughDraftItems{}},
			{To: StateExecutionGate},
		},
	},
	StateExecutionGate: {
		Name: StateExecutionGate,
		Transitions: []Transition{
			{To: StateImplementing, When: BatchesRemaining{}},
		},
	},
	StateImplementing: {
		Name:  StateImplementing,
		Skill: SkillImplementing,
		Transitions: []Transition{
			{To: StateExecutionGate},
		},
	},
}

// GetState looks up a state by name in the table.
func (t Table) GetState(name StateName) (*State, bool) {
	state, ok := t[name]
	return state, ok
}

// GetState looks up a state by name in the canonical graph.
func GetState(name StateName) (*State, bool) {
	return Graph.GetState(name)
}

// ValidStateNames returns every state name in the graph, in no particular
// order. Useful for validation at load time.
func ValidStateNames() []StateName {
	names := make([]StateName, 0, len(Graph))
	for name := range Graph {
		names = append(names, name)
	}
	return names
}

// IsValidState reports whether name exists in the canonical workflow graph.
func IsValidState(name StateName) bool {
	_, ok := Graph[name]
	return ok
}
