package workflow

import (
	"errors"
	"fmt"
)

// DefaultMaxHops bounds routing-node walks. Routing chains are meant to
// resolve in at most a handful of hops; exceeding the bound indicates a
// malformed graph, not a transient condition.
const DefaultMaxHops = 10

var (
	// ErrUnknownState indicates a lookup of a state name absent from the graph.
	ErrUnknownState = errors.New("unknown workflow state")

	// ErrCycleSuspected indicates a routing walk exceeded the hop bound.
	ErrCycleSuspected = errors.New("cycle suspected in workflow graph")
)

// Resolution is the result of walking the graph to the next unit of work.
type Resolution struct {
	State StateName
	Skill string // Empty when the walk ended on a dead-end routing node
}

// NextState scans the transitions of the named state in declaration order and
// returns the destination of the first satisfied guard. The boolean is false
// when no guard matches, which is a legitimate terminal condition rather than
// an error.
func (t Table) NextState(name StateName, ctx *Context) (StateName, bool, error) {
	state, ok := t.GetState(name)
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownState, name)
	}

	for i := range state.Transitions {
		tr := &state.Transitions[i]
		if EvaluateCondition(tr.When, ctx) {
			return tr.To, true, nil
		}
	}
	return "", false, nil
}

// ResolveToSkill walks routing nodes from start until it reaches a
// skill-bearing state or a dead end, bounded by maxHops routing hops.
// A skill-bearing start state resolves immediately to itself regardless of
// context. A routing node with no satisfied guard is a dead end: the walk
// stops there with an empty skill, signaling that no further progress is
// possible under the current context.
func (t Table) ResolveToSkill(start StateName, ctx *Context, maxHops int) (Resolution, error) {
	current := start
	for hops := 0; hops <= maxHops; hops++ {
		state, ok := t.GetState(current)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %s", ErrUnknownState, current)
		}

		if state.HasSkill() {
			return Resolution{State: current, Skill: state.Skill}, nil
		}

		next, matched, err := t.NextState(current, ctx)
		if err != nil {
			return Resolution{}, err
		}
		if !matched {
			return Resolution{State: current}, nil // Dead-end routing node
		}
		current = next
	}
	return Resolution{}, fmt.Errorf("%w: no skill within %d hops from %s", ErrCycleSuspected, maxHops, start)
}

// NextState resolves one transition against the canonical graph.
func NextState(name StateName, ctx *Context) (StateName, bool, error) {
	return Graph.NextState(name, ctx)
}

// ResolveToSkill walks the canonical graph with the default hop bound.
func ResolveToSkill(start StateName, ctx *Context) (Resolution, error) {
	return Graph.ResolveToSkill(start, ctx, DefaultMaxHops)
}
