// Package interact manages the single outstanding render-and-wait request a
// session may have. A session key maps to zero or one pending interaction;
// starting a new one silently orphans the previous record, which never
// resolves.
package interact

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"studio/pkg/logx"
)

// ErrDismissed is the expected rejection for a blocking interaction that the
// user dismissed. Callers need not log it as an error.
var ErrDismissed = errors.New("interaction dismissed")

// SourceBrowser tags outcomes produced by a browser response.
const SourceBrowser = "browser"

// SourceTerminal tags outcomes acknowledged without a browser round trip.
const SourceTerminal = "terminal"

// Key identifies one collaborative session instance.
type Key struct {
	Project string
	Session string
}

// Outcome is the result of a render-and-wait interaction.
type Outcome struct {
	Completed bool           `json:"completed"`
	Source    string         `json:"source"`
	Action    string         `json:"action,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

type result struct {
	outcome Outcome
	err     error
}

// Pending is a suspended interaction: an id plus a single-use completion
// channel. Exactly one of resolve/reject fires per record.
type Pending struct {
	ID  string
	key Key
	ch  chan result
}

// Wait suspends until the interaction is responded to or dismissed. There is
// no timeout: a superseded record waits forever.
func (p *Pending) Wait() (Outcome, error) {
	r := <-p.ch
	return r.outcome, r.err
}

// Manager tracks at most one pending interaction per session key.
type Manager struct {
	mu      sync.Mutex
	pending map[Key]*Pending
	logger  *logx.Logger
}

// NewManager creates an interaction manager.
func NewManager() *Manager {
	return &Manager{
		pending: make(map[Key]*Pending),
		logger:  logx.NewLogger("interact"),
	}
}

// Begin records a fresh pending interaction for the key, silently discarding
// any prior record. The discarded record's Wait never resolves; callers must
// not rely on stale ids.
func (m *Manager) Begin(key Key) *Pending {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.pending[key]; ok {
		m.logger.Warn("superseding pending interaction %s for %s/%s", old.ID, key.Project, key.Session)
	}

	p := &Pending{
		ID:  uuid.New().String(),
		key: key,
		ch:  make(chan result, 1),
	}
	m.pending[key] = p
	return p
}

// Respond resolves the pending interaction for key if id matches. A stale or
// unknown id is a silent no-op returning false, never an error.
func (m *Manager) Respond(key Key, id, actionID string, data map[string]any) bool {
	m.mu.Lock()
	p, ok := m.pending[key]
	if !ok || p.ID != id {
		m.mu.Unlock()
		return false
	}
	delete(m.pending, key)
	m.mu.Unlock()

	p.ch <- result{outcome: Outcome{
		Completed: true,
		Source:    SourceBrowser,
		Action:    actionID,
		Data:      data,
	}}
	return true
}

// Dismiss rejects the pending interaction for key with ErrDismissed. Returns
// false when nothing is pending.
func (m *Manager) Dismiss(key Key) bool {
	m.mu.Lock()
	p, ok := m.pending[key]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.pending, key)
	m.mu.Unlock()

	p.ch <- result{err: ErrDismissed}
	return true
}

// HasPending reports whether the key currently has an outstanding record.
func (m *Manager) HasPending(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key]
	return ok
}

// PendingID returns the outstanding interaction id for key, or "".
func (m *Manager) PendingID(key Key) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.pending[key]; ok {
		return p.ID
	}
	return ""
}

// Acknowledged builds the immediate outcome for a non-blocking render; the
// manager records nothing for these.
func Acknowledged() Outcome {
	return Outcome{Completed: true, Source: SourceTerminal, Action: "rendered"}
}
