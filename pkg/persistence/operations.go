package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studio/pkg/workflow"
)

// SessionRecord is a row in the sessions registry.
type SessionRecord struct {
	Project     string    `json:"project"`
	Session     string    `json:"session"`
	SessionType string    `json:"session_type"`
	LastState   string    `json:"last_state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SkillEvent is one row of the skill completion audit trail.
type SkillEvent struct {
	ID        int64     `json:"id"`
	Project   string    `json:"project"`
	Session   string    `json:"session"`
	Skill     string    `json:"skill"`
	NextState string    `json:"next_state"`
	NextSkill string    `json:"next_skill,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Operations provides methods for archive database operations.
type Operations struct {
	db *sql.DB
}

// NewOperations creates an Operations instance over the given connection.
func NewOperations(db *sql.DB) *Operations {
	return &Operations{db: db}
}

// UpsertSession inserts or refreshes a session registry row.
func (ops *Operations) UpsertSession(project, session, sessionType, lastState string) error {
	query := `
		INSERT INTO sessions (project, session, session_type, last_state)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project, session) DO UPDATE SET
			session_type = excluded.session_type,
			last_state = excluded.last_state,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
	`

	_, err := ops.db.Exec(query, project, session, sessionType, lastState)
	if err != nil {
		return fmt.Errorf("failed to upsert session %s/%s: %w", project, session, err)
	}
	return nil
}

// RecordSkillEvent appends one skill completion to the audit trail and
// upserts the session registry row, so a session archives its registry entry
// on its first event.
func (ops *Operations) RecordSkillEvent(project, session, skill, sessionType string, nextState workflow.StateName, nextSkill string) error {
	query := `
		INSERT INTO skill_events (project, session, skill, next_state, next_skill)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := ops.db.Exec(query, project, session, skill, string(nextState), nextSkill)
	if err != nil {
		return fmt.Errorf("failed to record skill event for %s/%s: %w", project, session, err)
	}

	if err := ops.UpsertSession(project, session, sessionType, string(nextState)); err != nil {
		return fmt.Errorf("failed to refresh session registry for %s/%s: %w", project, session, err)
	}
	return nil
}

// GetSession returns a registry row, or nil when absent.
func (ops *Operations) GetSession(project, session string) (*SessionRecord, error) {
	query := `
		SELECT project, session, session_type, last_state, created_at, updated_at
		FROM sessions WHERE project = ? AND session = ?
	`

	rec := &SessionRecord{}
	err := ops.db.QueryRow(query, project, session).Scan(
		&rec.Project, &rec.Session, &rec.SessionType, &rec.LastState,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s/%s: %w", project, session, err)
	}
	return rec, nil
}

// ListSessions returns every registry row ordered by last update, newest first.
func (ops *Operations) ListSessions() ([]*SessionRecord, error) {
	query := `
		SELECT project, session, session_type, last_state, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC
	`

	rows, err := ops.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*SessionRecord
	for rows.Next() {
		rec := &SessionRecord{}
		if err := rows.Scan(
			&rec.Project, &rec.Session, &rec.SessionType, &rec.LastState,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session row iteration error: %w", err)
	}
	return records, nil
}

// GetSkillEvents returns the audit trail for one session, oldest first.
func (ops *Operations) GetSkillEvents(project, session string) ([]*SkillEvent, error) {
	query := `
		SELECT id, project, session, skill, next_state, COALESCE(next_skill, ''), created_at
		FROM skill_events WHERE project = ? AND session = ?
		ORDER BY id ASC
	`

	rows, err := ops.db.Query(query, project, session)
	if err != nil {
		return nil, fmt.Errorf("failed to query skill events for %s/%s: %w", project, session, err)
	}
	defer func() { _ = rows.Close() }()

	var events []*SkillEvent
	for rows.Next() {
		ev := &SkillEvent{}
		if err := rows.Scan(
			&ev.ID, &ev.Project, &ev.Session, &ev.Skill,
			&ev.NextState, &ev.NextSkill, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan skill event row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("skill event row iteration error: %w", err)
	}
	return events, nil
}
