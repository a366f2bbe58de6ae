// Package store persists session records as one JSON file per
// (project, session) pair. Whichever caller holds the file performs
// read-modify-write; no in-process lock is taken.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"studio/pkg/session"
)

// ErrSessionNotFound is returned when no state file exists for the pair.
var ErrSessionNotFound = errors.New("session not found")

// Store manages persistent session state storage under a base directory,
// one subdirectory per project.
type Store struct {
	baseDir string
}

// NewStore creates a session store rooted at baseDir, creating it if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save persists the session record, creating the project directory on first
// write.
func (s *Store) Save(project, name string, state *session.State) error {
	if project == "" || name == "" {
		return fmt.Errorf("project and session name cannot be empty")
	}
	if state == nil {
		return fmt.Errorf("session state cannot be nil")
	}

	state.Touch()

	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s/%s: %w", project, name, err)
	}

	projectDir := filepath.Join(s.baseDir, sanitize(project))
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return fmt.Errorf("failed to create project directory %s: %w", projectDir, err)
	}

	filename := s.stateFilename(project, name)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write state file for %s/%s: %w", project, name, err)
	}
	return nil
}

// Load retrieves the persisted session record, or ErrSessionNotFound.
func (s *Store) Load(project, name string) (*session.State, error) {
	if project == "" || name == "" {
		return nil, fmt.Errorf("project and session name cannot be empty")
	}

	filename := s.stateFilename(project, name)
	fileData, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrSessionNotFound, project, name)
		}
		return nil, fmt.Errorf("failed to read state file for %s/%s: %w", project, name, err)
	}

	var state session.State
	if err := json.Unmarshal(fileData, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state for %s/%s: %w", project, name, err)
	}
	return &state, nil
}

// Delete removes the persisted state for the pair. Missing files are not an
// error.
func (s *Store) Delete(project, name string) error {
	filename := s.stateFilename(project, name)
	if err := os.Remove(filename); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete state file for %s/%s: %w", project, name, err)
	}
	return nil
}

// ListSessions returns the session names that have persisted state for the
// project.
func (s *Store) ListSessions(project string) ([]string, error) {
	projectDir := filepath.Join(s.baseDir, sanitize(project))
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read project directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "SESSION_") && strings.HasSuffix(name, ".json") {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(name, "SESSION_"), ".json"))
		}
	}
	return names, nil
}

func (s *Store) stateFilename(project, name string) string {
	return filepath.Join(s.baseDir, sanitize(project), fmt.Sprintf("SESSION_%s.json", sanitize(name)))
}

// sanitize keeps identifiers filesystem-safe.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, id)
}
