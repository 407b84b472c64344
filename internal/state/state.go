// Package state persists the publish history between runs: which commit the
// last announcement covered and what has been posted.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Record is one published announcement.
type Record struct {
	Hash     string    `json:"hash"`
	Title    string    `json:"title"`
	PostedAt time.Time `json:"posted_at"`
}

// State is the on-disk publish history.
type State struct {
	LastPublishedHash string   `json:"last_published_hash"`
	Posted            []Record `json:"posted"`
}

// Load reads the state file. A missing file yields an empty state.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &st, nil
}

// Save writes the state file, creating parent directories as needed.
func (s *State) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// MarkPublished records a published announcement and advances the history
// cursor.
func (s *State) MarkPublished(hash, title string, at time.Time) {
	s.LastPublishedHash = hash
	s.Posted = append(s.Posted, Record{Hash: hash, Title: title, PostedAt: at})
}
