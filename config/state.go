package config

import (
	"blockterm/log"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	StateFileName = "state.json"
)

// HistoryStorage handles persisted block-history operations
type HistoryStorage interface {
	// SaveHistory saves the raw block history data
	SaveHistory(historyJSON json.RawMessage) error
	// GetHistory returns the raw block history data
	GetHistory() json.RawMessage
	// DeleteAllHistory removes all stored blocks
	DeleteAllHistory() error
}

// State represents the application state that persists between sessions
type State struct {
	// HistoryData stores the serialized finalized blocks as raw JSON
	HistoryData json.RawMessage `json:"history"`

	// mu serializes history mutation and the write-out to disk. The file
	// lock only covers cross-process access; in-process callers (debounced
	// saves, the quit path) run on separate goroutines.
	mu sync.Mutex

	// lastModTime tracks when we last read the state file (not serialized)
	lastModTime time.Time `json:"-"`
}

// DefaultState returns the default state
func DefaultState() *State {
	return &State{
		HistoryData: json.RawMessage("[]"),
	}
}

// LoadState loads the state from disk. If it cannot be done, we return the default state.
// This function acquires a shared lock to allow concurrent reads.
func LoadState() *State {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultState()
	}

	statePath := filepath.Join(configDir, StateFileName)

	// Acquire shared lock for reading
	lock := NewFileLock(statePath)
	if err := lock.RLock(); err != nil {
		log.WarningLog.Printf("failed to acquire read lock: %v", err)
		// Continue without lock - better to have stale data than fail
	} else {
		defer lock.Unlock()
	}

	var modTime time.Time
	if info, err := os.Stat(statePath); err == nil {
		modTime = info.ModTime()
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			defaultState := DefaultState()
			defaultState.lastModTime = time.Now()
			if saveErr := SaveState(defaultState); saveErr != nil {
				log.WarningLog.Printf("failed to save default state: %v", saveErr)
			}
			return defaultState
		}

		log.WarningLog.Printf("failed to get state file: %v", err)
		return DefaultState()
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		log.ErrorLog.Printf("failed to parse state file: %v", err)
		return DefaultState()
	}

	state.lastModTime = modTime
	return &state
}

// SaveState saves the state to disk.
// This function acquires an exclusive lock to prevent concurrent writes.
func SaveState(state *State) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	statePath := filepath.Join(configDir, StateFileName)

	// Acquire exclusive lock for writing
	lock := NewFileLock(statePath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(statePath, data, 0644); err != nil {
		return err
	}

	if info, err := os.Stat(statePath); err == nil {
		state.lastModTime = info.ModTime()
	}

	return nil
}

// HistoryStorage interface implementation

// SaveHistory saves the raw block history data. Safe for concurrent use:
// the mutex is held across the disk write so overlapping saves cannot
// interleave struct mutation and marshaling.
func (s *State) SaveHistory(historyJSON json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.HistoryData = historyJSON
	return SaveState(s)
}

// GetHistory returns the raw block history data
func (s *State) GetHistory() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.HistoryData
}

// DeleteAllHistory removes all stored blocks
func (s *State) DeleteAllHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.HistoryData = json.RawMessage("[]")
	return SaveState(s)
}

// GetLastModTime returns the modification time when this state was last read from disk.
func (s *State) GetLastModTime() time.Time {
	return s.lastModTime
}
