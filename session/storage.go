package session

import (
	"encoding/json"
	"fmt"

	"blockterm/config"
)

// Storage persists finalized blocks between runs using the state interface.
type Storage struct {
	state config.HistoryStorage
}

// NewStorage creates a new storage instance
func NewStorage(state config.HistoryStorage) *Storage {
	return &Storage{state: state}
}

// SaveBlocks saves finalized blocks to disk. Running blocks are skipped:
// only history is durable.
func (s *Storage) SaveBlocks(blocks []Block) error {
	data := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Finalized() {
			data = append(data, b)
		}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal blocks: %w", err)
	}

	if err := s.state.SaveHistory(raw); err != nil {
		return fmt.Errorf("failed to save blocks: %w", err)
	}

	return nil
}

// LoadBlocks restores previously saved blocks from disk.
func (s *Storage) LoadBlocks() ([]Block, error) {
	raw := s.state.GetHistory()
	if len(raw) == 0 {
		return nil, nil
	}

	var blocks []Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("failed to parse saved blocks: %w", err)
	}

	return blocks, nil
}

// DeleteAll removes all stored blocks.
func (s *Storage) DeleteAll() error {
	return s.state.DeleteAllHistory()
}
