package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	playersFileMode = 0644
	playersDirMode  = 0755
)

// Store persists the players registry as a JSON array on disk.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a players store at the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the registry from disk. A missing file is an empty registry.
func (s *Store) Load() ([]Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked()
}

// Save writes the registry to disk.
func (s *Store) Save(players []Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(players)
}

func (s *Store) loadLocked() ([]Player, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Player{}, nil
		}
		return nil, fmt.Errorf("read players file: %w", err)
	}

	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("parse players file: %w", err)
	}
	if players == nil {
		players = []Player{}
	}
	return players, nil
}

func (s *Store) saveLocked(players []Player) error {
	if players == nil {
		players = []Player{}
	}

	encoded, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, playersDirMode); err != nil {
		return fmt.Errorf("create players dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "players-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp players file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(encoded); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp players file: %w", err)
	}
	if err := tmpFile.Chmod(playersFileMode); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp players file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp players file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace players file: %w", err)
	}
	return nil
}
