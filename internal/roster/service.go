package roster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ErrAlreadyRegistered is returned when a player ID is already present.
var ErrAlreadyRegistered = errors.New("player is already registered")

// Service manages the self-registration registry.
type Service struct {
	store *Store
	mu    sync.Mutex
}

// NewService creates a registry service backed by the given players file.
func NewService(playersFile string) *Service {
	return &Service{store: NewStore(playersFile)}
}

// Register appends a new player record with defaulted league fields.
func (s *Service) Register(userID, username, steamLink string) (Player, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(userID), 10, 64)
	if err != nil {
		return Player{}, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	players, err := s.store.Load()
	if err != nil {
		return Player{}, err
	}

	for _, p := range players {
		if p.ID == id {
			return Player{}, ErrAlreadyRegistered
		}
	}

	player := Player{
		ID:                  id,
		Name:                username,
		Position:            defaultPosition,
		Rating:              defaultRating,
		Team:                defaultTeam,
		EstimatedWorthEbits: defaultWorth,
		NegativeTraits:      map[string]any{},
		PositiveTraits:      map[string]any{},
		AllTimeStats:        map[string]any{},
		SteamAccountLink:    strings.TrimSpace(steamLink),
	}
	players = append(players, player)

	if err := s.store.Save(players); err != nil {
		return Player{}, err
	}
	return player, nil
}

// List returns all registered players.
func (s *Service) List() ([]Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load()
}
