package memory

import (
	"maps"
	"sync"

	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"
)

// Store keeps the whole game in memory. Repositories read and write its maps
// without locking; callers go through TxManager, which holds mu.
type Store struct {
	mu          sync.Mutex
	progression *economy.Progression
	buildings   map[string]fleet.Building
	vehicles    map[string]fleet.Vehicle
	missions    map[string]fleet.Mission
	events      []ports.Event
}

func NewStore() *Store {
	return &Store{
		buildings: make(map[string]fleet.Building),
		vehicles:  make(map[string]fleet.Vehicle),
		missions:  make(map[string]fleet.Mission),
	}
}

// snapshot is the store state at the start of a transaction. Repositories
// replace map entries and the progression pointer instead of mutating them,
// so shallow copies are enough.
type snapshot struct {
	progression *economy.Progression
	buildings   map[string]fleet.Building
	vehicles    map[string]fleet.Vehicle
	missions    map[string]fleet.Mission
	events      int
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		progression: s.progression,
		buildings:   maps.Clone(s.buildings),
		vehicles:    maps.Clone(s.vehicles),
		missions:    maps.Clone(s.missions),
		events:      len(s.events),
	}
}

func (s *Store) restore(snap snapshot) {
	s.progression = snap.progression
	s.buildings = snap.buildings
	s.vehicles = snap.vehicles
	s.missions = snap.missions
	s.events = s.events[:snap.events]
}
