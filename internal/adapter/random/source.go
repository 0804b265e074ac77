// Package random provides the mission generator's source of randomness.
package random

import (
	"math/rand"
	"sync"
	"time"

	"emergencyworldwide/internal/app/ports"
)

// Source is a mutex-guarded math/rand generator.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New seeds a Source. A zero seed uses the current time.
func New(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

var _ ports.Random = (*Source)(nil)
