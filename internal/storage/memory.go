// Package storage keeps the journal of teleop cycles.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/voiceteleop/internal/domain"
	"github.com/hammamikhairi/voiceteleop/internal/logger"
)

// Compile-time interface check.
var _ domain.CycleStore = (*MemoryStore)(nil)

// DefaultCapacity is how many cycles are kept when no capacity is given.
const DefaultCapacity = 1000

// MemoryStore is an in-memory cycle journal holding the most recent
// cycles. Safe for concurrent access.
type MemoryStore struct {
	mu       sync.RWMutex
	cycles   []*domain.Cycle
	capacity int
	log      *logger.Logger
}

// NewMemoryStore creates an empty journal. capacity <= 0 means
// DefaultCapacity.
func NewMemoryStore(capacity int, log *logger.Logger) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity, log: log}
}

// Append records a cycle, assigning an ID and start time if missing.
// The oldest cycle is dropped once the journal is full.
func (s *MemoryStore) Append(ctx context.Context, c *domain.Cycle) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = time.Now()
	}
	cp := *c

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cycles) == s.capacity {
		s.cycles = append(s.cycles[:0], s.cycles[1:]...)
	}
	s.cycles = append(s.cycles, &cp)
	s.log.Debug("journaled cycle %s (command=%s, flushed=%v)", c.ID, c.Command, c.Flushed)
	return nil
}

// List returns copies of the journaled cycles, oldest first.
func (s *MemoryStore) List(ctx context.Context) ([]*domain.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Cycle, len(s.cycles))
	for i, c := range s.cycles {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

// Get returns one cycle by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.cycles {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	s.log.Debug("cycle not found: %s", id)
	return nil, domain.ErrNotFound
}

// Summary counts journaled cycles.
type Summary struct {
	Cycles    int
	Matched   int
	Unmatched int
	Failed    int
	ByCommand map[domain.Command]int
}

// Summarize tallies the journal.
func (s *MemoryStore) Summarize(ctx context.Context) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{ByCommand: make(map[domain.Command]int)}
	for _, c := range s.cycles {
		sum.Cycles++
		switch {
		case c.Err != "":
			sum.Failed++
		case c.Command == domain.NoMatch:
			sum.Unmatched++
		default:
			sum.Matched++
		}
		if c.Command != domain.NoMatch {
			sum.ByCommand[c.Command]++
		}
	}
	return sum
}
