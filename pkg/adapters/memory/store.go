package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/rewind/pkg/domain"
)

// Store implements ports.TrajectoryStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Trajectory
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Trajectory),
	}
}

// Save stores a copy of the trajectory, so later mutation by the caller is not visible.
func (s *Store) Save(ctx context.Context, traj *domain.Trajectory) error {
	copied := traj.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[traj.ID] = copied
	return nil
}

// Load retrieves a copy of the trajectory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Trajectory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	traj, ok := s.data[id]
	if !ok {
		return nil, domain.ErrTrajectoryNotFound
	}
	return traj.Clone(), nil
}

// Delete removes the trajectory.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored trajectory IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
