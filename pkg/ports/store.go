package ports

import (
	"context"

	"github.com/aretw0/rewind/pkg/domain"
)

// TrajectoryStore defines the interface for persisting trajectories between steps.
type TrajectoryStore interface {
	// Save persists the trajectory under its ID.
	Save(ctx context.Context, traj *domain.Trajectory) error

	// Load retrieves a trajectory by ID.
	// Returns domain.ErrTrajectoryNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Trajectory, error)

	// Delete removes a trajectory. Deleting a missing trajectory is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of the stored trajectories, sorted.
	List(ctx context.Context) ([]string, error)
}
