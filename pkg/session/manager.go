package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed holder can keep a trajectory locked.
const DefaultLockTTL = 30 * time.Second

// Stepper applies one raw action to a trajectory. *rewind.Engine satisfies it.
type Stepper interface {
	Step(ctx context.Context, traj *domain.Trajectory, raw map[string]any) domain.StepResult
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns trajectories on behalf of concurrent callers: every operation on one id runs
// under that id's lock, so steps on a trajectory are applied one at a time.
// Unused locks are garbage collected by reference counting.
type Manager struct {
	store   ports.TrajectoryStore
	stepper Stepper

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables cross-process locking on top of the local mutexes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces the uuid generator used by Create.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a Manager that persists to store and steps with stepper.
func NewManager(store ports.TrajectoryStore, stepper Stepper, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		stepper: stepper,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu, then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Create starts an empty trajectory. An empty id gets a generated one.
// Creating an id that already exists fails.
func (m *Manager) Create(ctx context.Context, id string) (*domain.Trajectory, error) {
	if id == "" {
		id = m.newID()
	}
	var traj *domain.Trajectory
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, id)
		if err == nil {
			return fmt.Errorf("%w: %s", domain.ErrTrajectoryExists, id)
		}
		if !errors.Is(err, domain.ErrTrajectoryNotFound) {
			return fmt.Errorf("failed to check trajectory existence: %w", err)
		}

		traj = domain.NewTrajectory(id)
		if err := m.store.Save(ctx, traj); err != nil {
			return fmt.Errorf("failed to initialize trajectory: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.DebugContext(ctx, "trajectory created", "trajectory_id", id)
	return traj, nil
}

// Load retrieves a trajectory.
func (m *Manager) Load(ctx context.Context, id string) (*domain.Trajectory, error) {
	var traj *domain.Trajectory
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		traj, err = m.store.Load(ctx, id)
		return err
	})
	return traj, err
}

// Step loads the trajectory, applies raw to it and saves it back, all under its lock.
// It returns the result with the trajectory as it was just before the step and as it is
// after it, so callers can diff the two without racing other writers.
// The result is returned even when the step was rejected; the error reports store failures
// only. Rejected steps are persisted too, since they still count as steps.
func (m *Manager) Step(ctx context.Context, id string, raw map[string]any) (domain.StepResult, *domain.Trajectory, *domain.Trajectory, error) {
	var (
		res    domain.StepResult
		before *domain.Trajectory
		after  *domain.Trajectory
	)
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		after, err = m.store.Load(ctx, id)
		if err != nil {
			return err
		}
		before = after.Clone()
		res = m.stepper.Step(ctx, after, raw)
		if err := m.store.Save(ctx, after); err != nil {
			return fmt.Errorf("failed to save trajectory: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.StepResult{}, nil, nil, err
	}
	return res, before, after, nil
}

// Delete removes the trajectory from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying trajectory store.
func (m *Manager) Store() ports.TrajectoryStore {
	return m.store
}

// WithLock executes fn while holding the lock for the trajectory.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"trajectory_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
