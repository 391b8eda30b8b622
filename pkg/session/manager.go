package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/ports"
	"github.com/aretw0/stategraph/pkg/refiner"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates refinement sessions, ensuring operations on one
// session never overlap. It uses reference counting to garbage collect
// unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	cacheMu sync.Mutex
	cache   map[string]*refiner.Refiner

	locker      ports.DistributedLocker
	lockTTL     time.Duration
	refinerOpts []refiner.Option
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking and disables the local refiner cache.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithRefinerOptions configures every Refiner the Manager creates.
func WithRefinerOptions(opts ...refiner.Option) Option {
	return func(m *Manager) {
		m.refinerOpts = append(m.refinerOpts, opts...)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new session Manager with the given snapshot store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		cache:   make(map[string]*refiner.Refiner),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start opens a new session over a copy of g and persists its first snapshot.
// It returns the generated session ID.
func (m *Manager) Start(ctx context.Context, g *domain.Graph) (string, error) {
	id := uuid.NewString()
	if err := m.StartWithID(ctx, id, g); err != nil {
		return "", err
	}
	return id, nil
}

// StartWithID opens a session under a caller-chosen ID, replacing any session
// stored under that ID.
func (m *Manager) StartWithID(ctx context.Context, sessionID string, g *domain.Graph) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		r := refiner.New(g, m.refinerOpts...)
		if err := m.store.Save(ctx, sessionID, r.RefinedGraph()); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.remember(sessionID, r)
		m.logger.Debug("session started", "session_id", sessionID, "states", r.Counts().States)
		return nil
	})
}

// Exists reports whether the session is cached or stored.
func (m *Manager) Exists(ctx context.Context, sessionID string) (bool, error) {
	if m.cached(sessionID) != nil {
		return true, nil
	}
	_, err := m.store.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return false, nil
	}
	return err == nil, err
}

// View runs fn against the session's Refiner without persisting anything.
// fn must not mutate the Refiner or retain it.
func (m *Manager) View(ctx context.Context, sessionID string, fn func(*refiner.Refiner) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		r, err := m.open(ctx, sessionID)
		if err != nil {
			return err
		}
		return fn(r)
	})
}

// Update runs fn against the session's Refiner and persists the resulting
// snapshot. It returns the changes fn made. If fn fails, nothing is persisted
// and the cached Refiner is dropped so the next call resumes from the store.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*refiner.Refiner) error) (*domain.GraphDiff, error) {
	var diff *domain.GraphDiff
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		r, err := m.open(ctx, sessionID)
		if err != nil {
			return err
		}

		before := r.Snapshot()
		if err := fn(r); err != nil {
			m.forget(sessionID)
			return err
		}
		diff = domain.Diff(before, r.Snapshot())

		if err := m.store.Save(ctx, sessionID, r.RefinedGraph()); err != nil {
			m.forget(sessionID)
			return fmt.Errorf("failed to persist session %s: %w", sessionID, err)
		}
		return nil
	})
	return diff, err
}

// Delete removes the session from the cache and the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.forget(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// open returns the session's Refiner, resuming it from the store when it is
// not cached. Callers hold the session lock.
func (m *Manager) open(ctx context.Context, sessionID string) (*refiner.Refiner, error) {
	if r := m.cached(sessionID); r != nil {
		return r, nil
	}

	doc, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, err)
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	g, err := domain.NewGraph(doc)
	if err != nil {
		return nil, fmt.Errorf("session %s has a corrupt snapshot: %w", sessionID, err)
	}

	r := refiner.New(g, m.refinerOpts...)
	m.remember(sessionID, r)
	m.logger.Debug("session resumed", "session_id", sessionID, "states", r.Counts().States)
	return r, nil
}

func (m *Manager) cached(sessionID string) *refiner.Refiner {
	if m.locker != nil {
		return nil
	}
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	return m.cache[sessionID]
}

func (m *Manager) remember(sessionID string, r *refiner.Refiner) {
	if m.locker != nil {
		return
	}
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	m.cache[sessionID] = r
}

func (m *Manager) forget(sessionID string) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	delete(m.cache, sessionID)
}
