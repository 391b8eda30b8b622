package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stategraph/internal/testutils"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/ports"
	"github.com/aretw0/stategraph/pkg/refiner"
	"github.com/aretw0/stategraph/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	saves int
	mu    sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, doc *domain.Document) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.Store.Save(ctx, sessionID, doc)
}

// FailingStore rejects every Save after the first.
type FailingStore struct {
	*memory.Store
	calls int
}

func (s *FailingStore) Save(ctx context.Context, sessionID string, doc *domain.Document) error {
	s.calls++
	if s.calls > 1 {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, sessionID, doc)
}

// CountingLocker records lock usage without real coordination.
type CountingLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	lastTTL  time.Duration
	failWith error
}

func (l *CountingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.locks++
	l.lastTTL = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func TestManager_StartPersistsSnapshot(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()

	id, err := mgr.Start(ctx, testutils.MustGraph(t, testutils.SaveScenarioDoc()))
	require.NoError(t, err)
	assert.Len(t, id, 36, "uuid")

	doc, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, doc.Refined())
	assert.Len(t, doc.Graph.States, 3)

	ok, err := mgr.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mgr.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_UpdateReturnsDiffAndPersists(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()
	require.NoError(t, mgr.StartWithID(ctx, "s", testutils.MustGraph(t, testutils.SaveScenarioDoc())))

	diff, err := mgr.Update(ctx, "s", func(r *refiner.Refiner) error {
		return r.MergeStates([]string{"save_modal_open", "save_dialog_open"}, "save_modal_open", nil)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"save_dialog_open"}, diff.StatesRemoved)
	assert.Equal(t, []string{"save_modal_open"}, diff.StatesRelabeled)
	assert.Equal(t, []domain.Transition{{From: "home", Via: "open_save2", To: "save_dialog_open"}}, diff.TransitionsRemoved)

	doc, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, doc.Graph.States, 2)
	n, _ := doc.MetadataInt(domain.MetaOriginalStateCount)
	assert.Equal(t, 3, n)
}

func TestManager_ResumesFromStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := session.NewManager(store)
	require.NoError(t, first.StartWithID(ctx, "s", testutils.MustGraph(t, testutils.EditorDoc())))
	_, err := first.Update(ctx, "s", func(r *refiner.Refiner) error {
		r.RemoveState("bare")
		r.RemoveState("home")
		return nil
	})
	require.NoError(t, err)

	// A fresh manager simulates a restart.
	second := session.NewManager(store)
	err = second.View(ctx, "s", func(r *refiner.Refiner) error {
		assert.False(t, r.HasState("home"))
		assert.Equal(t, domain.Counts{States: 12, Transitions: 3}, r.Counts())
		assert.Equal(t, domain.Counts{States: 14, Transitions: 6}, r.Baseline())
		return nil
	})
	require.NoError(t, err)
}

func TestManager_UnknownSession(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	err := mgr.View(context.Background(), "ghost", func(*refiner.Refiner) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = mgr.Update(context.Background(), "ghost", func(*refiner.Refiner) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_FailedUpdateIsNotPersisted(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()
	require.NoError(t, mgr.StartWithID(ctx, "s", testutils.MustGraph(t, testutils.SaveScenarioDoc())))

	_, err := mgr.Update(ctx, "s", func(r *refiner.Refiner) error {
		r.RemoveState("home")
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")

	require.NoError(t, mgr.View(ctx, "s", func(r *refiner.Refiner) error {
		assert.True(t, r.HasState("home"), "cached refiner must be discarded after a failed update")
		return nil
	}))
}

func TestManager_SaveFailureDropsCache(t *testing.T) {
	store := &FailingStore{Store: memory.NewStore()}
	mgr := session.NewManager(store)
	ctx := context.Background()
	require.NoError(t, mgr.StartWithID(ctx, "s", testutils.MustGraph(t, testutils.SaveScenarioDoc())))

	_, err := mgr.Update(ctx, "s", func(r *refiner.Refiner) error {
		r.RemoveState("home")
		return nil
	})
	assert.ErrorContains(t, err, "disk full")

	require.NoError(t, mgr.View(ctx, "s", func(r *refiner.Refiner) error {
		assert.True(t, r.HasState("home"))
		return nil
	}))
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	mgr := session.NewManager(store)
	ctx := context.Background()
	require.NoError(t, mgr.StartWithID(ctx, "race", testutils.MustGraph(t, testutils.EditorDoc())))

	ids := []string{"home", "bare", "config_state", "internal_flag", "ready_save", "files_empty"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := mgr.Update(ctx, "race", func(r *refiner.Refiner) error {
				r.RemoveState(id)
				return nil
			})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	doc, err := store.Load(ctx, "race")
	require.NoError(t, err)
	assert.Len(t, doc.Graph.States, 14-len(ids), "no update may be lost")
	assert.Equal(t, 1+len(ids), store.saves)
}

func TestManager_DistributedLocker(t *testing.T) {
	store := memory.NewStore()
	locker := &CountingLocker{}
	mgr := session.NewManager(store, session.WithLocker(locker), session.WithLockTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, mgr.StartWithID(ctx, "s", testutils.MustGraph(t, testutils.SaveScenarioDoc())))

	// Another replica edits the stored snapshot directly.
	other := session.NewManager(store)
	_, err := other.Update(ctx, "s", func(r *refiner.Refiner) error {
		r.RelabelState("home", []string{"Start page"})
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, mgr.View(ctx, "s", func(r *refiner.Refiner) error {
		s, _ := r.State("home")
		assert.Equal(t, []string{"Start page"}, s.Labels, "locked managers always read the store")
		return nil
	}))

	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)
	assert.Equal(t, time.Minute, locker.lastTTL)

	locker.failWith = errors.New("redis down")
	err = mgr.View(ctx, "s", func(*refiner.Refiner) error { return nil })
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

func TestManager_RefinerOptions(t *testing.T) {
	mgr := session.NewManager(memory.NewStore(), session.WithRefinerOptions(refiner.WithLowValueRules()))
	ctx := context.Background()
	require.NoError(t, mgr.StartWithID(ctx, "s", testutils.MustGraph(t, testutils.EditorDoc())))

	require.NoError(t, mgr.View(ctx, "s", func(r *refiner.Refiner) error {
		assert.Empty(t, r.Analyze().LowValueStates)
		return nil
	}))
}

func TestManager_ListAndDelete(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()
	g := testutils.MustGraph(t, testutils.SaveScenarioDoc())

	for i := 0; i < 3; i++ {
		require.NoError(t, mgr.StartWithID(ctx, fmt.Sprintf("s%d", i), g))
	}
	require.NoError(t, mgr.Delete(ctx, "s1"))

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s0", "s2"}, ids)
	assert.Error(t, mgr.StartWithID(ctx, "", g))
}
