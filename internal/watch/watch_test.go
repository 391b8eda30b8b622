package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_CallsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watch.File(ctx, path, 20*time.Millisecond, logging.NewNop(), func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()

	// Changes to other files in the directory are ignored; writes to the
	// watched file are retried until the watcher is set up.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"graph":{}}`), 0o644)
		return calls.Load() > 0
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestFile_MissingDirectory(t *testing.T) {
	err := watch.File(context.Background(), filepath.Join(t.TempDir(), "nope", "graph.json"), time.Millisecond, logging.NewNop(),
		func(context.Context) error { return nil })
	assert.Error(t, err)
}
