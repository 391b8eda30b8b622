// Package watch reloads a graph document when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the burst of events an editor or an atomic rename
// produces into one reload.
const DefaultDebounce = 200 * time.Millisecond

// File calls fn each time path is written or replaced, once events have been
// quiet for debounce. It blocks until ctx is done. Errors from fn are logged
// and watching goes on.
//
// The parent directory is watched rather than the file, so replacing the file
// through a rename is seen as well.
func File(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, fn func(context.Context) error) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	logger.Info("watching graph", "path", target)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("graph changed", "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil {
				logger.Warn("reload failed", "err", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}
