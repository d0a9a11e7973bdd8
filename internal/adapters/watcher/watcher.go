// Package watcher reports changes to settings documents using fsnotify.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/knob/internal/core/domain"
	"go.trai.ch/knob/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultDebounceWindow is the default time window for debouncing file events.
const DefaultDebounceWindow = 50 * time.Millisecond

// Watcher implements ports.Watcher.
// Documents are replaced by rename on commit, so the parent directories are watched and events
// are filtered by name.
type Watcher struct {
	logger ports.Logger
	window time.Duration
}

var _ ports.Watcher = (*Watcher)(nil)

// New creates a Watcher coalescing events within window.
func New(logger ports.Logger, window time.Duration) *Watcher {
	return &Watcher{logger: logger, window: window}
}

// Watch calls onChange after every burst of changes to any of paths until ctx is done.
func (w *Watcher) Watch(ctx context.Context, paths []string, onChange func()) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(domain.ErrWatchFailed, err.Error())
	}
	defer func() { _ = fsWatcher.Close() }()

	targets := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return zerr.With(zerr.Wrap(domain.ErrWatchFailed, err.Error()), "path", p)
		}
		targets[abs] = struct{}{}
	}
	for target := range targets {
		dir := filepath.Dir(target)
		if err := fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(domain.ErrWatchFailed, err.Error()), "path", dir)
		}
	}

	changed := make(chan struct{}, 1)
	debouncer := NewDebouncer(w.window, func([]string) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			onChange()
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if _, watched := targets[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				debouncer.Add(event.Name)
			}
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(fmt.Sprintf("watcher: file system error: %v", err))
		}
	}
}
