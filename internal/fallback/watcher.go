package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads catalog overrides when files in a directory change.
type Watcher struct {
	lib    *Library
	dir    string
	logger *slog.Logger
	fsw    *fsnotify.Watcher

	// debounce absorbs editor write bursts into one reload
	debounce time.Duration
}

// NewWatcher creates a watcher over dir feeding lib. The directory is
// loaded once immediately so overrides apply before the first event.
func NewWatcher(lib *Library, dir string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	if err := lib.LoadDir(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{
		lib:      lib,
		dir:      dir,
		logger:   logger,
		fsw:      fsw,
		debounce: 200 * time.Millisecond,
	}, nil
}

// Run processes file events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.fsw.Close() }()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isCatalogFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.lib.LoadDir(w.dir); err != nil {
				w.logger.Warn("catalog reload failed", "dir", w.dir, "error", err)
				continue
			}
			w.logger.Info("catalog overrides reloaded", "dir", w.dir)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

func isCatalogFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
