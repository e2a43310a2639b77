package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lixenwraith/termraster/core"
)

// watchDebounce collapses the burst of events one editor save produces
const watchDebounce = 150 * time.Millisecond

// Watch calls load and then fn after each change to path, until ctx is done.
// The parent directory is watched so atomic-rename saves are seen.
func Watch(ctx context.Context, path string, load func() (Config, error), fn func(Config, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	core.Go(func() {
		defer w.Close()

		timer := time.NewTimer(watchDebounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					timer.Reset(watchDebounce)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Debug("config watch error", "path", abs, "error", err)
			case <-timer.C:
				cfg, err := load()
				fn(cfg, err)
			}
		}
	})
	return nil
}
