package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with the reloaded params every time the file at path
// is written or replaced, until ctx is done. Invalid files are logged and
// skipped. The directory is watched rather than the file so that editors
// which save by renaming are still observed.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(Params)) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("watch %q: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %q: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				params, err := Load(abs)
				if err != nil {
					logger.Warn("ignoring params change", "path", abs, "error", err)
					continue
				}
				logger.Info("params changed", "path", abs)
				onChange(params)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("params watcher", "error", err)
			}
		}
	}()
	return nil
}
