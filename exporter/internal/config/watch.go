package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// reloadOps are the events after which the file may hold new content.
// Editors that save atomically produce Create (or Rename onto the path)
// instead of Write.
const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watch calls onChange with the freshly loaded Config whenever the file at
// path changes, until ctx is cancelled. The parent directory is watched so
// the file can be replaced by rename.
//
// A reload that fails to parse or validate is logged and skipped; the caller
// keeps serving the previous Config.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: new watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config: watch %s: %w", filepath.Dir(path), err)
	}
	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&reloadOps == 0 {
				continue
			}
			reload(path, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// reload loads path and hands the result to onChange when it is valid.
func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		// Mid-write or mid-rename states land here too; the next event retries.
		slog.Warn("config: reload skipped", "path", path, "err", err)
		return
	}
	slog.Info("config: reloaded", "path", path, "bounds", len(cfg.Exporter.Bounds))
	onChange(cfg)
}
