package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// reloadDebounce groups the burst of events editors emit when saving.
const reloadDebounce = 200 * time.Millisecond

// Watch reloads the config file whenever it changes and passes the new
// value to onChange. It watches the parent directory so that files replaced
// by rename (as most editors do) are picked up. Watch blocks until ctx is
// done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := Load(path)
			if err != nil {
				logger.Warn("config reload failed: %v", err)
				continue
			}
			cfg.ApplyEnv()
			logger.Info("config reloaded from %s", path)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error: %v", err)
		}
	}
}
