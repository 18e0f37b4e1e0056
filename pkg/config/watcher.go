package config

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of filesystem events (editors often
// emit several per save) into one reload.
const watchDebounce = 300 * time.Millisecond

// WatchFixtures watches the base directory of a fixture glob and calls
// reload after relevant changes. It blocks until ctx is cancelled.
func WatchFixtures(ctx context.Context, pattern string, log *slog.Logger, reload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dir := GlobBase(pattern)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	log.Info("watching fixtures", "dir", dir)

	var timer *time.Timer
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
			if !isFixtureFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			log.Debug("fixture change detected", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("fixture watcher error", "error", err)
		}
	}
}

// isFixtureFile reports whether a changed path looks like a fixture file.
func isFixtureFile(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") ||
		strings.HasSuffix(path, ".json")
}
