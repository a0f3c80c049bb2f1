package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the config file for writes and hot-reloads it. Editors save
// in bursts, so events are debounced; a file that fails to parse or validate
// is logged and ignored, keeping the prior config live.
//
// Watch blocks until ctx is cancelled. Run it in its own goroutine.
func (m *Manager) Watch(ctx context.Context, logger *slog.Logger) error {
	if m.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors often replace the file by
	// rename, which drops a direct file watch.
	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target, err := filepath.Abs(m.path)
	if err != nil {
		target = m.path
	}

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	reload := make(chan struct{}, 1)

	logger.Info("watching config file", "path", m.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, aerr := filepath.Abs(ev.Name)
			if aerr != nil || abs != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			if err := m.replaceFromFile(); err != nil {
				logger.Warn("config reload rejected; keeping prior config", "error", err)
				continue
			}
			logger.Info("config reloaded", "path", m.path)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", werr)
		}
	}
}
