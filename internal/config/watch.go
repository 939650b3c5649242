package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 400 * time.Millisecond

// Watch reloads the config file at path whenever it changes and calls
// onReload with the freshly parsed config. Events are debounced since
// editors and atomic writes fire several events per save. Watch blocks until
// ctx is cancelled; a config that fails to parse is logged and skipped.
//
// The file's directory is watched rather than the file itself so that
// rename-based atomic saves keep working.
func Watch(ctx context.Context, path string, logger *zap.Logger, onReload func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)
	logger.Debug("watching config", zap.String("path", target))

	var mu sync.Mutex
	var pending *time.Timer
	reload := func() {
		cfg, loadErr := Load(target)
		if loadErr != nil {
			logger.Warn("config reload skipped", zap.Error(loadErr))
			return
		}
		logger.Info("config reloaded", zap.String("path", target))
		onReload(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			mu.Unlock()
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			mu.Lock()
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDebounce, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				logger.Debug("config watcher error", zap.Error(err))
			}
		}
	}
}
