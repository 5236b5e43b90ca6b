package config

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/1broseidon/monarrange/internal/logger"
)

// Watch reloads path whenever it changes on disk and hands the result to fn.
// Invalid files are logged and skipped. Watch blocks until ctx is done.
//
// The parent directory is watched so editors that replace the file through a
// rename are still seen.
func Watch(ctx context.Context, path string, fn func(*LoadResult)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config file watcher: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error("closing config file watcher", "error", err)
		}
	}()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("adding config directory to watcher: %w", err)
	}
	logger.Debug("config watcher started", "path", path)

	lastHash, _ := fileHash(path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			h, err := fileHash(path)
			if err != nil {
				continue
			}
			if h == lastHash {
				logger.Debug("config watcher: identical content, skipping")
				continue
			}
			lastHash = h

			res, err := LoadFromPath(path)
			if err != nil {
				logger.Warn("config reload failed", "error", err)
				continue
			}
			logger.Info("config reloaded", "path", path)
			fn(res)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("config watcher fsnotify error: %w", err)
		}
	}
}

func fileHash(path string) ([32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}
