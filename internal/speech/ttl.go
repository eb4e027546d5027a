package speech

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const ttlWorkerInterval = 5 * time.Minute

// Files the TTL worker may remove. The shared fixed-mode file is never
// matched.
var expirablePatterns = []string{
	"response-*.mp3",
	".speech-*.tmp",
}

// CleanupCallback is called for every file removed by the TTL worker.
type CleanupCallback func(fileName string)

// StartTTLWorker runs a background goroutine that periodically removes
// per-session audio files in dir older than ttl. A ttl <= 0 disables it.
func StartTTLWorker(ctx context.Context, dir string, ttl time.Duration, logger *slog.Logger, onCleanup CleanupCallback) {
	if ttl <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	interval := ttlWorkerInterval
	if ttl < interval {
		interval = ttl
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		logger.Info("Audio TTL worker started", "dir", dir, "interval", interval, "ttl", ttl)

		for {
			select {
			case now := <-ticker.C:
				removed, err := removeExpired(dir, ttl, now, onCleanup)
				if err != nil {
					logger.Error("Audio TTL worker sweep failed", "dir", dir, "error", err)
				}
				if removed > 0 {
					logger.Info("Audio TTL worker cleanup completed", "removed", removed)
				}
			case <-ctx.Done():
				logger.Info("Audio TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// removeExpired deletes expirable files in dir last modified before
// now-ttl and returns how many were removed. It keeps going past single
// file errors and reports them joined.
func removeExpired(dir string, ttl time.Duration, now time.Time, onCleanup CleanupCallback) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read audio directory: %w", err)
	}

	cutoff := now.Add(-ttl)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !isExpirable(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("remove %s: %w", entry.Name(), err))
			}
			continue
		}
		removed++
		if onCleanup != nil {
			onCleanup(entry.Name())
		}
	}

	return removed, errors.Join(errs...)
}

func isExpirable(name string) bool {
	for _, pattern := range expirablePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
