package tempfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audio-merger/internal/logging"
)

// SweepStale removes regular files in dir whose names start with prefix and
// whose modification time is older than maxAge. It is meant to run once at
// startup, before any job exists, to clear files orphaned by a crash.
// Returns the number of files and bytes removed.
func SweepStale(dir, prefix string, maxAge time.Duration) (int, int64, error) {
	if dir == "" {
		return 0, 0, nil
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read temp directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int
	var freedBytes int64

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix+"_") {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			logging.Warn("failed to get info for %s: %v", path, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			logging.Warn("failed to remove stale temp file %s: %v", path, err)
			continue
		}
		removed++
		freedBytes += info.Size()
	}

	if removed > 0 {
		logging.Info("Removed %d stale temp files from %s (%d bytes)", removed, dir, freedBytes)
	}
	return removed, freedBytes, nil
}
