package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "MERGE_WORKERS"

// Count returns the number of workers for a task whose per-worker CPU demand
// is described by multiplier. It respects container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for a single-threaded CPU-bound task
//   - 0.5 for tasks that are themselves multi-threaded (an ffmpeg run)
//
// The limit parameter caps the worker count. Use 0 for no limit.
//
// Can be overridden with the MERGE_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForTranscode returns the default number of concurrent ffmpeg runs.
// ffmpeg spreads one filter graph over several threads, so half a worker
// per CPU keeps the host from oversubscribing.
func ForTranscode(limit int) int {
	return Count(0.5, limit)
}

// Resolve returns configured when it is positive, otherwise the automatic
// transcode worker count capped at limit.
func Resolve(configured, limit int) int {
	if configured > 0 {
		if limit > 0 && configured > limit {
			return limit
		}
		return configured
	}
	return ForTranscode(limit)
}
