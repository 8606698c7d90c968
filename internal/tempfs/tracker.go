package tempfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"audio-merger/internal/filesystem"
	"audio-merger/internal/logging"
	"audio-merger/internal/metrics"
)

// DefaultPrefix is prepended to every file name issued by a Tracker.
const DefaultPrefix = "audio_merger"

// ReleaseOutcome reports what happened to one tracked path during ReleaseAll.
type ReleaseOutcome struct {
	Path    string
	Removed bool
	Missing bool
	Err     error
}

// OK reports whether the path is gone, either removed now or never created.
func (o ReleaseOutcome) OK() bool {
	return o.Err == nil
}

// Tracker records the temp paths owned by one job and releases them once.
type Tracker struct {
	dir    string
	prefix string
	jobID  string
	retry  filesystem.RetryConfig
	log    *logging.JobLogger

	mu       sync.Mutex
	paths    []string
	seen     map[string]struct{}
	released bool
}

// New creates a tracker issuing names under dir for the given job.
func New(dir, prefix, jobID string) *Tracker {
	if dir == "" {
		dir = os.TempDir()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Tracker{
		dir:    dir,
		prefix: prefix,
		jobID:  jobID,
		retry:  filesystem.DefaultRetryConfig(),
		log:    logging.ForJob(jobID),
		seen:   make(map[string]struct{}),
	}
}

// Dir returns the directory the tracker issues paths in.
func (t *Tracker) Dir() string {
	return t.dir
}

// NewPath builds a unique path for role and registers it before the file
// exists. Role is reduced to a file-name safe form.
func (t *Tracker) NewPath(role, ext string) string {
	path := PathFor(t.dir, t.prefix, t.jobID, role, ext)
	t.Track(path)
	return path
}

// PathFor returns the name a tracker for jobID would issue for role without
// registering it. Planning uses it to stay free of side effects; the caller
// must Track the result before anything creates the file.
func PathFor(dir, prefix, jobID, role, ext string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s%s", prefix, jobID, safeRole(role), ext))
}

// Create registers a fresh path for role and creates the file. The path stays
// tracked even when creation fails.
func (t *Tracker) Create(role, ext string) (*os.File, string, error) {
	path := t.NewPath(role, ext)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, path, fmt.Errorf("failed to create temp file %s: %w", path, err)
	}
	return f, path, nil
}

// Track registers an externally created path. Registering the same path
// twice has no effect. A path registered after ReleaseAll is removed at once.
func (t *Tracker) Track(path string) {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		t.log.Warn("path registered after release, removing immediately: %s", path)
		t.release(path)
		return
	}
	if _, ok := t.seen[path]; !ok {
		t.seen[path] = struct{}{}
		t.paths = append(t.paths, path)
	}
	t.mu.Unlock()
}

// Paths returns a copy of the tracked paths in registration order.
func (t *Tracker) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

// ReleaseAll removes every tracked path exactly once. Missing files count as
// released. Failures are logged and reported but never stop the remaining
// removals. Calls after the first return nil.
func (t *Tracker) ReleaseAll() []ReleaseOutcome {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		return nil
	}
	t.released = true
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	outcomes := make([]ReleaseOutcome, 0, len(paths))
	var failed int
	for _, p := range paths {
		o := t.release(p)
		if o.Err != nil {
			failed++
		}
		outcomes = append(outcomes, o)
	}

	if failed > 0 {
		t.log.Warn("cleanup finished with %d of %d paths not removed", failed, len(paths))
	} else {
		t.log.Debug("cleanup removed %d paths", len(paths))
	}
	return outcomes
}

func (t *Tracker) release(path string) ReleaseOutcome {
	err := filesystem.RemoveWithRetry(path, t.retry)
	switch {
	case err == nil:
		metrics.CleanupPathsTotal.WithLabelValues("removed").Inc()
		return ReleaseOutcome{Path: path, Removed: true}
	case errors.Is(err, os.ErrNotExist):
		metrics.CleanupPathsTotal.WithLabelValues("missing").Inc()
		return ReleaseOutcome{Path: path, Missing: true}
	default:
		metrics.CleanupPathsTotal.WithLabelValues("failed").Inc()
		t.log.Warn("cleanup warning: failed to remove %s: %v", path, err)
		return ReleaseOutcome{Path: path, Err: err}
	}
}

func safeRole(role string) string {
	var b strings.Builder
	for _, r := range role {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
