package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"audio-merger/internal/filesystem"
	"audio-merger/internal/joberr"
	"audio-merger/internal/logging"
	"audio-merger/internal/metrics"
	"audio-merger/internal/planner"
)

// DefaultStderrLimit bounds how much ffmpeg diagnostic output is kept.
const DefaultStderrLimit = 64 * 1024

// Config configures an Executor.
type Config struct {
	// FFmpegPath is the binary to run. Defaults to "ffmpeg" on PATH.
	FFmpegPath string
	// Timeout bounds one run. Zero disables the limit.
	Timeout time.Duration
	// StderrLimit is the number of trailing stderr bytes kept per run.
	StderrLimit int
}

// Executor runs plans through ffmpeg.
type Executor struct {
	ffmpegPath  string
	timeout     time.Duration
	stderrLimit int
	retry       filesystem.RetryConfig

	processes map[string]*exec.Cmd
	processMu sync.Mutex
}

// New creates a new Executor.
func New(cfg Config) *Executor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.StderrLimit <= 0 {
		cfg.StderrLimit = DefaultStderrLimit
	}
	return &Executor{
		ffmpegPath:  cfg.FFmpegPath,
		timeout:     cfg.Timeout,
		stderrLimit: cfg.StderrLimit,
		retry:       filesystem.DefaultRetryConfig(),
		processes:   make(map[string]*exec.Cmd),
	}
}

// Execute runs plan once. The returned error, if any, is a *joberr.Error of
// kind transcode.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan) error {
	log := logging.ForJob(plan.JobID)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := BuildArgs(plan)
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.WaitDelay = 5 * time.Second

	stderr := &tailBuffer{limit: e.stderrLimit}
	cmd.Stderr = stderr

	log.Debug("running %s %s", e.ffmpegPath, strings.Join(args, " "))

	metrics.TranscoderInProgress.Inc()
	start := time.Now()
	defer func() {
		metrics.TranscoderInProgress.Dec()
		metrics.TranscoderDuration.Observe(time.Since(start).Seconds())
	}()

	if err := cmd.Start(); err != nil {
		metrics.TranscoderRunsTotal.WithLabelValues("error").Inc()
		return joberr.Transcode("execute", fmt.Errorf("failed to start ffmpeg: %w", err), "")
	}

	e.track(plan.JobID, cmd)
	runErr := cmd.Wait()
	e.untrack(plan.JobID)

	if runErr != nil {
		status := "error"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = "timeout"
			runErr = fmt.Errorf("ffmpeg exceeded %s: %w", e.timeout, runErr)
		}
		metrics.TranscoderRunsTotal.WithLabelValues(status).Inc()
		log.Error("ffmpeg failed after %v: %v", time.Since(start).Round(time.Millisecond), runErr)
		if detail := stderr.String(); detail != "" {
			log.Error("ffmpeg stderr: %s", detail)
		}
		return joberr.Transcode("execute", runErr, stderr.String())
	}

	info, err := filesystem.StatWithRetry(plan.OutputPath, e.retry)
	if err != nil || info.Size() == 0 {
		metrics.TranscoderRunsTotal.WithLabelValues("empty_output").Inc()
		if err == nil {
			err = errors.New("output file is empty")
		} else if errors.Is(err, os.ErrNotExist) {
			err = errors.New("output file was not created")
		}
		log.Error("ffmpeg exited cleanly but produced no output: %v", err)
		return joberr.Transcode("execute", err, stderr.String())
	}

	metrics.TranscoderRunsTotal.WithLabelValues("success").Inc()
	log.Info("transcoded %d inputs into %d bytes in %v", len(plan.Inputs), info.Size(), time.Since(start).Round(time.Millisecond))
	return nil
}

// Check verifies the ffmpeg binary runs and returns its version line.
func (e *Executor) Check(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.ffmpegPath, "-hide_banner", "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg not usable at %q: %w", e.ffmpegPath, err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// Active returns the number of ffmpeg processes currently running.
func (e *Executor) Active() int {
	e.processMu.Lock()
	defer e.processMu.Unlock()
	return len(e.processes)
}

// Cleanup stops all active ffmpeg processes.
func (e *Executor) Cleanup() {
	e.processMu.Lock()
	defer e.processMu.Unlock()

	for jobID, cmd := range e.processes {
		if cmd.Process != nil {
			logging.Info("Killing ffmpeg process for job %s", jobID)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill ffmpeg process for job %s: %v", jobID, err)
			}
		}
	}
}

func (e *Executor) track(jobID string, cmd *exec.Cmd) {
	e.processMu.Lock()
	e.processes[jobID] = cmd
	e.processMu.Unlock()
}

func (e *Executor) untrack(jobID string) {
	e.processMu.Lock()
	delete(e.processes, jobID)
	e.processMu.Unlock()
}

// tailBuffer keeps the last limit bytes written to it. ffmpeg puts the
// useful part of a failure at the end of its output.
type tailBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if len(p) >= b.limit {
		b.buf.Reset()
		b.buf.Write(p[len(p)-b.limit:])
		b.truncated = true
		return n, nil
	}
	if over := b.buf.Len() + len(p) - b.limit; over > 0 {
		b.buf.Next(over)
		b.truncated = true
	}
	b.buf.Write(p)
	return n, nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimSpace(b.buf.String())
	if b.truncated && s != "" {
		return "..." + s
	}
	return s
}
