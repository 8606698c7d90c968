package job

import (
	"context"
	"time"

	"audio-merger/internal/filesystem"
	"audio-merger/internal/joberr"
	"audio-merger/internal/mediatypes"
	"audio-merger/internal/metrics"
	"audio-merger/internal/planner"
)

// Executor runs one plan. *transcoder.Executor satisfies it.
type Executor interface {
	Execute(ctx context.Context, plan *planner.Plan) error
}

// Result is the materialized output of a successful job.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Processor runs jobs.
type Processor struct {
	executor Executor
	tempDir  string
	defaults planner.Defaults
	retry    filesystem.RetryConfig
}

// NewProcessor creates a processor that plans outputs under tempDir and
// fills absent parameters from defaults.
func NewProcessor(executor Executor, tempDir string, defaults planner.Defaults) *Processor {
	return &Processor{
		executor: executor,
		tempDir:  tempDir,
		defaults: defaults,
		retry:    filesystem.DefaultRetryConfig(),
	}
}

// Run drives j from validation to a materialized result. Every temp path the
// job owns is released before Run returns, on success and on every failure.
func (p *Processor) Run(ctx context.Context, j *Job) (result *Result, err error) {
	start := time.Now()
	metrics.JobClips.Observe(float64(len(j.Clips)))

	defer func() {
		j.Release()

		outcome := "completed"
		if err != nil {
			outcome = "failed"
			j.setState(StateFailed)
			metrics.JobFailuresTotal.WithLabelValues(string(joberr.KindOf(err))).Inc()
			j.log.Warn("failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
		} else {
			j.setState(StateCompleted)
			metrics.JobOutputBytes.Observe(float64(len(result.Data)))
			j.log.Info("completed in %v: %s (%d bytes)", time.Since(start).Round(time.Millisecond), result.Filename, len(result.Data))
		}
		metrics.JobDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	if len(j.Clips) == 0 {
		return nil, joberr.Validation("validate", "no input clips")
	}

	params, err := planner.ResolveParameters(j.Options, p.defaults)
	if err != nil {
		return nil, err
	}

	j.setState(StatePlanning)
	plan, err := planner.Build(j.ID, j.Clips, params, p.tempDir)
	if err != nil {
		return nil, err
	}
	j.Tracker.Track(plan.OutputPath)

	j.setState(StateTranscoding)
	if err := p.executor.Execute(ctx, plan); err != nil {
		return nil, err
	}

	j.setState(StateReading)
	data, err := filesystem.ReadFileWithRetry(plan.OutputPath, p.retry)
	if err != nil {
		return nil, joberr.Read("read", err)
	}
	if len(data) == 0 {
		return nil, joberr.Read("read", errEmptyOutput)
	}

	return &Result{
		Data:        data,
		Filename:    plan.OutputFilename,
		ContentType: mediatypes.OutputMimeType,
	}, nil
}
