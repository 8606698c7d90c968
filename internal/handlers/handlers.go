package handlers

import (
	"sync"
	"time"

	"audio-merger/internal/job"
	"audio-merger/internal/scheduler"
	"audio-merger/internal/startup"
	"audio-merger/internal/streaming"
)

// readinessTTL bounds how often /readyz runs ffmpeg -version.
const readinessTTL = 30 * time.Second

// MemoryGate reports heap pressure; merges are refused while it is critical.
type MemoryGate interface {
	Critical() bool
}

type Handlers struct {
	scheduler      *scheduler.Scheduler
	processor      *job.Processor
	ffmpeg         startup.FFmpegChecker
	tempDir        string
	maxUploadBytes int64
	writeConfig    streaming.TimeoutWriterConfig
	startTime      time.Time
	memory         MemoryGate

	readyMu      sync.Mutex
	readyChecked time.Time
	readyErr     error
}

func New(sched *scheduler.Scheduler, proc *job.Processor, ffmpeg startup.FFmpegChecker, config *startup.Config) *Handlers {
	return &Handlers{
		scheduler:      sched,
		processor:      proc,
		ffmpeg:         ffmpeg,
		tempDir:        config.TempDir,
		maxUploadBytes: config.MaxUploadBytes,
		writeConfig:    streaming.DefaultTimeoutWriterConfig(),
		startTime:      time.Now(),
	}
}

// SetMemoryGate enables memory backpressure on POST /merge.
func (h *Handlers) SetMemoryGate(gate MemoryGate) {
	h.memory = gate
}
