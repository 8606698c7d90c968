package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"audio-merger/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStopping = "stopping"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Scheduler snapshot
	Workers   int    `json:"workers"`
	Queued    int    `json:"queued"`
	Running   int    `json:"running"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Rejected  uint64 `json:"rejected"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	FFmpegError string `json:"ffmpegError,omitempty"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.scheduler.Stats()
	ffmpegErr := h.ffmpegStatus(r.Context())

	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        !stats.Stopped && ffmpegErr == nil,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Workers:      stats.WorkerLimit,
		Queued:       stats.Queued,
		Running:      stats.Running,
		Completed:    stats.Completed,
		Failed:       stats.Failed,
		Rejected:     stats.Rejected,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if ffmpegErr != nil {
		response.FFmpegError = ffmpegErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if stats.Stopped {
		response.Status = statusStopping
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when merges can succeed: ffmpeg is usable
// and the scheduler still accepts jobs.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.scheduler.Stopped() {
		writeJSONStatus(w, http.StatusServiceUnavailable, "stopping")
		return
	}
	if err := h.ffmpegStatus(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, "ffmpeg_unavailable")
		return
	}
	writeJSONStatus(w, http.StatusOK, "ready")
}

// ffmpegStatus returns the cached result of the last ffmpeg check, refreshing
// it once readinessTTL has passed.
func (h *Handlers) ffmpegStatus(ctx context.Context) error {
	h.readyMu.Lock()
	defer h.readyMu.Unlock()

	if !h.readyChecked.IsZero() && time.Since(h.readyChecked) < readinessTTL {
		return h.readyErr
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, h.readyErr = h.ffmpeg.Check(ctx)
	h.readyChecked = time.Now()
	return h.readyErr
}
