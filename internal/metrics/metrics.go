package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_merger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_merger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_merger_http_rate_limited_total",
			Help: "Total number of requests rejected by the admission rate limiter",
		},
	)
)

// Scheduler metrics
var (
	SchedulerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_merger_scheduler_queue_depth",
			Help: "Number of jobs waiting for a worker slot",
		},
	)

	SchedulerWorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_merger_scheduler_workers_busy",
			Help: "Number of worker slots currently running a job",
		},
	)

	SchedulerWorkerLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_merger_scheduler_worker_limit",
			Help: "Configured maximum number of concurrently running jobs",
		},
	)

	SchedulerJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_scheduler_jobs_total",
			Help: "Total number of jobs finished by the scheduler",
		},
		[]string{"status"}, // "completed", "failed", "rejected"
	)

	SchedulerQueueWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audio_merger_scheduler_queue_wait_seconds",
			Help:    "Time a job spent queued before a worker picked it up",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)
)

// Job metrics
var (
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_merger_job_duration_seconds",
			Help:    "End-to-end merge job duration (plan, transcode, read, cleanup)",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"outcome"},
	)

	JobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_job_failures_total",
			Help: "Total number of failed jobs by failure kind",
		},
		[]string{"kind"},
	)

	JobClips = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audio_merger_job_clips",
			Help:    "Number of clips submitted per job",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		},
	)

	JobOutputBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audio_merger_job_output_bytes",
			Help:    "Size of produced audio payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
		},
	)
)

// Transcoder metrics
var (
	TranscoderRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_transcoder_runs_total",
			Help: "Total number of ffmpeg invocations",
		},
		[]string{"status"}, // "success", "error", "empty_output", "timeout"
	)

	TranscoderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audio_merger_transcoder_duration_seconds",
			Help:    "ffmpeg invocation duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	TranscoderInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_merger_transcoder_in_progress",
			Help: "Number of ffmpeg processes currently running",
		},
	)
)

// Temp resource metrics
var (
	CleanupPathsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_cleanup_paths_total",
			Help: "Temp paths processed during job cleanup by result",
		},
		[]string{"result"}, // "removed", "missing", "failed"
	)

	TempFilesPresent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_merger_temp_files",
			Help: "Number of service-owned files currently present in the temp directory",
		},
	)

	TempBytesPresent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_merger_temp_bytes",
			Help: "Total size of service-owned files in the temp directory",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_merger_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryCritical = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_merger_memory_critical",
			Help: "1 while merge admission is refused because of memory pressure",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_merger_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by volume and operation",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_filesystem_operation_errors_total",
			Help: "Total filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_filesystem_retry_attempts_total",
			Help: "Total retry attempts after NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_filesystem_retry_success_total",
			Help: "Total operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_filesystem_retry_failures_total",
			Help: "Total operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_filesystem_stale_errors_total",
			Help: "Total ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merger_auth_attempts_total",
			Help: "Total number of API token checks",
		},
		[]string{"status"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audio_merger_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
