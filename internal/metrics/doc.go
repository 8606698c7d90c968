// Package metrics provides Prometheus instrumentation for the audio-merger service.
//
// All metrics are prefixed with "audio_merger_" and registered with the default
// registry through promauto.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//   - HTTPRateLimited: Counter of requests rejected by the admission limiter
//
// ## Scheduler Metrics
//
//   - SchedulerQueueDepth: Gauge of jobs waiting for a worker slot
//   - SchedulerWorkersBusy: Gauge of occupied worker slots
//   - SchedulerWorkerLimit: Gauge of the configured concurrency limit
//   - SchedulerJobsTotal: Counter by status (completed/failed/rejected)
//   - SchedulerQueueWait: Histogram of time spent queued
//
// ## Job Metrics
//
//   - JobDuration: Histogram of end-to-end job time by outcome
//   - JobFailuresTotal: Counter of failures by kind
//   - JobClips: Histogram of clips per job
//   - JobOutputBytes: Histogram of produced payload sizes
//
// ## Transcoder Metrics
//
//   - TranscoderRunsTotal: Counter of ffmpeg runs by status
//   - TranscoderDuration: Histogram of ffmpeg run duration
//   - TranscoderInProgress: Gauge of running ffmpeg processes
//
// ## Temp Resource Metrics
//
//   - CleanupPathsTotal: Counter of released paths by result (removed/missing/failed)
//   - TempFilesPresent, TempBytesPresent: Gauges sampled by the [Collector]
//
// ## Memory Metrics
//
//   - MemoryUsageRatio: Heap allocation over the memory limit
//   - MemoryCritical: 1 while merges are refused for memory pressure
//
// ## Filesystem Metrics
//
// Recorded through the [filesystem.Observer] returned by [NewFilesystemObserver].
//
// # Collector
//
// [Collector] periodically copies scheduler stats from a [StatsProvider] into
// the scheduler gauges and samples the temp directory:
//
//	collector := metrics.NewCollector(provider, tempDir, "audio_merger_", 15*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Share of jobs failing in transcoding:
//
//	sum(rate(audio_merger_job_failures_total{kind="transcode"}[5m])) /
//	sum(rate(audio_merger_scheduler_jobs_total[5m]))
//
// Temp files left behind (should stay near zero while idle):
//
//	audio_merger_temp_files
package metrics
