// Package main provides the entry point for the audio merger service.
//
// The service accepts up to six audio clips in one multipart request, joins
// them with a short silence between the later clips, normalizes loudness, and
// returns a single MP3. All signal processing is done by an external ffmpeg
// process; the service plans the ffmpeg invocation, queues jobs onto a
// bounded worker pool, and removes every temp file a job creates.
//
// # Application Lifecycle
//
//  1. Configuration Loading: defaults, CONFIG_FILE, .env, then environment
//  2. Metrics and filesystem observer registration
//  3. Stale temp sweep: removes audio_merger_* files older than TEMP_SWEEP_AGE
//  4. Component Initialization:
//     - Transcoder: checks ffmpeg and tracks running processes
//     - Scheduler: MERGE_WORKERS workers with an optional queue limit
//     - Processor: plans, transcodes, reads and releases each job
//     - Metrics Collector: samples queue depth and temp directory usage
//  5. HTTP Server Setup: routes, middleware, and both servers in an errgroup
//  6. Graceful Shutdown: SIGINT/SIGTERM, see below
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - POST /merge (rate limit and bearer token auth when configured)
//     - /health, /healthz, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Graceful Shutdown
//
//  1. Stop admitting jobs; new merge requests get 503
//  2. Drain queued and running jobs (SHUTDOWN_TIMEOUT)
//  3. Kill any ffmpeg process still running
//  4. Stop the metrics collector and metrics server
//  5. Shut down the main HTTP server, letting waiting requests receive results
//
// # Related Packages
//
//   - [audio-merger/internal/planner]: ffmpeg filter graph planning
//   - [audio-merger/internal/scheduler]: bounded FIFO worker pool
//   - [audio-merger/internal/transcoder]: ffmpeg execution
//   - [audio-merger/internal/tempfs]: per-job temp file tracking
//   - [audio-merger/internal/job]: job lifecycle
//   - [audio-merger/internal/handlers]: HTTP handlers
//   - [audio-merger/internal/middleware]: logging, metrics, auth, rate limiting
//   - [audio-merger/internal/startup]: configuration and lifecycle logging
package main
