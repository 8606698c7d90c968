// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] layers four sources, lowest precedence first:
//
//  1. Built-in defaults
//  2. A YAML file named by CONFIG_FILE (flat snake_case keys, unknown keys rejected)
//  3. A dotenv file named by ENV_FILE (default: .env, skipped when absent)
//  4. The process environment
//
// Variables from the dotenv file never replace variables already present in
// the environment. The following environment variables are supported:
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - TEMP_DIR: Directory for per-job temp files (default: os.TempDir())
//   - TEMP_SWEEP_AGE: Age after which leftover temp files are removed at startup (default: 1h)
//   - MERGE_WORKERS: Concurrent merge jobs (default: half the CPUs, at least 1)
//   - MAX_PENDING_JOBS: Queue limit before requests are rejected with 503 (default: 0, unbounded)
//   - TRANSCODE_TIMEOUT: Limit on a single ffmpeg run, 0 disables (default: 10m)
//   - SHUTDOWN_TIMEOUT: Time allowed for queued jobs to drain on shutdown (default: 60s)
//   - MAX_UPLOAD_MB: Request body limit for /merge (default: 200)
//   - FFMPEG_PATH: ffmpeg binary (default: ffmpeg)
//   - DEFAULT_SILENCE_SECONDS: Gap between merged clips (default: 1.0)
//   - DEFAULT_TARGET_LUFS: Loudness target (default: -16)
//   - API_TOKEN_HASH: bcrypt hash of the bearer token required on /merge
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST: Admission rate limit for /merge (default: disabled)
//   - MEMORY_LIMIT, MEMORY_RATIO: Container memory limit in bytes and heap share used to set GOMEMLIMIT (see package memory)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// Invalid values are logged and replaced by their defaults. An unreadable or
// malformed CONFIG_FILE, or a temp directory that cannot be written, is fatal.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
//   - [LogTranscoderInit]: ffmpeg availability
//   - [LogSchedulerInit]: Worker pool sizing
//   - [LogTempSweep]: Stale temp file cleanup
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup
