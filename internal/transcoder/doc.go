// Package transcoder runs merge plans through FFmpeg.
//
// An [Executor] performs exactly one ffmpeg invocation per plan. It never
// retries and never substitutes a different plan. A run succeeds only when
// ffmpeg exits with status 0 and the planned output file exists and is
// non-empty; anything else is reported as a transcode error carrying the
// captured stderr for logging.
//
// Running processes are tracked so [Executor.Cleanup] can kill them during
// shutdown. FFmpeg must be installed; [Executor.Check] verifies that the
// configured binary can be executed.
package transcoder
