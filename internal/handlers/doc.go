// Package handlers provides the HTTP handlers for the audio merger service.
//
// It includes handlers for:
//   - POST /merge: multipart intake of file1..file6, job submission, and the
//     audio/mpeg attachment response
//   - Health, liveness and readiness probes
//   - Version and build information
//   - Prometheus metrics
//
// Failures are returned as JSON {"error": ..., "kind": ...}. The status code
// follows the job error kind: validation 400, overloaded 503, everything else
// 500. Transcoder output and file paths are logged, never returned. With a
// [MemoryGate] set, merges are refused with 503 while heap usage is critical.
package handlers
