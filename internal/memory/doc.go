// Package memory keeps the service inside its container memory limit.
//
// Two pieces work together:
//
//   - [ConfigureFromEnv] sets GOMEMLIMIT from MEMORY_LIMIT (bytes, usually
//     from the Kubernetes Downward API) scaled by MEMORY_RATIO. An explicit
//     GOMEMLIMIT always wins.
//   - [Monitor] samples heap usage. Above the critical ratio the merge
//     handler answers 503 until usage falls below the resume ratio.
//
// ffmpeg runs as a child process, so its memory is never part of the Go heap.
// The default ratio of 0.75 leaves a quarter of the container for it. Lower
// MEMORY_RATIO when running many merge workers.
//
// Kubernetes example:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.7"
package memory
