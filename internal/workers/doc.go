/*
Package workers sizes the merge worker pool in containerized environments.

runtime.NumCPU reports the host's CPU count even when a cgroup limit applies.
GOMAXPROCS follows the container limit, so the helpers here derive worker
counts from it:

	// One worker per available CPU
	n := workers.ForCPU(8)

	// Default merge concurrency: each ffmpeg run is itself multi-threaded
	n := workers.ForTranscode(8)

	// Explicit configuration wins, zero means automatic
	n := workers.Resolve(cfg.MergeWorkers, 32)

# Environment Variable Override

Count and its helpers honour MERGE_WORKERS, letting operators pin the value
without touching configuration files:

	env:
	- name: MERGE_WORKERS
	  value: "2"

Non-numeric or non-positive values are ignored. The override is still capped
by the limit passed in.
*/
package workers
