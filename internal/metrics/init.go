package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"completed", "failed", "rejected"} {
		SchedulerJobsTotal.WithLabelValues(status)
	}

	for _, outcome := range []string{"completed", "failed"} {
		JobDuration.WithLabelValues(outcome)
	}

	for _, kind := range []string{"validation", "planning", "transcode", "read", "overloaded", "internal"} {
		JobFailuresTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"success", "error", "empty_output", "timeout"} {
		TranscoderRunsTotal.WithLabelValues(status)
	}

	for _, result := range []string{"removed", "missing", "failed"} {
		CleanupPathsTotal.WithLabelValues(result)
	}

	volumes := []string{"temp", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "read", "remove"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	for _, status := range []string{"success", "failure", "missing"} {
		AuthAttemptsTotal.WithLabelValues(status)
	}
}
