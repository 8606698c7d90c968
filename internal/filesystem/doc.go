/*
Package filesystem provides filesystem operations with automatic retry logic
for NFS stale file handle errors.

The merge service keeps every upload, intermediate and output under a single
temp directory. When that directory is a network mount, a freshly written
ffmpeg output or a file being deleted can briefly report ESTALE. The wrappers
here retry only that error, with exponential backoff, and fall straight
through for everything else:

	data, err := filesystem.ReadFileWithRetry(plan.OutputPath, filesystem.DefaultRetryConfig())

	if err := filesystem.RemoveWithRetry(path, filesystem.DefaultRetryConfig()); err != nil && !os.IsNotExist(err) {
	    logging.Warn("cleanup failed for %s: %v", path, err)
	}

Defaults: 3 retries, 50ms initial backoff, 500ms cap.

Metrics are reported through the Observer interface; the metrics package
installs its implementation at startup with SetObserver. Volume labels come
from a VolumeResolver (longest-prefix match), typically mapping "temp" to the
configured TEMP_DIR.
*/
package filesystem
