// Package tempfs owns the temporary files created on behalf of a merge job.
//
// A [Tracker] is created per job. Every path the job will touch is registered
// with the tracker before the file exists, either by asking the tracker for a
// fresh name ([Tracker.NewPath]) or by registering an existing one
// ([Tracker.Track]). [Tracker.ReleaseAll] then removes each registered path
// exactly once, continuing past individual failures:
//
//	tr := tempfs.New(tempDir, tempfs.DefaultPrefix, jobID)
//	defer tr.ReleaseAll()
//
//	input := tr.NewPath("input_1", ".bin")
//	output := tr.NewPath("output", ".mp3")
//
// Names follow <prefix>_<job id>_<role><ext>, so concurrent jobs sharing one
// temp directory never collide. [SweepStale] uses the same prefix to clear
// files left behind by a previous process.
package tempfs
