package job

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"

	"audio-merger/internal/joberr"
	"audio-merger/internal/logging"
	"audio-merger/internal/mediatypes"
	"audio-merger/internal/planner"
	"audio-merger/internal/tempfs"
)

// State is the lifecycle stage of a job.
type State string

const (
	StateCreated     State = "created"
	StatePlanning    State = "planning"
	StateTranscoding State = "transcoding"
	StateReading     State = "reading"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Job is one merge request.
type Job struct {
	ID      string
	Clips   []planner.ClipRef
	Options planner.Options
	Tracker *tempfs.Tracker

	log *logging.JobLogger

	mu    sync.Mutex
	state State
}

// New creates a job with a fresh identifier whose temp files live in tempDir.
func New(tempDir string) *Job {
	id := uuid.NewString()
	return &Job{
		ID:      id,
		Tracker: tempfs.New(tempDir, tempfs.DefaultPrefix, id),
		log:     logging.ForJob(id),
		state:   StateCreated,
	}
}

// State returns the current lifecycle stage.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
	j.log.Debug("state -> %s", s)
}

// StoreClip copies an uploaded clip from r into a tracked temp file and
// inserts it into the clip list in slot order, so multipart parts may arrive
// in any order. The temp path is tracked before it is created, so a failed
// copy still leaves the path for Release.
func (j *Job) StoreClip(slot int, originalName, mimeType string, r io.Reader) error {
	if len(j.Clips) >= planner.MaxClips {
		return joberr.Validation("upload", "at most %d clips may be merged", planner.MaxClips)
	}
	pos, found := slices.BinarySearchFunc(j.Clips, slot, func(c planner.ClipRef, s int) int {
		return cmp.Compare(c.SequenceIndex, s)
	})
	if found {
		return joberr.Validation("upload", "file%d given more than once", slot)
	}
	if !mediatypes.IsAcceptedUpload(originalName, mimeType) {
		return joberr.Validation("upload", "file%d is not an audio file", slot)
	}

	f, path, err := j.Tracker.Create(fmt.Sprintf("input_%d", slot), mediatypes.Extension(originalName))
	if err != nil {
		return &joberr.Error{Kind: joberr.KindInternal, Op: "upload", Message: "failed to store upload", Err: err}
	}

	written, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return &joberr.Error{Kind: joberr.KindInternal, Op: "upload", Message: "failed to store upload", Err: copyErr}
	}
	if closeErr != nil {
		return &joberr.Error{Kind: joberr.KindInternal, Op: "upload", Message: "failed to store upload", Err: closeErr}
	}
	if written == 0 {
		return joberr.Validation("upload", "file%d is empty", slot)
	}

	j.Clips = slices.Insert(j.Clips, pos, planner.ClipRef{
		SequenceIndex: slot,
		TempPath:      path,
		OriginalName:  originalName,
		MimeType:      mimeType,
	})
	j.log.Debug("stored file%d (%s, %d bytes)", slot, originalName, written)
	return nil
}

// Release removes every temp file owned by the job. Only the first call
// does any work.
func (j *Job) Release() []tempfs.ReleaseOutcome {
	return j.Tracker.ReleaseAll()
}
