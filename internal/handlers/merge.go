package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"audio-merger/internal/job"
	"audio-merger/internal/joberr"
	"audio-merger/internal/logging"
	"audio-merger/internal/middleware"
	"audio-merger/internal/planner"
	"audio-merger/internal/scheduler"
	"audio-merger/internal/streaming"
)

// Multipart field names accepted by POST /merge. Clip slots are file1..file6.
const (
	fileFieldPrefix      = "file"
	fieldOutputFilename  = "outputFilename"
	fieldSilenceDuration = "silenceDuration"
	fieldTargetLUFS      = "targetLufs"

	maxFieldBytes = 1024

	// memoryRetryAfter is the Retry-After value sent while memory is critical.
	memoryRetryAfter = "5"
)

// Merge handles POST /merge. Uploaded clips are streamed into the job's temp
// files, the job is queued on the scheduler, and the request waits for it.
// Until the job is submitted the handler owns its temp files; afterwards the
// processor releases them, even if the client goes away.
func (h *Handlers) Merge(w http.ResponseWriter, r *http.Request) {
	if h.memory != nil && h.memory.Critical() {
		w.Header().Set("Retry-After", memoryRetryAfter)
		writeJSONError(w, "server is low on memory, retry later", string(joberr.KindOverloaded), http.StatusServiceUnavailable)
		return
	}

	j := job.New(h.tempDir)
	w.Header().Set(middleware.JobIDHeader, j.ID)

	submitted := false
	defer func() {
		if !submitted {
			j.Release()
		}
	}()

	if status, err := h.readUpload(w, r, j); err != nil {
		h.writeJobError(w, j.ID, status, err)
		return
	}

	if len(j.Clips) == 0 {
		h.writeJobError(w, j.ID, 0, joberr.Validation("validate", "no input clips"))
		return
	}

	var result *job.Result
	handle, err := h.scheduler.Submit(func(ctx context.Context) error {
		res, err := h.processor.Run(ctx, j)
		result = res
		return err
	})
	if err != nil {
		if errors.Is(err, scheduler.ErrStopped) {
			writeJSONError(w, "service is shutting down", string(joberr.KindOverloaded), http.StatusServiceUnavailable)
			return
		}
		h.writeJobError(w, j.ID, 0, err)
		return
	}
	submitted = true

	if err := handle.Wait(r.Context()); err != nil {
		if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			logging.ForJob(j.ID).Info("client disconnected while job %s; it will finish and clean up", handle.Status())
			return
		}
		h.writeJobError(w, j.ID, 0, err)
		return
	}

	err = streaming.WritePayload(r.Context(), w, streaming.Payload{
		Data:        result.Data,
		Filename:    result.Filename,
		ContentType: result.ContentType,
	}, h.writeConfig)
	if err != nil && !errors.Is(err, streaming.ErrClientGone) {
		logging.ForJob(j.ID).Warn("response write failed: %v", err)
	}
}

// readUpload streams multipart parts into j. A non-zero status overrides the
// one derived from the error kind.
func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request, j *job.Job) (int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		return 0, joberr.Validation("upload", "expected a multipart/form-data body")
	}

	var silence, lufs, hint string

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return uploadFailure(err)
		}

		name := part.FormName()
		switch {
		case name == fieldOutputFilename:
			hint, err = readField(part)
		case name == fieldSilenceDuration:
			silence, err = readField(part)
		case name == fieldTargetLUFS:
			lufs, err = readField(part)
		default:
			slot, ok := clipSlot(name)
			if !ok {
				logging.Debug("ignoring multipart field %q", name)
				break
			}
			if part.FileName() == "" {
				// Empty file inputs are sent as parts without a filename.
				break
			}
			src := &recordingReader{r: part}
			err = j.StoreClip(slot, filepath.Base(part.FileName()), part.Header.Get("Content-Type"), src)
			if err != nil && src.err != nil {
				err = src.err
			}
		}
		part.Close()

		if err != nil {
			if joberr.KindOf(err) == joberr.KindValidation {
				return 0, err
			}
			return uploadFailure(err)
		}
	}

	opts, err := planner.ParseOptions(silence, lufs, hint)
	if err != nil {
		return 0, err
	}
	j.Options = opts
	return 0, nil
}

// uploadFailure classifies an error raised while reading the request body.
func uploadFailure(err error) (int, error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge,
			joberr.Validation("upload", "request body exceeds %d MB", tooLarge.Limit>>20)
	}
	var je *joberr.Error
	if errors.As(err, &je) {
		return 0, err
	}
	return 0, &joberr.Error{Kind: joberr.KindValidation, Op: "upload", Message: "malformed multipart body", Err: err}
}

// clipSlot parses "file<N>" for N in 1..planner.MaxClips.
func clipSlot(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, fileFieldPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > planner.MaxClips {
		return 0, false
	}
	return n, true
}

func readField(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFieldBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxFieldBytes {
		return "", joberr.Validation("upload", "form field exceeds %d bytes", maxFieldBytes)
	}
	return strings.TrimSpace(string(data)), nil
}

// recordingReader remembers the first read error so request body failures
// can be told apart from temp file write failures.
type recordingReader struct {
	r   io.Reader
	err error
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}

// writeJobError writes the JSON error body for err. Detail and wrapped causes
// stay in the logs.
func (h *Handlers) writeJobError(w http.ResponseWriter, jobID string, status int, err error) {
	if status == 0 {
		status = joberr.HTTPStatus(err)
	}
	kind := joberr.KindOf(err)

	if status >= http.StatusInternalServerError {
		logging.ForJob(jobID).Error("request failed (%d): %v", status, err)
	} else {
		logging.ForJob(jobID).Debug("request rejected (%d): %v", status, err)
	}

	writeJSONError(w, joberr.PublicMessage(err), string(kind), status)
}
