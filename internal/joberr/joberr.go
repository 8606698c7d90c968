package joberr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a job failure by the stage that produced it.
type Kind string

const (
	// KindValidation means the request itself is unusable (no clips, bad parameters).
	KindValidation Kind = "validation"
	// KindPlanning means the filter graph could not be assembled consistently.
	KindPlanning Kind = "planning"
	// KindTranscode means ffmpeg failed or produced no output.
	KindTranscode Kind = "transcode"
	// KindRead means the transcoded output could not be read back.
	KindRead Kind = "read"
	// KindOverloaded means the scheduler refused admission.
	KindOverloaded Kind = "overloaded"
	// KindInternal covers anything not attributable to a stage.
	KindInternal Kind = "internal"
)

// Error is the structured failure carried from a job back to the HTTP layer.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "plan" or "execute".
	Op string
	// Message is safe to show to the caller.
	Message string
	// Detail holds diagnostics (ffmpeg stderr, paths) that are logged but
	// never written to a response.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a KindValidation error.
func Validation(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Planning returns a KindPlanning error.
func Planning(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPlanning, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Transcode returns a KindTranscode error with the captured ffmpeg diagnostics.
func Transcode(op string, err error, detail string) *Error {
	return &Error{Kind: KindTranscode, Op: op, Message: "transcoding failed", Detail: detail, Err: err}
}

// Read returns a KindRead error.
func Read(op string, err error) *Error {
	return &Error{Kind: KindRead, Op: op, Message: "failed to read output", Err: err}
}

// Overloaded returns a KindOverloaded error.
func Overloaded(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindOverloaded, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, returning KindInternal when err is not
// a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a failure to the status code returned to the caller.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindOverloaded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the caller-facing text for err. Internal details
// such as paths or command output are never included.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindValidation, KindOverloaded:
			return e.Message
		case KindPlanning:
			return "failed to build processing pipeline"
		case KindTranscode:
			return "failed to process audio files"
		case KindRead:
			return "failed to read processed audio"
		}
	}
	return "internal server error"
}
