package streaming

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"audio-merger/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a write operation exceeded the configured timeout.
	// This typically occurs when a client is receiving data too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the client disconnected before the payload was sent.
	// This is detected via the request context being canceled.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates that the writer was closed before the write.
	ErrStreamCanceled = errors.New("stream canceled")
)

// TimeoutWriterConfig configures the timeout writer behavior
type TimeoutWriterConfig struct {
	// WriteTimeout is the maximum time to wait for a single chunk
	WriteTimeout time.Duration
	// MaxDuration is the absolute maximum response duration (0 = unlimited)
	MaxDuration time.Duration
	// ChunkSize is the size of chunks to write (0 = write as received)
	ChunkSize int
	// OnProgress is called after every mebibyte written
	OnProgress func(bytesWritten int64, duration time.Duration)
}

// DefaultTimeoutWriterConfig returns sensible defaults
func DefaultTimeoutWriterConfig() TimeoutWriterConfig {
	return TimeoutWriterConfig{
		WriteTimeout: 30 * time.Second,
		MaxDuration:  0,
		ChunkSize:    64 * 1024,
	}
}

// TimeoutWriter wraps an http.ResponseWriter with per-chunk write deadlines.
// Deadlines are applied through http.ResponseController; writers that do not
// support deadlines (such as httptest recorders) are written without one.
type TimeoutWriter struct {
	w            http.ResponseWriter
	rc           *http.ResponseController
	ctx          context.Context
	config       TimeoutWriterConfig
	startTime    time.Time
	bytesWritten int64
	mu           sync.Mutex
	closed       bool
	noDeadline   bool
}

// NewTimeoutWriter creates a new timeout-protected writer
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config TimeoutWriterConfig) *TimeoutWriter {
	return &TimeoutWriter{
		w:         w,
		rc:        http.NewResponseController(w),
		ctx:       ctx,
		config:    config,
		startTime: time.Now(),
	}
}

// Write implements io.Writer with timeout protection
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return 0, ErrStreamCanceled
	}

	total := 0
	for len(p) > 0 {
		if err := tw.checkLimits(); err != nil {
			return total, err
		}

		size := len(p)
		if tw.config.ChunkSize > 0 && size > tw.config.ChunkSize {
			size = tw.config.ChunkSize
		}

		n, err := tw.writeChunk(p[:size])
		total += n
		if err != nil {
			return total, err
		}
		p = p[size:]
	}

	return total, nil
}

func (tw *TimeoutWriter) checkLimits() error {
	if err := tw.ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrWriteTimeout
		}
		return ErrClientGone
	}
	if tw.config.MaxDuration > 0 && time.Since(tw.startTime) > tw.config.MaxDuration {
		return ErrWriteTimeout
	}
	return nil
}

func (tw *TimeoutWriter) writeChunk(p []byte) (int, error) {
	tw.setDeadline()

	n, err := tw.w.Write(p)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return n, ErrWriteTimeout
		}
		return n, err
	}

	if err := tw.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logging.Debug("flush failed: %v", err)
	}

	before := tw.bytesWritten
	tw.bytesWritten += int64(n)
	if tw.config.OnProgress != nil && tw.bytesWritten/(1<<20) > before/(1<<20) {
		tw.config.OnProgress(tw.bytesWritten, time.Since(tw.startTime))
	}
	return n, nil
}

func (tw *TimeoutWriter) setDeadline() {
	if tw.noDeadline || tw.config.WriteTimeout <= 0 {
		return
	}
	if err := tw.rc.SetWriteDeadline(time.Now().Add(tw.config.WriteTimeout)); err != nil {
		tw.noDeadline = true
		if !errors.Is(err, http.ErrNotSupported) {
			logging.Debug("set write deadline failed: %v", err)
		}
	}
}

// Close marks the writer as closed and clears any write deadline it set.
func (tw *TimeoutWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return nil
	}
	tw.closed = true

	if !tw.noDeadline && tw.config.WriteTimeout > 0 {
		if err := tw.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
	}
	return nil
}

// Stats returns streaming statistics
func (tw *TimeoutWriter) Stats() (bytesWritten int64, duration time.Duration) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.bytesWritten, time.Since(tw.startTime)
}

// Payload is a complete response body with its download metadata.
type Payload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ContentDisposition formats an attachment header for filename. Non-ASCII
// names are encoded per RFC 2231.
func ContentDisposition(filename string) string {
	if filename == "" {
		return "attachment"
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

// WritePayload sends p as a 200 response with an explicit Content-Length,
// writing the body through a TimeoutWriter. The returned error reports why
// the body could not be fully delivered; headers are already committed by then.
func WritePayload(ctx context.Context, w http.ResponseWriter, p Payload, config TimeoutWriterConfig) error {
	h := w.Header()
	h.Set("Content-Type", p.ContentType)
	h.Set("Content-Disposition", ContentDisposition(p.Filename))
	h.Set("Content-Length", strconv.Itoa(len(p.Data)))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	tw := NewTimeoutWriter(ctx, w, config)
	defer func() {
		if err := tw.Close(); err != nil {
			logging.Warn("Failed to close timeout writer: %v", err)
		}
	}()

	_, err := tw.Write(p.Data)

	bytesWritten, duration := tw.Stats()
	logging.Debug("Payload sent: %d/%d bytes in %v", bytesWritten, len(p.Data), duration)

	return err
}
