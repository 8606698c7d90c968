package streaming

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefaultTimeoutWriterConfig(t *testing.T) {
	config := DefaultTimeoutWriterConfig()

	if config.WriteTimeout != 30*time.Second {
		t.Errorf("Expected WriteTimeout=30s, got %v", config.WriteTimeout)
	}
	if config.MaxDuration != 0 {
		t.Errorf("Expected MaxDuration=0 (unlimited), got %v", config.MaxDuration)
	}
	if config.ChunkSize != 64*1024 {
		t.Errorf("Expected ChunkSize=64KB, got %d", config.ChunkSize)
	}
}

func TestTimeoutWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	tw := NewTimeoutWriter(context.Background(), w, DefaultTimeoutWriterConfig())
	defer tw.Close()

	data := []byte("test data")
	n, err := tw.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected to write %d bytes, wrote %d", len(data), n)
	}

	bytesWritten, _ := tw.Stats()
	if bytesWritten != int64(len(data)) {
		t.Errorf("Expected bytes written=%d, got %d", len(data), bytesWritten)
	}
	if w.Body.String() != "test data" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestTimeoutWriterChunkedWrites(t *testing.T) {
	w := httptest.NewRecorder()
	config := DefaultTimeoutWriterConfig()
	config.ChunkSize = 10

	tw := NewTimeoutWriter(context.Background(), w, config)
	defer tw.Close()

	data := bytes.Repeat([]byte("a"), 95)
	n, err := tw.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 95 || w.Body.Len() != 95 {
		t.Errorf("wrote %d bytes, body has %d", n, w.Body.Len())
	}
	if !w.Flushed {
		t.Error("expected chunks to be flushed")
	}
}

func TestTimeoutWriterClose(t *testing.T) {
	tw := NewTimeoutWriter(context.Background(), httptest.NewRecorder(), DefaultTimeoutWriterConfig())

	if err := tw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if _, err := tw.Write([]byte("x")); !errors.Is(err, ErrStreamCanceled) {
		t.Errorf("Write after Close error = %v, want ErrStreamCanceled", err)
	}
}

func TestTimeoutWriterContextErrors(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()

	tests := []struct {
		name string
		ctx  context.Context
		want error
	}{
		{"client canceled", canceled, ErrClientGone},
		{"deadline", expired, ErrWriteTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tw := NewTimeoutWriter(tt.ctx, w, DefaultTimeoutWriterConfig())
			defer tw.Close()

			if _, err := tw.Write([]byte("x")); !errors.Is(err, tt.want) {
				t.Errorf("Write error = %v, want %v", err, tt.want)
			}
			if w.Body.Len() != 0 {
				t.Error("nothing should be written after cancellation")
			}
		})
	}
}

func TestTimeoutWriterMaxDuration(t *testing.T) {
	config := DefaultTimeoutWriterConfig()
	config.MaxDuration = time.Nanosecond

	tw := NewTimeoutWriter(context.Background(), httptest.NewRecorder(), config)
	defer tw.Close()

	time.Sleep(time.Millisecond)
	if _, err := tw.Write([]byte("late")); !errors.Is(err, ErrWriteTimeout) {
		t.Errorf("Write error = %v, want ErrWriteTimeout", err)
	}
}

type deadlineWriter struct {
	*httptest.ResponseRecorder
}

func (d *deadlineWriter) Write([]byte) (int, error) {
	return 0, os.ErrDeadlineExceeded
}

func TestTimeoutWriterDeadlineExceeded(t *testing.T) {
	w := &deadlineWriter{ResponseRecorder: httptest.NewRecorder()}
	tw := NewTimeoutWriter(context.Background(), w, DefaultTimeoutWriterConfig())
	defer tw.Close()

	if _, err := tw.Write([]byte("x")); !errors.Is(err, ErrWriteTimeout) {
		t.Errorf("Write error = %v, want ErrWriteTimeout", err)
	}
}

func TestTimeoutWriterOnProgress(t *testing.T) {
	var calls []int64
	config := DefaultTimeoutWriterConfig()
	config.OnProgress = func(n int64, _ time.Duration) {
		calls = append(calls, n)
	}

	tw := NewTimeoutWriter(context.Background(), httptest.NewRecorder(), config)
	defer tw.Close()

	if _, err := tw.Write(make([]byte, 3*1024*1024)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if len(calls) != 3 {
		t.Fatalf("OnProgress called %d times, want 3: %v", len(calls), calls)
	}
	if calls[2] != 3*1024*1024 {
		t.Errorf("last progress = %d", calls[2])
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	errs := []error{ErrWriteTimeout, ErrClientGone, ErrStreamCanceled}
	for i := range errs {
		for j := range errs {
			if i != j && errors.Is(errs[i], errs[j]) {
				t.Errorf("%v should not match %v", errs[i], errs[j])
			}
		}
	}
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"plain", "merged_audio_1.mp3", `attachment; filename=merged_audio_1.mp3`},
		{"spaces", "my clip.mp3", `attachment; filename="my clip.mp3"`},
		{"empty", "", "attachment"},
		{"non-ascii", "héllo.mp3", `attachment; filename*=utf-8''h%C3%A9llo.mp3`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentDisposition(tt.filename); got != tt.want {
				t.Errorf("ContentDisposition(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestWritePayload(t *testing.T) {
	data := bytes.Repeat([]byte{0xff, 0xfb}, 40000)
	w := httptest.NewRecorder()

	err := WritePayload(context.Background(), w, Payload{
		Data:        data,
		Filename:    "merged_audio_x.mp3",
		ContentType: "audio/mpeg",
	}, DefaultTimeoutWriterConfig())
	if err != nil {
		t.Fatalf("WritePayload() error = %v", err)
	}

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "80000" {
		t.Errorf("Content-Length = %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "merged_audio_x.mp3") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !bytes.Equal(w.Body.Bytes(), data) {
		t.Error("body does not match payload")
	}
}

func TestWritePayloadOverHTTP(t *testing.T) {
	data := bytes.Repeat([]byte("mp3"), 100000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		config := DefaultTimeoutWriterConfig()
		config.WriteTimeout = 5 * time.Second
		if err := WritePayload(r.Context(), w, Payload{Data: data, Filename: "a.mp3", ContentType: "audio/mpeg"}, config); err != nil {
			t.Errorf("WritePayload() error = %v", err)
		}
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(body, data) {
		t.Errorf("received %d bytes, want %d", len(body), len(data))
	}
	if resp.ContentLength != int64(len(data)) {
		t.Errorf("ContentLength = %d", resp.ContentLength)
	}
}

func BenchmarkTimeoutWriterWrite(b *testing.B) {
	data := make([]byte, 1024)
	w := httptest.NewRecorder()
	tw := NewTimeoutWriter(context.Background(), w, DefaultTimeoutWriterConfig())
	defer tw.Close()

	b.ResetTimer()
	for b.Loop() {
		w.Body.Reset()
		_, _ = tw.Write(data)
	}
}
