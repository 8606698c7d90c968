package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"audio-merger/internal/joberr"
	"audio-merger/internal/middleware"
	"audio-merger/internal/scheduler"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v (raw %q)", err, rec.Body.String())
	}
	return body
}

func TestMergeSingleClip(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 10<<20)

	req := multipartRequest(t, []upload{
		{field: "file1", filename: "voice.wav", contentType: "audio/wav", body: "RIFFvoice"},
	}, nil)
	rec := httptest.NewRecorder()
	env.h.Merge(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=normalized_voice.wav.mp3" {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "15" {
		t.Errorf("Content-Length = %q", got)
	}
	if rec.Body.String() != "ID3merged-audio" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get(middleware.JobIDHeader) == "" {
		t.Error("missing job id header")
	}

	plans := env.exec.calls()
	if len(plans) != 1 {
		t.Fatalf("executor called %d times", len(plans))
	}
	if plans[0].Complex || len(plans[0].Inputs) != 1 {
		t.Errorf("single clip plan = %+v", plans[0])
	}
	env.assertTempEmpty(t)
}

func TestMergeSkipsGapsAndKeepsSlotOrder(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 10<<20)

	req := multipartRequest(t, []upload{
		{field: "file6", filename: "f.mp3", body: "six"},
		{field: "file1", filename: "a.wav", body: "one"},
		{field: "file3", filename: "c.ogg", body: "three"},
	}, map[string]string{"silenceDuration": "0.5", "targetLufs": "-20"})
	rec := httptest.NewRecorder()
	env.h.Merge(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}

	plans := env.exec.calls()
	if len(plans) != 1 {
		t.Fatalf("executor called %d times", len(plans))
	}
	plan := plans[0]
	if len(plan.Inputs) != 3 || plan.ConcatInputCount() != 4 {
		t.Errorf("inputs = %d, concat inputs = %d", len(plan.Inputs), plan.ConcatInputCount())
	}
	for i, suffix := range []string{"_input_1.wav", "_input_3.ogg", "_input_6.mp3"} {
		if !strings.HasSuffix(plan.Inputs[i].Path, suffix) {
			t.Errorf("input %d = %q, want suffix %q", i, plan.Inputs[i].Path, suffix)
		}
	}
	if plan.Params.SilenceDurationSeconds != 0.5 || plan.Params.TargetLoudnessLUFS != -20 {
		t.Errorf("params = %+v", plan.Params)
	}

	jobID := rec.Header().Get(middleware.JobIDHeader)
	want := "attachment; filename=merged_audio_" + jobID + ".mp3"
	if got := rec.Header().Get("Content-Disposition"); got != want {
		t.Errorf("Content-Disposition = %q, want %q", got, want)
	}
	env.assertTempEmpty(t)
}

func TestMergeOutputFilenameHint(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 10<<20)

	req := multipartRequest(t, []upload{
		{field: "file1", filename: "a.wav", body: "one"},
		{field: "file2", filename: "b.wav", body: "two"},
	}, map[string]string{"outputFilename": "My Report!!.wav"})
	rec := httptest.NewRecorder()
	env.h.Merge(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=MyReport.wav.mp3" {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestMergeRejections(t *testing.T) {
	tests := []struct {
		name     string
		request  func(t *testing.T) *http.Request
		status   int
		kind     string
		contains string
	}{
		{
			name: "no clips",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, nil, map[string]string{"silenceDuration": "2"})
			},
			status:   http.StatusBadRequest,
			kind:     "validation",
			contains: "no input clips",
		},
		{
			name: "empty file inputs only",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, []upload{{field: "file1", filename: "", body: ""}}, nil)
			},
			status:   http.StatusBadRequest,
			kind:     "validation",
			contains: "no input clips",
		},
		{
			name: "not multipart",
			request: func(_ *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/merge", strings.NewReader(`{"file1":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			status:   http.StatusBadRequest,
			kind:     "validation",
			contains: "multipart",
		},
		{
			name: "not audio",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, []upload{{field: "file1", filename: "notes.txt", contentType: "text/plain", body: "hi"}}, nil)
			},
			status:   http.StatusBadRequest,
			kind:     "validation",
			contains: "not an audio file",
		},
		{
			name: "invalid silence",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, []upload{{field: "file1", filename: "a.wav", body: "x"}},
					map[string]string{"silenceDuration": "long"})
			},
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name: "lufs out of range",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, []upload{{field: "file1", filename: "a.wav", body: "x"}},
					map[string]string{"targetLufs": "3"})
			},
			status: http.StatusBadRequest,
			kind:   "validation",
		},
		{
			name: "body too large",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, []upload{{field: "file1", filename: "a.wav", body: strings.Repeat("x", 8192)}}, nil)
			},
			status: http.StatusRequestEntityTooLarge,
			kind:   "validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, scheduler.Config{Workers: 1}, 4096)

			rec := httptest.NewRecorder()
			env.h.Merge(rec, tt.request(t))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.status, rec.Body.String())
			}
			body := decodeError(t, rec)
			if body.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", body.Kind, tt.kind)
			}
			if tt.contains != "" && !strings.Contains(body.Error, tt.contains) {
				t.Errorf("error = %q, want it to contain %q", body.Error, tt.contains)
			}
			if n := len(env.exec.calls()); n != 0 {
				t.Errorf("executor called %d times for a rejected request", n)
			}
			env.assertTempEmpty(t)
		})
	}
}

func TestMergeTranscodeFailure(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 10<<20)
	env.exec.err = joberr.Transcode("execute", errors.New("exit status 1"), "Invalid data found when processing input /tmp/secret")

	req := multipartRequest(t, []upload{
		{field: "file1", filename: "a.wav", body: "one"},
		{field: "file2", filename: "b.wav", body: "two"},
	}, nil)
	rec := httptest.NewRecorder()
	env.h.Merge(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	raw := rec.Body.String()
	if strings.Contains(raw, "/tmp/secret") {
		t.Errorf("stderr detail leaked to client: %q", raw)
	}
	body := decodeError(t, rec)
	if body.Kind != "transcode" || body.Error != "failed to process audio files" {
		t.Errorf("body = %+v", body)
	}
	env.assertTempEmpty(t)
}

func TestMergeEmptyOutput(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 10<<20)
	env.exec.output = []byte{}

	req := multipartRequest(t, []upload{{field: "file1", filename: "a.wav", body: "one"}}, nil)
	rec := httptest.NewRecorder()
	env.h.Merge(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Kind != "read" {
		t.Errorf("kind = %q, want read", body.Kind)
	}
	env.assertTempEmpty(t)
}

func TestMergeSchedulerStopped(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 10<<20)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := env.sched.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	req := multipartRequest(t, []upload{{field: "file1", filename: "a.wav", body: "one"}}, nil)
	rec := httptest.NewRecorder()
	env.h.Merge(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	env.assertTempEmpty(t)
}

func TestMergeOverloaded(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1, MaxPending: 1}, 10<<20)

	release := make(chan struct{})
	defer close(release)
	block := func(context.Context) error {
		<-release
		return nil
	}

	if _, err := env.sched.Submit(block); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for env.sched.Stats().Running != 1 {
		if time.Now().After(deadline) {
			t.Fatal("blocking task never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := env.sched.Submit(block); err != nil {
		t.Fatal(err)
	}

	req := multipartRequest(t, []upload{{field: "file1", filename: "a.wav", body: "one"}}, nil)
	rec := httptest.NewRecorder()
	env.h.Merge(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if body := decodeError(t, rec); body.Kind != "overloaded" {
		t.Errorf("kind = %q", body.Kind)
	}
	env.assertTempEmpty(t)
}

type memoryGate bool

func (g memoryGate) Critical() bool { return bool(g) }

func TestMergeMemoryPressure(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 10<<20)
	env.h.SetMemoryGate(memoryGate(true))

	req := multipartRequest(t, []upload{{field: "file1", filename: "a.wav", body: "one"}}, nil)
	rec := httptest.NewRecorder()
	env.h.Merge(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != memoryRetryAfter {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if body := decodeError(t, rec); body.Kind != "overloaded" {
		t.Errorf("kind = %q", body.Kind)
	}
	if len(env.exec.calls()) != 0 {
		t.Error("executor ran under memory pressure")
	}
	env.assertTempEmpty(t)

	env.h.SetMemoryGate(memoryGate(false))
	req = multipartRequest(t, []upload{{field: "file1", filename: "a.wav", body: "one"}}, nil)
	rec = httptest.NewRecorder()
	env.h.Merge(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status after recovery = %d", rec.Code)
	}
}

func TestMergeClientGoneLeavesCleanupToJob(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 10<<20)

	release := make(chan struct{})
	if _, err := env.sched.Submit(func(context.Context) error {
		<-release
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := multipartRequest(t, []upload{{field: "file1", filename: "a.wav", body: "one"}}, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		env.h.Merge(rec, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for env.sched.Stats().Queued != 1 {
		if time.Now().After(deadline) {
			t.Fatal("merge job never queued")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	// The queued job still owns its input until it runs.
	entries := listTemp(t, env.tempDir)
	if len(entries) != 1 {
		t.Errorf("temp files after disconnect = %v, want the queued input", entries)
	}

	close(release)
	ctxStop, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelStop()
	if err := env.sched.Stop(ctxStop); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if n := len(env.exec.calls()); n != 1 {
		t.Errorf("executor called %d times, want the abandoned job to still run", n)
	}
	env.assertTempEmpty(t)
}

func TestClipSlot(t *testing.T) {
	tests := []struct {
		name string
		slot int
		ok   bool
	}{
		{"file1", 1, true},
		{"file6", 6, true},
		{"file0", 0, false},
		{"file7", 0, false},
		{"file", 0, false},
		{"fileX", 0, false},
		{"outputFilename", 0, false},
	}

	for _, tt := range tests {
		slot, ok := clipSlot(tt.name)
		if slot != tt.slot || ok != tt.ok {
			t.Errorf("clipSlot(%q) = %d, %v; want %d, %v", tt.name, slot, ok, tt.slot, tt.ok)
		}
	}
}
