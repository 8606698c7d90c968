package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"audio-merger/internal/job"
	"audio-merger/internal/planner"
	"audio-merger/internal/scheduler"
	"audio-merger/internal/startup"
)

// =============================================================================
// Test doubles
// =============================================================================

// fakeExecutor writes output to the plan's output path instead of running ffmpeg.
type fakeExecutor struct {
	mu     sync.Mutex
	output []byte
	err    error
	plans  []*planner.Plan
}

func (f *fakeExecutor) Execute(_ context.Context, plan *planner.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, plan)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(plan.OutputPath, f.output, 0o600)
}

func (f *fakeExecutor) calls() []*planner.Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*planner.Plan(nil), f.plans...)
}

type fakeChecker struct {
	err   error
	count atomic.Int32
}

func (f *fakeChecker) Check(context.Context) (string, error) {
	f.count.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "ffmpeg version test", nil
}

type testEnv struct {
	h       *Handlers
	sched   *scheduler.Scheduler
	exec    *fakeExecutor
	checker *fakeChecker
	tempDir string
}

func newTestEnv(t *testing.T, schedCfg scheduler.Config, maxUpload int64) *testEnv {
	t.Helper()

	dir := t.TempDir()
	exec := &fakeExecutor{output: []byte("ID3merged-audio")}
	checker := &fakeChecker{}
	sched := scheduler.New(schedCfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sched.Stop(ctx)
	})

	proc := job.NewProcessor(exec, dir, planner.BuiltinDefaults())
	cfg := &startup.Config{TempDir: dir, MaxUploadBytes: maxUpload}

	return &testEnv{
		h:       New(sched, proc, checker, cfg),
		sched:   sched,
		exec:    exec,
		checker: checker,
		tempDir: dir,
	}
}

func listTemp(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, en := range entries {
		names = append(names, en.Name())
	}
	return names
}

func (e *testEnv) assertTempEmpty(t *testing.T) {
	t.Helper()
	if names := listTemp(t, e.tempDir); len(names) != 0 {
		t.Errorf("temp dir not empty: %v", names)
	}
}

type upload struct {
	field       string
	filename    string
	contentType string
	body        string
}

func multipartRequest(t *testing.T, files []upload, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		ct := f.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr.Set("Content-Type", ct)
		pw, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := pw.Write([]byte(f.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/merge", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
