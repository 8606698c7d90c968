package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"audio-merger/internal/scheduler"
)

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 3}, 1<<20)

	rec := httptest.NewRecorder()
	env.h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != statusHealthy || !resp.Ready {
		t.Errorf("status = %q ready = %v", resp.Status, resp.Ready)
	}
	if resp.Workers != 3 {
		t.Errorf("workers = %d, want 3", resp.Workers)
	}
	if resp.GoVersion == "" || resp.NumCPU < 1 {
		t.Errorf("missing system info: %+v", resp)
	}
}

func TestHealthCheckReportsFFmpegError(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 1<<20)
	env.checker.err = errors.New("exec: \"ffmpeg\": executable file not found in $PATH")

	rec := httptest.NewRecorder()
	env.h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, health should stay 200 while the process runs", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Ready || resp.FFmpegError == "" {
		t.Errorf("ready = %v ffmpegError = %q", resp.Ready, resp.FFmpegError)
	}
}

func TestHealthCheckStopping(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 1<<20)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = env.sched.Stop(ctx)

	rec := httptest.NewRecorder()
	env.h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestLivenessCheck(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 1<<20)

	tests := []struct {
		method   string
		wantBody bool
	}{
		{http.MethodGet, true},
		{http.MethodHead, false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.h.LivenessCheck(rec, httptest.NewRequest(tt.method, "/livez", nil))

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d", rec.Code)
			}
			if hasBody := rec.Body.Len() > 0; hasBody != tt.wantBody {
				t.Errorf("body present = %v, want %v", hasBody, tt.wantBody)
			}
		})
	}
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name      string
		ffmpegErr error
		stop      bool
		want      int
		status    string
	}{
		{"ready", nil, false, http.StatusOK, "ready"},
		{"ffmpeg missing", errors.New("not found"), false, http.StatusServiceUnavailable, "ffmpeg_unavailable"},
		{"stopping", nil, true, http.StatusServiceUnavailable, "stopping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, scheduler.Config{Workers: 1}, 1<<20)
			env.checker.err = tt.ffmpegErr
			if tt.stop {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = env.sched.Stop(ctx)
			}

			rec := httptest.NewRecorder()
			env.h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tt.status {
				t.Errorf("status field = %q, want %q", body["status"], tt.status)
			}
		})
	}
}

func TestReadinessCheckCachesFFmpegProbe(t *testing.T) {
	env := newTestEnv(t, scheduler.Config{Workers: 1}, 1<<20)

	for range 5 {
		env.h.ReadinessCheck(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	}

	if n := env.checker.count.Load(); n != 1 {
		t.Errorf("ffmpeg checked %d times, want 1 within the cache window", n)
	}

	env.h.readyMu.Lock()
	env.h.readyChecked = time.Now().Add(-2 * readinessTTL)
	env.h.readyMu.Unlock()

	env.h.ReadinessCheck(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if n := env.checker.count.Load(); n != 2 {
		t.Errorf("ffmpeg checked %d times, want a refresh after the cache expired", n)
	}
}
