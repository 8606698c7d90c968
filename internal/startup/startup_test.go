package startup

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	r := mux.NewRouter()
	r.HandleFunc("/merge", noop).Methods("POST").Name("merge")
	r.HandleFunc("/health", noop).Methods("GET", "HEAD")
	r.HandleFunc("/version", noop)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	want := []RouteInfo{
		{Method: "POST", Path: "/merge", Name: "merge"},
		{Method: "GET", Path: "/health"},
		{Method: "HEAD", Path: "/health"},
		{Method: "*", Path: "/version"},
	}
	if len(routes) != len(want) {
		t.Fatalf("GetRoutes() returned %d routes, want %d: %+v", len(routes), len(want), routes)
	}
	for i := range want {
		if routes[i] != want[i] {
			t.Errorf("route[%d] = %+v, want %+v", i, routes[i], want[i])
		}
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/merge", "merge"},
		{"/merge/status", "merge"},
		{"/", "root"},
		{"/livez", "probes"},
		{"/healthz", "probes"},
		{"/version", "probes"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRouteGroup(tt.path); got != tt.want {
				t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

type fakeChecker struct {
	version string
	err     error
}

func (f fakeChecker) Check(context.Context) (string, error) {
	return f.version, f.err
}

func TestLogTranscoderInit(t *testing.T) {
	if !LogTranscoderInit(fakeChecker{version: "ffmpeg version 7.0"}) {
		t.Error("LogTranscoderInit() = false for a working ffmpeg")
	}
	if LogTranscoderInit(fakeChecker{err: errors.New("not found")}) {
		t.Error("LogTranscoderInit() = true for a failing check")
	}
}

func TestEnabledString(t *testing.T) {
	if enabledString(true) != "ENABLED" || enabledString(false) != "DISABLED" {
		t.Error("enabledString returned unexpected values")
	}
}

func TestLifecycleLoggingDoesNotPanic(_ *testing.T) {
	LogSchedulerInit(2, 0)
	LogSchedulerInit(2, 10)
	LogTempSweep(0, 0, 0, nil)
	LogTempSweep(3, 4096, 0, nil)
	LogTempSweep(0, 0, 0, errors.New("boom"))
	LogHTTPRoutes(mux.NewRouter(), false)
	LogServerStarted(ServerConfig{Port: "8080", MetricsPort: "9090", MetricsEnabled: true})
	LogShutdownInitiated("SIGTERM")
	LogShutdownStep("Stopping scheduler")
	LogShutdownStepComplete("Scheduler stopped")
	LogShutdownComplete()
}
