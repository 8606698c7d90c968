package startup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"maps"
	"math"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"audio-merger/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// FFmpegChecker reports the ffmpeg version line or why ffmpeg is unusable.
type FFmpegChecker interface {
	Check(ctx context.Context) (string, error)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogTranscoderInit checks ffmpeg and logs the result. It returns false when
// ffmpeg is missing so the caller can decide whether to keep starting.
func LogTranscoderInit(checker FFmpegChecker) bool {
	logSection("TRANSCODER INITIALIZATION")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	version, err := checker.Check(ctx)
	if err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Merge requests will fail until ffmpeg is available")
		return false
	}
	logging.Info("  [OK] FFmpeg is available")
	logging.Debug("  FFmpeg version: %s", version)
	return true
}

// LogSchedulerInit logs worker pool sizing.
func LogSchedulerInit(workers, maxPending int) {
	logSection("SCHEDULER INITIALIZATION")
	logging.Info("  Workers:         %d", workers)
	logging.Info("  Queue limit:     %s", pendingString(maxPending))
}

// LogTempSweep logs the result of the startup stale temp file sweep.
func LogTempSweep(removed int, bytes int64, maxAge time.Duration, err error) {
	if err != nil {
		logging.Warn("  Stale temp sweep failed: %v", err)
		return
	}
	if removed == 0 {
		logging.Debug("  No stale temp files older than %v", maxAge)
		return
	}
	logging.Info("  [OK] Removed %d stale temp files (%.1f MB) older than %v",
		removed, float64(bytes)/(1024*1024), maxAge)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the route table at debug level, grouped into probes and
// API routes, followed by the access log settings.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logSection("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		byGroup := make(map[string][]RouteInfo)
		for _, route := range routes {
			g := getRouteGroup(route.Path)
			byGroup[g] = append(byGroup[g], route)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		for _, g := range slices.Sorted(maps.Keys(byGroup)) {
			logging.Debug("  [%s]", g)
			for _, route := range byGroup[g] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
		logging.Debug("")
	}

	if logHealthChecks {
		logging.Info("  Access log: W3C, probes included")
	} else {
		logging.Info("  Access log: W3C, probes skipped (LOG_HEALTH_CHECKS=false)")
	}
}

// probePaths are the endpoints orchestrators poll.
var probePaths = map[string]bool{
	"health":  true,
	"healthz": true,
	"livez":   true,
	"readyz":  true,
	"version": true,
}

// getRouteGroup returns "probes" for health endpoints, otherwise the first
// path segment, or "root" for "/".
func getRouteGroup(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	switch {
	case first == "":
		return "root"
	case probePaths[first]:
		return "probes"
	default:
		return first
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the listening endpoints.
func LogServerStarted(config ServerConfig) {
	logSection("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Merge:           POST http://0.0.0.0:%s/merge", config.Port)
	logging.Info("  Probes:          http://0.0.0.0:%s/{healthz,livez,readyz}", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

func logSection(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(reason string) {
	logSection("SHUTDOWN INITIATED (" + reason + ")")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ___             ___          __  ___
   /   | __  ______/ (_)___     /  |/  /__  _________ ____  _____
  / /| |/ / / / __  / / __ \   / /|_/ / _ \/ ___/ __ '/ _ \/ ___/
 / ___ / /_/ / /_/ / / /_/ /  / /  / /  __/ /  / /_/ /  __/ /
/_/  |_\__,_/\__,_/_/\____/  /_/  /_/\___/_/   \__, /\___/_/
                                              /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logSection("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	if limit := debug.SetMemoryLimit(-1); limit < math.MaxInt64 {
		logging.Info("  GOMEMLIMIT:      %d MiB", limit>>20)
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".audio-merger-write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
