package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"audio-merger/internal/filesystem"
	"audio-merger/internal/handlers"
	"audio-merger/internal/job"
	"audio-merger/internal/logging"
	"audio-merger/internal/memory"
	"audio-merger/internal/metrics"
	"audio-merger/internal/middleware"
	"audio-merger/internal/planner"
	"audio-merger/internal/scheduler"
	"audio-merger/internal/startup"
	"audio-merger/internal/tempfs"
	"audio-merger/internal/transcoder"
)

const (
	// Server timeouts. WriteTimeout stays 0 on the app server because a merge
	// request holds its connection for the whole transcode; the response body
	// is bounded by the streaming writer instead.
	serverReadHeaderTimeout = 15 * time.Second
	serverIdleTimeout       = 120 * time.Second
	metricsReadTimeout      = 10 * time.Second
	metricsWriteTimeout     = 10 * time.Second

	metricsCollectInterval = 15 * time.Second
	httpShutdownTimeout    = 30 * time.Second
)

// schedulerStatsAdapter exposes scheduler stats to the metrics collector.
type schedulerStatsAdapter struct {
	sched *scheduler.Scheduler
}

func (a *schedulerStatsAdapter) GetStats() metrics.Stats {
	s := a.sched.Stats()
	return metrics.Stats{
		Queued:      s.Queued,
		Running:     s.Running,
		WorkerLimit: s.WorkerLimit,
	}
}

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	memory.ConfigureFromEnv()

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"temp": config.TempDir,
	}))

	removed, bytes, err := tempfs.SweepStale(config.TempDir, tempfs.DefaultPrefix, config.TempSweepAge)
	startup.LogTempSweep(removed, bytes, config.TempSweepAge, err)

	executor := transcoder.New(transcoder.Config{
		FFmpegPath: config.FFmpegPath,
		Timeout:    config.TranscodeTimeout,
	})
	startup.LogTranscoderInit(executor)

	sched := scheduler.New(scheduler.Config{
		Workers:    config.MergeWorkers,
		MaxPending: config.MaxPendingJobs,
	})
	startup.LogSchedulerInit(config.MergeWorkers, config.MaxPendingJobs)

	processor := job.NewProcessor(executor, config.TempDir, planner.Defaults{
		SilenceDurationSeconds: config.DefaultSilenceSeconds,
		TargetLoudnessLUFS:     config.DefaultTargetLUFS,
	})

	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()

	h := handlers.New(sched, processor, executor, config)
	h.SetMemoryGate(memMonitor)
	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           middleware.Logger(loggingConfig)(router),
		ReadHeaderTimeout: serverReadHeaderTimeout,
		IdleTimeout:       serverIdleTimeout,
	}

	var metricsSrv *http.Server
	var collector *metrics.Collector
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(h, config.MetricsPort)
		collector = metrics.NewCollector(&schedulerStatsAdapter{sched: sched}, config.TempDir, tempfs.DefaultPrefix, metricsCollectInterval)
		collector.Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return serve(srv)
	})
	if metricsSrv != nil {
		g.Go(func() error {
			return serve(metricsSrv)
		})
	}

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	g.Go(func() error {
		<-gctx.Done()
		reason := "server error"
		if ctx.Err() != nil {
			reason = "signal"
		}
		memMonitor.Stop()
		shutdown(reason, config.ShutdownTimeout, srv, metricsSrv, collector, sched, executor)
		return nil
	})

	if err := g.Wait(); err != nil {
		logging.Error("Server error: %v", err)
		os.Exit(1)
	}
}

func serve(srv *http.Server) error {
	logging.Debug("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Probes stay outside auth so orchestrators can reach them.
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	merge := r.PathPrefix("/merge").Subrouter()
	merge.Use(middleware.RateLimit(config.RateLimitRPS, config.RateLimitBurst))
	merge.Use(middleware.TokenAuth(config.APITokenHash))
	merge.HandleFunc("", h.Merge).Methods("POST")

	return r
}

func newMetricsServer(h *handlers.Handlers, port string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())

	return &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  metricsReadTimeout,
		WriteTimeout: metricsWriteTimeout,
	}
}

// shutdown stops admission, drains queued jobs, kills any ffmpeg process
// still running, and closes both servers.
func shutdown(reason string, drainTimeout time.Duration, srv, metricsSrv *http.Server, collector *metrics.Collector, sched *scheduler.Scheduler, executor *transcoder.Executor) {
	startup.LogShutdownInitiated(reason)

	startup.LogShutdownStep("Draining merge jobs")
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), drainTimeout)
	if err := sched.Stop(drainCtx); err != nil {
		logging.Warn("Scheduler drain incomplete: %v", err)
	} else {
		startup.LogShutdownStepComplete("Merge jobs drained")
	}
	cancelDrain()

	startup.LogShutdownStep("Cleaning up transcoder")
	executor.Cleanup()
	startup.LogShutdownStepComplete("Transcoder cleanup complete")

	if collector != nil {
		collector.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Error("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("HTTP server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
