package startup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"audio-merger/internal/logging"
	"audio-merger/internal/workers"
)

// maxWorkerLimit caps MERGE_WORKERS.
const maxWorkerLimit = 64

// Config holds all application configuration
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	TempDir          string
	TempSweepAge     time.Duration
	MergeWorkers     int
	MaxPendingJobs   int
	TranscodeTimeout time.Duration
	ShutdownTimeout  time.Duration
	MaxUploadBytes   int64
	FFmpegPath       string

	DefaultSilenceSeconds float64
	DefaultTargetLUFS     float64

	APITokenHash   string
	RateLimitRPS   float64
	RateLimitBurst int

	// Sources actually used, for the startup log.
	ConfigFile string
	EnvFile    string
}

// fileConfig mirrors Config for the optional YAML file. Durations are kept
// as strings so operators can write "10m".
type fileConfig struct {
	Port                  string  `yaml:"port"`
	MetricsPort           string  `yaml:"metrics_port"`
	MetricsEnabled        bool    `yaml:"metrics_enabled"`
	LogHealthChecks       bool    `yaml:"log_health_checks"`
	LogLevel              string  `yaml:"log_level"`
	TempDir               string  `yaml:"temp_dir"`
	TempSweepAge          string  `yaml:"temp_sweep_age"`
	MergeWorkers          int     `yaml:"merge_workers"`
	MaxPendingJobs        int     `yaml:"max_pending_jobs"`
	TranscodeTimeout      string  `yaml:"transcode_timeout"`
	ShutdownTimeout       string  `yaml:"shutdown_timeout"`
	MaxUploadMB           int64   `yaml:"max_upload_mb"`
	FFmpegPath            string  `yaml:"ffmpeg_path"`
	DefaultSilenceSeconds float64 `yaml:"default_silence_seconds"`
	DefaultTargetLUFS     float64 `yaml:"default_target_lufs"`
	APITokenHash          string  `yaml:"api_token_hash"`
	RateLimitRPS          float64 `yaml:"rate_limit_rps"`
	RateLimitBurst        int     `yaml:"rate_limit_burst"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Port:                  "8080",
		MetricsPort:           "9090",
		MetricsEnabled:        true,
		LogHealthChecks:       true,
		TempDir:               os.TempDir(),
		TempSweepAge:          "1h",
		TranscodeTimeout:      "10m",
		ShutdownTimeout:       "60s",
		MaxUploadMB:           200,
		FFmpegPath:            "ffmpeg",
		DefaultSilenceSeconds: 1.0,
		DefaultTargetLUFS:     -16,
	}
}

// LoadConfig loads and validates configuration. Sources, lowest precedence
// first: built-in defaults, the YAML file named by CONFIG_FILE, the .env file
// (ENV_FILE, default ".env"), and the process environment. Values from .env
// never replace variables already set in the environment.
func LoadConfig() (*Config, error) {
	envFile, envErr := loadEnvFile(getEnv("ENV_FILE", ".env"))

	printBanner()
	logSystemInfo()

	logSection("CONFIGURATION")

	if envErr != nil {
		logging.Warn("  Failed to load env file: %v", envErr)
	} else if envFile != "" {
		logging.Info("  Env file:            %s", envFile)
	}

	fc := defaultFileConfig()
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := loadYAML(configFile, &fc); err != nil {
			return nil, err
		}
		logging.Info("  Config file:         %s", configFile)
		if fc.LogLevel != "" && os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "" {
			logging.SetLevel(logging.ParseLevel(fc.LogLevel))
		}
	}

	port := getEnv("PORT", fc.Port)
	metricsPort := getEnv("METRICS_PORT", fc.MetricsPort)
	metricsEnabled := getEnvBool("METRICS_ENABLED", fc.MetricsEnabled)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", fc.LogHealthChecks)
	tempDir := getEnv("TEMP_DIR", fc.TempDir)
	mergeWorkers := getEnvInt("MERGE_WORKERS", fc.MergeWorkers)
	maxPending := getEnvInt("MAX_PENDING_JOBS", fc.MaxPendingJobs)
	maxUploadMB := int64(getEnvInt("MAX_UPLOAD_MB", int(fc.MaxUploadMB)))
	ffmpegPath := getEnv("FFMPEG_PATH", fc.FFmpegPath)
	silence := getEnvFloat("DEFAULT_SILENCE_SECONDS", fc.DefaultSilenceSeconds)
	lufs := getEnvFloat("DEFAULT_TARGET_LUFS", fc.DefaultTargetLUFS)
	tokenHash := getEnv("API_TOKEN_HASH", fc.APITokenHash)
	rateRPS := getEnvFloat("RATE_LIMIT_RPS", fc.RateLimitRPS)
	rateBurst := getEnvInt("RATE_LIMIT_BURST", fc.RateLimitBurst)

	transcodeTimeout := parseDuration("TRANSCODE_TIMEOUT", getEnv("TRANSCODE_TIMEOUT", fc.TranscodeTimeout), 10*time.Minute)
	shutdownTimeout := parseDuration("SHUTDOWN_TIMEOUT", getEnv("SHUTDOWN_TIMEOUT", fc.ShutdownTimeout), 60*time.Second)
	sweepAge := parseDuration("TEMP_SWEEP_AGE", getEnv("TEMP_SWEEP_AGE", fc.TempSweepAge), time.Hour)

	if maxPending < 0 {
		logging.Warn("  Invalid MAX_PENDING_JOBS %d, using unbounded queue", maxPending)
		maxPending = 0
	}
	if maxUploadMB <= 0 {
		logging.Warn("  Invalid MAX_UPLOAD_MB %d, using default: 200", maxUploadMB)
		maxUploadMB = 200
	}
	if rateRPS > 0 && rateBurst <= 0 {
		rateBurst = max(1, int(rateRPS))
	}

	resolvedWorkers := workers.Resolve(mergeWorkers, maxWorkerLimit)

	logging.Info("  PORT:                     %s", port)
	logging.Info("  METRICS_PORT:             %s", metricsPort)
	logging.Info("  METRICS_ENABLED:          %v", metricsEnabled)
	logging.Info("  TEMP_DIR:                 %s", tempDir)
	logging.Info("  MERGE_WORKERS:            %d%s", resolvedWorkers, autoSuffix(mergeWorkers))
	logging.Info("  MAX_PENDING_JOBS:         %s", pendingString(maxPending))
	logging.Info("  TRANSCODE_TIMEOUT:        %s", durationString(transcodeTimeout))
	logging.Info("  SHUTDOWN_TIMEOUT:         %s", shutdownTimeout)
	logging.Info("  MAX_UPLOAD_MB:            %d", maxUploadMB)
	logging.Info("  FFMPEG_PATH:              %s", ffmpegPath)
	logging.Info("  DEFAULT_SILENCE_SECONDS:  %g", silence)
	logging.Info("  DEFAULT_TARGET_LUFS:      %g", lufs)
	logging.Info("  API token auth:           %s", enabledString(tokenHash != ""))
	logging.Info("  RATE_LIMIT_RPS:           %s", rateString(rateRPS, rateBurst))
	logging.Info("  LOG_HEALTH_CHECKS:        %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:                %s", logging.GetLevel())

	logSection("DIRECTORY SETUP")

	tempDir, err := filepath.Abs(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp directory path: %w", err)
	}
	logging.Info("  Temp directory (absolute): %s", tempDir)

	if err := ensureDirectory(tempDir, "temp"); err != nil {
		return nil, fmt.Errorf("temp directory error: %w", err)
	}

	logging.Debug("  Testing temp directory write access...")
	if err := testWriteAccess(tempDir); err != nil {
		return nil, fmt.Errorf("temp directory is not writable (required for uploads): %w", err)
	}
	logging.Info("  [OK] Temp directory is writable")

	return &Config{
		Port:                  port,
		MetricsPort:           metricsPort,
		MetricsEnabled:        metricsEnabled,
		LogHealthChecks:       logHealthChecks,
		TempDir:               tempDir,
		TempSweepAge:          sweepAge,
		MergeWorkers:          resolvedWorkers,
		MaxPendingJobs:        maxPending,
		TranscodeTimeout:      transcodeTimeout,
		ShutdownTimeout:       shutdownTimeout,
		MaxUploadBytes:        maxUploadMB << 20,
		FFmpegPath:            ffmpegPath,
		DefaultSilenceSeconds: silence,
		DefaultTargetLUFS:     lufs,
		APITokenHash:          tokenHash,
		RateLimitRPS:          rateRPS,
		RateLimitBurst:        rateBurst,
		ConfigFile:            configFile,
		EnvFile:               envFile,
	}, nil
}

// loadEnvFile loads path into the environment if it exists. A missing file
// is not an error; it returns "" so the caller can tell nothing was loaded.
func loadEnvFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err := godotenv.Load(path); err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	return path, nil
}

// loadYAML decodes path over fc, leaving absent keys at their defaults.
// Unknown keys are rejected so typos do not pass silently.
func loadYAML(path string, fc *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %g", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func parseDuration(key, value string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		logging.Warn("  Invalid %s %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func autoSuffix(configured int) string {
	if configured > 0 {
		return ""
	}
	return " (auto)"
}

func pendingString(n int) string {
	if n == 0 {
		return "unbounded"
	}
	return strconv.Itoa(n)
}

func durationString(d time.Duration) string {
	if d == 0 {
		return "disabled"
	}
	return d.String()
}

func rateString(rps float64, burst int) string {
	if rps <= 0 {
		return "disabled"
	}
	return fmt.Sprintf("%g/s (burst %d)", rps, burst)
}
