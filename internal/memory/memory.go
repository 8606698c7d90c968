package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"audio-merger/internal/logging"
	"audio-merger/internal/metrics"
)

// Config holds monitor thresholds as fractions of the heap limit.
type Config struct {
	// LimitBytes overrides GOMEMLIMIT when non-zero.
	LimitBytes int64

	// CriticalRatio is the usage at which new merge jobs are refused.
	CriticalRatio float64

	// ResumeRatio is the usage below which admission resumes.
	ResumeRatio float64

	CheckInterval time.Duration
}

// DefaultConfig returns the thresholds used by the service.
func DefaultConfig() Config {
	return Config{
		CriticalRatio: 0.9,
		ResumeRatio:   0.75,
		CheckInterval: 2 * time.Second,
	}
}

// Monitor samples heap usage and reports when it is critical. Every merge
// job holds its finished output in memory until the response is written, so
// admission stops while the heap is near its limit.
type Monitor struct {
	config   Config
	limit    int64
	readHeap func() uint64
	stopOnce sync.Once
	stopChan chan struct{}

	mu       sync.RWMutex
	current  uint64
	critical bool
}

// NewMonitor creates a monitor. Without a limit it never reports pressure.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < math.MaxInt64 {
			limit = goMemLimit
		}
	}
	if config.ResumeRatio <= 0 || config.ResumeRatio > config.CriticalRatio {
		config.ResumeRatio = config.CriticalRatio
	}

	if limit > 0 {
		logging.Info("Memory monitor: refusing merges above %.0f%% of %s", config.CriticalRatio*100, FormatBytes(limit))
	} else {
		logging.Debug("Memory monitor: no heap limit configured, backpressure disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		readHeap: heapAlloc,
		stopChan: make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Start begins sampling. It is a no-op when no limit is known.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.monitorLoop()
}

// Stop ends sampling. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) sample() {
	alloc := m.readHeap()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	if m.limit == 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case !m.critical && usage >= m.config.CriticalRatio:
		logging.Warn("Memory critical (%.1f%% of limit), refusing new merge jobs", usage*100)
		m.critical = true
		metrics.MemoryCritical.Set(1)
		go runtime.GC()
	case m.critical && usage < m.config.ResumeRatio:
		logging.Info("Memory recovered (%.1f%% of limit), accepting merge jobs", usage*100)
		m.critical = false
		metrics.MemoryCritical.Set(0)
	}
}

// Critical reports whether new jobs should be refused.
func (m *Monitor) Critical() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.critical
}

// Usage returns the last sampled heap usage as a fraction of the limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}
