package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"audio-merger/internal/logging"
)

// StatsProvider interface for collecting scheduler stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds a snapshot of scheduler state
type Stats struct {
	Queued      int
	Running     int
	WorkerLimit int
}

// Collector periodically samples scheduler state and the temp directory.
// The temp sample counts files carrying the service's prefix; a value that
// keeps growing while the queue is idle points at leaked job files.
type Collector struct {
	statsProvider StatsProvider
	tempDir       string
	tempPrefix    string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, tempDir, tempPrefix string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		tempDir:       tempDir,
		tempPrefix:    tempPrefix,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider != nil {
		stats := c.statsProvider.GetStats()
		SchedulerQueueDepth.Set(float64(stats.Queued))
		SchedulerWorkersBusy.Set(float64(stats.Running))
		SchedulerWorkerLimit.Set(float64(stats.WorkerLimit))
	}

	count, size := c.sampleTempDir()
	TempFilesPresent.Set(float64(count))
	TempBytesPresent.Set(float64(size))

	logging.Debug("Metrics collected: temp files=%d, temp bytes=%d", count, size)
}

func (c *Collector) sampleTempDir() (count int, size int64) {
	if c.tempDir == "" {
		return 0, 0
	}

	entries, err := os.ReadDir(c.tempDir)
	if err != nil {
		logging.Debug("failed to read temp directory %s: %v", c.tempDir, err)
		return 0, 0
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), c.tempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}

	logging.Debug("Temp sample of %s: %d files", filepath.Clean(c.tempDir), count)
	return count, size
}
