package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"audio-merger/internal/joberr"
	"audio-merger/internal/logging"
	"audio-merger/internal/metrics"
)

// ErrStopped is returned by Submit after Stop has been called.
var ErrStopped = errors.New("scheduler stopped")

// Task is one unit of work. The context is cancelled only when a Stop
// deadline expires.
type Task func(ctx context.Context) error

// Config configures a Scheduler.
type Config struct {
	// Workers is the concurrency limit K. Values below 1 are treated as 1.
	Workers int
	// MaxPending rejects submissions while this many tasks are queued.
	// Zero means the queue is unbounded.
	MaxPending int
}

// Stats is a point-in-time snapshot of the scheduler.
type Stats struct {
	Queued      int
	Running     int
	Completed   uint64
	Failed      uint64
	Rejected    uint64
	WorkerLimit int
	Stopped     bool
}

type item struct {
	task   Task
	handle *Handle
}

// Scheduler is a bounded worker pool with a FIFO admission queue.
type Scheduler struct {
	workers    int
	maxPending int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []*item
	running   int
	completed uint64
	failed    uint64
	rejected  uint64
	nextID    uint64
	stopped   bool
}

// New creates a scheduler and starts its workers.
func New(cfg Config) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxPending < 0 {
		cfg.MaxPending = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		workers:    cfg.Workers,
		maxPending: cfg.MaxPending,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.cond = sync.NewCond(&s.mu)

	metrics.SchedulerWorkerLimit.Set(float64(cfg.Workers))

	s.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go s.worker(i)
	}

	logging.Info("Scheduler started with %d workers (max pending: %s)", cfg.Workers, pendingLimit(cfg.MaxPending))
	return s
}

// Submit queues task and returns its completion handle. It never blocks on
// other tasks.
func (s *Scheduler) Submit(task Task) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, ErrStopped
	}
	if s.maxPending > 0 && len(s.queue) >= s.maxPending {
		s.rejected++
		metrics.SchedulerJobsTotal.WithLabelValues("rejected").Inc()
		return nil, joberr.Overloaded("submit", "server is busy, %d jobs already waiting", len(s.queue))
	}

	s.nextID++
	h := newHandle(s.nextID)
	s.queue = append(s.queue, &item{task: task, handle: h})
	metrics.SchedulerQueueDepth.Set(float64(len(s.queue)))

	s.cond.Signal()
	return h, nil
}

// Stats returns a snapshot of the scheduler's counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Queued:      len(s.queue),
		Running:     s.running,
		Completed:   s.completed,
		Failed:      s.failed,
		Rejected:    s.rejected,
		WorkerLimit: s.workers,
		Stopped:     s.stopped,
	}
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stop stops accepting tasks and waits for queued and running tasks to
// finish. If ctx expires first, the context passed to running tasks is
// cancelled and Stop returns ctx.Err() once the workers have exited.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		s.cond.Broadcast()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		logging.Info("Scheduler drained")
		return nil
	case <-ctx.Done():
		logging.Warn("Scheduler drain deadline reached, cancelling running tasks")
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}

		it := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.running++
		it.handle.setStatus(StatusRunning)
		metrics.SchedulerQueueDepth.Set(float64(len(s.queue)))
		metrics.SchedulerWorkersBusy.Set(float64(s.running))
		s.mu.Unlock()

		metrics.SchedulerQueueWait.Observe(time.Since(it.handle.submitted).Seconds())
		logging.Debug("worker %d picked up task %d", id, it.handle.id)

		err := s.run(it.task)

		s.mu.Lock()
		s.running--
		status := StatusCompleted
		if err != nil {
			s.failed++
			status = StatusFailed
		} else {
			s.completed++
		}
		metrics.SchedulerWorkersBusy.Set(float64(s.running))
		s.mu.Unlock()

		metrics.SchedulerJobsTotal.WithLabelValues(string(status)).Inc()
		it.handle.finish(status, err)
	}
}

// run executes task, turning a panic into an internal error so one bad job
// cannot take a worker down.
func (s *Scheduler) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("task panicked: %v", r)
			err = &joberr.Error{Kind: joberr.KindInternal, Op: "run", Message: "internal server error", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return task(s.ctx)
}

func pendingLimit(n int) string {
	if n == 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d", n)
}
