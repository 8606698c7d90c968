package scheduler

import (
	"context"
	"sync"
	"time"
)

// Status is the scheduling state of a submitted task.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Handle is the completion handle of one submitted task.
type Handle struct {
	id        uint64
	submitted time.Time
	done      chan struct{}

	mu     sync.Mutex
	status Status
	err    error
}

func newHandle(id uint64) *Handle {
	return &Handle{
		id:        id,
		submitted: time.Now(),
		done:      make(chan struct{}),
		status:    StatusQueued,
	}
}

// ID returns the submission sequence number, starting at 1.
func (h *Handle) ID() uint64 {
	return h.id
}

// Status returns the task's current state.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Done is closed when the task has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task finishes and returns its error. If ctx ends
// first, Wait returns ctx.Err(); the task keeps running regardless.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) setStatus(s Status) {
	h.mu.Lock()
	h.status = s
	h.mu.Unlock()
}

func (h *Handle) finish(s Status, err error) {
	h.mu.Lock()
	h.status = s
	h.err = err
	h.mu.Unlock()
	close(h.done)
}
