// Package scheduler runs opaque tasks on a fixed pool of workers.
//
// At most K tasks run at once. Tasks beyond K wait in a single FIFO queue
// and are started strictly in submission order; completion order depends on
// how long each task takes. A task is never cancelled once queued.
//
//	s := scheduler.New(scheduler.Config{Workers: 4})
//	defer s.Stop(ctx)
//
//	h, err := s.Submit(func(ctx context.Context) error {
//	    return processor.Run(ctx, j)
//	})
//	if err != nil {
//	    // stopped, or the optional pending limit was hit
//	}
//	err = h.Wait(r.Context())
//
// The scheduler never looks inside a task. Whatever error the task returns
// is handed back through [Handle.Wait] unchanged.
package scheduler
