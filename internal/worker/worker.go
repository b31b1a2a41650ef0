// Package worker runs blocking filesystem jobs off the lifecycle controller's
// control flow.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrStopped is returned when a job is submitted after Stop.
var ErrStopped = errors.New("worker stopped")

type job struct {
	name string
	fn   func() error
	done chan error
}

// Worker executes submitted jobs one at a time, in submission order, on a
// single goroutine.
type Worker struct {
	mu     sync.Mutex
	logger *slog.Logger

	jobs   chan job
	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// New creates and starts a worker.
func New(logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		logger:  logger,
		jobs:    make(chan job),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		running: true,
	}
	go w.loop()
	return w
}

// Do runs fn on the worker and waits for it to finish.
// ctx bounds only the wait for the worker to pick the job up; once started a
// job runs to completion.
func (w *Worker) Do(ctx context.Context, name string, fn func() error) error {
	j := job{name: name, fn: fn, done: make(chan error, 1)}

	select {
	case w.jobs <- j:
	case <-w.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-j.done
}

// Stop waits for the running job and stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.logger.Debug("worker stopped")
}

func (w *Worker) loop() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case j := <-w.jobs:
			j.done <- w.run(j)
		}
	}
}

func (w *Worker) run(j job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
		w.logger.Debug("job finished", "job", j.name, "duration", time.Since(start), "error", err)
	}()
	return j.fn()
}
