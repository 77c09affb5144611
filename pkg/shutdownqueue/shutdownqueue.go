// Package shutdownqueue is a process-wide LIFO queue of named cleanup tasks.
//
// Components register their teardown with Add as they start, and main drains
// the queue once on exit:
//
//	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
//	defer cancel()
//	err := shutdownqueue.Shutdown(ctx)
//
// Tasks run once, newest first, so a component stops before the things it
// depends on. Panics are recovered and reported with the task name.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a shutdown function. It should honor ctx and return an error
// if it can't finish (or ctx is canceled).
type Task func(ctx context.Context) error

type entry struct {
	name string
	run  Task
}

type queue struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
}

var q = &queue{entries: make([]entry, 0, 8)}

// Add registers a task under name. Nil tasks and tasks added after Shutdown
// has started are ignored.
func Add(name string, t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		slog.Warn("shutdown task registered too late", slog.String("task", name))
		return
	}

	q.entries = append(q.entries, entry{name: name, run: t})
}

// Len returns the number of pending tasks.
func Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}

// Shutdown drains all registered tasks in LIFO order. Calls after the first
// are no-ops. If ctx ends mid-drain the remaining tasks are skipped and the
// context error is joined with the task errors collected so far.
func Shutdown(ctx context.Context) error {
	q.mu.Lock()

	if q.closed && len(q.entries) == 0 {
		q.mu.Unlock()

		return nil
	}

	q.closed = true
	entries := q.entries
	q.entries = nil

	q.mu.Unlock()

	var errs []error

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]

		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("shutdown canceled before %q: %w", e.name, ctx.Err()))

			return errors.Join(errs...)
		}

		err := runTask(ctx, e)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, e entry) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in shutdown task %q: %v", e.name, r)
		}

		attrs := []any{slog.String("task", e.name), slog.Duration("took", time.Since(start))}
		if err != nil {
			slog.Error("shutdown task failed", append(attrs, slog.Any("error", err))...)
			return
		}

		slog.Info("shutdown task done", attrs...)
	}()

	err = e.run(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", e.name, err)
	}

	return nil
}
