package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/margamflow/internal/pkg/stacktrace"
)

// ErrPanic is joined into Run's result when a task panics.
var ErrPanic = errors.New("goroutine: task panicked")

// Manager bounds how many CPU-heavy tasks (key derivations) run at once
// across the whole process.
//
// The zero value is not usable; create one with NewManager. A Manager is safe
// for concurrent use and may be shared by any number of callers.
type Manager struct {
	sema chan struct{}
}

// NewManager creates a Manager allowing maxGoroutine concurrent tasks.
// A non-positive limit defaults to runtime.NumCPU().
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU()
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Limit returns the maximum number of concurrent tasks.
func (g *Manager) Limit() int {
	return cap(g.sema)
}

// Run executes tasks concurrently, each one waiting for a free slot, and
// blocks until all of them return.
//
// Tasks that are still waiting for a slot when ctx ends are skipped and
// report ctx.Err(). Panics are recovered, logged with internal stack frames
// and reported as ErrPanic. The returned error joins every task error.
func (g *Manager) Run(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Go(func() {
			select {
			case g.sema <- struct{}{}:
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			defer func() { <-g.sema }()

			errs[i] = g.call(ctx, task)
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (g *Manager) call(ctx context.Context, task func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			paths := stacktrace.InternalPaths(stack)
			if len(paths) == 0 {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
			} else {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", paths)
			}
			err = fmt.Errorf("%w: %v", ErrPanic, rvr)
		}
	}()

	return task(ctx)
}
