package application

import (
	"context"
	"time"
)

// ShutdownFunc releases one piece of server state (a listener, the session
// manager, a background sweeper). It receives a context already bounded by
// the shutdown drain budget.
type ShutdownFunc func(ctx context.Context) error

// Shutdowner fans a graceful-shutdown signal out to every registered
// ShutdownFunc concurrently, bounded by a single drain budget, and reports
// every failure instead of stopping at the first.
type Shutdowner struct {
	budget time.Duration
	funcs  []ShutdownFunc
	logger *Logger
}

// NewShutdowner builds a Shutdowner with the given drain budget.
func NewShutdowner(budget time.Duration, logger *Logger) *Shutdowner {
	return &Shutdowner{budget: budget, logger: logger}
}

// Register adds a teardown step, run when Shutdown is called. Order is not
// guaranteed: all registered funcs run concurrently.
func (s *Shutdowner) Register(fn ShutdownFunc) {
	s.funcs = append(s.funcs, fn)
}

// Shutdown runs every registered ShutdownFunc concurrently against a context
// derived from ctx with the drain budget applied, collecting every error
// rather than failing fast.
func (s *Shutdowner) Shutdown(ctx context.Context) []error {
	drainCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	type result struct {
		err error
	}
	results := make(chan result, len(s.funcs))

	for _, fn := range s.funcs {
		fn := fn
		go func() {
			results <- result{err: fn(drainCtx)}
		}()
	}

	var errs []error
	for range s.funcs {
		if r := <-results; r.err != nil {
			errs = append(errs, r.err)
		}
	}

	if s.logger != nil {
		if len(errs) > 0 {
			s.logger.LogError("graceful shutdown completed with errors", "error_count", len(errs))
		} else {
			s.logger.LogInfo("graceful shutdown completed")
		}
	}

	return errs
}
