// Package lifecycle sequences startup, readiness, and graceful shutdown
// for serve and watch.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// ErrShutdownTimeout is returned when shutdown hooks outlive the grace period.
var ErrShutdownTimeout = errors.New("shutdown timed out")

type ReadinessChecker interface {
	Ready() bool
}

// CheckFunc adapts a plain function to ReadinessChecker.
type CheckFunc func() bool

func (f CheckFunc) Ready() bool { return f() }

// Coordinator owns a context shared by every subsystem. Cancelling the
// parent context passed to New starts shutdown the same way Shutdown does.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup  sync.WaitGroup
	shutdown sync.WaitGroup
	started  atomic.Bool

	mu     sync.Mutex
	checks []ReadinessChecker
}

func New(parent context.Context) *Coordinator {
	c := &Coordinator{}
	c.ctx, c.cancel = context.WithCancel(parent)
	return c
}

// Context is cancelled once shutdown begins.
func (c *Coordinator) Context() context.Context { return c.ctx }

// OnStartup runs fn in its own goroutine; WaitForStartup waits for it.
func (c *Coordinator) OnStartup(fn func()) { c.startup.Go(fn) }

// OnShutdown runs fn in its own goroutine. Hooks wait on Context().Done()
// before releasing resources.
func (c *Coordinator) OnShutdown(fn func()) { c.shutdown.Go(fn) }

// Require makes readiness depend on check.
func (c *Coordinator) Require(check ReadinessChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, check)
}

// Ready holds between the end of startup and the start of shutdown while
// every required check passes.
func (c *Coordinator) Ready() bool {
	if !c.started.Load() || c.ctx.Err() != nil {
		return false
	}

	c.mu.Lock()
	checks := slices.Clone(c.checks)
	c.mu.Unlock()

	for _, check := range checks {
		if !check.Ready() {
			return false
		}
	}
	return true
}

func (c *Coordinator) WaitForStartup() {
	c.startup.Wait()
	c.started.Store(true)
}

// Shutdown cancels the shared context and waits up to timeout for the
// shutdown hooks.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.shutdown.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, timeout)
	}
}
