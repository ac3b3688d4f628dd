// Package lifecycle coordinates startup and shutdown hooks for long-lived
// subsystems such as storage backends.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Coordinator manages startup and shutdown hooks for a process run.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	errMu      sync.Mutex
	errs       []error
	ready      bool
	readyMu    sync.RWMutex
}

// New creates a Coordinator whose context derives from parent.
func New(parent context.Context) *Coordinator {
	ctx, cancel := context.WithCancel(parent)
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a function to run concurrently during startup.
// Errors are collected and returned from WaitForStartup.
func (c *Coordinator) OnStartup(fn func() error) {
	c.startupWg.Go(func() {
		if err := fn(); err != nil {
			c.errMu.Lock()
			c.errs = append(c.errs, err)
			c.errMu.Unlock()
		}
	})
}

// OnShutdown registers a function to run concurrently during shutdown.
// Shutdown hooks should block on <-c.Context().Done() before executing cleanup.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// Ready returns true after all startup hooks completed without error.
func (c *Coordinator) Ready() bool {
	c.readyMu.RLock()
	defer c.readyMu.RUnlock()
	return c.ready
}

// WaitForStartup blocks until all startup hooks have completed. It returns
// the joined hook errors, and only marks the coordinator ready when there
// are none.
func (c *Coordinator) WaitForStartup() error {
	c.startupWg.Wait()

	c.errMu.Lock()
	err := errors.Join(c.errs...)
	c.errMu.Unlock()

	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	c.readyMu.Lock()
	c.ready = true
	c.readyMu.Unlock()
	return nil
}

// Shutdown cancels the context and waits for shutdown hooks to complete
// within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
