// Package lifecycle coordinates named startup checks and shutdown hooks for
// the long-running systems of a process.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// Check states reported by Status.
const (
	StatusPending = "pending"
	StatusOK      = "ok"
)

type shutdownHook struct {
	name string
	fn   func(context.Context)
}

// Coordinator runs startup checks concurrently and shutdown hooks once.
// The process is ready when every check has finished without error.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup sync.WaitGroup
	started bool

	mu       sync.RWMutex
	status   map[string]string
	failures []error
	hooks    []shutdownHook

	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a Coordinator whose context is cancelled by Shutdown.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		status: make(map[string]string),
	}
}

// Context returns the process context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in the background under name. A returned error marks
// the process not ready and is reported by Status.
func (c *Coordinator) OnStartup(name string, fn func(context.Context) error) {
	c.setStatus(name, StatusPending)

	c.startup.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.status[name] = err.Error()
			c.failures = append(c.failures, fmt.Errorf("%s: %w", name, err))
			c.mu.Unlock()
			return
		}
		c.setStatus(name, StatusOK)
	})
}

// OnShutdown registers fn to run when Shutdown is called. Hooks run
// concurrently and receive a context bounded by the shutdown timeout.
func (c *Coordinator) OnShutdown(name string, fn func(context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, shutdownHook{name: name, fn: fn})
}

// WaitForStartup blocks until every startup check has finished and returns
// the joined check failures.
func (c *Coordinator) WaitForStartup() error {
	c.startup.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	return errors.Join(c.failures...)
}

// Ready reports whether startup has completed with no failed checks.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started && len(c.failures) == 0
}

// Status returns a snapshot of every startup check keyed by name.
func (c *Coordinator) Status() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.status)
}

// Shutdown cancels the process context, then runs the shutdown hooks and
// waits for them up to timeout. Later calls return the first result.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.shutdownOnce.Do(func() {
		c.cancel()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		c.mu.RLock()
		hooks := append([]shutdownHook(nil), c.hooks...)
		c.mu.RUnlock()

		var (
			wg      sync.WaitGroup
			pending sync.Map
		)
		for _, h := range hooks {
			pending.Store(h.name, struct{}{})
			wg.Go(func() {
				h.fn(ctx)
				pending.Delete(h.name)
			})
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			var names []string
			pending.Range(func(k, _ any) bool {
				names = append(names, k.(string))
				return true
			})
			c.shutdownErr = fmt.Errorf("shutdown timeout after %v, waiting on %v", timeout, names)
		}
	})
	return c.shutdownErr
}

func (c *Coordinator) setStatus(name, state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[name] = state
}
