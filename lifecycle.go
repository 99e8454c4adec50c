package via

import (
	"time"
)

// Context lifecycle: cleanup callbacks, timers, and the delayed-cleanup
// grace window that makes same-origin page navigation cheap. When SSE
// drops, the context leaves its scopes at once but survives for
// Options.GracePeriod; a reconnect within the window cancels destruction
// and re-registers everything.

const defaultGracePeriod = 5 * time.Second

// OnCleanup registers a callback to run when the context is destroyed.
// Callbacks run in registration order; a panicking callback is logged and
// does not prevent the others from running.
func (c *Context) OnCleanup(cb func()) {
	if cb == nil {
		return
	}
	c.mu.Lock()
	c.cleanups = append(c.cleanups, cb)
	c.mu.Unlock()
}

// OnDisconnect is a synonym for OnCleanup.
func (c *Context) OnDisconnect(cb func()) {
	c.OnCleanup(cb)
}

// SetInterval runs handler every d on a goroutine owned by this context
// and returns a timer id for ClearInterval. All timers are cancelled when
// the context is destroyed.
func (c *Context) SetInterval(d time.Duration, handler func()) int {
	stop := make(chan struct{})
	c.mu.Lock()
	c.nextTimerID++
	id := c.nextTimerID
	c.timers[id] = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.runGuarded("interval handler", handler)
			}
		}
	}()
	return id
}

// ClearInterval stops the timer with the given id.
func (c *Context) ClearInterval(id int) {
	c.mu.Lock()
	stop, ok := c.timers[id]
	if ok {
		delete(c.timers, id)
	}
	c.mu.Unlock()
	if ok {
		close(stop)
	}
}

func (c *Context) cancelTimers() {
	c.mu.Lock()
	timers := c.timers
	c.timers = make(map[int]chan struct{})
	c.mu.Unlock()
	for _, stop := range timers {
		close(stop)
	}
}

func (c *Context) runGuarded(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.app.logErr(c, "%s panicked: %v", what, r)
		}
	}()
	fn()
}

// scheduleCleanup arms the one-shot destruction timer. Called when the
// SSE stream ends or the unload beacon arrives. Re-arming resets the
// window.
func (v *V) scheduleCleanup(c *Context) {
	grace := v.cfg.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	c.mu.Lock()
	if c.cleanupTimer != nil {
		c.cleanupTimer.Stop()
	}
	c.cleanupTimer = time.AfterFunc(grace, func() {
		v.logDebug(c, "cleanup grace period elapsed")
		v.destroyContext(c)
	})
	c.mu.Unlock()
	v.logDebug(c, "delayed cleanup scheduled in %s", grace)
}

// cancelCleanup disarms a pending destruction timer. Returns true when a
// timer was pending, i.e. this connect is a reconnect inside the grace
// window.
func (v *V) cancelCleanup(c *Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cleanupTimer == nil {
		return false
	}
	stopped := c.cleanupTimer.Stop()
	c.cleanupTimer = nil
	return stopped
}

// destroyContext tears a context down for good: cleanup callbacks (each
// under a panic guard), timers, component children, queue, scope
// membership, client record, registry entry.
func (v *V) destroyContext(c *Context) {
	c.cancelTimers()

	c.mu.Lock()
	cleanups := c.cleanups
	c.cleanups = nil
	components := make([]*Context, 0, len(c.componentRegistry))
	for _, comp := range c.componentRegistry {
		components = append(components, comp)
	}
	c.componentRegistry = make(map[string]*Context)
	c.mu.Unlock()

	for _, comp := range components {
		v.destroyContext(comp)
	}
	for _, cb := range cleanups {
		c.runGuarded("cleanup callback", cb)
	}

	c.mu.Lock()
	q := c.queue
	select {
	case <-c.disposed:
	default:
		close(c.disposed)
	}
	c.mu.Unlock()
	if q != nil {
		q.close()
	}
	v.unregisterScopes(c)
	v.dropClient(c.id)
	v.unregisterCtx(c)
	v.logDebug(c, "context destroyed")
}
