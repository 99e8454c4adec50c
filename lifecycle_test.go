package via

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnCleanupRunsInOrder(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)

	var order []int
	c.OnCleanup(func() { order = append(order, 1) })
	c.OnCleanup(func() { order = append(order, 2) })
	c.OnCleanup(nil)
	c.OnDisconnect(func() { order = append(order, 3) })

	v.destroyContext(c)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestOnCleanupPanicIsGuarded(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)

	ran := false
	c.OnCleanup(func() { panic("boom") })
	c.OnCleanup(func() { ran = true })

	v.destroyContext(c)
	assert.True(t, ran, "a panicking callback does not stop the others")
}

func TestDestroyContextTearsDown(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)
	c.Scope("room:lobby")
	c.Signal(0, WithName("count"))
	v.registerCtx(c)

	v.destroyContext(c)

	_, err := v.getCtx("ctx-1")
	assert.Error(t, err)
	assert.Empty(t, scopeMembers(v, "room:lobby"))
	v.stateMu.RLock()
	_, sigAlive := v.signalStore["room:lobby"]
	v.stateMu.RUnlock()
	assert.False(t, sigAlive)

	select {
	case <-c.disposed:
	default:
		t.Fatal("disposed channel should be closed")
	}
	assert.Zero(t, c.queue.push(patch{content: "late"}))
	assert.Zero(t, c.queue.len(), "the queue no longer accepts patches")
}

func TestDestroyContextIsIdempotent(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)
	v.registerCtx(c)
	v.destroyContext(c)
	v.destroyContext(c)
}

func TestDestroyContextDestroysComponents(t *testing.T) {
	v := New()
	page := newContext("page-1", "/", v)
	cleaned := false
	page.Component(func(c *Context) {
		c.OnCleanup(func() { cleaned = true })
	})

	v.destroyContext(page)
	assert.True(t, cleaned)
}

func TestScheduleCleanupDestroysAfterGrace(t *testing.T) {
	v := New()
	v.Config(Options{GracePeriod: 10 * time.Millisecond})
	c := newContext("ctx-1", "/", v)
	v.registerCtx(c)

	v.scheduleCleanup(c)
	_, err := v.getCtx("ctx-1")
	assert.NoError(t, err, "the context survives inside the window")

	require.Eventually(t, func() bool {
		_, err := v.getCtx("ctx-1")
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestCancelCleanupKeepsContext(t *testing.T) {
	v := New()
	v.Config(Options{GracePeriod: 20 * time.Millisecond})
	c := newContext("ctx-1", "/", v)
	c.Scope("room:lobby")
	sig := c.Signal(0, WithName("count"))
	sig.SetQuiet(7)
	v.registerCtx(c)

	v.scheduleCleanup(c)
	assert.True(t, v.cancelCleanup(c), "a pending timer means this is a reconnect")

	time.Sleep(50 * time.Millisecond)
	_, err := v.getCtx("ctx-1")
	assert.NoError(t, err, "the cancelled timer never fires")
	assert.Equal(t, 7, sig.Int(), "state survives the reconnect")
}

func TestCancelCleanupWithoutPendingTimer(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)
	assert.False(t, v.cancelCleanup(c))
}

func TestScheduleCleanupRearms(t *testing.T) {
	v := New()
	v.Config(Options{GracePeriod: 30 * time.Millisecond})
	c := newContext("ctx-1", "/", v)
	v.registerCtx(c)

	v.scheduleCleanup(c)
	time.Sleep(20 * time.Millisecond)
	v.scheduleCleanup(c) // resets the window

	time.Sleep(20 * time.Millisecond)
	_, err := v.getCtx("ctx-1")
	assert.NoError(t, err, "the first timer was replaced, not fired")

	require.Eventually(t, func() bool {
		_, err := v.getCtx("ctx-1")
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestSetIntervalAndClear(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)

	var ticks atomic.Int64
	id := c.SetInterval(5*time.Millisecond, func() { ticks.Add(1) })
	require.Eventually(t, func() bool { return ticks.Load() >= 2 },
		time.Second, time.Millisecond)

	c.ClearInterval(id)
	n := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), n+1)

	c.ClearInterval(id)      // unknown id is a no-op
	c.ClearInterval(id + 99) // so is a never-issued one
}

func TestIntervalPanicIsGuarded(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)

	var ticks atomic.Int64
	c.SetInterval(5*time.Millisecond, func() {
		ticks.Add(1)
		panic("boom")
	})
	require.Eventually(t, func() bool { return ticks.Load() >= 2 },
		time.Second, time.Millisecond)
	v.destroyContext(c)
}

func TestDestroyCancelsTimers(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)

	var ticks atomic.Int64
	c.SetInterval(5*time.Millisecond, func() { ticks.Add(1) })
	v.destroyContext(c)

	n := ticks.Load()
	time.Sleep(25 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), n+1)
}

func TestReapOrphanedContexts(t *testing.T) {
	v := New()
	orphan := newContext("orphan", "/", v)
	orphan.createdAt = time.Now().Add(-time.Minute)
	v.registerCtx(orphan)

	connected := newContext("connected", "/", v)
	connected.createdAt = time.Now().Add(-time.Minute)
	connected.sseConnected.Store(true)
	v.registerCtx(connected)

	fresh := newContext("fresh", "/", v)
	v.registerCtx(fresh)

	v.reapOrphanedContexts(30 * time.Second)

	_, err := v.getCtx("orphan")
	assert.Error(t, err, "stale contexts without a stream are reaped")
	_, err = v.getCtx("connected")
	assert.NoError(t, err)
	_, err = v.getCtx("fresh")
	assert.NoError(t, err)
}
