package via

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-via/via/h"
)

func renderCount(v *V) int64 {
	count, _, _, _ := v.renderStats.snapshot()
	return count
}

func TestRenderStatsTrack(t *testing.T) {
	var rs renderStats
	rs.track(10 * time.Millisecond)
	rs.track(30 * time.Millisecond)
	rs.track(20 * time.Millisecond)

	count, total, min, max := rs.snapshot()
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 60*time.Millisecond, total)
	assert.Equal(t, 10*time.Millisecond, min)
	assert.Equal(t, 30*time.Millisecond, max)
}

func TestTabContextNeverCached(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)
	renders := 0
	c.View(func(bool) h.H {
		renders++
		return h.Div(h.Text("hi"))
	})

	c.renderView(true)
	c.renderView(true)
	assert.Equal(t, 2, renders)

	_, cached := v.cacheLookup(ScopeTab)
	assert.False(t, cached)
}

func TestScopedUpdateRenderCached(t *testing.T) {
	v := New()
	renders := 0
	view := func(bool) h.H {
		renders++
		return h.Div(h.Text("shared"))
	}
	c1 := newContext("ctx-1", "/", v)
	c1.Scope("room:lobby")
	c1.View(view)
	c2 := newContext("ctx-2", "/", v)
	c2.Scope("room:lobby")
	c2.View(view)

	html1, err := c1.renderView(true)
	require.NoError(t, err)
	html2, err := c2.renderView(true)
	require.NoError(t, err)

	assert.Equal(t, 1, renders, "the second context reuses the cached render")
	assert.Equal(t, html1, html2)

	cached, ok := v.cacheLookup("room:lobby")
	require.True(t, ok)
	assert.Equal(t, html1, cached)
}

func TestInitialRenderNeverCached(t *testing.T) {
	v := New()
	renders := 0
	c := newContext("ctx-1", "/", v)
	c.Scope("room:lobby")
	c.View(func(bool) h.H {
		renders++
		return h.Div(h.Text("x"))
	})

	c.renderView(false)
	c.renderView(false)
	assert.Equal(t, 2, renders)
	_, ok := v.cacheLookup("room:lobby")
	assert.False(t, ok)
}

func TestWithoutUpdateCacheBypassesCache(t *testing.T) {
	v := New()
	renders := 0
	c := newContext("ctx-1", "/", v)
	c.Scope("room:lobby")
	c.View(func(bool) h.H {
		renders++
		return h.Div(h.Text("x"))
	}, WithoutUpdateCache())

	c.renderView(true)
	c.renderView(true)
	assert.Equal(t, 2, renders)
	_, ok := v.cacheLookup("room:lobby")
	assert.False(t, ok)
}

func TestInvalidateCacheForcesRerender(t *testing.T) {
	v := New()
	n := 0
	c := newContext("ctx-1", "/", v)
	c.Scope("room:lobby")
	c.View(func(bool) h.H {
		n++
		return h.Div(h.Text(fmt.Sprintf("render %d", n)))
	})

	first, _ := c.renderView(true)
	again, _ := c.renderView(true)
	assert.Equal(t, first, again)

	v.invalidateCache("room:lobby")
	fresh, _ := c.renderView(true)
	assert.NotEqual(t, first, fresh)
	assert.Contains(t, fresh, "render 2")
}

func TestInvalidateCacheMatching(t *testing.T) {
	v := New()
	v.stateMu.Lock()
	v.renderCache["stock:AAPL"] = "a"
	v.renderCache["stock:GOOG"] = "g"
	v.renderCache["room:lobby"] = "r"
	v.stateMu.Unlock()

	v.invalidateCacheMatching("stock:*")

	_, ok := v.cacheLookup("stock:AAPL")
	assert.False(t, ok)
	_, ok = v.cacheLookup("stock:GOOG")
	assert.False(t, ok)
	_, ok = v.cacheLookup("room:lobby")
	assert.True(t, ok)
}

func TestInvalidateRouteCaches(t *testing.T) {
	v := New()
	v.stateMu.Lock()
	v.renderCache["route:/a"] = "a"
	v.renderCache["route:/b"] = "b"
	v.renderCache["room:lobby"] = "r"
	v.stateMu.Unlock()

	v.invalidateRouteCaches()

	_, ok := v.cacheLookup("route:/a")
	assert.False(t, ok)
	_, ok = v.cacheLookup("route:/b")
	assert.False(t, ok)
	_, ok = v.cacheLookup("room:lobby")
	assert.True(t, ok)
}

func TestCachedRenderPopulatesOnce(t *testing.T) {
	v := New()
	calls := 0
	fn := func() (string, error) {
		calls++
		return "html", nil
	}
	html, err := v.cachedRender("room:lobby", fn)
	require.NoError(t, err)
	assert.Equal(t, "html", html)

	html, err = v.cachedRender("room:lobby", fn)
	require.NoError(t, err)
	assert.Equal(t, "html", html)
	assert.Equal(t, 1, calls)
}

func TestCachedRenderErrorNotCached(t *testing.T) {
	v := New()
	calls := 0
	_, err := v.cachedRender("room:lobby", func() (string, error) {
		calls++
		return "", fmt.Errorf("boom")
	})
	assert.Error(t, err)

	html, err := v.cachedRender("room:lobby", func() (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", html)
	assert.Equal(t, 2, calls, "a failed render does not poison the cache")
}

func TestViewWrapsPageInContainer(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)
	c.View(func(bool) h.H { return h.P(h.Text("body")) })

	html, err := c.renderView(false)
	require.NoError(t, err)
	assert.Contains(t, html, `id="via-view"`)
	assert.Contains(t, html, "body")
}

func TestTimedRenderFeedsStats(t *testing.T) {
	v := New()
	before := renderCount(v)
	v.timedRender(func() (string, error) { return "x", nil })
	assert.Equal(t, before+1, renderCount(v))
}
