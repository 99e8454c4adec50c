package via

import (
	"sync"
	"time"
)

// renderStats aggregates view render timings for the /_stats payload.
type renderStats struct {
	mu    sync.Mutex
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
}

func (rs *renderStats) track(d time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.count++
	rs.total += d
	if rs.min == 0 || d < rs.min {
		rs.min = d
	}
	if d > rs.max {
		rs.max = d
	}
}

func (rs *renderStats) snapshot() (count int64, total, min, max time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.count, rs.total, rs.min, rs.max
}

// The render cache holds one update-render per scope. Initial renders
// embed a per-context id and are never cached; update renders are shared
// across every context in the scope, so a broadcast renders once and the
// remaining recipients hit the cache.

func (v *V) cacheLookup(scope string) (string, bool) {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	html, ok := v.renderCache[scope]
	return html, ok
}

func (v *V) invalidateCache(scope string) {
	v.stateMu.Lock()
	delete(v.renderCache, scope)
	v.stateMu.Unlock()
}

// invalidateCacheMatching clears every cache entry whose scope matches the
// '*' pattern.
func (v *V) invalidateCacheMatching(pattern string) {
	v.stateMu.Lock()
	for scope := range v.renderCache {
		if ScopeMatches(scope, pattern) {
			delete(v.renderCache, scope)
		}
	}
	v.stateMu.Unlock()
}

// invalidateRouteCaches clears every route-based cache entry. Used for a
// bare "route" broadcast, which addresses all routes at once.
func (v *V) invalidateRouteCaches() {
	v.stateMu.Lock()
	for scope := range v.renderCache {
		if IsRouteBasedScope(scope) {
			delete(v.renderCache, scope)
		}
	}
	v.stateMu.Unlock()
}

// cachedRender returns the cached HTML for scope or renders it via fn and
// populates the cache. The per-scope in-flight marker is a soft lock, not
// a mutex: a second renderer arriving during an in-flight render yields
// for a millisecond and re-checks; if the cache is still cold it renders
// anyway. Under a thundering herd this collapses N renders to roughly one
// without ever blocking a connection on another's render.
func (v *V) cachedRender(scope string, fn func() (string, error)) (string, error) {
	if html, ok := v.cacheLookup(scope); ok {
		return html, nil
	}

	v.stateMu.Lock()
	inFlight := v.rendering[scope]
	if !inFlight {
		v.rendering[scope] = true
	}
	v.stateMu.Unlock()

	if inFlight {
		time.Sleep(time.Millisecond)
		if html, ok := v.cacheLookup(scope); ok {
			return html, nil
		}
	}

	html, err := fn()
	v.stateMu.Lock()
	delete(v.rendering, scope)
	if err == nil {
		v.renderCache[scope] = html
	}
	v.stateMu.Unlock()
	return html, err
}

// timedRender runs fn and feeds the duration into the render stats and,
// when enabled, the Prometheus counters.
func (v *V) timedRender(fn func() (string, error)) (string, error) {
	start := time.Now()
	html, err := fn()
	v.renderStats.track(time.Since(start))
	if v.metrics != nil {
		v.metrics.renders.Inc()
	}
	return html, err
}
