package via

import (
	"strings"
	"sync"
	"time"
)

// Broadcast invalidates the render cache for scope and syncs every
// context the scope addresses. The cache is cleared before the fan-out:
// rendering is lazy inside Sync, so the first recipient repopulates the
// cache and the remaining recipients reuse its HTML.
//
// Addressing rules:
//   - "global" syncs every context in the process; global state can
//     affect any render.
//   - a bare "route" scope also syncs every context, clearing every
//     route-based cache entry.
//   - "route:<r>" syncs the contexts whose route equals r.
//   - a scope containing '*' syncs every context in every matching scope.
//   - anything else syncs the scope's registered contexts.
func (v *V) Broadcast(scope string) {
	if v.metrics != nil {
		v.metrics.broadcasts.Inc()
	}
	switch {
	case scope == ScopeGlobal:
		v.invalidateCache(ScopeGlobal)
		v.syncContexts(v.allContexts())

	case scope == ScopeRoute:
		v.invalidateRouteCaches()
		v.syncContexts(v.allContexts())

	case IsRouteBasedScope(scope):
		v.invalidateCache(scope)
		route := strings.TrimPrefix(scope, ScopeRoute+":")
		var targets []*Context
		for _, c := range v.allContexts() {
			if c.route == route {
				targets = append(targets, c)
			}
		}
		v.syncContexts(targets)

	case strings.Contains(scope, "*"):
		v.invalidateCacheMatching(scope)
		v.syncContexts(v.contextsByPattern(scope))

	default:
		v.invalidateCache(scope)
		v.syncContexts(v.contextsIn(scope))
	}
}

func (v *V) syncContexts(contexts []*Context) {
	for _, c := range contexts {
		c.Sync()
	}
}

func (v *V) allContexts() []*Context {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	out := make([]*Context, 0, len(v.contextRegistry))
	for _, c := range v.contextRegistry {
		out = append(out, c)
	}
	return out
}

// --- global state ---------------------------------------------------------

// SetState stores a value in the application's free-form global state.
// Mutating global state does not broadcast by itself; call
// Broadcast("global") (or a narrower scope) when renders should follow.
func (v *V) SetState(key string, val any) {
	v.stateMu.Lock()
	v.globalState[key] = val
	v.stateMu.Unlock()
}

// State retrieves a global state value, or nil.
func (v *V) State(key string) any {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	return v.globalState[key]
}

// StateInt retrieves a global state value as an int, or 0.
func (v *V) StateInt(key string) int {
	n, _ := v.State(key).(int)
	return n
}

// --- application timers ---------------------------------------------------

// OnInterval runs handler every d on an application-owned goroutine,
// typically to mutate shared state and broadcast a scope. All application
// tickers stop at shutdown. The returned func stops this ticker early.
func (v *V) OnInterval(d time.Duration, handler func()) func() {
	stop := make(chan struct{})
	v.stateMu.Lock()
	v.appTickers = append(v.appTickers, stop)
	v.stateMu.Unlock()

	var once sync.Once
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				func() {
					defer func() {
						if r := recover(); r != nil {
							v.logErr(nil, "app interval handler panicked: %v", r)
						}
					}()
					handler()
				}()
			}
		}
	}()
	return func() {
		once.Do(func() { close(stop) })
	}
}

func (v *V) stopAppTickers() {
	v.stateMu.Lock()
	tickers := v.appTickers
	v.appTickers = nil
	v.stateMu.Unlock()
	for _, stop := range tickers {
		select {
		case <-stop:
		default:
			close(stop)
		}
	}
}
