package via

import "strings"

// The scope registry and its two satellite stores. All three are parallel
// maps keyed by scope string and live on V behind stateMu: scoped state is
// shared by every connection and must stay in one scheduling domain.
//
// Invariant: a context appears in scopeRegistry under every scope in its
// scope list and only those. When the last context leaves a scope, the
// scope's signals and actions are garbage collected with it.

func (v *V) registerScopes(c *Context) {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	for _, scope := range c.scopeList() {
		if scope == ScopeTab {
			continue
		}
		v.addContextToScopeLocked(c, scope)
	}
}

func (v *V) unregisterScopes(c *Context) {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	for _, scope := range c.scopeList() {
		if scope == ScopeTab {
			continue
		}
		v.removeContextFromScopeLocked(c, scope)
	}
}

func (v *V) addContextToScope(c *Context, scope string) {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	v.addContextToScopeLocked(c, scope)
}

func (v *V) addContextToScopeLocked(c *Context, scope string) {
	members, ok := v.scopeRegistry[scope]
	if !ok {
		members = make(map[string]*Context)
		v.scopeRegistry[scope] = members
	}
	members[c.id] = c
}

// removeContextFromScopeLocked reports whether the scope became empty.
// An emptied scope takes its signal and action entries with it.
func (v *V) removeContextFromScopeLocked(c *Context, scope string) bool {
	members, ok := v.scopeRegistry[scope]
	if !ok {
		return false
	}
	delete(members, c.id)
	if len(members) > 0 {
		return false
	}
	delete(v.scopeRegistry, scope)
	delete(v.signalStore, scope)
	delete(v.actionStore, scope)
	v.logDebug(c, "scope '%s' emptied and collected", scope)
	return true
}

// contextsIn returns the contexts registered in scope, in no particular
// order.
func (v *V) contextsIn(scope string) []*Context {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	members := v.scopeRegistry[scope]
	out := make([]*Context, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// contextsByPattern resolves a scope pattern to contexts. A pattern
// containing '*' is matched against every registered scope; anything else
// is a direct lookup.
func (v *V) contextsByPattern(pattern string) []*Context {
	if !strings.Contains(pattern, "*") {
		return v.contextsIn(pattern)
	}
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	seen := make(map[string]*Context)
	for scope, members := range v.scopeRegistry {
		if !ScopeMatches(scope, pattern) {
			continue
		}
		for id, c := range members {
			seen[id] = c
		}
	}
	out := make([]*Context, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	return out
}

// scopesMatching returns every registered scope matched by pattern.
func (v *V) scopesMatching(pattern string) []string {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	var out []string
	for scope := range v.scopeRegistry {
		if ScopeMatches(scope, pattern) {
			out = append(out, scope)
		}
	}
	return out
}

// getOrStoreScopedSignal returns the existing signal for (scope, id) or
// registers sig and returns it. Existing signals keep their value: the
// second context to declare a shared signal must observe the first one's
// state, and both must hold the same pointer.
func (v *V) getOrStoreScopedSignal(scope, id string, sig *Signal) *Signal {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	signals, ok := v.signalStore[scope]
	if !ok {
		signals = make(map[string]*Signal)
		v.signalStore[scope] = signals
	}
	if existing, ok := signals[id]; ok {
		return existing
	}
	signals[id] = sig
	return sig
}

// ScopedSignals returns the live signals registered under scope, empty
// when no context currently holds the scope. Useful for application
// tickers that feed shared signals only while someone is watching.
func (v *V) ScopedSignals(scope string) []*Signal {
	return v.scopedSignals(scope)
}

// scopedSignals returns all signals registered under scope.
func (v *V) scopedSignals(scope string) []*Signal {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	signals := v.signalStore[scope]
	out := make([]*Signal, 0, len(signals))
	for _, sig := range signals {
		out = append(out, sig)
	}
	return out
}

// getOrStoreScopedAction returns the existing action entry for
// (scope, id) or registers entry and returns it. Action ids are stable
// across clients: the first registration wins, later ones reuse it.
func (v *V) getOrStoreScopedAction(scope, id string, entry *actionEntry) *actionEntry {
	v.stateMu.Lock()
	defer v.stateMu.Unlock()
	actions, ok := v.actionStore[scope]
	if !ok {
		actions = make(map[string]*actionEntry)
		v.actionStore[scope] = actions
	}
	if existing, ok := actions[id]; ok {
		return existing
	}
	actions[id] = entry
	return entry
}

func (v *V) lookupScopedAction(scope, id string) (*actionEntry, bool) {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	entry, ok := v.actionStore[scope][id]
	return entry, ok
}
