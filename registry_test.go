package via

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scopeMembers(v *V, scope string) []string {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	var ids []string
	for id := range v.scopeRegistry[scope] {
		ids = append(ids, id)
	}
	return ids
}

func TestRegisterScopesSkipsTab(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)
	v.registerScopes(c)

	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	assert.Empty(t, v.scopeRegistry, "the tab scope never appears in the registry")
}

func TestScopeMembershipFollowsScopeList(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)
	c.Scope("room:lobby")
	c.AddScope("global")

	assert.ElementsMatch(t, []string{"ctx-1"}, scopeMembers(v, "room:lobby"))
	assert.ElementsMatch(t, []string{"ctx-1"}, scopeMembers(v, "global"))

	// replacing the scope list drops the old memberships
	c.Scope("room:vip")
	assert.Empty(t, scopeMembers(v, "room:lobby"))
	assert.Empty(t, scopeMembers(v, "global"))
	assert.ElementsMatch(t, []string{"ctx-1"}, scopeMembers(v, "room:vip"))
}

func TestAddScopeIsIdempotent(t *testing.T) {
	v := New()
	c := newContext("ctx-1", "/", v)
	c.AddScope("room:lobby")
	c.AddScope("room:lobby")

	assert.Equal(t, []string{"tab", "room:lobby"}, c.Scopes())
}

func TestEmptiedScopeCollectsSignalsAndActions(t *testing.T) {
	v := New()
	c1 := newContext("ctx-1", "/", v)
	c2 := newContext("ctx-2", "/", v)
	c1.Scope("room:lobby")
	c2.Scope("room:lobby")

	c1.Signal(0, WithName("count"))
	c1.Action(func(*Context) {}, WithActionName("increment"))

	v.unregisterScopes(c1)
	v.stateMu.RLock()
	_, sigAlive := v.signalStore["room:lobby"]
	v.stateMu.RUnlock()
	assert.True(t, sigAlive, "one member left, state stays")

	v.unregisterScopes(c2)
	v.stateMu.RLock()
	_, sigAlive = v.signalStore["room:lobby"]
	_, actAlive := v.actionStore["room:lobby"]
	_, regAlive := v.scopeRegistry["room:lobby"]
	v.stateMu.RUnlock()
	assert.False(t, sigAlive, "the last member takes the signals with it")
	assert.False(t, actAlive)
	assert.False(t, regAlive)
}

func TestSignalsResetAfterScopeCollected(t *testing.T) {
	v := New()
	c1 := newContext("ctx-1", "/", v)
	c1.Scope("room:lobby")

	sig := c1.Signal(0, WithName("count"))
	sig.SetQuiet(5)
	v.unregisterScopes(c1)

	c2 := newContext("ctx-2", "/", v)
	c2.Scope("room:lobby")
	fresh := c2.Signal(0, WithName("count"))
	assert.NotSame(t, sig, fresh)
	assert.Equal(t, 0, fresh.Value(), "a collected scope starts over")
}

func TestContextsByPattern(t *testing.T) {
	v := New()
	mk := func(id, scope string) *Context {
		c := newContext(id, "/", v)
		c.Scope(scope)
		return c
	}
	mk("c1", "stock:AAPL")
	mk("c2", "stock:GOOG")
	c3 := mk("c3", "room:lobby")
	c3.AddScope("stock:AAPL")

	got := v.contextsByPattern("stock:*")
	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.id)
	}
	assert.ElementsMatch(t, []string{"c1", "c2", "c3"}, ids, "wildcard unions matching scopes, deduplicated")

	got = v.contextsByPattern("room:lobby")
	require.Len(t, got, 1)
	assert.Equal(t, "c3", got[0].id)

	assert.Empty(t, v.contextsByPattern("nope:*"))
}

func TestScopesMatching(t *testing.T) {
	v := New()
	for i, scope := range []string{"stock:AAPL", "stock:GOOG", "room:lobby"} {
		c := newContext(string(rune('a'+i)), "/", v)
		c.Scope(scope)
	}
	assert.ElementsMatch(t, []string{"stock:AAPL", "stock:GOOG"}, v.scopesMatching("stock:*"))
}

func TestScopedActionFirstRegistrationWins(t *testing.T) {
	v := New()
	first := &actionEntry{fn: func(*Context) {}, name: "go"}
	second := &actionEntry{fn: func(*Context) {}, name: "go"}

	got := v.getOrStoreScopedAction("room:lobby", "go", first)
	assert.Same(t, first, got)
	got = v.getOrStoreScopedAction("room:lobby", "go", second)
	assert.Same(t, first, got, "later registrations reuse the stored entry")
}
