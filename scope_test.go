package via

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildScope(t *testing.T) {
	assert.Equal(t, "room:lobby", BuildScope("room", "lobby"))
	assert.Equal(t, "route:/users:42", BuildScope("route", "/users", "42"))
	assert.Equal(t, "global", BuildScope("global"))
}

func TestParseScope(t *testing.T) {
	assert.Equal(t, []string{"room", "lobby"}, ParseScope("room:lobby"))
	assert.Equal(t, []string{"global"}, ParseScope("global"))
	assert.Equal(t, "room:lobby", BuildScope(ParseScope("room:lobby")...))
}

func TestIsBuiltInScope(t *testing.T) {
	for _, s := range []string{"tab", "route", "session", "global"} {
		assert.True(t, IsBuiltInScope(s), s)
	}
	assert.False(t, IsBuiltInScope("room"))
	assert.False(t, IsBuiltInScope("route:/users"))
	assert.False(t, IsBuiltInScope(""))
}

func TestRouteScope(t *testing.T) {
	assert.Equal(t, "route:/users", RouteScope("/users"))
	assert.Equal(t, "route:/blog/{year}", RouteScope("/blog/{year}"))
}

func TestScopeMatches(t *testing.T) {
	tests := []struct {
		scope, pattern string
		want           bool
	}{
		{"room:lobby", "room:lobby", true},
		{"room:lobby", "room:*", true},
		{"room:lobby:vip", "room:*", true},
		{"stock:AAPL", "stock:*", true},
		{"stockx", "stock:*", false},
		{"room:lobby", "hall:*", false},
		{"room:lobby", "room:l*y", true},
		{"room:lobby", "*:lobby", true},
		{"room:lobby", "*", true},
		{"room:a.b", "room:a.b", true},
		// regex metacharacters in scopes are literals
		{"room:axb", "room:a.b", false},
		{"anything", "exact", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScopeMatches(tt.scope, tt.pattern),
			"scope=%q pattern=%q", tt.scope, tt.pattern)
	}
}

func TestIsRouteBasedScope(t *testing.T) {
	assert.True(t, IsRouteBasedScope("route"))
	assert.True(t, IsRouteBasedScope("route:/users"))
	assert.False(t, IsRouteBasedScope("room:lobby"))
	assert.False(t, IsRouteBasedScope("global"))

	// with a route argument, the scope must name that exact route
	assert.True(t, IsRouteBasedScope("route:/users", "/users"))
	assert.False(t, IsRouteBasedScope("route:/users", "/admin"))
	assert.True(t, IsRouteBasedScope("route", "/users"))
	// routes containing ':' compare against the full suffix
	assert.True(t, IsRouteBasedScope("route:/a:b", "/a:b"))
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "room_lobby_count", sanitizeID("room:lobby:count"))
	assert.Equal(t, "stock_AAPL_price", sanitizeID("stock:AAPL:price"))
	assert.Equal(t, "already_fine_42", sanitizeID("already_fine_42"))
	assert.Equal(t, "a_b_c", sanitizeID("a.b/c"))
}
