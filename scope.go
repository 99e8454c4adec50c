package via

import (
	"regexp"
	"strings"
)

// Built-in scope tokens. Any other leading token ("room", "stock", ...)
// designates a developer-defined sharing domain.
const (
	ScopeTab     = "tab"
	ScopeRoute   = "route"
	ScopeSession = "session"
	ScopeGlobal  = "global"
)

// BuildScope joins scope parts with the ':' separator.
//
// Example:
//
//	BuildScope("room", "lobby") // "room:lobby"
func BuildScope(parts ...string) string {
	return strings.Join(parts, ":")
}

// ParseScope splits a scope string into its segments.
func ParseScope(scope string) []string {
	return strings.Split(scope, ":")
}

// IsBuiltInScope reports whether scope is one of the reserved tokens.
func IsBuiltInScope(scope string) bool {
	switch scope {
	case ScopeTab, ScopeRoute, ScopeSession, ScopeGlobal:
		return true
	}
	return false
}

// RouteScope returns the scope string for the given route.
//
// Example:
//
//	RouteScope("/users") // "route:/users"
func RouteScope(route string) string {
	return ScopeRoute + ":" + route
}

// ScopeMatches reports whether scope matches pattern. A pattern without
// '*' must match exactly; '*' matches any run of characters, every other
// character is taken literally.
func ScopeMatches(scope, pattern string) bool {
	if scope == pattern {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(scope)
}

// IsRouteBasedScope reports whether scope targets routes. With a route
// argument it additionally requires the scope to name that exact route.
func IsRouteBasedScope(scope string, route ...string) bool {
	if scope == ScopeRoute {
		return true
	}
	segments := ParseScope(scope)
	if segments[0] != ScopeRoute {
		return false
	}
	if len(route) == 0 || route[0] == "" {
		return true
	}
	// the route itself may contain ':'; compare against the full suffix
	return strings.TrimPrefix(scope, ScopeRoute+":") == route[0]
}

var signalIDSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]`)

// sanitizeID maps a free-form name onto the [A-Za-z0-9_] alphabet used
// for signal and action identifiers on the wire.
func sanitizeID(s string) string {
	return signalIDSanitizer.ReplaceAllString(s, "_")
}
