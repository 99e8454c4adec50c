package via

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// router holds the ordered page table. Patterns are literal paths whose
// segments may be placeholders of the form {name}, each matching exactly
// one non-'/' segment. Exact patterns are tested before parameterised
// ones; within each group the first registered match wins.
type router struct {
	routes []*pageRoute
}

type pageRoute struct {
	pattern    string
	segments   []string
	paramNames []string // placeholder names in pattern order
	handler    reflect.Value
	handlerT   reflect.Type
	plain      func(*Context) // fast path for func(*Context) handlers
}

var contextPtrType = reflect.TypeOf((*Context)(nil))

// register validates the handler signature and appends the route.
// A handler is either func(*Context) or func(*Context, p1 T1, ...) where
// each Ti is a string, bool, integer or float type; the trailing
// parameters are bound to the pattern's placeholders in order. Go
// reflection cannot recover formal parameter names, so the pattern is the
// authoritative name list.
func (rt *router) register(pattern string, handler any) (*pageRoute, error) {
	hv := reflect.ValueOf(handler)
	ht := hv.Type()
	if ht.Kind() != reflect.Func {
		return nil, fmt.Errorf("route '%s': handler is %T, not a func", pattern, handler)
	}
	if ht.NumIn() < 1 || ht.In(0) != contextPtrType {
		return nil, fmt.Errorf("route '%s': handler must take *via.Context as its first argument", pattern)
	}
	for i := 1; i < ht.NumIn(); i++ {
		if !castableParamKind(ht.In(i).Kind()) {
			return nil, fmt.Errorf("route '%s': handler argument %d has unsupported type %s", pattern, i, ht.In(i))
		}
	}

	r := &pageRoute{
		pattern:  pattern,
		segments: splitPath(pattern),
		handler:  hv,
		handlerT: ht,
	}
	for _, seg := range r.segments {
		if isPlaceholder(seg) {
			r.paramNames = append(r.paramNames, seg[1:len(seg)-1])
		}
	}
	if fn, ok := handler.(func(*Context)); ok {
		r.plain = fn
	}
	rt.routes = append(rt.routes, r)
	return r, nil
}

// match resolves path to a route and its extracted parameters, or nil.
func (rt *router) match(path string) (*pageRoute, map[string]string) {
	// exact routes first; a literal registration always beats a pattern
	for _, r := range rt.routes {
		if !strings.Contains(r.pattern, "{") && r.pattern == path {
			return r, map[string]string{}
		}
	}
	segments := splitPath(path)
	for _, r := range rt.routes {
		if !strings.Contains(r.pattern, "{") {
			continue
		}
		if params, ok := matchSegments(r.segments, segments); ok {
			return r, params
		}
	}
	return nil, nil
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	params := make(map[string]string)
	for i := range pattern {
		if isPlaceholder(pattern[i]) {
			params[pattern[i][1:len(pattern[i])-1]] = path[i]
			continue
		}
		if pattern[i] != path[i] {
			return nil, false
		}
	}
	return params, true
}

// invoke calls the route handler with c and the route parameters cast to
// the handler's declared types. Parameter binding failures never abort the
// page: an absent or unparsable value binds its zero value, and any
// reflection panic falls back to handler(ctx) when the handler is a plain
// func(*Context).
func (rt *router) invoke(r *pageRoute, c *Context, params map[string]string) {
	if r.plain != nil {
		r.plain(c)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			c.app.logErr(c, "route '%s' parameter injection failed: %v", r.pattern, rec)
		}
	}()

	args := make([]reflect.Value, r.handlerT.NumIn())
	args[0] = reflect.ValueOf(c)
	for i := 1; i < r.handlerT.NumIn(); i++ {
		var raw string
		if i-1 < len(r.paramNames) {
			raw = params[r.paramNames[i-1]]
		}
		args[i] = castParam(raw, r.handlerT.In(i))
	}
	r.handler.Call(args)
}

// castParam converts a raw path segment to the declared parameter type.
func castParam(raw string, t reflect.Type) reflect.Value {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(raw)
	case reflect.Bool:
		v := strings.ToLower(raw)
		out.SetBool(v == "true" || v == "1" || v == "yes" || v == "on")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out.SetInt(n)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			out.SetUint(n)
		}
	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			out.SetFloat(f)
		}
	}
	return out
}

func castableParamKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isPlaceholder(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}
