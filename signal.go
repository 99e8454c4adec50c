package via

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-via/via/h"
)

// Signal represents a named reactive value synchronised between server
// and browser. A tab signal belongs to one Context; a scoped signal is
// owned by the application and shared by pointer across every context
// registered in its scope.
//
// Use Bind() to connect a signal to an input and Text() to display it
// reactively on an html element.
type Signal struct {
	id            string
	scope         string // empty for tab-local signals
	autoBroadcast bool

	mu      sync.Mutex
	val     any
	changed bool
	err     error

	app *V // broadcast target for scoped signals, nil for tab signals
}

// ID returns the signal ID used on the wire.
func (s *Signal) ID() string {
	return s.id
}

// Scope returns the signal's scope, or the empty string for tab signals.
func (s *Signal) Scope() string {
	return s.scope
}

// Err returns a signal error or nil if it contains no error.
//
// It is useful to check for errors after creating signals with dynamic
// names or scopes.
func (s *Signal) Err() error {
	return s.err
}

// Bind binds this signal to an input element. When the input changes
// its value the signal updates in real-time in the browser.
//
// Example:
//
//	h.Input(h.Type("number"), price.Bind())
func (s *Signal) Bind() h.H {
	return h.Data("bind", s.id)
}

// Text binds the signal value to an html span element as text.
//
// Example:
//
//	h.Div(price.Text())
func (s *Signal) Text() h.H {
	return h.Span(h.Data("text", "$"+s.id))
}

// SetValue updates the signal's value and marks it for synchronisation
// with the browser. Scoped signals with auto-broadcast enabled trigger a
// broadcast of their scope when the value actually changes, so every
// consumer context receives the update without further plumbing.
func (s *Signal) SetValue(v any) {
	s.set(v, true, true)
}

// Set updates the value. markChanged controls whether the signal is
// flagged for the next signals patch; pass false to mirror a value the
// client already has.
func (s *Signal) Set(v any, markChanged bool) {
	s.set(v, markChanged, true)
}

// SetQuiet updates the value and marks it changed without triggering an
// auto-broadcast. Useful inside code paths that broadcast once at the end.
func (s *Signal) SetQuiet(v any) {
	s.set(v, true, false)
}

func (s *Signal) set(v any, markChanged, broadcast bool) {
	v = encodeSignalValue(v)

	s.mu.Lock()
	differs := !reflect.DeepEqual(s.val, v)
	s.val = v
	if markChanged {
		s.changed = true
	}
	s.err = nil
	doBroadcast := broadcast && differs && s.autoBroadcast && s.scope != "" && s.app != nil
	scope := s.scope
	app := s.app
	s.mu.Unlock()

	if doBroadcast {
		app.Broadcast(scope)
	}
}

// encodeSignalValue stores structured data as its JSON encoding so that
// the value crossing the wire is always a scalar or a JSON string.
func encodeSignalValue(v any) any {
	if v == nil {
		return v
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Struct, reflect.Map:
		if j, err := json.Marshal(v); err == nil {
			return string(j)
		}
	}
	return v
}

// markSynced clears the changed flag after the value has been queued for
// delivery.
func (s *Signal) markSynced() {
	s.mu.Lock()
	s.changed = false
	s.mu.Unlock()
}

func (s *Signal) isChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// Value returns the raw stored value.
func (s *Signal) Value() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.val
}

// inject overwrites the value from a client snapshot without flagging a
// change; the browser already holds this value.
func (s *Signal) inject(v any) {
	s.mu.Lock()
	s.val = v
	s.changed = false
	s.mu.Unlock()
}

// String returns the signal value as a string.
func (s *Signal) String() string {
	return fmt.Sprintf("%v", s.Value())
}

// Bool tries to read the signal value as a bool.
// Recognises the truthy set true/1/yes/on; anything else is false.
func (s *Signal) Bool() bool {
	val := strings.ToLower(s.String())
	return val == "true" || val == "1" || val == "yes" || val == "on"
}

// Int tries to read the signal value as an int.
// Returns the value or 0 on failure.
func (s *Signal) Int() int {
	if n, err := strconv.Atoi(s.String()); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s.String(), 64); err == nil {
		return int(f)
	}
	return 0
}

// Int64 tries to read the signal value as an int64.
// Returns the value or 0 on failure.
func (s *Signal) Int64() int64 {
	if n, err := strconv.ParseInt(s.String(), 10, 64); err == nil {
		return n
	}
	return 0
}

// Float tries to read the signal value as a float64.
// Returns the value or 0.0 on failure.
func (s *Signal) Float() float64 {
	if n, err := strconv.ParseFloat(s.String(), 64); err == nil {
		return n
	}
	return 0.0
}

// Bytes reads the signal value as a []byte.
func (s *Signal) Bytes() []byte {
	return []byte(s.String())
}
