package via

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/go-via/via/h"
)

// Context is the living bridge between Go and one browser tab.
//
// It holds runtime state, defines actions, manages reactive signals,
// carries the tab's scope list and defines UI through View. A context is
// created on page GET, bound to its SSE stream on connect, and destroyed
// after the grace period following disconnect.
type Context struct {
	id          string
	route       string
	app         *V
	namespace   string
	sessionID   string
	csrfToken   string
	routeParams map[string]string

	scopes       []string // first entry is the primary scope
	view         func(isUpdate bool) h.H
	cacheUpdates bool

	signals           map[string]*Signal      // tab-local signals
	actions           map[string]*actionEntry // tab-local actions
	componentRegistry map[string]*Context
	parentPageCtx     *Context

	queue        *patchQueue
	disposed     chan struct{}
	cleanups     []func()
	timers       map[int]chan struct{}
	nextTimerID  int
	cleanupTimer *time.Timer

	reqCtx        context.Context
	actionLimiter *rate.Limiter
	sseConnected  atomic.Bool
	createdAt     time.Time
	mu            sync.RWMutex
}

func newContext(id, route string, v *V) *Context {
	if v == nil {
		panic("create context failed: app pointer is nil")
	}
	return &Context{
		id:                id,
		route:             route,
		app:               v,
		routeParams:       make(map[string]string),
		scopes:            []string{ScopeTab},
		cacheUpdates:      true,
		signals:           make(map[string]*Signal),
		actions:           make(map[string]*actionEntry),
		componentRegistry: make(map[string]*Context),
		timers:            make(map[int]chan struct{}),
		queue:             newPatchQueue(patchQueueCapacity),
		disposed:          make(chan struct{}),
		csrfToken:         genCSRFToken(),
		createdAt:         time.Now(),
	}
}

// ID returns the opaque context id embedded in the page shell.
func (c *Context) ID() string { return c.id }

// Route returns the route pattern this context was created under.
func (c *Context) Route() string { return c.route }

// SessionID returns the browser's via_session_id cookie value, or the
// empty string when the context was created without one.
func (c *Context) SessionID() string { return c.sessionID }

func (c *Context) isComponent() bool { return c.parentPageCtx != nil }

// pageCtx resolves the page context hosting this context's signals,
// actions and patch queue. Components delegate to their parent page.
func (c *Context) pageCtx() *Context {
	if c.isComponent() {
		return c.parentPageCtx
	}
	return c
}

// --- scopes ---------------------------------------------------------------

// Scope replaces the context's scope list with the single given scope,
// making it the primary. Registry membership follows immediately.
func (c *Context) Scope(scope string) {
	resolved, err := c.resolveScope(scope)
	if err != nil {
		c.app.logErr(c, "scope failed: %v", err)
		return
	}
	c.app.unregisterScopes(c)
	c.mu.Lock()
	c.scopes = []string{resolved}
	c.mu.Unlock()
	c.app.registerScopes(c)
}

// AddScope appends a scope to the context's scope list if not already
// present.
func (c *Context) AddScope(scope string) {
	resolved, err := c.resolveScope(scope)
	if err != nil {
		c.app.logErr(c, "add scope failed: %v", err)
		return
	}
	c.mu.Lock()
	for _, s := range c.scopes {
		if s == resolved {
			c.mu.Unlock()
			return
		}
	}
	c.scopes = append(c.scopes, resolved)
	c.mu.Unlock()
	c.app.addContextToScope(c, resolved)
}

// Scopes returns a copy of the context's scope list.
func (c *Context) Scopes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.scopes))
	copy(out, c.scopes)
	return out
}

// PrimaryScope returns the first scope in the list. Signals created
// without an explicit scope inherit it, and Broadcast targets it.
func (c *Context) PrimaryScope() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.scopes) == 0 {
		return ScopeTab
	}
	return c.scopes[0]
}

func (c *Context) scopeList() []string {
	return c.Scopes()
}

func (c *Context) hasScope(scope string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// resolveScope substitutes the bare "session" token with the caller's
// concrete session scope.
func (c *Context) resolveScope(scope string) (string, error) {
	if scope != ScopeSession {
		return scope, nil
	}
	if c.sessionID == "" {
		return "", fmt.Errorf("scope 'session' requires a session id")
	}
	return BuildScope(ScopeSession, c.sessionID), nil
}

// Broadcast invalidates the primary scope's render cache and syncs every
// context registered in it.
func (c *Context) Broadcast() {
	c.app.Broadcast(c.PrimaryScope())
}

// --- signals --------------------------------------------------------------

// SignalOption configures Context.Signal.
type SignalOption func(*signalConfig)

type signalConfig struct {
	name          string
	scope         string
	autoBroadcast bool
}

// WithName names the signal. Named tab signals get stable per-context
// ids; scoped signals require a name.
func WithName(name string) SignalOption {
	return func(cfg *signalConfig) { cfg.name = name }
}

// WithScope places the signal in the given scope instead of the context's
// primary scope.
func WithScope(scope string) SignalOption {
	return func(cfg *signalConfig) { cfg.scope = scope }
}

// WithoutAutoBroadcast disables the broadcast a scoped signal normally
// fires when its value changes.
func WithoutAutoBroadcast() SignalOption {
	return func(cfg *signalConfig) { cfg.autoBroadcast = false }
}

// Signal creates a reactive signal initialised with the given value.
//
// Without options the signal inherits the context's primary scope; if the
// primary scope is "tab" the signal stays local to this tab. A scoped
// signal is shared by pointer with every other context that declares the
// same name in the same scope: the second declaration returns the first
// one's signal, value included.
//
// Example:
//
//	price := c.Signal(0.0, via.WithName("price"), via.WithScope("stock:AAPL"))
func (c *Context) Signal(initial any, opts ...SignalOption) *Signal {
	cfg := signalConfig{autoBroadcast: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	scope := cfg.scope
	if scope == "" {
		if primary := c.PrimaryScope(); primary != ScopeTab {
			scope = primary
		}
	}
	if scope != "" && scope != ScopeTab {
		resolved, err := c.resolveScope(scope)
		if err != nil {
			c.app.logErr(c, "signal '%s' failed: %v", cfg.name, err)
			return &Signal{id: sanitizeID(cfg.name), err: err}
		}
		return c.scopedSignal(initial, cfg.name, resolved, cfg.autoBroadcast)
	}
	return c.tabSignal(initial, cfg.name)
}

func (c *Context) tabSignal(initial any, name string) *Signal {
	host := c.pageCtx()
	var id string
	switch {
	case name == "":
		id = genRandID()
	case c.namespace != "":
		id = sanitizeID(c.namespace) + "." + sanitizeID(name)
	default:
		id = sanitizeID(name) + "_" + sanitizeID(host.id)
	}
	sig := &Signal{id: id, val: encodeSignalValue(initial), changed: true}
	host.mu.Lock()
	host.signals[id] = sig
	host.mu.Unlock()
	return sig
}

func (c *Context) scopedSignal(initial any, name, scope string, autoBroadcast bool) *Signal {
	if name == "" {
		err := fmt.Errorf("scoped signal in '%s' requires a name", scope)
		c.app.logErr(c, "signal failed: %v", err)
		return &Signal{err: err}
	}
	id := sanitizeID(scope + ":" + name)
	sig := &Signal{
		id:            id,
		scope:         scope,
		autoBroadcast: autoBroadcast,
		val:           encodeSignalValue(initial),
		changed:       true,
		app:           c.app,
	}
	return c.app.getOrStoreScopedSignal(scope, id, sig)
}

// injectSignals applies the client's signal snapshot before an action
// runs. Values mirror what the browser already holds, so nothing is
// marked changed and no broadcast fires. Unknown ids become tab signals,
// which lets actions read browser-only state.
func (c *Context) injectSignals(sigs map[string]any) {
	if sigs == nil {
		return
	}
	flat := flattenSignals(sigs)
	host := c.pageCtx()
	for id, val := range flat {
		if id == ctxSignalKey || id == csrfSignalKey {
			continue
		}
		host.mu.RLock()
		sig, ok := host.signals[id]
		host.mu.RUnlock()
		if ok {
			sig.inject(val)
			continue
		}
		if sig, ok := c.findScopedSignal(id); ok {
			sig.inject(val)
			continue
		}
		host.mu.Lock()
		host.signals[id] = &Signal{id: id, val: val}
		host.mu.Unlock()
	}
}

func (c *Context) findScopedSignal(id string) (*Signal, bool) {
	for _, scope := range c.scopeList() {
		if scope == ScopeTab {
			continue
		}
		c.app.stateMu.RLock()
		sig, ok := c.app.signalStore[scope][id]
		c.app.stateMu.RUnlock()
		if ok {
			return sig, true
		}
	}
	return nil, false
}

// --- actions --------------------------------------------------------------

type actionEntry struct {
	fn      func(*Context)
	limiter *rate.Limiter // nil = use context default
	name    string
	scope   string
}

// WithActionName names the action. Scoped actions require a name; the
// name becomes the wire id, stable across every client that registers it.
func WithActionName(name string) ActionOption {
	return func(e *actionEntry) { e.name = name }
}

// WithActionScope shares the action through the given scope instead of
// the context's primary scope.
func WithActionScope(scope string) ActionOption {
	return func(e *actionEntry) { e.scope = scope }
}

// Action registers an event handler and returns a trigger that can be
// added to a view like any other h element. The handler receives the
// context that invoked it, which for shared scoped actions is the
// caller's context, not the registering one.
//
// Without options the action inherits the context's primary scope; tab
// actions get random ids, scoped actions are registered once under their
// name and reused by later registrations.
//
// Example:
//
//	increment := c.Action(func(c *via.Context) {
//		n++
//		c.Broadcast()
//	}, via.WithActionName("increment"))
func (c *Context) Action(f func(*Context), opts ...ActionOption) *actionTrigger {
	entry := &actionEntry{fn: f}
	for _, opt := range opts {
		opt(entry)
	}
	if f == nil {
		c.app.logErr(c, "failed to bind action '%s': nil func", entry.name)
		return &actionTrigger{}
	}

	scope := entry.scope
	if scope == "" {
		if primary := c.PrimaryScope(); primary != ScopeTab {
			scope = primary
		}
	}
	if scope != "" && scope != ScopeTab {
		resolved, err := c.resolveScope(scope)
		if err != nil {
			c.app.logErr(c, "action '%s' failed: %v", entry.name, err)
			return &actionTrigger{}
		}
		if entry.name == "" {
			c.app.logErr(c, "scoped action in '%s' requires a name", resolved)
			return &actionTrigger{}
		}
		entry.scope = resolved
		c.app.getOrStoreScopedAction(resolved, entry.name, entry)
		return &actionTrigger{entry.name}
	}

	id := genRandID()
	entry.name = id
	host := c.pageCtx()
	host.mu.Lock()
	host.actions[id] = entry
	host.mu.Unlock()
	return &actionTrigger{id}
}

// findAction walks the lookup chain: this context's tab actions,
// then the action store at each of the context's scopes, then the
// context's route scope, then global, then the component tree.
func (c *Context) findAction(id string) (*actionEntry, bool) {
	c.mu.RLock()
	entry, ok := c.actions[id]
	c.mu.RUnlock()
	if ok {
		return entry, true
	}
	for _, scope := range c.scopeList() {
		if scope == ScopeTab {
			continue
		}
		if entry, ok := c.app.lookupScopedAction(scope, id); ok {
			return entry, true
		}
	}
	if rs := RouteScope(c.route); !c.hasScope(rs) {
		if entry, ok := c.app.lookupScopedAction(rs, id); ok {
			return entry, true
		}
	}
	if entry, ok := c.app.lookupScopedAction(ScopeGlobal, id); ok {
		return entry, true
	}
	c.mu.RLock()
	components := make([]*Context, 0, len(c.componentRegistry))
	for _, comp := range c.componentRegistry {
		components = append(components, comp)
	}
	c.mu.RUnlock()
	for _, comp := range components {
		if entry, ok := comp.findAction(id); ok {
			return entry, true
		}
	}
	return nil, false
}

// executeAction runs the named action with this context as the executing
// context. Handler panics propagate to the HTTP boundary, which converts
// them to a 500 without touching the context's state.
func (c *Context) executeAction(id string) error {
	entry, ok := c.findAction(id)
	if !ok {
		return fmt.Errorf("action '%s' not found", id)
	}
	if entry.limiter != nil && !entry.limiter.Allow() {
		return errRateLimited
	}
	entry.fn(c)
	return nil
}

// --- views ----------------------------------------------------------------

// ViewOption configures Context.View.
type ViewOption func(*Context)

// WithoutUpdateCache disables render caching for this context's update
// renders. Initial-load renders are never cached either way.
func WithoutUpdateCache() ViewOption {
	return func(c *Context) { c.cacheUpdates = false }
}

// View defines the UI rendered by this context. The function receives
// isUpdate=false for the initial page render and isUpdate=true for every
// SSE update render.
//
// Changes to signals or state can be pushed live with Sync() or by
// broadcasting the context's scope.
func (c *Context) View(f func(isUpdate bool) h.H, opts ...ViewOption) {
	if f == nil {
		panic("nil viewfn")
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.isComponent() {
		c.view = f
		return
	}
	c.view = func(isUpdate bool) h.H {
		return h.Div(h.ID(viewContainerID), f(isUpdate))
	}
}

// ViewTemplate defines the UI through a named html/template from the
// application's template set. data is re-evaluated on every render.
func (c *Context) ViewTemplate(name string, data func() any, opts ...ViewOption) {
	c.View(func(bool) h.H {
		html, err := c.Render(name, dataOrNil(data))
		if err != nil {
			c.app.logErr(c, "view template '%s' failed: %v", name, err)
			return nil
		}
		return h.Raw(html)
	}, opts...)
}

func dataOrNil(f func() any) any {
	if f == nil {
		return nil
	}
	return f()
}

// viewContainerID is the stable wrapper id shared by all contexts so that
// cached update renders morph cleanly into any recipient's DOM.
const viewContainerID = "via-view"

// Render executes a named template from the application's template set.
func (c *Context) Render(name string, data any) (string, error) {
	if c.app.templates == nil {
		return "", fmt.Errorf("render '%s': no template set configured", name)
	}
	var b bytes.Buffer
	if err := c.app.templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderString parses and executes an inline template source.
func (c *Context) RenderString(src string, data any) (string, error) {
	tpl, err := template.New("inline").Parse(src)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err := tpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// renderView produces this context's HTML. Update renders for non-tab
// primary scopes go through the shared render cache unless the view opted
// out; initial renders and tab contexts always render fresh.
func (c *Context) renderView(isUpdate bool) (string, error) {
	if c.view == nil {
		return "", nil
	}
	render := func() (string, error) {
		return c.app.timedRender(func() (string, error) {
			node := c.view(isUpdate)
			if node == nil {
				return "", nil
			}
			var b bytes.Buffer
			if err := node.Render(&b); err != nil {
				return "", err
			}
			return b.String(), nil
		})
	}
	primary := c.PrimaryScope()
	if isUpdate && primary != ScopeTab && c.cacheUpdates {
		return c.app.cachedRender(primary, render)
	}
	return render()
}

// --- components -----------------------------------------------------------

// Component registers a subcontext with self contained state, actions and
// signals, hosted by this page context. It returns the component's view
// as a DOM node fn that can be placed in the parent view. Components can
// be added to components.
//
// An optional namespace groups the component's named signals under a
// nested signal object.
func (c *Context) Component(initCtx func(c *Context), namespace ...string) func() h.H {
	id := c.id + "/_component/" + genRandID()
	compCtx := newContext(id, c.route, c.app)
	compCtx.parentPageCtx = c.pageCtx()
	compCtx.sessionID = c.sessionID
	if len(namespace) > 0 {
		compCtx.namespace = namespace[0]
	}
	initCtx(compCtx)
	c.mu.Lock()
	c.componentRegistry[id] = compCtx
	c.mu.Unlock()
	return func() h.H {
		if compCtx.view == nil {
			return nil
		}
		return h.Div(h.ID("c-"+cssID(compCtx.id)), compCtx.view(false))
	}
}

// cssID flattens a context id into something usable inside an element id.
func cssID(id string) string {
	return sanitizeID(id)
}

// --- sync & patches -------------------------------------------------------

// Sync pushes the current view state and signal changes to the browser
// over the live SSE event stream. Components patch into their container
// div via a selector; pages replace the shared view container.
func (c *Context) Sync() {
	if c.view != nil {
		html, err := c.renderView(true)
		if err != nil {
			c.app.logErr(c, "sync render failed: %v", err)
		} else if strings.TrimSpace(html) != "" {
			p := patch{typ: patchTypeElements, content: html}
			if c.isComponent() {
				css := cssID(c.id)
				p.content = fmt.Sprintf(`<div id="c-%s">%s</div>`, css, html)
				p.selector = "#c-" + css
			}
			c.sendPatch(p)
		}
	}
	c.SyncSignals()
}

// SyncSignals pushes signal values to the browser: tab signals that
// changed since the last sync, plus every signal of every non-tab scope
// the context belongs to. Scoped signals go out unconditionally; each
// consumer of a shared signal must receive the value regardless of which
// context's sync cleared the flag.
func (c *Context) SyncSignals() {
	flat := make(map[string]any)

	host := c.pageCtx()
	host.mu.RLock()
	changed := make([]*Signal, 0, len(host.signals))
	for _, sig := range host.signals {
		if sig.isChanged() {
			changed = append(changed, sig)
		}
	}
	host.mu.RUnlock()
	for _, sig := range changed {
		flat[sig.ID()] = sig.Value()
		sig.markSynced()
	}

	for _, scope := range c.scopeList() {
		if scope == ScopeTab {
			continue
		}
		for _, sig := range c.app.scopedSignals(scope) {
			flat[sig.ID()] = sig.Value()
		}
	}

	if len(flat) == 0 {
		return
	}
	payload, err := marshalSignals(nestSignals(flat))
	if err != nil {
		c.app.logErr(c, "sync signals failed: %v", err)
		return
	}
	c.sendPatch(patch{typ: patchTypeSignals, content: payload})
}

// SyncElements pushes an immediate html patch over the live SSE stream.
// Each top level element needs an ID matching an element already in the
// view for the DOM merge to occur.
func (c *Context) SyncElements(elem ...h.H) {
	var b bytes.Buffer
	for idx, el := range elem {
		if el == nil {
			c.app.logWarn(c, "sync elements failed: element at idx=%d is nil", idx)
			continue
		}
		if err := el.Render(&b); err != nil {
			c.app.logWarn(c, "sync elements failed: element at idx=%d has invalid html", idx)
			continue
		}
	}
	c.sendPatch(patch{typ: patchTypeElements, content: b.String()})
}

// ExecScript runs the given JavaScript source in the browser.
func (c *Context) ExecScript(s string) {
	if s == "" {
		c.app.logWarn(c, "exec script failed: empty script")
		return
	}
	c.sendPatch(patch{typ: patchTypeScript, content: s})
}

// Redirect navigates the browser to the given URL.
func (c *Context) Redirect(url string) {
	c.sendPatch(patch{typ: patchTypeRedirect, content: url})
}

// ReplaceURL replaces the browser's address bar URL without navigating.
func (c *Context) ReplaceURL(url string) {
	c.sendPatch(patch{typ: patchTypeReplaceURL, content: url})
}

// sendPatch queues a patch on this context's SSE stream. Components queue
// through their parent page. When the queue is full the oldest patches
// are shed; newer full renders supersede them.
//
// The queue pointer is swapped on every SSE (re)connect, so it must be
// read under the page lock: a broadcast racing a reconnect either lands
// on the old queue (discarded with it) or the new one, never in between.
func (c *Context) sendPatch(p patch) {
	host := c.pageCtx()
	host.mu.RLock()
	q := host.queue
	host.mu.RUnlock()
	if q == nil {
		return
	}
	if dropped := q.push(p); dropped > 0 {
		c.app.logWarn(c, "patch queue full: dropped %d oldest patch(es)", dropped)
	}
}

// --- route params ---------------------------------------------------------

func (c *Context) injectRouteParams(params map[string]string) {
	if params == nil {
		return
	}
	m := make(map[string]string)
	maps.Copy(m, params)
	c.mu.Lock()
	c.routeParams = m
	c.mu.Unlock()
}

// GetPathParam retrieves the value from the page request URL for the
// given parameter name or an empty string if not found.
//
// Example:
//
//	v.Page("/users/{user_id}", func(c *via.Context) {
//		userID := c.GetPathParam("user_id")
//		...
//	})
func (c *Context) GetPathParam(param string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.routeParams[param]
}

// setRequestContext records the request whose handler currently owns this
// context. Both the action handler and the SSE handler write it, possibly
// concurrently, so access goes through c.mu.
func (c *Context) setRequestContext(ctx context.Context) {
	c.mu.Lock()
	c.reqCtx = ctx
	c.mu.Unlock()
}

func (c *Context) requestContext() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reqCtx
}

// Session returns the scs-backed session data store for this context.
// Session data persists across page views for the same browser. Returns a
// no-op session if no SessionManager is configured.
func (c *Context) Session() *Session {
	return &Session{
		ctx:     c.requestContext(),
		manager: c.app.sessionManager,
	}
}

var errRateLimited = fmt.Errorf("rate limited")
