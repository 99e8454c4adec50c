// Package via provides a reactive, real-time engine for creating Go web
// applications. It lets you build live, type-safe web interfaces without
// JavaScript.
//
// Via unifies routing, scoped state, and UI reactivity through a simple
// mental model: Go on the server, HTML in the browser, updated in real
// time via Datastar. Pages declare signals (reactive named values),
// actions (server-side callables triggered by client events) and views;
// scopes decide how all three are shared, cached and broadcast across
// connected tabs.
package via

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/go-via/via/h"
)

//go:embed datastar.js
var datastarJS []byte

// Reserved signal keys carried in every client payload.
const (
	ctxSignalKey  = "via_ctx"
	csrfSignalKey = "via_csrf"
)

// sessionCookieName identifies the browser across tabs and page views.
const sessionCookieName = "via_session_id"

const sessionCookieLifetime = 30 * 24 * time.Hour

// V is the root application.
//
// It owns the route table, the scope registry with its signal and action
// stores, the per-scope render cache, global state, the client registry
// and the SSE plumbing that keeps every connected tab live.
type V struct {
	cfg    Options
	mux    *http.ServeMux
	server *http.Server
	logger zerolog.Logger
	router *router

	// stateMu serialises all scoped application state. Contexts, scope
	// membership, shared signals and the render cache form one consistency
	// domain; patch queues are the only per-context concurrency boundary.
	stateMu         sync.RWMutex
	contextRegistry map[string]*Context
	scopeRegistry   map[string]map[string]*Context
	signalStore     map[string]map[string]*Signal
	actionStore     map[string]map[string]*actionEntry
	renderCache     map[string]string
	rendering       map[string]bool
	globalState     map[string]any
	clients         map[string]ClientRecord
	appTickers      []chan struct{}
	peakMemory      uint64

	renderStats renderStats
	startedAt   time.Time

	documentHeadIncludes []h.H
	documentFootIncludes []h.H
	sessionManager       *scs.SessionManager
	templates            *template.Template
	pubsub               PubSub
	actionRateLimit      RateLimitConfig
	metrics              *metrics
	datastarPath         string
	datastarContent      []byte
	datastarOnce         sync.Once
	pageOnce             sync.Once
	reaperStop           chan struct{}
}

func (v *V) logEvent(evt *zerolog.Event, c *Context) *zerolog.Event {
	if c != nil && c.id != "" {
		evt = evt.Str(ctxSignalKey, c.id)
	}
	return evt
}

func (v *V) logFatal(format string, a ...any) {
	v.logEvent(v.logger.WithLevel(zerolog.FatalLevel), nil).Msgf(format, a...)
}

func (v *V) logErr(c *Context, format string, a ...any) {
	v.logEvent(v.logger.Error(), c).Msgf(format, a...)
}

func (v *V) logWarn(c *Context, format string, a ...any) {
	v.logEvent(v.logger.Warn(), c).Msgf(format, a...)
}

func (v *V) logInfo(c *Context, format string, a ...any) {
	v.logEvent(v.logger.Info(), c).Msgf(format, a...)
}

func (v *V) logDebug(c *Context, format string, a ...any) {
	v.logEvent(v.logger.Debug(), c).Msgf(format, a...)
}

func newConsoleLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger().Level(level)
}

// Config overrides the default configuration with the given options.
func (v *V) Config(cfg Options) {
	if cfg.Logger != nil {
		v.logger = *cfg.Logger
	} else if cfg.LogLevel != nil || cfg.DevMode != v.cfg.DevMode {
		level := zerolog.InfoLevel
		if cfg.LogLevel != nil {
			level = *cfg.LogLevel
		}
		if cfg.DevMode {
			v.logger = newConsoleLogger(level)
		} else {
			v.logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
		}
	}
	if cfg.DocumentTitle != "" {
		v.cfg.DocumentTitle = cfg.DocumentTitle
	}
	if cfg.Plugins != nil {
		for _, plugin := range cfg.Plugins {
			if plugin != nil {
				plugin(v)
			}
		}
	}
	if cfg.DevMode != v.cfg.DevMode {
		v.cfg.DevMode = cfg.DevMode
	}
	if cfg.ServerAddress != "" {
		v.cfg.ServerAddress = cfg.ServerAddress
	}
	if cfg.SessionManager != nil {
		v.sessionManager = cfg.SessionManager
	}
	if cfg.Templates != nil {
		v.templates = cfg.Templates
	}
	if cfg.DatastarContent != nil {
		v.datastarContent = cfg.DatastarContent
	}
	if cfg.DatastarPath != "" {
		v.datastarPath = cfg.DatastarPath
	}
	if cfg.PubSub != nil {
		v.pubsub = cfg.PubSub
	}
	if cfg.GracePeriod != 0 {
		v.cfg.GracePeriod = cfg.GracePeriod
	}
	if cfg.ContextTTL != 0 {
		v.cfg.ContextTTL = cfg.ContextTTL
	}
	if cfg.ActionRateLimit.Rate != 0 || cfg.ActionRateLimit.Burst != 0 {
		v.actionRateLimit = cfg.ActionRateLimit
	}
	if cfg.Metrics && v.metrics == nil {
		v.metrics = newMetrics()
		v.mux.HandleFunc("GET /_metrics", v.metrics.handler())
	}
}

// AppendToHead appends the given h.H nodes to the head of the base HTML
// document. Useful for including css stylesheets and JS scripts.
func (v *V) AppendToHead(elements ...h.H) {
	for _, el := range elements {
		if el != nil {
			v.documentHeadIncludes = append(v.documentHeadIncludes, el)
		}
	}
}

// AppendToFoot appends the given h.H nodes to the end of the base HTML
// document body. Useful for including JS scripts.
func (v *V) AppendToFoot(elements ...h.H) {
	for _, el := range elements {
		if el != nil {
			v.documentFootIncludes = append(v.documentFootIncludes, el)
		}
	}
}

// Page registers a route and its page handler. The handler receives a
// *Context that defines state, UI, signals, and actions, optionally
// followed by typed route parameters bound from the pattern's {name}
// placeholders in order.
//
// Example:
//
//	v.Page("/", func(c *via.Context) {
//		c.View(func(bool) h.H {
//			return h.H1(h.Text("Hello, Via!"))
//		})
//	})
//
//	v.Page("/blog/{year}/{month}/{slug}", func(c *via.Context, year, month int, slug string) {
//		...
//	})
func (v *V) Page(route string, handler any) {
	v.ensureDatastarHandler()
	v.pageOnce.Do(func() {
		v.mux.HandleFunc("/", v.handlePage)
	})
	if _, err := v.router.register(route, handler); err != nil {
		v.logFatal("failed to register page: %v", err)
		panic(err)
	}
}

func (v *V) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	v.logDebug(nil, "%s %s", r.Method, r.URL.String())
	if strings.Contains(r.URL.Path, "favicon") ||
		strings.Contains(r.URL.Path, ".well-known") ||
		strings.Contains(r.URL.Path, "js.map") {
		return
	}

	page, params := v.router.match(r.URL.Path)
	if page == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	sessionID := v.ensureSessionCookie(w, r)
	id := fmt.Sprintf("%s_/%s", page.pattern, genRandID())
	c := newContext(id, page.pattern, v)
	c.setRequestContext(r.Context())
	c.sessionID = sessionID
	c.actionLimiter = newLimiter(v.actionRateLimit, defaultActionRate, defaultActionBurst)
	c.injectRouteParams(params)
	v.router.invoke(page, c, params)
	v.registerCtx(c)
	v.registerScopes(c)

	body, err := c.renderView(false)
	if err != nil {
		v.logErr(c, "initial render failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := v.shell(c, body).Render(w); err != nil {
		v.logErr(c, "shell render failed: %v", err)
	}
}

// shell assembles the outer HTML document: client script, developer head
// includes, the signals seed carrying the context id, the SSE
// auto-connect directive, the unload beacon, the rendered view and the
// foot includes.
func (v *V) shell(c *Context, body string) h.H {
	headElements := []h.H{h.Script(h.Type("module"), h.Src(v.datastarPath))}
	headElements = append(headElements, v.documentHeadIncludes...)
	headElements = append(headElements,
		h.Meta(h.Data("signals", fmt.Sprintf("{'%s':'%s','%s':'%s'}",
			ctxSignalKey, c.id, csrfSignalKey, c.csrfToken))),
		h.Meta(h.Data("init", "@get('/_sse')")),
		h.Meta(h.Data("init", fmt.Sprintf(`window.addEventListener('beforeunload', (evt) => {
			navigator.sendBeacon('/_session/close', '%s');});`, c.id))),
	)

	bodyElements := []h.H{h.Raw(body)}
	bodyElements = append(bodyElements, v.documentFootIncludes...)
	return h.HTML5(h.HTML5Props{
		Title:     v.cfg.DocumentTitle,
		Head:      headElements,
		Body:      bodyElements,
		HTMLAttrs: []h.H{},
	})
}

// ensureSessionCookie reads the browser's via_session_id cookie, minting
// it when absent.
func (v *V) ensureSessionCookie(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := genSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(sessionCookieLifetime),
	})
	return id
}

func (v *V) registerCtx(c *Context) {
	if c == nil {
		v.logErr(nil, "failed to add nil context to registry")
		return
	}
	v.stateMu.Lock()
	v.contextRegistry[c.id] = c
	total := len(v.contextRegistry)
	v.stateMu.Unlock()
	v.logDebug(c, "new context added to registry")
	v.logDebug(nil, "number of contexts in registry: %d", total)
}

func (v *V) unregisterCtx(c *Context) {
	if c.id == "" {
		v.logErr(c, "unregister ctx failed: ctx contains empty id")
		return
	}
	v.stateMu.Lock()
	delete(v.contextRegistry, c.id)
	total := len(v.contextRegistry)
	v.stateMu.Unlock()
	v.logDebug(c, "ctx removed from registry")
	v.logDebug(nil, "number of contexts in registry: %d", total)
}

func (v *V) getCtx(id string) (*Context, error) {
	v.stateMu.RLock()
	defer v.stateMu.RUnlock()
	if c, ok := v.contextRegistry[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("ctx '%s' not found", id)
}

func (v *V) startReaper() {
	ttl := v.cfg.ContextTTL
	if ttl < 0 {
		return
	}
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	interval := ttl / 3
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	v.reaperStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-v.reaperStop:
				return
			case <-ticker.C:
				v.reapOrphanedContexts(ttl)
			}
		}
	}()
}

func (v *V) reapOrphanedContexts(ttl time.Duration) {
	now := time.Now()
	var orphans []*Context
	for _, c := range v.allContexts() {
		if !c.sseConnected.Load() && now.Sub(c.createdAt) > ttl {
			orphans = append(orphans, c)
		}
	}
	for _, c := range orphans {
		v.logInfo(c, "reaping orphaned context (no SSE connection after %s)", ttl)
		v.destroyContext(c)
	}
}

// Start starts the Via HTTP server and blocks until a SIGINT or SIGTERM
// signal is received, then performs a graceful shutdown. With
// VIA_TEST_MODE=1 in the environment no listener is opened and Start
// returns immediately, leaving the mux usable through HTTPServeMux.
func (v *V) Start() {
	handler := http.Handler(v.mux)
	if v.sessionManager != nil {
		handler = v.sessionManager.LoadAndSave(v.mux)
	}
	v.server = &http.Server{
		Addr:    v.cfg.ServerAddress,
		Handler: handler,
	}

	if os.Getenv("VIA_TEST_MODE") == "1" {
		v.logInfo(nil, "test mode: network listener disabled")
		return
	}

	v.startReaper()

	errCh := make(chan error, 1)
	go func() {
		errCh <- v.server.ListenAndServe()
	}()

	v.logInfo(nil, "via started at [%s]", v.cfg.ServerAddress)

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		v.logInfo(nil, "received signal %v, shutting down", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			v.logger.Fatal().Err(err).Msg("http server failed")
		}
		return
	}

	v.shutdown()
}

// Shutdown gracefully shuts down the server and all contexts.
// Safe for programmatic or test use.
func (v *V) Shutdown() {
	v.shutdown()
}

func (v *V) shutdown() {
	if v.reaperStop != nil {
		close(v.reaperStop)
	}
	v.stopAppTickers()
	v.logInfo(nil, "draining all contexts")
	v.drainAllContexts()

	if v.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := v.server.Shutdown(ctx); err != nil {
			v.logErr(nil, "http server shutdown error: %v", err)
		}
	}

	if v.pubsub != nil {
		if err := v.pubsub.Close(); err != nil {
			v.logErr(nil, "pubsub close error: %v", err)
		}
	}

	v.logInfo(nil, "shutdown complete")
}

func (v *V) drainAllContexts() {
	contexts := v.allContexts()
	for _, c := range contexts {
		v.logDebug(c, "disposing context")
		v.destroyContext(c)
	}
	v.logInfo(nil, "drained %d context(s)", len(contexts))
}

// HTTPServeMux returns the underlying HTTP request multiplexer to enable
// user extensions, middleware and plugins. It also enables integration
// with test frameworks like gost-dom/browser for SSE/Datastar testing.
//
// IMPORTANT. The returned *http.ServeMux can only be modified during
// initialization, before calling via.Start(). Concurrent handler
// registration is not safe.
func (v *V) HTTPServeMux() *http.ServeMux {
	return v.mux
}

func (v *V) ensureDatastarHandler() {
	v.datastarOnce.Do(func() {
		v.mux.HandleFunc("GET "+v.datastarPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/javascript")
			_, _ = w.Write(v.datastarContent)
		})
	})
}

// New creates a new *V application with default configuration.
func New() *V {
	v := &V{
		mux:             http.NewServeMux(),
		logger:          newConsoleLogger(zerolog.InfoLevel),
		router:          &router{},
		contextRegistry: make(map[string]*Context),
		scopeRegistry:   make(map[string]map[string]*Context),
		signalStore:     make(map[string]map[string]*Signal),
		actionStore:     make(map[string]map[string]*actionEntry),
		renderCache:     make(map[string]string),
		rendering:       make(map[string]bool),
		globalState:     make(map[string]any),
		clients:         make(map[string]ClientRecord),
		datastarPath:    "/_datastar.js",
		datastarContent: datastarJS,
		startedAt:       time.Now(),
		cfg: Options{
			DevMode:       false,
			ServerAddress: ":3000",
			DocumentTitle: "⚡ Via",
		},
	}

	v.mux.HandleFunc("GET /_sse", v.handleSSE)
	v.mux.HandleFunc("/_action/{id}", v.handleAction)
	v.mux.HandleFunc("POST /_session/close", v.handleSessionClose)
	v.mux.HandleFunc("GET /_stats", v.handleStats)
	return v
}

func (v *V) handleAction(w http.ResponseWriter, r *http.Request) {
	actionID := r.PathValue("id")
	var sigs map[string]any
	_ = datastar.ReadSignals(r, &sigs)
	cID, _ := sigs[ctxSignalKey].(string)
	c, err := v.getCtx(cID)
	if err != nil {
		v.logErr(nil, "action '%s' failed: %v", actionID, err)
		http.Error(w, "Invalid context", http.StatusBadRequest)
		return
	}
	csrfToken, _ := sigs[csrfSignalKey].(string)
	if subtle.ConstantTimeCompare([]byte(csrfToken), []byte(c.csrfToken)) != 1 {
		v.logWarn(c, "action '%s' rejected: invalid CSRF token", actionID)
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}
	if c.actionLimiter != nil && !c.actionLimiter.Allow() {
		v.logWarn(c, "action '%s' rate limited", actionID)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	c.setRequestContext(r.Context())
	c.injectSignals(sigs)

	if v.metrics != nil {
		v.metrics.actions.Inc()
	}
	// A panicking handler is a boundary error: the context and its signals
	// stay valid, the client gets a constant 500 body.
	var failed bool
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				v.logErr(c, "action '%s' panicked: %v", actionID, rec)
				failed = true
			}
		}()
		err = c.executeAction(actionID)
	}()
	switch {
	case failed:
		http.Error(w, "Action failed", http.StatusInternalServerError)
	case err == errRateLimited:
		v.logWarn(c, "action '%s' rate limited (per-action)", actionID)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	case err != nil:
		v.logDebug(c, "action '%s' failed: %v", actionID, err)
		http.Error(w, "Action not found", http.StatusNotFound)
	}
}

func (v *V) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		v.logErr(nil, "error reading body: %v", err)
		return
	}
	defer r.Body.Close()
	cID := string(body)
	c, err := v.getCtx(cID)
	if err != nil {
		v.logDebug(nil, "session close for unknown ctx: %v", err)
		return
	}
	v.logDebug(c, "session close event triggered")
	v.unregisterScopes(c)
	v.scheduleCleanup(c)
}

func marshalSignals(nested map[string]any) (string, error) {
	b, err := json.Marshal(nested)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func genRandID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)[:8]
}

func genSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func genCSRFToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
