package via

import (
	"net/http"
	"net/url"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

// keepaliveInterval is how often the pump sends a heartbeat when nothing
// else crosses the stream, to keep intermediaries from timing it out.
const keepaliveInterval = 30 * time.Second

// handleSSE opens the long-lived stream for a context and pumps its patch
// queue until the socket closes or the context is destroyed.
//
// An unknown via_ctx is an expected condition (server restart, evicted
// context): the browser gets a single reload script and the stream
// closes, which re-runs the page GET and mints a fresh context.
func (v *V) handleSSE(w http.ResponseWriter, r *http.Request) {
	var sigs map[string]any
	_ = datastar.ReadSignals(r, &sigs)
	cID, _ := sigs[ctxSignalKey].(string)

	c, err := v.getCtx(cID)
	if err != nil {
		v.logWarn(nil, "sse stream for stale context: %v", err)
		sse := datastar.NewSSE(w, r)
		_ = sse.ExecuteScript("window.location.reload()",
			datastar.WithExecuteScriptAutoRemove(true))
		return
	}
	c.setRequestContext(r.Context())

	sse := datastar.NewSSE(w, r, datastar.WithCompression(datastar.WithBrotli(datastar.WithBrotliLevel(5))))

	// use last-event-id to tell if request is a sse reconnect
	_ = sse.Send(datastar.EventTypePatchElements, []string{}, datastar.WithSSEEventId("via"))

	reconnected := v.cancelCleanup(c)
	if reconnected {
		v.logDebug(c, "SSE reconnected within grace period")
	}
	v.registerScopes(c)
	v.registerClient(c.id, r.RemoteAddr)
	c.mu.Lock()
	c.queue = newPatchQueue(patchQueueCapacity)
	queue := c.queue
	c.mu.Unlock()
	c.sseConnected.Store(true)
	if v.metrics != nil {
		v.metrics.sseConnects.Inc()
	}
	v.logDebug(c, "SSE connection established")

	go c.Sync()

	v.pump(c, sse, queue)

	// Socket is gone: leave every scope now so broadcasts stop targeting
	// this context, but keep the context itself for the grace window.
	c.sseConnected.Store(false)
	v.unregisterScopes(c)
	v.scheduleCleanup(c)
	v.logDebug(c, "SSE connection ended")
}

// pump drains the patch queue onto the wire, heartbeating every 30s of
// silence. It returns when the socket dies; write errors on a live socket
// are logged and the offending patch dropped.
func (v *V) pump(c *Context, sse *datastar.ServerSentEventGenerator, queue *patchQueue) {
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-c.disposed:
			v.logDebug(c, "context disposed, closing SSE")
			return
		case <-keepalive.C:
			if err := sse.Send(datastar.EventTypePatchElements, []string{},
				datastar.WithSSEEventId("keepalive")); err != nil {
				return
			}
		case <-queue.wait():
			for {
				p, ok := queue.pop()
				if !ok {
					break
				}
				if sse.Context().Err() != nil {
					return
				}
				v.writePatch(c, sse, p)
			}
			keepalive.Reset(keepaliveInterval)
		}
	}
}

func (v *V) writePatch(c *Context, sse *datastar.ServerSentEventGenerator, p patch) {
	var err error
	switch p.typ {
	case patchTypeElements:
		if p.selector != "" {
			err = sse.PatchElements(p.content, datastar.WithSelector(p.selector))
		} else {
			err = sse.PatchElements(p.content)
		}
	case patchTypeSignals:
		err = sse.PatchSignals([]byte(p.content))
	case patchTypeScript:
		err = sse.ExecuteScript(p.content, datastar.WithExecuteScriptAutoRemove(true))
	case patchTypeRedirect:
		err = sse.Redirect(p.content)
	case patchTypeReplaceURL:
		parsedURL, perr := url.Parse(p.content)
		if perr != nil {
			v.logErr(c, "ReplaceURL failed to parse URL: %v", perr)
			return
		}
		err = sse.ReplaceURL(*parsedURL)
	}
	// Only log if connection wasn't closed (avoids noise during shutdown/tests)
	if err != nil && sse.Context().Err() == nil {
		v.logErr(c, "patch write failed: %v", err)
	}
}
