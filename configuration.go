package via

import (
	"html/template"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog"
)

func ptr(l zerolog.Level) *zerolog.Level { return &l }

var (
	LogLevelDebug = ptr(zerolog.DebugLevel)
	LogLevelInfo  = ptr(zerolog.InfoLevel)
	LogLevelWarn  = ptr(zerolog.WarnLevel)
	LogLevelError = ptr(zerolog.ErrorLevel)
)

// Plugin is a func that can mutate the given *via.V app runtime. It is
// useful to integrate popular JS/CSS UI libraries or tools.
type Plugin func(v *V)

// Options defines configuration options for the via application.
type Options struct {
	// The development mode flag. Enables the console logger and the
	// browser inspector include.
	DevMode bool

	// The http server address. e.g. ':3000'
	ServerAddress string

	// LogLevel sets the minimum log level. nil keeps the default (Info).
	LogLevel *zerolog.Level

	// Logger overrides the default logger entirely. When set, LogLevel and
	// DevMode have no effect on logging.
	Logger *zerolog.Logger

	// The title of the HTML document.
	DocumentTitle string

	// Plugins to extend the capabilities of the `Via` application.
	Plugins []Plugin

	// SessionManager enables scs-backed session data. If set, Via wraps
	// handlers with the LoadAndSave middleware. Configure the manager
	// before passing it (lifetime, cookie settings, store, etc). The
	// via_session_id identity cookie is independent of this and always set.
	SessionManager *scs.SessionManager

	// Templates is an optional html/template set backing Context.Render
	// and Context.ViewTemplate.
	Templates *template.Template

	// DatastarContent is the Datastar.js script content.
	// If nil, the embedded default is used.
	DatastarContent []byte

	// DatastarPath is the URL path where the script is served.
	// Defaults to "/_datastar.js" if empty.
	DatastarPath string

	// PubSub enables publish/subscribe messaging. Use vianats.New() for an
	// embedded NATS backend, or supply any PubSub implementation.
	PubSub PubSub

	// GracePeriod is how long a context survives after its SSE stream
	// drops before it is destroyed. An SSE reconnect within the window
	// keeps the context, signals included. Defaults to 5s.
	GracePeriod time.Duration

	// ContextTTL reaps contexts that never attached an SSE stream.
	// 0 keeps the default (30s); negative disables the reaper.
	ContextTTL time.Duration

	// ActionRateLimit is the default token-bucket for action requests,
	// applied per context. Zero values keep the defaults; Rate -1
	// disables limiting.
	ActionRateLimit RateLimitConfig

	// Metrics enables Prometheus instrumentation and the /_metrics
	// endpoint.
	Metrics bool
}
