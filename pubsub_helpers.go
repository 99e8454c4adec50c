package via

import (
	"encoding/json"
	"fmt"
)

// Publish JSON-encodes msg and publishes it to subject through the
// app's configured PubSub backend.
func Publish[T any](c *Context, subject string, msg T) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return c.Publish(subject, data)
}

// Subscribe decodes each message on subject as T and calls handler.
// Messages that do not decode as T are logged and skipped; subjects
// carrying mixed payloads should use Context.Subscribe and the raw
// []byte form instead. The subscription is torn down with the context.
func Subscribe[T any](c *Context, subject string, handler func(T)) (Subscription, error) {
	return c.Subscribe(subject, func(data []byte) {
		var msg T
		if err := json.Unmarshal(data, &msg); err != nil {
			c.app.logWarn(c, "subscription '%s': dropping undecodable message: %v", subject, err)
			return
		}
		handler(msg)
	})
}
