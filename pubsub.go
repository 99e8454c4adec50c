package via

import "fmt"

// PubSub is an interface for publish/subscribe messaging backends.
// The vianats sub-package provides an embedded NATS implementation.
type PubSub interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (Subscription, error)
	Close() error
}

// Subscription represents an active subscription that can be manually unsubscribed.
type Subscription interface {
	Unsubscribe() error
}

// Publish sends data to subject through the application's PubSub backend.
func (c *Context) Publish(subject string, data []byte) error {
	if c.app.pubsub == nil {
		return fmt.Errorf("publish to '%s' failed: no PubSub configured", subject)
	}
	return c.app.pubsub.Publish(subject, data)
}

// Subscribe registers handler for subject. The subscription is torn down
// with the context, so handlers can safely capture signals and Sync.
func (c *Context) Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	if c.app.pubsub == nil {
		return nil, fmt.Errorf("subscribe to '%s' failed: no PubSub configured", subject)
	}
	sub, err := c.app.pubsub.Subscribe(subject, handler)
	if err != nil {
		return nil, err
	}
	c.OnCleanup(func() {
		if err := sub.Unsubscribe(); err != nil {
			c.app.logWarn(c, "unsubscribe from '%s' failed: %v", subject, err)
		}
	})
	return sub, nil
}
