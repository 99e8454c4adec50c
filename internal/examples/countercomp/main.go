// Components: a reusable counter mounted three times on one page. Each
// instance gets its own namespaced signals, and Sync inside a component
// repaints only that component's wrapper div.
package main

import (
	"github.com/go-via/via"
	"github.com/go-via/via/h"
)

func counter(c *via.Context, label string) func() h.H {
	return c.Component(func(c *via.Context) {
		count := 0
		step := c.Signal(1, via.WithName("step"))

		increment := c.Action(func(c *via.Context) {
			count += step.Int()
			c.Sync()
		})

		reset := c.Action(func(c *via.Context) {
			count = 0
			c.Sync()
		})

		c.View(func(bool) h.H {
			return h.Div(
				h.H3(h.Text(label)),
				h.P(h.Textf("Count: %d", count)),
				h.Input(h.Type("number"), step.Bind()),
				h.Button(h.Text("+"), increment.OnClick()),
				h.Button(h.Text("Reset"), reset.OnClick()),
			)
		})
	}, label)
}

func main() {
	v := via.New()

	v.Page("/", func(c *via.Context) {
		first := counter(c, "first")
		second := counter(c, "second")
		third := counter(c, "third")

		c.View(func(bool) h.H {
			return h.Div(
				h.H1(h.Text("Independent counters")),
				first(),
				second(),
				third(),
			)
		})
	})

	v.Start()
}
