// A counter shared by every tab on the page. The route scope makes the
// count, the step signal and the increment action common to all
// visitors: one click renders once and every tab receives the patch.
package main

import (
	"github.com/go-via/via"
	"github.com/go-via/via/h"
)

var count int

func main() {
	v := via.New()

	v.Page("/", func(c *via.Context) {
		c.Scope(via.RouteScope("/"))

		step := c.Signal(1, via.WithName("step"))

		increment := c.Action(func(c *via.Context) {
			count += step.Int()
			c.Broadcast()
		}, via.WithActionName("increment"))

		c.View(func(bool) h.H {
			return h.Div(
				h.P(h.Textf("Count: %d", count)),
				h.Label(
					h.Text("Step: "),
					h.Input(h.Type("number"), step.Bind()),
				),
				h.Button(h.Text("Increment"), increment.OnClick()),
			)
		})
	})

	v.Start()
}
