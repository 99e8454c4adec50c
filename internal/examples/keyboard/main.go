// Keyboard bindings: window-level arrow keys move a paddle, and
// OnKeyDownMap folds several bindings into a single attribute.
package main

import (
	"github.com/go-via/via"
	"github.com/go-via/via/h"
)

func main() {
	v := via.New()

	v.Page("/", func(c *via.Context) {
		position := 5

		left := c.Action(func(c *via.Context) {
			if position > 0 {
				position--
			}
			c.Sync()
		})

		right := c.Action(func(c *via.Context) {
			if position < 10 {
				position++
			}
			c.Sync()
		})

		center := c.Action(func(c *via.Context) {
			position = 5
			c.Sync()
		})

		c.View(func(bool) h.H {
			cells := []h.H{}
			for i := 0; i <= 10; i++ {
				mark := "."
				if i == position {
					mark = "#"
				}
				cells = append(cells, h.Td(h.Text(mark)))
			}
			return h.Div(
				h.H1(h.Text("Keyboard")),
				h.P(h.Text("Use the arrow keys; Space recenters.")),
				h.Table(h.Tr(cells...)),
				via.OnKeyDownMap(
					via.KeyBind("ArrowLeft", left),
					via.KeyBind("ArrowRight", right),
					via.KeyBind(" ", center, via.WithPreventDefault()),
				),
			)
		})
	})

	v.Start()
}
