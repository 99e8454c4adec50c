// Global broadcast: an admin page publishes a notice that instantly
// appears on every connected tab, whatever page it is on.
package main

import (
	"github.com/go-via/via"
	"github.com/go-via/via/h"
)

func main() {
	v := via.New()
	v.SetState("notice", "")

	v.Page("/", func(c *via.Context) {
		c.View(func(bool) h.H {
			return h.Div(
				h.H1(h.Text("Home")),
				banner(v),
			)
		})
	})

	v.Page("/about", func(c *via.Context) {
		c.View(func(bool) h.H {
			return h.Div(
				h.H1(h.Text("About")),
				banner(v),
			)
		})
	})

	v.Page("/admin", func(c *via.Context) {
		draft := c.Signal("", via.WithName("draft"))

		publish := c.Action(func(c *via.Context) {
			v.SetState("notice", draft.String())
			v.Broadcast("global")
		})

		clear := c.Action(func(c *via.Context) {
			v.SetState("notice", "")
			v.Broadcast("global")
		})

		c.View(func(bool) h.H {
			return h.Div(
				h.H1(h.Text("Admin")),
				banner(v),
				h.Input(h.Type("text"), h.Placeholder("Notice..."), draft.Bind()),
				h.Button(h.Text("Publish"), publish.OnClick()),
				h.Button(h.Text("Clear"), clear.OnClick()),
			)
		})
	})

	v.Start()
}

func banner(v *via.V) h.H {
	notice, _ := v.State("notice").(string)
	if notice == "" {
		return nil
	}
	return h.P(h.Style("background: gold; padding: 8px"), h.Strong(h.Text(notice)))
}
