// Plugins: package CSS/JS integrations as reusable funcs that mutate
// the app at startup. PicoCSS here, but anything touching *via.V works.
package main

import (
	"github.com/go-via/via"
	"github.com/go-via/via/h"
)

// picoCSS pulls in the classless PicoCSS stylesheet.
func picoCSS() via.Plugin {
	return func(v *via.V) {
		v.AppendToHead(h.Link(
			h.Rel("stylesheet"),
			h.Href("https://cdn.jsdelivr.net/npm/@picocss/pico@2/css/pico.classless.min.css"),
		))
	}
}

// footerBadge appends a fixed footer to every page.
func footerBadge(text string) via.Plugin {
	return func(v *via.V) {
		v.AppendToFoot(h.Footer(
			h.Style("position: fixed; bottom: 0; right: 1rem"),
			h.Small(h.Text(text)),
		))
	}
}

func main() {
	v := via.New()
	v.Config(via.Options{
		DocumentTitle: "Via + PicoCSS",
		Plugins: []via.Plugin{
			picoCSS(),
			footerBadge("styled by plugins"),
		},
	})

	v.Page("/", func(c *via.Context) {
		clicks := 0

		bump := c.Action(func(c *via.Context) {
			clicks++
			c.Sync()
		})

		c.View(func(bool) h.H {
			return h.Main(
				h.H1(h.Text("Classless styling")),
				h.P(h.Text("Every element on this page is unstyled HTML; the plugin does the rest.")),
				h.Button(h.Textf("Clicked %d times", clicks), bump.OnClick()),
			)
		})
	})

	v.Start()
}
