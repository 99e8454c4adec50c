package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/go-via/via"
	"github.com/go-via/via/h"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		dev     bool
		metrics bool
		grace   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the built-in demo application",
		Long: `Serve a small demo app: a per-tab counter, a page shared across
every visitor on the same route, and the /_stats endpoint. Handy for
checking that SSE, actions and broadcasts work in your environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := via.New()
			v.Config(via.Options{
				DevMode:       dev,
				ServerAddress: addr,
				DocumentTitle: "Via demo",
				GracePeriod:   grace,
				Metrics:       metrics,
			})
			registerDemo(v)
			v.Start()
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":3000", "HTTP listen address")
	cmd.Flags().BoolVarP(&dev, "dev", "d", false, "Enable development mode")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics on /_metrics")
	cmd.Flags().DurationVar(&grace, "grace", 0, "Context grace period after SSE disconnect (0 keeps the default)")

	return cmd
}

func registerDemo(v *via.V) {
	v.Page("/", func(c *via.Context) {
		count := 0

		increment := c.Action(func(c *via.Context) {
			count++
			c.Sync()
		})

		c.View(func(bool) h.H {
			return h.Div(
				h.H1(h.Text("Via demo")),
				h.P(h.Textf("This tab has clicked %d times.", count)),
				h.Button(h.Text("Click"), increment.OnClick()),
				h.P(h.A(h.Href("/shared"), h.Text("Shared page"))),
			)
		})
	})

	v.Page("/shared", func(c *via.Context) {
		c.Scope(via.RouteScope("/shared"))

		total := c.Signal(0, via.WithName("total"))

		increment := c.Action(func(c *via.Context) {
			total.SetValue(total.Int() + 1)
		}, via.WithActionName("increment"))

		c.View(func(bool) h.H {
			return h.Div(
				h.H1(h.Text("Shared counter")),
				h.P(h.Text("Everyone on this page sees the same number: "), total.Text()),
				h.Button(h.Text("Click"), increment.OnClick()),
				h.P(h.A(h.Href("/"), h.Text("Back"))),
			)
		})
	})
}
