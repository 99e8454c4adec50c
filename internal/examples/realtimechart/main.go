// A stock ticker driven by an application interval. Prices live in
// scoped signals, so a single SetValue per tick broadcasts the stock's
// scope and fans the update out to every watching tab; the shared render
// runs once per broadcast regardless of audience size.
package main

import (
	"math/rand"
	"sync"
	"time"

	"github.com/go-via/via"
	"github.com/go-via/via/h"
)

var symbols = []string{"AAPL", "GOOG", "NVDA"}

type book struct {
	mu     sync.Mutex
	prices map[string]float64
}

func (b *book) tick(symbol string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.prices[symbol] * (1 + (rand.Float64()-0.5)/50)
	b.prices[symbol] = p
	return p
}

func main() {
	v := via.New()
	prices := &book{prices: map[string]float64{"AAPL": 180, "GOOG": 140, "NVDA": 480}}

	v.Page("/stocks/{symbol}", func(c *via.Context, symbol string) {
		scope := via.BuildScope("stock", symbol)
		c.Scope(scope)

		price := c.Signal(0.0, via.WithName("price"))

		c.View(func(bool) h.H {
			return h.Div(
				h.H1(h.Text(symbol)),
				h.P(h.Text("Price: "), price.Text()),
				h.P(h.Small(h.Textf("Updated %s", time.Now().Format("15:04:05")))),
			)
		})
	})

	// one process-wide ticker feeds every stock scope; signals exist only
	// while a tab watches the scope, so ticks for unwatched stocks are free
	v.OnInterval(time.Second, func() {
		for _, symbol := range symbols {
			for _, sig := range v.ScopedSignals(via.BuildScope("stock", symbol)) {
				sig.SetValue(prices.tick(symbol))
			}
		}
	})

	v.Start()
}
