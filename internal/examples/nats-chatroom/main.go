// Chat over NATS pub/sub. Messages travel through an embedded JetStream
// server instead of the in-process scope registry, so multiple Via
// processes can share one room.
package main

import (
	"context"
	"sync"
	"time"

	"github.com/go-via/via"
	"github.com/go-via/via/h"
	"github.com/go-via/via/vianats"
	"github.com/rs/zerolog/log"
)

type chatMessage struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	SentAt int64  `json:"sent_at"`
}

type history struct {
	mu   sync.Mutex
	msgs []chatMessage
}

func (hi *history) add(m chatMessage) {
	hi.mu.Lock()
	defer hi.mu.Unlock()
	hi.msgs = append(hi.msgs, m)
	if len(hi.msgs) > 50 {
		hi.msgs = hi.msgs[len(hi.msgs)-50:]
	}
}

func (hi *history) list() []chatMessage {
	hi.mu.Lock()
	defer hi.mu.Unlock()
	return append([]chatMessage(nil), hi.msgs...)
}

func main() {
	ctx := context.Background()
	ps, err := vianats.New(ctx, "./data/nats")
	if err != nil {
		panic(err)
	}
	defer ps.Close()

	v := via.New()
	v.Config(via.Options{PubSub: ps})
	msgs := &history{}

	v.Page("/", func(c *via.Context) {
		name := c.Signal("anonymous", via.WithName("name"))
		draft := c.Signal("", via.WithName("draft"))

		// each tab keeps its own subscription; Via tears it down with
		// the context
		_, err := via.Subscribe(c, "chat.lobby", func(m chatMessage) {
			msgs.add(m)
			c.Sync()
		})
		if err != nil {
			panic(err)
		}

		send := c.Action(func(c *via.Context) {
			text := draft.String()
			if text == "" {
				return
			}
			draft.SetQuiet("")
			if err := via.Publish(c, "chat.lobby", chatMessage{
				Author: name.String(),
				Text:   text,
				SentAt: time.Now().Unix(),
			}); err != nil {
				log.Error().Err(err).Msg("publish failed")
			}
		})

		c.View(func(bool) h.H {
			items := []h.H{}
			for _, m := range msgs.list() {
				items = append(items, h.Li(
					h.Small(h.Text(time.Unix(m.SentAt, 0).Format("15:04 "))),
					h.Strong(h.Textf("%s: ", m.Author)),
					h.Text(m.Text),
				))
			}
			return h.Div(
				h.H1(h.Text("NATS chat")),
				h.Ul(items...),
				h.Input(h.Type("text"), h.Placeholder("Name"), name.Bind()),
				h.Input(h.Type("text"), h.Placeholder("Message"), draft.Bind(),
					send.OnKeyDown("Enter")),
				h.Button(h.Text("Send"), send.OnClick()),
			)
		}, via.WithoutUpdateCache())
	})

	v.Start()
}
