// A multi-room chat on developer-defined scopes. Tabs in the same
// room:{name} scope share the history and receive each other's
// broadcasts; name and draft stay tab-local so every visitor types
// under their own identity.
package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-via/via"
	"github.com/go-via/via/h"
)

type message struct {
	author string
	text   string
	at     time.Time
}

type rooms struct {
	mu      sync.Mutex
	history map[string][]message
}

func (r *rooms) append(room string, m message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := append(r.history[room], m)
	if len(msgs) > 50 {
		msgs = msgs[len(msgs)-50:]
	}
	r.history[room] = msgs
}

func (r *rooms) list(room string) []message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]message(nil), r.history[room]...)
}

func main() {
	v := via.New()
	store := &rooms{history: make(map[string][]message)}

	v.Page("/", func(c *via.Context) {
		c.View(func(bool) h.H {
			return h.Div(
				h.H1(h.Text("Pick a room")),
				h.Ul(
					h.Li(h.A(h.Href("/room/lobby"), h.Text("lobby"))),
					h.Li(h.A(h.Href("/room/golang"), h.Text("golang"))),
				),
			)
		})
	})

	v.Page("/room/{room}", func(c *via.Context, room string) {
		scope := via.BuildScope("room", room)
		c.Scope(scope)

		name := c.Signal(fmt.Sprintf("guest-%s", c.ID()[len(c.ID())-4:]), via.WithScope(via.ScopeTab))
		draft := c.Signal("", via.WithScope(via.ScopeTab))

		// tab-scoped on purpose: each visitor sends their own draft under
		// their own name, only the room render is shared
		send := c.Action(func(c *via.Context) {
			text := draft.String()
			if text == "" {
				return
			}
			store.append(room, message{author: name.String(), text: text, at: time.Now()})
			draft.SetQuiet("")
			c.Broadcast()
		}, via.WithActionScope(via.ScopeTab))

		c.View(func(bool) h.H {
			items := []h.H{}
			for _, m := range store.list(room) {
				items = append(items, h.Li(
					h.Small(h.Text(m.at.Format("15:04 "))),
					h.Strong(h.Textf("%s: ", m.author)),
					h.Text(m.text),
				))
			}
			return h.Div(
				h.H1(h.Textf("#%s", room)),
				h.Ul(items...),
				h.Input(h.Type("text"), h.Placeholder("Name"), name.Bind()),
				h.Input(h.Type("text"), h.Placeholder("Say something..."), draft.Bind(),
					send.OnKeyDown("Enter")),
				h.Button(h.Text("Send"), send.OnClick()),
			)
		}, via.WithoutUpdateCache())
	})

	v.Start()
}
