// Persistent sessions backed by SQLite: a login flow with flash
// messages that survives server restarts.
package main

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/go-via/via"
	"github.com/go-via/via/h"
)

func main() {
	db, err := sql.Open("sqlite3", "./data/sessions.db")
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	sessions, err := via.NewSQLiteSessionManager(db)
	if err != nil {
		log.Fatal().Err(err).Msg("init session store")
	}

	v := via.New()
	v.Config(via.Options{SessionManager: sessions})

	v.Page("/", func(c *via.Context) {
		username := c.Signal("", via.WithName("username"))

		login := c.Action(func(c *via.Context) {
			name := username.String()
			if name == "" {
				c.Session().Set("flash", "Username required")
				c.Sync()
				return
			}
			c.Session().RenewToken()
			c.Session().Set("user", name)
			c.Session().Set("flash", "Welcome back, "+name)
			c.Redirect("/dashboard")
		})

		c.View(func(bool) h.H {
			if c.Session().Exists("user") {
				return h.Div(
					h.P(h.Textf("Already signed in as %s.", c.Session().GetString("user"))),
					h.A(h.Href("/dashboard"), h.Text("Go to dashboard")),
				)
			}
			return h.Div(
				h.H1(h.Text("Sign in")),
				flash(c),
				h.Input(h.Type("text"), h.Placeholder("Username"), username.Bind(),
					login.OnKeyDown("Enter")),
				h.Button(h.Text("Sign in"), login.OnClick()),
			)
		})
	})

	v.Page("/dashboard", func(c *via.Context) {
		visits := c.Session().GetInt("visits") + 1
		c.Session().Set("visits", visits)

		logout := c.Action(func(c *via.Context) {
			c.Session().Destroy()
			c.Redirect("/")
		})

		c.View(func(bool) h.H {
			user := c.Session().GetString("user")
			if user == "" {
				return h.Div(
					h.P(h.Text("Not signed in.")),
					h.A(h.Href("/"), h.Text("Sign in")),
				)
			}
			return h.Div(
				h.H1(h.Textf("Hello, %s", user)),
				flash(c),
				h.P(h.Textf("You have loaded this page %d times.", visits)),
				h.Button(h.Text("Sign out"), logout.OnClick()),
			)
		})
	})

	v.Start()
}

func flash(c *via.Context) h.H {
	msg := c.Session().PopString("flash")
	if msg == "" {
		return nil
	}
	return h.P(h.Style("color: seagreen"), h.Text(msg))
}
