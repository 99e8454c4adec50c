package vianats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ps, err := New(ctx, t.TempDir())
	require.NoError(t, err)
	defer ps.Close()

	received := make(chan []byte, 1)
	sub, err := ps.Subscribe("chat.lobby", func(data []byte) {
		received <- data
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, ps.Publish("chat.lobby", []byte("hello")))

	select {
	case data := <-received:
		assert.Equal(t, []byte("hello"), data)
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	assert.NotNil(t, ps.Conn())
	assert.NotNil(t, ps.JetStream())
}

func TestNATSUnsubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ps, err := New(ctx, t.TempDir())
	require.NoError(t, err)
	defer ps.Close()

	received := make(chan []byte, 1)
	sub, err := ps.Subscribe("room.1", func(data []byte) {
		received <- data
	})
	require.NoError(t, err)
	require.NoError(t, sub.Unsubscribe())

	require.NoError(t, ps.Publish("room.1", []byte("late")))
	select {
	case <-received:
		t.Fatal("unsubscribed handler should not fire")
	case <-time.After(200 * time.Millisecond):
	}
}
