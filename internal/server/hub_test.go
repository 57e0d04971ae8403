package server

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomchat/internal/chat"
)

func newDetachedClient(t *testing.T, hub *Hub, bufferSize int) *Client {
	t.Helper()
	cfg := NewConfig()
	cfg.SendBufferSize = bufferSize
	relay := chat.NewRelay(hub.log, chat.NewRegistry(), hub)
	return NewClient(nil, hub, relay, "127.0.0.1:12345", cfg)
}

func TestNewClient(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.New(slog.DiscardHandler))

	client := newDetachedClient(t, hub, 4)

	req.NotEmpty(client.ID())
	_, err := uuid.Parse(string(client.ID()))
	req.NoError(err)
	req.Equal(chat.Unjoined, client.session.State())
	req.Equal(4, cap(client.GetSendChan()))
}

func TestClient_Send(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.New(slog.DiscardHandler))
	client := newDetachedClient(t, hub, 1)

	req.NoError(client.Send([]byte("first")))
	req.ErrorIs(client.Send([]byte("second")), errSendBufferFull)
	req.Equal([]byte("first"), <-client.GetSendChan())

	client.closeSend()
	client.closeSend()
	req.ErrorIs(client.Send([]byte("late")), errClientClosed)
	_, open := <-client.GetSendChan()
	req.False(open)
}

func TestHub_Lookup(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.New(slog.DiscardHandler))
	client := newDetachedClient(t, hub, 1)

	_, ok := hub.Lookup(client.ID())
	req.False(ok)

	hub.mutex.Lock()
	hub.clients[client.id] = client
	hub.mutex.Unlock()

	conn, ok := hub.Lookup(client.ID())
	req.True(ok)
	req.Same(client, conn)
	req.Equal(1, hub.Len())

	hub.remove(client)
	_, ok = hub.Lookup(client.ID())
	req.False(ok)
}

func TestHub_Shutdown_Without_Clients(t *testing.T) {
	hub := NewHub(slog.New(slog.DiscardHandler))
	go hub.Run()

	require.NoError(t, hub.Shutdown(time.Second))
}

func TestHub_Shutdown_Timeout_When_Not_Running(t *testing.T) {
	hub := NewHub(slog.New(slog.DiscardHandler))

	require.Error(t, hub.Shutdown(20*time.Millisecond))
}

func TestHub_Register_And_Unregister_After_Shutdown(t *testing.T) {
	req := require.New(t)
	hub := NewHub(slog.New(slog.DiscardHandler))
	go hub.Run()
	req.NoError(hub.Shutdown(time.Second))
	client := newDetachedClient(t, hub, 1)

	req.False(hub.Register(client))

	done := make(chan struct{})
	go func() {
		hub.Unregister(client)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Unregister blocked after shutdown")
	}
	req.ErrorIs(client.Send([]byte("x")), errClientClosed)
}

func TestHub_Run_Skips_Nil_Registration(t *testing.T) {
	hub := NewHub(slog.New(slog.DiscardHandler))
	go hub.Run()

	require.True(t, hub.Register(nil))
	require.Zero(t, hub.Len())
	require.NoError(t, hub.Shutdown(time.Second))
}
