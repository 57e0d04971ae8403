package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// Server owns the participant registry, the hub of live connections, and
// the HTTP server exposing them. Its lifetime is the process's.
type Server struct {
	cfg      *Config
	log      *slog.Logger
	hub      *Hub
	relay    *chat.Relay
	upgrader websocket.Upgrader
	http     *http.Server
}

// New builds a Server from cfg. Nothing runs until Run is called.
func New(cfg *Config, log *slog.Logger) *Server {
	hub := NewHub(log)
	origins := newOriginPolicy(log, cfg.AllowedOrigins)

	s := &Server{
		cfg:   cfg,
		log:   log,
		hub:   hub,
		relay: chat.NewRelay(log, chat.NewRegistry(), hub),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
	}
	s.http = CreateServer(cfg.Port, SetupRoutes(s))
	return s
}

// Handler returns the routed HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Hub returns the connection hub.
func (s *Server) Hub() *Hub { return s.hub }

// Relay returns the chat relay.
func (s *Server) Relay() *chat.Relay { return s.relay }

// StartHub runs the hub event loop in a separate goroutine. Run does this
// itself; tests serving Handler directly call it instead.
func (s *Server) StartHub() {
	go s.hub.Run()
	s.log.Info("hub started and ready to manage WebSocket connections")
}

// Run serves until ctx is cancelled or the listener fails, then shuts
// everything down.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.Run()
		return nil
	})
	g.Go(func() error {
		if err := StartServer(s.log, s.http); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown()
	})

	return g.Wait()
}

// Shutdown stops accepting HTTP requests, then closes every WebSocket.
func (s *Server) Shutdown() error {
	httpErr := ShutdownServer(s.log, s.http, s.cfg.ShutdownTimeout)
	hubErr := s.hub.Shutdown(s.cfg.ShutdownTimeout)
	return errors.Join(httpErr, hubErr)
}
