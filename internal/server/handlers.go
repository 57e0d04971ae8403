package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WebSocketHandler upgrades GET requests to WebSocket and registers the new
// client with the hub, which starts its pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, s.hub, s.relay, r.RemoteAddr, s.cfg)
	if !s.hub.Register(client) {
		s.log.Info("rejecting connection during shutdown", "addr", r.RemoteAddr)
		client.closeConnection()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "GoChat server is running!")
}

// StatsHandler reports current room, participant, and connection counts.
func (s *Server) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	stats := StatsResponse{
		Rooms:        len(s.relay.Rooms().Rooms()),
		Participants: s.relay.Registry().Len(),
		Connections:  s.hub.Len(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.log.Warn("error writing stats response", "error", err)
	}
}
