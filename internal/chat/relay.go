package chat

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Relay sequences session transitions with the notifications each one
// produces. It is the only writer of chat events.
//
// Membership changes and their broadcasts happen under seq, so no client
// observes a roster that is ahead of the notices explaining it. seq is
// distinct from the Registry lock, and Conn.Send must not block while it
// is held.
type Relay struct {
	log      *slog.Logger
	registry *Registry
	index    *RoomIndex
	router   *Router

	seq sync.Mutex
}

// NewRelay wires a relay over registry, delivering through conns.
func NewRelay(log *slog.Logger, registry *Registry, conns Directory) *Relay {
	index := NewRoomIndex(registry)
	return &Relay{
		log:      log,
		registry: registry,
		index:    index,
		router:   NewRouter(log, index, conns),
	}
}

// NewSession starts the lifecycle of a freshly connected transport.
func (r *Relay) NewSession(id ConnectionID) *Session {
	return NewSession(id, r.registry)
}

// Rooms exposes the room index for read-only queries.
func (r *Relay) Rooms() *RoomIndex { return r.index }

// Registry exposes the participant table.
func (r *Relay) Registry() *Registry { return r.registry }

// Join moves s into room as name. On success the joiner is welcomed first,
// the other members are told about the newcomer next, and finally everyone
// in the room receives the new roster.
func (r *Relay) Join(s *Session, name, room string) error {
	r.seq.Lock()
	defer r.seq.Unlock()

	p, err := s.Join(name, room)
	if err != nil {
		r.log.Debug("join rejected", "connectionId", s.ID(), "name", name, "room", room, "error", err)
		return err
	}
	r.log.Info("participant joined", "connectionId", p.ConnectionID, "name", p.Name, "room", p.RoomKey)

	welcome := MessageEvent(AdminUser, fmt.Sprintf("%s, Welcome to the Room %s", p.Name, p.Room))
	if err := r.router.Unicast(p.ConnectionID, welcome); err != nil && !errors.Is(err, ErrNotFound) {
		r.log.Warn("welcome delivery failed", "connectionId", p.ConnectionID, "error", err)
	}
	r.router.BroadcastToRoom(p.RoomKey, MessageEvent(AdminUser, p.Name+" has joined!"), p.ConnectionID)
	r.broadcastRoster(p)
	return nil
}

// SendMessage posts text from s to its room, followed by a roster refresh.
func (r *Relay) SendMessage(s *Session, text string) error {
	r.seq.Lock()
	defer r.seq.Unlock()

	p, err := s.Send(text)
	if err != nil {
		return err
	}
	r.router.BroadcastToRoom(p.RoomKey, MessageEvent(p.Name, text), "")
	r.broadcastRoster(p)
	return nil
}

// Disconnect tears s down. Only the call that releases the participant
// notifies the room; repeated calls do nothing.
func (r *Relay) Disconnect(s *Session) {
	r.seq.Lock()
	defer r.seq.Unlock()

	p, ok := s.Leave()
	if !ok {
		return
	}
	r.log.Info("participant left", "connectionId", p.ConnectionID, "name", p.Name, "room", p.RoomKey)

	r.router.BroadcastToRoom(p.RoomKey, MessageEvent(AdminUser, p.Name+" has left."), "")
	r.broadcastRoster(p)
}

// broadcastRoster labels the roster with the display room of the
// participant whose action triggered it.
func (r *Relay) broadcastRoster(p Participant) {
	members := r.index.Members(p.RoomKey)
	r.router.BroadcastToRoom(p.RoomKey, RoomDataEvent(p.Room, members), "")
}
