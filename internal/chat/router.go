package chat

import (
	"log/slog"
)

//go:generate mockgen -source=router.go -destination=mocks/mock_router.go -package=mocks

// Conn is the transport handle of one live connection. Send must not block:
// an implementation either queues data or returns an error.
type Conn interface {
	Send(data []byte) error
}

// Directory resolves connection ids to live transport handles.
type Directory interface {
	Lookup(id ConnectionID) (Conn, bool)
}

// Router delivers events to the current members of a room. Delivery is
// best effort and independent per recipient; there are no retries.
type Router struct {
	log   *slog.Logger
	index *RoomIndex
	conns Directory
}

// NewRouter returns a Router resolving members through index and
// connections through conns.
func NewRouter(log *slog.Logger, index *RoomIndex, conns Directory) *Router {
	return &Router{log: log, index: index, conns: conns}
}

// BroadcastToRoom sends event to every member of room except exclude (use
// "" to exclude nobody) and returns how many deliveries were attempted.
func (r *Router) BroadcastToRoom(room string, event Event, exclude ConnectionID) int {
	members := r.index.Members(room)
	if len(members) == 0 {
		return 0
	}

	data, err := event.Encode()
	if err != nil {
		r.log.Error("encode event", "event", event.Name, "room", room, "error", err)
		return 0
	}

	attempted := 0
	for _, member := range members {
		if exclude != "" && member.ConnectionID == exclude {
			continue
		}
		attempted++
		r.deliver(member.ConnectionID, event.Name, data)
	}

	r.log.Debug("broadcast", "event", event.Name, "room", room, "recipients", attempted)
	return attempted
}

// Unicast sends event to a single connection. ErrNotFound means the
// connection went away before delivery.
func (r *Router) Unicast(id ConnectionID, event Event) error {
	conn, ok := r.conns.Lookup(id)
	if !ok {
		return ErrNotFound
	}
	data, err := event.Encode()
	if err != nil {
		return err
	}
	return conn.Send(data)
}

func (r *Router) deliver(id ConnectionID, name string, data []byte) {
	conn, ok := r.conns.Lookup(id)
	if !ok {
		r.log.Debug("skip delivery to departed connection", "event", name, "connectionId", id)
		return
	}
	if err := conn.Send(data); err != nil {
		r.log.Warn("delivery failed", "event", name, "connectionId", id, "error", err)
	}
}
