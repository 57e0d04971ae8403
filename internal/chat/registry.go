package chat

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// roomMembers keeps one room's members in join order together with a
// name index for duplicate detection.
type roomMembers struct {
	order []ConnectionID
	names map[string]ConnectionID
}

// Registry is the single source of truth for who is in which room.
// All methods are safe for concurrent use and linearizable with respect to
// each other.
type Registry struct {
	mu     sync.RWMutex
	byConn map[ConnectionID]Participant
	rooms  map[string]*roomMembers
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[ConnectionID]Participant),
		rooms:  make(map[string]*roomMembers),
	}
}

// Add registers a participant for id in room under name. Name and room are
// compared after trimming and case folding. On error nothing is changed.
func (r *Registry) Add(id ConnectionID, name, room string) (Participant, error) {
	p := newParticipant(id, name, room)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConn[id]; exists {
		return Participant{}, ErrConnectionRegistered
	}

	members, ok := r.rooms[p.RoomKey]
	if ok {
		if _, taken := members.names[p.NameKey]; taken {
			return Participant{}, ErrDuplicateName
		}
	} else {
		members = &roomMembers{names: make(map[string]ConnectionID)}
		r.rooms[p.RoomKey] = members
	}

	members.order = append(members.order, id)
	members.names[p.NameKey] = id
	r.byConn[id] = p
	return p, nil
}

// Remove deletes and returns the participant held by id. The boolean is
// false when id never joined or was already removed.
func (r *Registry) Remove(id ConnectionID) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byConn[id]
	if !ok {
		return Participant{}, false
	}
	delete(r.byConn, id)

	if members, exists := r.rooms[p.RoomKey]; exists {
		delete(members.names, p.NameKey)
		members.order = slices.DeleteFunc(members.order, func(member ConnectionID) bool {
			return member == id
		})
		// Rooms only exist while someone is in them.
		if len(members.order) == 0 {
			delete(r.rooms, p.RoomKey)
		}
	}
	return p, true
}

// Get returns the participant held by id.
func (r *Registry) Get(id ConnectionID) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byConn[id]
	return p, ok
}

// ListByRoom returns a snapshot of the room's members in join order.
func (r *Registry) ListByRoom(room string) []Participant {
	key := Normalize(room)

	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[key]
	if !ok {
		return nil
	}
	return lo.Map(members.order, func(id ConnectionID, _ int) Participant {
		return r.byConn[id]
	})
}

// Len reports the number of joined participants across all rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// roomSizes returns the member count of every non-empty room keyed by the
// normalized room name.
func (r *Registry) roomSizes() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapValues(r.rooms, func(members *roomMembers, _ string) int {
		return len(members.order)
	})
}
