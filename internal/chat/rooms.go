package chat

import (
	"sort"

	"github.com/samber/lo"
)

// RoomStat is the size of one room at the time it was read.
type RoomStat struct {
	Room    string `json:"room"`
	Members int    `json:"members"`
}

// RoomIndex answers membership questions by reading the Registry on every
// call. It keeps no state of its own so results always reflect current
// membership.
type RoomIndex struct {
	registry *Registry
}

// NewRoomIndex returns an index over registry.
func NewRoomIndex(registry *Registry) *RoomIndex {
	return &RoomIndex{registry: registry}
}

// Members returns the room's participants in join order.
func (ri *RoomIndex) Members(room string) []Participant {
	return ri.registry.ListByRoom(room)
}

// Count returns the number of participants in room.
func (ri *RoomIndex) Count(room string) int {
	return len(ri.registry.ListByRoom(room))
}

// Rooms lists every non-empty room, sorted by room key.
func (ri *RoomIndex) Rooms() []RoomStat {
	stats := lo.MapToSlice(ri.registry.roomSizes(), func(room string, members int) RoomStat {
		return RoomStat{Room: room, Members: members}
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].Room < stats[j].Room })
	return stats
}
