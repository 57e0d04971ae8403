// Package chat implements room presence for the relay: the participant
// registry, the room index derived from it, per-connection sessions, and the
// broadcast router that fans events out to room members.
package chat

import (
	"strings"

	"golang.org/x/text/cases"
)

// ConnectionID identifies one transport connection for its whole lifetime.
type ConnectionID string

// Participant is a joined connection. Name and Room keep the casing supplied
// at join time; NameKey and RoomKey are the normalized forms used for
// comparisons.
type Participant struct {
	ConnectionID ConnectionID
	Name         string
	Room         string
	NameKey      string
	RoomKey      string
}

// Normalize trims s and case-folds it.
func Normalize(s string) string {
	// cases.Caser keeps state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

func newParticipant(id ConnectionID, name, room string) Participant {
	name = strings.TrimSpace(name)
	room = strings.TrimSpace(room)
	return Participant{
		ConnectionID: id,
		Name:         name,
		Room:         room,
		NameKey:      Normalize(name),
		RoomKey:      Normalize(room),
	}
}
