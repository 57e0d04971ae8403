package chat

import (
	"encoding/json"
	"errors"
)

// Event names carried in the "event" field of a frame.
const (
	EventJoin        = "join"
	EventSendMessage = "sendMessage"
	EventAck         = "ack"
	EventMessage     = "message"
	EventRoomData    = "roomData"
)

// AdminUser is the sender shown on system notices.
const AdminUser = "admin"

// Ack error texts sent back to clients.
const (
	AckUsernameTaken   = "Username is already taken"
	AckNameRequired    = "Name is required"
	AckRoomRequired    = "Room is required"
	AckAlreadyJoined   = "Already joined"
	AckMessageRequired = "Message is required"
	AckUnknownEvent    = "Unknown event"
	AckInvalidPayload  = "Invalid payload"
)

// Frame is one inbound WebSocket message.
type Frame struct {
	Event string          `json:"event"`
	ID    uint64          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload is the data of a join frame.
type JoinPayload struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// SendMessagePayload is the data of a sendMessage frame.
type SendMessagePayload struct {
	Text string `json:"text"`
}

// AckPayload acknowledges an inbound frame; Error is empty on success.
type AckPayload struct {
	Error string `json:"error,omitempty"`
}

// MessagePayload is a chat line or system notice.
type MessagePayload struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// UserInfo is one entry of a roomData membership list.
type UserInfo struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// RoomDataPayload is a full membership snapshot of one room.
type RoomDataPayload struct {
	Room  string     `json:"room"`
	Users []UserInfo `json:"users"`
}

// Event is an outbound notification before encoding.
type Event struct {
	Name    string
	ID      uint64
	Payload any
}

type outboundFrame struct {
	Event string `json:"event"`
	ID    uint64 `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Encode renders the event as a single JSON frame.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(outboundFrame{Event: e.Name, ID: e.ID, Data: e.Payload})
}

// MessageEvent builds a message event.
func MessageEvent(user, text string) Event {
	return Event{Name: EventMessage, Payload: MessagePayload{User: user, Text: text}}
}

// AckEvent builds the acknowledgement for frame id.
func AckEvent(id uint64, errText string) Event {
	return Event{Name: EventAck, ID: id, Payload: AckPayload{Error: errText}}
}

// RoomDataEvent builds a roomData event from a member snapshot. room is
// passed through as given; user entries carry the normalized keys.
func RoomDataEvent(room string, members []Participant) Event {
	users := make([]UserInfo, 0, len(members))
	for _, p := range members {
		users = append(users, UserInfo{Name: p.NameKey, Room: p.RoomKey})
	}
	return Event{Name: EventRoomData, Payload: RoomDataPayload{Room: room, Users: users}}
}

// AckError converts the result of an inbound event into the ack error
// text. It returns "" for a nil error.
func AckError(event string, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateName):
		return AckUsernameTaken
	case errors.Is(err, ErrNameRequired):
		return AckNameRequired
	case errors.Is(err, ErrRoomRequired):
		return AckRoomRequired
	case errors.Is(err, ErrEmptyMessage):
		return AckMessageRequired
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrConnectionRegistered):
		if event == EventSendMessage {
			return AckRoomRequired
		}
		return AckAlreadyJoined
	default:
		return err.Error()
	}
}
