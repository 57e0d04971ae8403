package chat

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAckError(t *testing.T) {
	tests := []struct {
		event string
		err   error
		want  string
	}{
		{EventJoin, nil, ""},
		{EventJoin, ErrDuplicateName, AckUsernameTaken},
		{EventJoin, fmt.Errorf("add: %w", ErrDuplicateName), AckUsernameTaken},
		{EventJoin, ErrNameRequired, AckNameRequired},
		{EventJoin, ErrRoomRequired, AckRoomRequired},
		{EventJoin, ErrInvalidState, AckAlreadyJoined},
		{EventSendMessage, ErrInvalidState, AckRoomRequired},
		{EventSendMessage, ErrEmptyMessage, AckMessageRequired},
		{EventJoin, errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.event, tt.err), func(t *testing.T) {
			require.Equal(t, tt.want, AckError(tt.event, tt.err))
		})
	}
}

func TestEvent_Encode(t *testing.T) {
	req := require.New(t)

	data, err := AckEvent(7, "").Encode()
	req.NoError(err)
	req.JSONEq(`{"event":"ack","id":7,"data":{}}`, string(data))

	data, err = AckEvent(0, AckNameRequired).Encode()
	req.NoError(err)
	req.JSONEq(`{"event":"ack","data":{"error":"Name is required"}}`, string(data))

	members := []Participant{newParticipant("c1", "Bob", "Lobby")}
	data, err = RoomDataEvent("Lobby", members).Encode()
	req.NoError(err)
	req.JSONEq(`{"event":"roomData","data":{"room":"Lobby","users":[{"name":"bob","room":"lobby"}]}}`, string(data))
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "lobby", Normalize("  LoBBy\t"))
	require.Equal(t, "strasse", Normalize("STRASSE"))
	require.Equal(t, Normalize("ÉCOLE"), Normalize("école"))
}
