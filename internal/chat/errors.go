package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of all client-correctable input errors.
	ErrValidation = errors.New("validation failed")
	// ErrNameRequired is returned when a join carries a blank name.
	ErrNameRequired = fmt.Errorf("%w: name required", ErrValidation)
	// ErrRoomRequired is returned when a join carries a blank room.
	ErrRoomRequired = fmt.Errorf("%w: room required", ErrValidation)
	// ErrEmptyMessage is returned when a message has no text after trimming.
	ErrEmptyMessage = fmt.Errorf("%w: message text required", ErrValidation)

	// ErrDuplicateName means the normalized name is already present in the room.
	ErrDuplicateName = errors.New("username is already taken")
	// ErrInvalidState signals a protocol operation not allowed in the session's state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrConnectionRegistered means the connection already holds a participant.
	ErrConnectionRegistered = errors.New("connection already registered")
	// ErrNotFound is the benign lookup miss used to skip work.
	ErrNotFound = errors.New("not found")
)
