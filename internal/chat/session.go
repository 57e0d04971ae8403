package chat

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// State is a session's lifecycle stage.
type State int

const (
	// Unjoined is the state right after connect and after a failed join.
	Unjoined State = iota
	// Joined means the session holds a registered participant.
	Joined
	// Closed is terminal.
	Closed
)

func (s State) String() string {
	switch s {
	case Unjoined:
		return "unjoined"
	case Joined:
		return "joined"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

var validate = validator.New()

type joinRequest struct {
	Name string `validate:"required"`
	Room string `validate:"required"`
}

// Session is the lifecycle of one transport connection. Its methods may be
// called from several goroutines; teardown happens exactly once.
type Session struct {
	id       ConnectionID
	registry *Registry

	mu          sync.Mutex
	state       State
	participant Participant
}

// NewSession returns an Unjoined session for connection id.
func NewSession(id ConnectionID, registry *Registry) *Session {
	return &Session{id: id, registry: registry, state: Unjoined}
}

// ID returns the connection identifier the session is bound to.
func (s *Session) ID() ConnectionID { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Participant returns the held participant while Joined.
func (s *Session) Participant() (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participant, s.state == Joined
}

// Join registers the session under name in room. A failed join leaves the
// session Unjoined so the client can retry with other values.
func (s *Session) Join(name, room string) (Participant, error) {
	req := joinRequest{Name: strings.TrimSpace(name), Room: strings.TrimSpace(room)}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Unjoined {
		return Participant{}, ErrInvalidState
	}
	if err := validateJoin(req); err != nil {
		return Participant{}, err
	}

	p, err := s.registry.Add(s.id, req.Name, req.Room)
	if err != nil {
		return Participant{}, err
	}
	s.state = Joined
	s.participant = p
	return p, nil
}

// Send checks that the session may post text and returns the sender.
// It does not touch the registry.
func (s *Session) Send(text string) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Joined {
		return Participant{}, ErrInvalidState
	}
	if strings.TrimSpace(text) == "" {
		return Participant{}, ErrEmptyMessage
	}
	return s.participant, nil
}

// Leave closes the session. The participant is returned on the call that
// actually released the registry entry; every other call reports false.
func (s *Session) Leave() (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return Participant{}, false
	}
	wasJoined := s.state == Joined
	s.state = Closed
	held := s.participant
	s.participant = Participant{}

	if !wasJoined {
		return Participant{}, false
	}
	p, ok := s.registry.Remove(held.ConnectionID)
	return p, ok
}

func validateJoin(req joinRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	// Fields are reported in declaration order, so a blank name wins.
	if fieldErrs[0].Field() == "Name" {
		return ErrNameRequired
	}
	return ErrRoomRequired
}
