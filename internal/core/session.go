package core

// sessionQueueSize bounds each session's command and event queues. Events
// past the bound are dropped rather than blocking the hub.
const sessionQueueSize = 16

// Session is one live client connection as seen by the relay.
type Session struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	// done is closed by the hub on disconnect and stops this session's
	// command pump.
	done chan struct{}

	// username and room are populated by register/join events and are
	// only touched on the hub goroutine.
	username string
	room     string
}

// NewSession constructs a session with initialized channels.
func NewSession(id string) *Session {
	return &Session{
		ID:       id,
		Commands: make(chan *Command, sessionQueueSize),
		Events:   make(chan *Event, sessionQueueSize),
		done:     make(chan struct{}),
	}
}

// send queues an event for delivery to this session.
func (s *Session) send(event *Event) {
	select {
	case s.Events <- event:
	default:
		// Drop if slow consumer.
	}
}

func (s *Session) roomOrDefault() string {
	if s.room == "" {
		return DefaultRoom
	}
	return s.room
}
