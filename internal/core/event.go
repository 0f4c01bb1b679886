package core

import "encoding/json"

// EventKind is a notification the relay emits to sessions.
type EventKind int

const (
	// EventChatMessage carries a room chat message or a System announcement.
	EventChatMessage EventKind = iota
	// EventTyping notifies that another user in the room is typing.
	EventTyping
	// EventOnlineUsers delivers the full set of registered usernames.
	EventOnlineUsers
	// EventPrivateMessage delivers a direct message to its recipient.
	EventPrivateMessage
	// EventMessageRead delivers a read receipt to its recipient.
	EventMessageRead
	// EventReaction carries an opaque reaction payload for the room.
	EventReaction
)

// Event is sent to sessions to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Message  Message         // chat and private messages
	Username string          // typing sender or read-receipt origin
	Users    []string        // online-users payload
	Reaction json.RawMessage // relayed verbatim
}
