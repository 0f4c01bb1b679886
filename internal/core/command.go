package core

import "encoding/json"

// CommandKind describes what the session wants to do.
type CommandKind int

const (
	// CommandRegisterUser claims a username for the session.
	CommandRegisterUser CommandKind = iota
	// CommandJoinRoom subscribes the session to a room.
	CommandJoinRoom
	// CommandChatMessage broadcasts a chat message to the session's room.
	CommandChatMessage
	// CommandLoadMessages requests one page of room history.
	CommandLoadMessages
	// CommandTyping signals that the user is typing.
	CommandTyping
	// CommandPrivateMessage addresses a message to a single user.
	CommandPrivateMessage
	// CommandMessageRead routes a read receipt to a single user.
	CommandMessageRead
	// CommandReactMessage broadcasts a reaction to the session's room.
	CommandReactMessage
)

// Command represents an action requested by a session.
type Command struct {
	Kind     CommandKind
	Username string
	Room     string
	Page     int
	To       string
	From     string
	Body     string
	Message  Message
	Reaction json.RawMessage

	// AckStatus, when non-nil, is invoked exactly once with the relay's
	// status after a chat message has been fanned out.
	AckStatus func(status string)
	// AckHistory, when non-nil, receives the requested history page.
	AckHistory func(page []Message)
}
