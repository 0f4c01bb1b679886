package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for events coming from the client.
// Ack, when set, asks the relay to answer with an ack frame carrying the
// same correlation id once the event has been handled.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   *int64          `json:"ack,omitempty"`
}

// Event names consumed by the relay.
const (
	InboundRegisterUser   = "register-user"
	InboundJoinRoom       = "join-room"
	InboundChatMessage    = "chat-message"
	InboundLoadMessages   = "load-messages"
	InboundTyping         = "typing"
	InboundPrivateMessage = "private-message"
	InboundMessageRead    = "message-read"
	InboundReactMessage   = "react-message"
)

// Event names emitted toward clients.
const (
	OutboundChatMessage     = "chat-message"
	OutboundTyping          = "typing"
	OutboundOnlineUsers     = "online-users"
	OutboundPrivateMessage  = "private-message"
	OutboundMessageRead     = "message-read"
	OutboundMessageReaction = "message-reaction"
	OutboundAck             = "ack"
	OutboundError           = "error"
)

// TypingTTL is part of the client contract for OutboundTyping: the relay
// never sends a stop signal, so receivers expire the indicator themselves
// after this long without a refresh.
const TypingTTL = 2 * time.Second

// JoinRoomData requests to join a named room.
type JoinRoomData struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// ChatMessageData is a chat message relayed verbatim to a room.
type ChatMessageData struct {
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// LoadMessagesData requests one page of room history.
type LoadMessagesData struct {
	Room string `json:"room"`
	Page int    `json:"page"`
}

// PrivateMessageData addresses a message to a single user.
type PrivateMessageData struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// PrivateMessageEvent is delivered to the recipient of a private message.
type PrivateMessageEvent struct {
	From      string `json:"from"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// MessageReadData is a read receipt routed to a single user.
type MessageReadData struct {
	From string `json:"from"`
	To   string `json:"to,omitempty"`
}

// AckStatus is the acknowledgement payload for chat-message.
type AckStatus struct {
	Status string `json:"status"`
}

// Outbound is the envelope for events sent to the client. Ack frames carry
// the inbound correlation id and no event name.
type Outbound struct {
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Ack   *int64 `json:"ack,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnknownEvent = "unknown_event"
)
