package http

import (
	"encoding/json"

	"github.com/nvoloshin/relaychat-server/internal/core"
	"github.com/nvoloshin/relaychat-server/internal/proto"
)

// inboundToCommand maps a wire event onto a core command. Absent payload
// fields decode to zero values and degrade to defaults inside the core;
// only structurally malformed payloads are rejected.
func inboundToCommand(in proto.Inbound, outbound chan<- proto.Outbound) (*core.Command, *proto.Error) {
	switch in.Event {
	case proto.InboundRegisterUser:
		username, ok := decodeString(in.Data)
		if !ok {
			return nil, badRequest("register-user expects a username string")
		}
		return &core.Command{Kind: core.CommandRegisterUser, Username: username}, nil

	case proto.InboundJoinRoom:
		var data proto.JoinRoomData
		if !decodeObject(in.Data, &data) {
			return nil, badRequest("join-room expects {username, room}")
		}
		return &core.Command{Kind: core.CommandJoinRoom, Username: data.Username, Room: data.Room}, nil

	case proto.InboundChatMessage:
		var data proto.ChatMessageData
		if !decodeObject(in.Data, &data) {
			return nil, badRequest("chat-message expects {user, message, timestamp}")
		}
		cmd := &core.Command{
			Kind: core.CommandChatMessage,
			Message: core.Message{
				User:      data.User,
				Body:      data.Message,
				Timestamp: data.Timestamp,
			},
		}
		if ackID := in.Ack; ackID != nil {
			cmd.AckStatus = func(status string) {
				sendOutbound(outbound, proto.Outbound{
					Event: proto.OutboundAck,
					Ack:   ackID,
					Data:  proto.AckStatus{Status: status},
				})
			}
		}
		return cmd, nil

	case proto.InboundLoadMessages:
		var data proto.LoadMessagesData
		if !decodeObject(in.Data, &data) {
			return nil, badRequest("load-messages expects {room, page}")
		}
		cmd := &core.Command{Kind: core.CommandLoadMessages, Room: data.Room, Page: data.Page}
		if ackID := in.Ack; ackID != nil {
			cmd.AckHistory = func(page []core.Message) {
				messages := make([]proto.ChatMessageData, 0, len(page))
				for _, m := range page {
					messages = append(messages, proto.ChatMessageData{
						User:      m.User,
						Message:   m.Body,
						Timestamp: m.Timestamp,
					})
				}
				sendOutbound(outbound, proto.Outbound{
					Event: proto.OutboundAck,
					Ack:   ackID,
					Data:  messages,
				})
			}
		}
		return cmd, nil

	case proto.InboundTyping:
		username, ok := decodeString(in.Data)
		if !ok {
			return nil, badRequest("typing expects a username string")
		}
		return &core.Command{Kind: core.CommandTyping, Username: username}, nil

	case proto.InboundPrivateMessage:
		var data proto.PrivateMessageData
		if !decodeObject(in.Data, &data) {
			return nil, badRequest("private-message expects {to, from, message}")
		}
		return &core.Command{Kind: core.CommandPrivateMessage, To: data.To, From: data.From, Body: data.Message}, nil

	case proto.InboundMessageRead:
		var data proto.MessageReadData
		if !decodeObject(in.Data, &data) {
			return nil, badRequest("message-read expects {from, to}")
		}
		return &core.Command{Kind: core.CommandMessageRead, From: data.From, To: data.To}, nil

	case proto.InboundReactMessage:
		// Reactions are opaque; relay the payload untouched.
		return &core.Command{Kind: core.CommandReactMessage, Reaction: in.Data}, nil

	default:
		return nil, &proto.Error{Code: proto.ErrCodeUnknownEvent, Msg: "unknown event: " + in.Event}
	}
}

// outboundFromEvent maps a core event onto its wire representation.
func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventChatMessage:
		return proto.Outbound{Event: proto.OutboundChatMessage, Data: chatData(event.Message)}
	case core.EventTyping:
		return proto.Outbound{Event: proto.OutboundTyping, Data: event.Username}
	case core.EventOnlineUsers:
		return proto.Outbound{Event: proto.OutboundOnlineUsers, Data: event.Users}
	case core.EventPrivateMessage:
		return proto.Outbound{Event: proto.OutboundPrivateMessage, Data: proto.PrivateMessageEvent{
			From:      event.Message.User,
			Message:   event.Message.Body,
			Timestamp: event.Message.Timestamp,
		}}
	case core.EventMessageRead:
		return proto.Outbound{Event: proto.OutboundMessageRead, Data: proto.MessageReadData{From: event.Username}}
	case core.EventReaction:
		return proto.Outbound{Event: proto.OutboundMessageReaction, Data: json.RawMessage(event.Reaction)}
	default:
		return proto.Outbound{Event: proto.OutboundError, Error: badRequest("unsupported event")}
	}
}

func chatData(m core.Message) proto.ChatMessageData {
	return proto.ChatMessageData{User: m.User, Message: m.Body, Timestamp: m.Timestamp}
}

func decodeObject(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return true
	}
	return json.Unmarshal(data, v) == nil
}

func decodeString(data json.RawMessage) (string, bool) {
	if len(data) == 0 {
		return "", true
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: proto.ErrCodeBadRequest, Msg: msg}
}

// sendOutbound queues a frame for the write loop, dropping it if the
// session's outbound queue is full.
func sendOutbound(outbound chan<- proto.Outbound, out proto.Outbound) {
	select {
	case outbound <- out:
	default:
	}
}
