package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvoloshin/relaychat-server/internal/store"
)

// AckOK is the status reported for every accepted chat message. There is no
// delivery-failure path: the ack confirms the relay forwarded the message,
// not that any recipient displayed it.
const AckOK = "ok"

// Hub is the relay dispatcher. It owns the connection registry, the room
// membership table, and every session's identity fields. All mutations and
// the broadcasts they trigger run on the single Run goroutine, so no event
// can observe a room or the registry in a half-updated state. Each session's
// own commands are processed in the order received.
type Hub struct {
	registry *Registry
	rooms    *Table
	presence *Publisher
	history  Paginator
	messages store.MessageStore // optional; nil disables history writes

	sessions map[*Session]struct{}
	byID     map[string]*Session

	register   chan *Session
	unregister chan *Session
	commands   chan sessionCommand

	log *zerolog.Logger
}

type sessionCommand struct {
	session *Session
	cmd     *Command
}

// NewHub creates the relay dispatcher. A nil history falls back to the
// synthetic paginator; a nil messages store disables history writes.
func NewHub(history Paginator, messages store.MessageStore, logger *zerolog.Logger) *Hub {
	if history == nil {
		history = &SyntheticPaginator{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	registry := NewRegistry()
	return &Hub{
		registry:   registry,
		rooms:      NewTable(),
		presence:   NewPublisher(registry),
		history:    history,
		messages:   messages,
		sessions:   make(map[*Session]struct{}),
		byID:       make(map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		commands:   make(chan sessionCommand),
		log:        logger,
	}
}

// RegisterClient hands a freshly connected session to the hub.
func (h *Hub) RegisterClient(s *Session) {
	h.register <- s
}

// UnregisterClient removes a disconnected session from the hub.
func (h *Hub) UnregisterClient(s *Session) {
	h.unregister <- s
}

// Run processes connections and session commands until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case s := <-h.register:
			h.handleConnect(ctx, s)
		case s := <-h.unregister:
			h.handleDisconnect(s)
		case sc := <-h.commands:
			h.handleCommand(ctx, sc.session, sc.cmd)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleConnect(ctx context.Context, s *Session) {
	if _, ok := h.sessions[s]; ok {
		return
	}
	h.sessions[s] = struct{}{}
	h.byID[s.ID] = s
	go h.pump(ctx, s)
	h.log.Debug().Str("session_id", s.ID).Msg("session connected")
}

// pump forwards one session's commands into the hub loop, preserving that
// session's arrival order while the hub serializes sessions against each
// other.
func (h *Hub) pump(ctx context.Context, s *Session) {
	for {
		select {
		case cmd, ok := <-s.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- sessionCommand{session: s, cmd: cmd}:
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleCommand(ctx context.Context, s *Session, cmd *Command) {
	if _, ok := h.sessions[s]; !ok {
		// Commands in flight from an already disconnected session.
		return
	}

	switch cmd.Kind {
	case CommandRegisterUser:
		h.handleRegister(s, cmd.Username)
	case CommandJoinRoom:
		h.handleJoin(s, cmd.Username, cmd.Room)
	case CommandChatMessage:
		h.handleChat(ctx, s, cmd)
	case CommandLoadMessages:
		h.handleLoadMessages(ctx, cmd)
	case CommandTyping:
		h.handleTyping(s, cmd.Username)
	case CommandPrivateMessage:
		h.handlePrivate(cmd.To, cmd.From, cmd.Body)
	case CommandMessageRead:
		h.handleRead(cmd.From, cmd.To)
	case CommandReactMessage:
		h.handleReact(s, cmd.Reaction)
	}
}

func (h *Hub) handleRegister(s *Session, username string) {
	if username == "" {
		username = UnknownUser
	}
	s.username = username
	h.registry.Register(username, s.ID)
	h.presence.Publish(h.sessions)
	h.log.Debug().Str("session_id", s.ID).Str("username", username).Msg("user registered")
}

func (h *Hub) handleJoin(s *Session, username, room string) {
	if username == "" {
		username = UnknownUser
	}
	if room == "" {
		room = DefaultRoom
	}

	h.rooms.Join(s, room)
	h.rooms.Broadcast(room, &Event{
		Kind: EventChatMessage,
		Message: Message{
			User:      SystemUser,
			Body:      username + " joined " + room,
			Timestamp: stamp(time.Now()),
		},
	})
	h.log.Debug().Str("session_id", s.ID).Str("room", room).Msg("session joined room")
}

func (h *Hub) handleChat(ctx context.Context, s *Session, cmd *Command) {
	room := s.roomOrDefault()
	h.rooms.Broadcast(room, &Event{Kind: EventChatMessage, Message: cmd.Message})

	if h.messages != nil && cmd.Message.User != SystemUser {
		record := &store.Message{
			Room:      room,
			Author:    cmd.Message.User,
			Body:      cmd.Message.Body,
			CreatedAt: time.Now(),
		}
		// Best effort: history durability is not part of the relay contract.
		if err := h.messages.SaveMessage(ctx, record); err != nil {
			h.log.Warn().Err(err).Str("room", room).Msg("failed to store message")
		}
	}

	if cmd.AckStatus != nil {
		cmd.AckStatus(AckOK)
	}
}

func (h *Hub) handleLoadMessages(ctx context.Context, cmd *Command) {
	if cmd.AckHistory == nil {
		return
	}

	room := cmd.Room
	if room == "" {
		room = DefaultRoom
	}

	page, err := h.history.LoadPage(ctx, room, cmd.Page)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room).Int("page", cmd.Page).Msg("failed to load history page")
		page = nil
	}
	cmd.AckHistory(page)
}

func (h *Hub) handleTyping(s *Session, username string) {
	if username == "" {
		username = UnknownUser
	}
	h.rooms.BroadcastExcept(s.roomOrDefault(), &Event{Kind: EventTyping, Username: username}, s)
}

func (h *Hub) handlePrivate(to, from, body string) {
	target, ok := h.resolveSession(to)
	if !ok {
		// Best effort: offline recipients are silently skipped.
		return
	}
	target.send(&Event{
		Kind: EventPrivateMessage,
		Message: Message{
			User:      from,
			Body:      body,
			Timestamp: stamp(time.Now()),
		},
	})
}

func (h *Hub) handleRead(from, to string) {
	target, ok := h.resolveSession(to)
	if !ok {
		return
	}
	target.send(&Event{Kind: EventMessageRead, Username: from})
}

func (h *Hub) handleReact(s *Session, reaction json.RawMessage) {
	h.rooms.Broadcast(s.roomOrDefault(), &Event{Kind: EventReaction, Reaction: reaction})
}

func (h *Hub) handleDisconnect(s *Session) {
	if _, ok := h.sessions[s]; !ok {
		return
	}
	delete(h.sessions, s)
	delete(h.byID, s.ID)

	username := s.username
	if username == "" {
		username = UnknownUser
	}
	room := s.roomOrDefault()

	h.rooms.Leave(s)
	h.registry.Remove(s.ID)
	h.presence.Publish(h.sessions)
	h.rooms.Broadcast(room, &Event{
		Kind: EventChatMessage,
		Message: Message{
			User:      SystemUser,
			Body:      username + " left the room",
			Timestamp: stamp(time.Now()),
		},
	})

	// Closing Commands from here would race the read loop's sends, so the
	// pump is released through done instead.
	close(s.done)
	close(s.Events)
	h.log.Debug().Str("session_id", s.ID).Str("username", username).Msg("session disconnected")
}

func (h *Hub) resolveSession(username string) (*Session, bool) {
	id, ok := h.registry.Resolve(username)
	if !ok {
		return nil, false
	}
	s, ok := h.byID[id]
	return s, ok
}
