package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/nvoloshin/relaychat-server/internal/config"
	"github.com/nvoloshin/relaychat-server/internal/core"
	"github.com/nvoloshin/relaychat-server/internal/log"
	"github.com/nvoloshin/relaychat-server/internal/proto"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := log.New("error")
	hub := core.NewHub(nil, nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, data any, ack *int64) {
	t.Helper()

	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", event, err)
		}
		raw = payload
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Event: event, Data: raw, Ack: ack}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ack   *int64          `json:"ack"`
	Error *proto.Error    `json:"error"`
}

// readFrame reads frames until one matches the predicate.
func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) frame {
	t.Helper()
	return readFrame(t, ctx, conn, func(f frame) bool { return f.Event == event })
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketChatScenario(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)

	joined := func(conn *websocket.Conn, announcement string) {
		readFrame(t, ctx, conn, func(f frame) bool {
			if f.Event != proto.OutboundChatMessage {
				return false
			}
			var msg proto.ChatMessageData
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				return false
			}
			return msg.Message == announcement
		})
	}

	sendEvent(t, ctx, connA, proto.InboundRegisterUser, "alice", nil)
	sendEvent(t, ctx, connA, proto.InboundJoinRoom, proto.JoinRoomData{Username: "alice", Room: "tech"}, nil)
	joined(connA, "alice joined tech")

	sendEvent(t, ctx, connB, proto.InboundRegisterUser, "bob", nil)
	sendEvent(t, ctx, connB, proto.InboundJoinRoom, proto.JoinRoomData{Username: "bob", Room: "tech"}, nil)
	joined(connA, "bob joined tech")

	ackID := int64(1)
	sendEvent(t, ctx, connA, proto.InboundChatMessage, proto.ChatMessageData{
		User:      "alice",
		Message:   "hello",
		Timestamp: "10:00:00 AM",
	}, &ackID)

	// connB receives exactly one broadcast.
	f := readFrame(t, ctx, connB, func(f frame) bool {
		if f.Event != proto.OutboundChatMessage {
			return false
		}
		var msg proto.ChatMessageData
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			return false
		}
		return msg.Message == "hello"
	})
	var msg proto.ChatMessageData
	if err := json.Unmarshal(f.Data, &msg); err != nil {
		t.Fatalf("unmarshal chat payload: %v", err)
	}
	if msg.User != "alice" || msg.Timestamp != "10:00:00 AM" {
		t.Fatalf("message not relayed verbatim: %+v", msg)
	}

	// The sender sees both its own broadcast and exactly one ack, in
	// either order.
	var (
		gotChat  bool
		ackFrame *frame
	)
	for !gotChat || ackFrame == nil {
		var f frame
		if err := wsjson.Read(ctx, connA, &f); err != nil {
			t.Fatalf("read sender frame: %v", err)
		}
		switch f.Event {
		case proto.OutboundChatMessage:
			var msg proto.ChatMessageData
			if err := json.Unmarshal(f.Data, &msg); err == nil && msg.Message == "hello" {
				gotChat = true
			}
		case proto.OutboundAck:
			if ackFrame != nil {
				t.Fatal("received more than one ack")
			}
			cp := f
			ackFrame = &cp
		}
	}

	if ackFrame.Ack == nil || *ackFrame.Ack != ackID {
		t.Fatalf("ack correlation id mismatch: %+v", ackFrame)
	}
	var status proto.AckStatus
	if err := json.Unmarshal(ackFrame.Data, &status); err != nil {
		t.Fatalf("unmarshal ack payload: %v", err)
	}
	if status.Status != "ok" {
		t.Fatalf("unexpected ack status: %q", status.Status)
	}
}

func TestWebSocketOnlineUsers(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)

	sendEvent(t, ctx, connA, proto.InboundRegisterUser, "alice", nil)
	sendEvent(t, ctx, connB, proto.InboundRegisterUser, "bob", nil)

	f := readFrame(t, ctx, connB, func(f frame) bool {
		if f.Event != proto.OutboundOnlineUsers {
			return false
		}
		var users []string
		if err := json.Unmarshal(f.Data, &users); err != nil {
			return false
		}
		return len(users) == 2
	})

	var users []string
	if err := json.Unmarshal(f.Data, &users); err != nil {
		t.Fatalf("unmarshal online users: %v", err)
	}
	if users[0] != "alice" || users[1] != "bob" {
		t.Fatalf("unexpected online set: %v", users)
	}
}

func TestWebSocketLoadMessagesAck(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)

	ackID := int64(7)
	sendEvent(t, ctx, conn, proto.InboundLoadMessages, proto.LoadMessagesData{Room: "tech", Page: 2}, &ackID)

	f := readEvent(t, ctx, conn, proto.OutboundAck)
	if f.Ack == nil || *f.Ack != ackID {
		t.Fatalf("ack correlation id mismatch: %+v", f)
	}

	var page []proto.ChatMessageData
	if err := json.Unmarshal(f.Data, &page); err != nil {
		t.Fatalf("unmarshal history page: %v", err)
	}
	if len(page) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(page))
	}
	if page[0].User != "System" || page[0].Message != "Old message 21" {
		t.Fatalf("unexpected first message: %+v", page[0])
	}
}

func TestWebSocketUnknownEvent(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)

	sendEvent(t, ctx, conn, "bogus", nil, nil)

	f := readEvent(t, ctx, conn, proto.OutboundError)
	if f.Error == nil || f.Error.Code != proto.ErrCodeUnknownEvent {
		t.Fatalf("expected unknown_event error, got %+v", f)
	}

	// The session is still usable after a rejected event.
	ackID := int64(1)
	sendEvent(t, ctx, conn, proto.InboundLoadMessages, proto.LoadMessagesData{Room: "tech", Page: 0}, &ackID)
	readEvent(t, ctx, conn, proto.OutboundAck)
}

func TestWebSocketPrivateMessage(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts)
	connB := dialWS(t, ctx, ts)

	sendEvent(t, ctx, connA, proto.InboundRegisterUser, "alice", nil)
	sendEvent(t, ctx, connB, proto.InboundRegisterUser, "bob", nil)

	// Both registrations applied once alice sees the two-user set.
	readFrame(t, ctx, connA, func(f frame) bool {
		if f.Event != proto.OutboundOnlineUsers {
			return false
		}
		var users []string
		if err := json.Unmarshal(f.Data, &users); err != nil {
			return false
		}
		return len(users) == 2
	})

	sendEvent(t, ctx, connA, proto.InboundPrivateMessage, proto.PrivateMessageData{
		To:      "bob",
		From:    "alice",
		Message: "hi",
	}, nil)

	f := readEvent(t, ctx, connB, proto.OutboundPrivateMessage)
	var pm proto.PrivateMessageEvent
	if err := json.Unmarshal(f.Data, &pm); err != nil {
		t.Fatalf("unmarshal private message: %v", err)
	}
	if pm.From != "alice" || pm.Message != "hi" || pm.Timestamp == "" {
		t.Fatalf("unexpected private message: %+v", pm)
	}
}
