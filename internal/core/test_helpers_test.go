package core

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for kind %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustChatMessage waits for a chat event with the given body, skipping
// announcements and unrelated messages.
func mustChatMessage(t *testing.T, ch <-chan *Event, body string) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for chat %q", body)
			}
			if ev.Kind == EventChatMessage && ev.Message.Body == body {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected chat message %q not received", body)
	return nil
}

// mustOnlineUsers waits for a presence event carrying exactly the wanted
// username set. Useful as a barrier proving a registration was applied.
func mustOnlineUsers(t *testing.T, ch <-chan *Event, want []string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for online set %v", want)
			}
			if ev.Kind == EventOnlineUsers && reflect.DeepEqual(ev.Users, want) {
				return
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected online set %v not received", want)
}

// mustNoEvent asserts that no event of the given kind arrives within a
// short settle window. A closed channel counts as silence.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// mustNoChatMessage asserts that no chat event with the given body arrives
// within a short settle window.
func mustNoChatMessage(t *testing.T, ch <-chan *Event, body string) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Kind == EventChatMessage && ev.Message.Body == body {
				t.Fatalf("unexpected chat message: %+v", ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}
