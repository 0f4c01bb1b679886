package store

import (
	"context"
	"time"
)

// Message is a persisted chat message.
type Message struct {
	ID        int64
	Room      string
	Author    string
	Body      string
	CreatedAt time.Time
}

// MessageStore handles message persistence for room history.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListPage retrieves up to limit messages for a room, newest first,
	// skipping offset newer messages. An offset past the end of history
	// yields an empty slice, not an error.
	ListPage(ctx context.Context, room string, limit, offset int) ([]*Message, error)

	// Close closes the underlying storage.
	Close() error
}
