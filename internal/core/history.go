package core

import (
	"context"
	"fmt"
	"time"

	"github.com/nvoloshin/relaychat-server/internal/store"
)

// PageSize is the fixed number of messages in a history page.
const PageSize = 10

// Paginator produces ordered pages of past room messages. Page 0 is the
// most recent page; higher indices request progressively older history.
// Pages are returned newest first; consumers reverse them into
// chronological order before prepending to a transcript. Pages beyond
// available history are empty, never an error.
type Paginator interface {
	LoadPage(ctx context.Context, room string, page int) ([]Message, error)
}

// SyntheticPaginator fabricates placeholder history pages. It serves as
// the default when no message store is configured and doubles as a test
// double for the paging contract.
type SyntheticPaginator struct {
	// Now overrides the clock used for timestamps. Nil means time.Now.
	Now func() time.Time
}

// LoadPage returns a deterministic page of placeholder messages.
func (p *SyntheticPaginator) LoadPage(_ context.Context, _ string, page int) ([]Message, error) {
	if page < 0 {
		return nil, nil
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	ts := stamp(now())

	messages := make([]Message, 0, PageSize)
	for i := 0; i < PageSize; i++ {
		messages = append(messages, Message{
			User:      SystemUser,
			Body:      fmt.Sprintf("Old message %d", page*PageSize+i+1),
			Timestamp: ts,
		})
	}
	return messages, nil
}

// StorePaginator serves history pages from a persistent message store.
type StorePaginator struct {
	Store store.MessageStore
}

// LoadPage fetches one page of stored messages, newest first.
func (p *StorePaginator) LoadPage(ctx context.Context, room string, page int) ([]Message, error) {
	if page < 0 {
		return nil, nil
	}

	stored, err := p.Store.ListPage(ctx, room, PageSize, page*PageSize)
	if err != nil {
		return nil, fmt.Errorf("list page: %w", err)
	}

	messages := make([]Message, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, Message{
			User:      m.Author,
			Body:      m.Body,
			Timestamp: stamp(m.CreatedAt),
		})
	}
	return messages, nil
}
