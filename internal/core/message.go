package core

import "time"

const (
	// SystemUser authors synthetic announcements such as join/leave notices.
	SystemUser = "System"
	// UnknownUser stands in for sessions that never registered a username.
	UnknownUser = "Unknown"
	// DefaultRoom is used for routing when a session never joined a room.
	DefaultRoom = "general"
)

// Message is the domain model for a relayed chat message. The body is
// relayed untouched; any sanitization of untrusted markup is the
// renderer's responsibility.
type Message struct {
	User      string
	Body      string
	Timestamp string
}

// timestampFormat matches the human-readable clock stamps clients display.
const timestampFormat = "3:04:05 PM"

func stamp(now time.Time) string {
	return now.Format(timestampFormat)
}
