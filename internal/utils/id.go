package utils

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a unique identifier for a transport session.
func NewSessionID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	// Fallback to timestamp if the random source is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
