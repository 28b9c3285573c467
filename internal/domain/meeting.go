package domain

import (
	"strings"
	"time"
)

// MeetingID is an opaque token addressing a single meeting session.
type MeetingID string

// encodedDelimiter is a known artifact: shared links use a `meeting&<id>`
// path segment, and some clients deliver it URL-encoded so the id arrives
// contaminated with this prefix.
const encodedDelimiter = "meeting%26"

// CleanMeetingID strips every occurrence of the encoding artifact from a raw
// identifier. The result is what lookup and routing work with.
func CleanMeetingID(raw string) MeetingID {
	return MeetingID(strings.ReplaceAll(raw, encodedDelimiter, ""))
}

// Meeting is the resolved handle to a live or pending session.
// Metadata only; connection state lives with the session provider.
type Meeting struct {
	ID          MeetingID         `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	StartsAt    time.Time         `json:"starts_at"`
	Description string            `json:"description"`
	Custom      map[string]string `json:"custom,omitempty"`
}
