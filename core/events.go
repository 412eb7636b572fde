package core

import (
	"context"
	"time"
)

// Event names
const (
	EventResultRecorded  = "result.recorded"
	EventSignupRequested = "signup.requested"
)

type (
	Event struct {
		Name       string      `json:"name"`
		OccurredAt time.Time   `json:"occurred_at"` // UTC
		Payload    interface{} `json:"payload"`
	}

	// EventPublisher is any service that can broadcast domain events.
	EventPublisher interface {
		Publish(ctx context.Context, evt Event) error
	}
)

// TimestampLayout is the format of every timestamp written to the record store.
const TimestampLayout = time.RFC3339

// FormatTimestamp renders t in UTC with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
