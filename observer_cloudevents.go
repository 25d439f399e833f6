// CloudEvents construction helpers for framework trace events.
package scpfwk

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience.
type CloudEvent = cloudevents.Event

// NewTraceEvent creates a properly formed CloudEvent for a framework trace.
func NewTraceEvent(eventType, source string, data any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

// generateEventID generates a time-ordered unique identifier using UUIDv7,
// falling back to v4 if v7 generation fails.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateTraceEvent validates a CloudEvent against the specification.
func ValidateTraceEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("cloudevent validation failed: %w", err)
	}
	return nil
}
