package scpfwk

import "fmt"

// EventParamsSize is the size of the inline parameter buffer carried by
// every event. It is a compile-time constant shared by all modules; payloads
// larger than this must live in module-owned state referenced from the
// params.
const EventParamsSize = 16

// EventParams is the inline payload of an event.
type EventParams [EventParamsSize]byte

// NewParams builds an EventParams from the given bytes. Input longer than
// EventParamsSize is truncated.
func NewParams(b ...byte) EventParams {
	var p EventParams
	copy(p[:], b)
	return p
}

// Event is a message delivered to a target's event or notification
// processor. Events are owned by the framework while queued; handlers
// receive a read-only view of the incoming event and a writable response
// view.
type Event struct {
	qn qnode[*Event]

	// Source identifies the posting entity.
	Source ID

	// Target identifies the receiving module, element or sub-element.
	Target ID

	// ID names the event type (KindEvent) or, for notifications, the
	// notification type (KindNotification).
	ID ID

	// Cookie correlates a request with its response. It is assigned by the
	// framework, never by callers.
	Cookie uint32

	// IsResponse marks the event as the response to an earlier request
	// carrying the same cookie.
	IsResponse bool

	// ResponseRequested asks the framework to deliver a response event back
	// to Source once the handler completes (or later, for delayed
	// responses).
	ResponseRequested bool

	// IsNotification marks events fanned out by the notification broker and
	// their acknowledgements.
	IsNotification bool

	// IsDelayedResponse marks a response whose payload was not ready when
	// the request handler returned.
	IsDelayedResponse bool

	// Status carries the handler outcome on response events.
	Status Status

	// Params is the inline payload.
	Params EventParams
}

func (e *Event) qlink() *qnode[*Event] {
	return &e.qn
}

// copyPayload copies every field of src except the queue linkage.
func (e *Event) copyPayload(src *Event) {
	e.Source = src.Source
	e.Target = src.Target
	e.ID = src.ID
	e.Cookie = src.Cookie
	e.IsResponse = src.IsResponse
	e.ResponseRequested = src.ResponseRequested
	e.IsNotification = src.IsNotification
	e.IsDelayedResponse = src.IsDelayedResponse
	e.Status = src.Status
	e.Params = src.Params
}

// reset clears the payload of a pooled slot before reuse.
func (e *Event) reset() {
	e.copyPayload(&Event{})
}

// String renders a compact trace form for logs.
func (e *Event) String() string {
	flags := ""
	if e.IsResponse {
		flags += "R"
	}
	if e.ResponseRequested {
		flags += "r"
	}
	if e.IsNotification {
		flags += "N"
	}
	if e.IsDelayedResponse {
		flags += "D"
	}
	return fmt.Sprintf("%s %s->%s cookie=%d flags=%s", e.ID, e.Source, e.Target, e.Cookie, flags)
}
