// Observer interfaces for tracing framework activity. Events use the
// CloudEvents specification so traces can be forwarded to external
// collectors unchanged.
package scpfwk

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer receives framework trace events: module lifecycle transitions,
// loop state changes and, when Config.TraceDispatch is set, one event per
// dispatched framework event. Observers run synchronously on the goroutine
// emitting the trace and must return quickly.
type Observer interface {
	// OnEvent is called for every trace event matching the observer's type
	// filter.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier used for registration
	// tracking.
	ObserverID() string
}

// ObserverInfo describes a registered observer.
type ObserverInfo struct {
	// ID is the observer's unique identifier.
	ID string `json:"id"`

	// EventTypes is the type filter; empty means all events.
	EventTypes []string `json:"eventTypes"`

	// RegisteredAt is when the observer was registered.
	RegisteredAt time.Time `json:"registeredAt"`
}

// Trace event types emitted by the core, in reverse domain notation.
const (
	EventTypeModuleInitialized = "com.scpfwk.module.initialized"
	EventTypeModuleBound       = "com.scpfwk.module.bound"
	EventTypeModuleStarted     = "com.scpfwk.module.started"

	EventTypeCoreStarted = "com.scpfwk.core.started"
	EventTypeCoreFatal   = "com.scpfwk.core.fatal"

	EventTypeEventDispatched  = "com.scpfwk.event.dispatched"
	EventTypeNotificationSent = "com.scpfwk.notification.sent"
)

type observerEntry struct {
	observer     Observer
	eventTypes   []string
	registeredAt time.Time
}

func (e *observerEntry) wants(eventType string) bool {
	if len(e.eventTypes) == 0 {
		return true
	}
	for _, t := range e.eventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// RegisterObserver adds an observer for trace events, optionally filtered
// by type. Registration must happen before Run; the observer list is not
// synchronized against the loop.
func (c *Core) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}
	for _, e := range c.observers {
		if e.observer.ObserverID() == observer.ObserverID() {
			return ErrObserverDuplicate
		}
	}
	c.observers = append(c.observers, &observerEntry{
		observer:     observer,
		eventTypes:   eventTypes,
		registeredAt: time.Now(),
	})
	return nil
}

// UnregisterObserver removes an observer. Unknown observers are ignored.
func (c *Core) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}
	for i, e := range c.observers {
		if e.observer.ObserverID() == observer.ObserverID() {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return nil
		}
	}
	return nil
}

// GetObservers returns information about registered observers.
func (c *Core) GetObservers() []ObserverInfo {
	infos := make([]ObserverInfo, 0, len(c.observers))
	for _, e := range c.observers {
		infos = append(infos, ObserverInfo{
			ID:           e.observer.ObserverID(),
			EventTypes:   e.eventTypes,
			RegisteredAt: e.registeredAt,
		})
	}
	return infos
}

func (c *Core) emitTrace(eventType string, data any) {
	if len(c.observers) == 0 {
		return
	}
	evt := NewTraceEvent(eventType, "scpfwk/core", data)
	ctx := context.Background()
	for _, e := range c.observers {
		if !e.wants(eventType) {
			continue
		}
		if err := e.observer.OnEvent(ctx, evt); err != nil {
			c.logger.Debug("Observer rejected trace event",
				"observer", e.observer.ObserverID(), "type", eventType, "error", err)
		}
	}
}

func (c *Core) emitModuleLifecycle(mc *moduleContext, action string) {
	var eventType string
	switch action {
	case "initialized":
		eventType = EventTypeModuleInitialized
	case "bound":
		eventType = EventTypeModuleBound
	case "started":
		eventType = EventTypeModuleStarted
	default:
		return
	}
	c.emitTrace(eventType, map[string]any{
		"module":   mc.entry.Module.Name(),
		"id":       mc.id.String(),
		"kind":     mc.entry.Kind.String(),
		"elements": len(mc.elements),
	})
}

func (c *Core) emitCoreLifecycle(action string) {
	switch action {
	case "started":
		c.emitTrace(EventTypeCoreStarted, map[string]any{"modules": len(c.modules)})
	case "fatal":
		c.emitTrace(EventTypeCoreFatal, nil)
	}
}

func (c *Core) emitDispatchTrace(ev *Event, status Status) {
	c.emitTrace(EventTypeEventDispatched, map[string]any{
		"id":     ev.ID.String(),
		"source": ev.Source.String(),
		"target": ev.Target.String(),
		"cookie": ev.Cookie,
		"status": status.String(),
	})
}

// FunctionalObserver wraps a handler function as an Observer for quick
// trace taps without a dedicated type.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates an observer from a handler function.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{id: id, handler: handler}
}

// OnEvent implements Observer.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements Observer.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
