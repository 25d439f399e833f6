package scpfwk

// ModuleKind classifies a module in the static table. The kind is
// descriptive; the framework treats every kind identically.
type ModuleKind int

// Module kinds.
const (
	ModuleKindDriver ModuleKind = iota
	ModuleKindHAL
	ModuleKindService
	ModuleKindProtocol
)

// String returns the kind name.
func (k ModuleKind) String() string {
	switch k {
	case ModuleKindDriver:
		return "driver"
	case ModuleKindHAL:
		return "hal"
	case ModuleKindService:
		return "service"
	case ModuleKindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Module is the one interface every registered module must implement.
// Everything else a module can do (element initialization, binding,
// starting, event and notification processing, answering bind requests) is
// declared by implementing the corresponding optional capability interface.
// A missing capability is a no-op returning success.
type Module interface {
	// Name returns the unique identifier for this module within the table.
	Name() string

	// Init initializes the module. id is the module's own identifier,
	// elementCount the number of elements declared for it in the table, and
	// config the opaque module config from its ModuleEntry.
	//
	// During Init a module may read its config and allocate internal state
	// but must not call into any other module; ModuleBind is rejected until
	// the bind rounds begin.
	Init(fw Framework, id ID, elementCount int, config any) error
}

// ElementInitializer is implemented by modules whose elements need
// per-element initialization. InitElement is called once per element, in
// table order, immediately after the owning module's Init.
type ElementInitializer interface {
	InitElement(fw Framework, id ID, subElementCount int, config any) error
}

// PostInitializer is implemented by modules that need a hook after their own
// Init and every element's InitElement have completed.
type PostInitializer interface {
	PostInit(fw Framework, id ID) error
}

// Bind rounds. Modules request APIs from their dependencies in the first
// round; the second round exists for mutual references that can only be
// wired once the first round has published everything.
const (
	BindRoundFirst  = 0
	BindRoundSecond = 1
)

// Binder is implemented by modules that obtain APIs from other modules.
// Bind is invoked for the module itself and then once per element, for each
// round.
type Binder interface {
	Bind(fw Framework, id ID, round int) error
}

// Starter is implemented by modules that need a startup hook after all
// modules are bound. During Start a module may subscribe to notifications
// and post events; posted events are held until every Start callback has
// completed and the loop begins dispatching.
type Starter interface {
	Start(fw Framework, id ID) error
}

// EventProcessor is implemented by modules that receive events. The handler
// runs to completion on the dispatch loop; event is owned by the framework
// and must not be retained. Writing to response shapes the reply delivered
// to the source when the incoming event requested one; setting
// response.IsDelayedResponse defers the reply until the module retrieves it
// with GetDelayedResponse and posts it.
//
// The returned error becomes the response status (nil is StatusSuccess).
// Returning StatusPanic halts the dispatcher.
type EventProcessor interface {
	ProcessEvent(fw Framework, event *Event, response *Event) error
}

// NotificationProcessor is implemented by modules that subscribe to
// notifications. The same response conventions as EventProcessor apply; for
// notifications demanding acknowledgement the returned error is the
// module's acknowledgement status.
type NotificationProcessor interface {
	ProcessNotification(fw Framework, event *Event, response *Event) error
}

// BindRequestHandler is implemented by modules that publish APIs.
// ProcessBindRequest is invoked by the binding resolver on behalf of
// source; target is the module or element being bound and apiID names the
// requested API. The handler returns the API value (stored behind a typed
// interface by the caller, usually through BindAs) or an error:
// StatusAccess when the source is not permitted, StatusParam for bad
// arguments, StatusSupport when the API is not exposed.
type BindRequestHandler interface {
	ProcessBindRequest(fw Framework, source, target, apiID ID) (any, error)
}

// ElementEntry describes one element of a module in the static table.
type ElementEntry struct {
	// Name identifies the element in logs and diagnostics.
	Name string

	// SubElementCount is the number of sub-elements below this element.
	SubElementCount int

	// Config is the opaque per-element configuration handed to InitElement.
	Config any
}

// ModuleEntry is one row of the static module table handed to New. The
// table is fixed for the life of the core; the row index becomes the module
// index of every identifier derived from it.
type ModuleEntry struct {
	// Module is the implementation. Required.
	Module Module

	// Kind classifies the module.
	Kind ModuleKind

	// Config is the opaque module configuration handed to Init.
	Config any

	// Elements declares the module's elements in order.
	Elements []ElementEntry

	// APICount, EventCount and NotificationCount declare how many APIs,
	// event types and notification types the module exposes. Identifiers
	// with indices at or above these counts are rejected at the API surface.
	APICount          int
	EventCount        int
	NotificationCount int
}
