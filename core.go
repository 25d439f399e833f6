package scpfwk

import (
	"context"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Framework is the surface the core exposes to modules. Every callback
// receives it; modules must not retain goroutines that call it outside the
// dispatch loop, with the single exception of PutEventFromISR.
type Framework interface {
	// Logger returns the framework logger.
	Logger() Logger

	// PutEvent posts an event for asynchronous delivery. See Core.PutEvent.
	PutEvent(event *Event) error

	// PutEventFromISR posts an event from an interrupt handler or foreign
	// goroutine. See Core.PutEventFromISR.
	PutEventFromISR(event *Event) error

	// PutEventAndWait posts a request and runs a nested dispatch until the
	// matching response arrives. See Core.PutEventAndWait.
	PutEventAndWait(request, response *Event) error

	// GetDelayedResponse retrieves a pending delayed response by cookie.
	// See Core.GetDelayedResponse.
	GetDelayedResponse(target ID, cookie uint32, out *Event) error

	// NotificationSubscribe registers subscriber for a notification from a
	// given source entity.
	NotificationSubscribe(notification, source, subscriber ID) error

	// NotificationUnsubscribe removes a subscription.
	NotificationUnsubscribe(notification, source, subscriber ID) error

	// NotificationNotify broadcasts a notification event to all matching
	// subscribers.
	NotificationNotify(event *Event, sentCount *int) error

	// ModuleBind resolves an API published by another module.
	ModuleBind(target, apiID ID) (any, error)

	// LookupModule returns the identifier of the named module.
	LookupModule(name string) (ID, bool)
}

var _ Framework = (*Core)(nil)

type coreState int

const (
	coreStateCreated coreState = iota
	coreStateInitialized
	coreStateStarting
	coreStateStarted
	coreStateRunning
	coreStateStopped
)

// coreStats are the counters exported through the diagnostics handler.
// They are atomics so the handler can be served from any goroutine while
// the loop mutates them.
type coreStats struct {
	posted            atomic.Uint64
	dispatched        atomic.Uint64
	dropped           atomic.Uint64
	isrPosted         atomic.Uint64
	responses         atomic.Uint64
	notificationsSent atomic.Uint64
	poolAvailable     atomic.Int64
	isrDepth          atomic.Int64
	delayedPending    atomic.Int64
	subscriptions     atomic.Int64
}

type waitRecord struct {
	cookie uint32
	out    *Event
	done   bool
}

// Core binds the module registry, the lifecycle engine, the binding
// resolver, the event dispatcher and the notification broker. All of its
// state except the ISR ingress channel and the diagnostic counters is
// confined to the goroutine driving Run or ProcessEvents.
type Core struct {
	cfg     Config
	logger  Logger
	modules []*moduleContext
	byName  map[string]int

	pool   *eventPool
	ready  fifo[*targetContext]
	isr    chan Event
	cookie uint32

	state   coreState
	phase   Phase
	current *targetContext
	binding ID
	waits   []*waitRecord

	broker *notificationBroker

	observers []*observerEntry
	metrics   *Metrics
	stats     coreStats

	fatalHandler func(error)
	interrupts   InterruptDriver
	runCtx       context.Context

	// delayedCookies counts outstanding delayed responses per cookie when
	// Config.DebugCookieTracking is set, to flag duplicate completions. A
	// broadcast cookie can be outstanding on several subscribers at once.
	delayedCookies map[uint32]int
}

// Option customizes a Core at construction.
type Option func(*Core)

// WithLogger installs the framework logger. The default is a zerolog
// logger writing JSON lines to stderr at the configured level.
func WithLogger(l Logger) Option {
	return func(c *Core) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics registers the framework metrics on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Core) {
		c.metrics = newMetrics(reg)
	}
}

// WithFatalHandler installs the hook invoked when a handler returns
// StatusPanic after boot. The default logs and stops the loop.
func WithFatalHandler(fn func(error)) Option {
	return func(c *Core) {
		c.fatalHandler = fn
	}
}

// WithInterruptDriver installs the interrupt infrastructure used by
// BindInterrupt.
func WithInterruptDriver(d InterruptDriver) Option {
	return func(c *Core) {
		c.interrupts = d
	}
}

// New creates a core from a validated config and a static module table.
// Contexts, the event pool and the subscription table are all sized here;
// nothing is allocated after New returns.
func New(cfg Config, table []ModuleEntry, opts ...Option) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	modules, byName, err := buildRegistry(table)
	if err != nil {
		return nil, err
	}

	c := &Core{
		cfg:     cfg,
		modules: modules,
		byName:  byName,
		pool:    newEventPool(cfg.EventPoolSize),
		isr:     make(chan Event, cfg.ISRQueueSize),
	}
	c.broker = newNotificationBroker(c, cfg.NotificationSlots, cfg.PendingNotificationSlots)
	if cfg.DebugCookieTracking {
		c.delayedCookies = make(map[uint32]int)
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = NewZerologLogger(nil, cfg.LogLevel)
	}

	c.stats.poolAvailable.Store(int64(c.pool.available()))
	c.logger.Debug("Core created",
		"modules", len(modules),
		"eventPool", cfg.EventPoolSize,
		"isrQueue", cfg.ISRQueueSize,
		"notificationSlots", cfg.NotificationSlots)

	return c, nil
}

// Logger returns the framework logger.
func (c *Core) Logger() Logger {
	return c.logger
}

// Config returns the configuration the core was built with.
func (c *Core) Config() Config {
	return c.cfg
}

// allocCookie returns the next transaction cookie. Cookies are monotonic,
// wrap, and never take the value zero.
func (c *Core) allocCookie() uint32 {
	c.cookie++
	if c.cookie == 0 {
		c.cookie++
	}
	return c.cookie
}

// fatal reports an unrecoverable handler outcome. The loop stops after the
// hook returns.
func (c *Core) fatal(err error) {
	c.emitCoreLifecycle("fatal")
	if c.fatalHandler != nil {
		c.fatalHandler(err)
		return
	}
	c.logger.Error("Unrecoverable framework error", "error", err)
}
