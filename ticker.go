package scpfwk

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Ticker drives periodic events into the loop from cron schedules. Firmware
// services built on the framework (thermal sampling, watchdog kicks) hang
// their sampling loops off tick events instead of owning timers.
//
// Cron jobs fire on their own goroutines, so ticks enter the core through
// the ISR path and are subject to the same ingress backpressure as
// interrupts.
type Ticker struct {
	core   *Core
	cron   *cron.Cron
	logger Logger
}

// NewTicker creates an empty ticker bound to the core.
func NewTicker(core *Core) *Ticker {
	return &Ticker{
		core:   core,
		cron:   cron.New(),
		logger: core.Logger(),
	}
}

// NewTickerFromConfig creates a ticker and registers every tick declared in
// the config, resolving module names against the core's table.
func NewTickerFromConfig(core *Core, cfg Config) (*Ticker, error) {
	t := NewTicker(core)
	for i, tick := range cfg.Ticks {
		moduleID, ok := core.LookupModule(tick.Module)
		if !ok {
			return nil, fmt.Errorf("%w: tick %d targets %q", ErrConfigTickTarget, i, tick.Module)
		}
		midx := moduleID.UncheckedModuleIndex()

		target := moduleID
		if tick.Element >= 0 {
			id, err := NewElementID(midx, tick.Element)
			if err != nil {
				return nil, err
			}
			target = id
		}
		eventID, err := NewEventID(midx, tick.Event)
		if err != nil {
			return nil, err
		}

		ev := Event{Source: moduleID, Target: target, ID: eventID}
		if _, err := t.AddTick(tick.Schedule, ev); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddTick schedules event to be posted on the given cron schedule. The
// event is validated up front so schedule mistakes surface at registration,
// not at 3am.
func (t *Ticker) AddTick(schedule string, event Event) (cron.EntryID, error) {
	if err := t.core.validateEvent(&event); err != nil {
		return 0, err
	}
	id, err := t.cron.AddFunc(schedule, func() {
		t.post(event)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: schedule %q: %v", StatusParam, schedule, err)
	}
	t.logger.Debug("Tick registered", "schedule", schedule, "event", &event)
	return id, nil
}

// RemoveTick cancels a scheduled tick.
func (t *Ticker) RemoveTick(id cron.EntryID) {
	t.cron.Remove(id)
}

// post delivers one tick through the ISR ingress path; a full queue is
// logged and the tick dropped, the next firing will try again.
func (t *Ticker) post(event Event) {
	if err := t.core.PutEventFromISR(&event); err != nil {
		t.logger.Warn("Tick dropped", "event", &event, "error", err)
	}
}

// Start begins firing schedules.
func (t *Ticker) Start() {
	t.cron.Start()
}

// Stop halts the schedules; a tick already executing completes.
func (t *Ticker) Stop() {
	t.cron.Stop()
}
