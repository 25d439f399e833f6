package scpfwk

import (
	"context"
	"errors"
	"fmt"
)

// validateEvent performs the argument validation shared by PutEvent and the
// ISR promotion path. It never mutates the event.
func (c *Core) validateEvent(e *Event) error {
	if _, _, err := c.targetOf(e.Target); err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}
	if _, _, err := c.targetOf(e.Source); err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}

	switch {
	case e.IsNotification:
		if !e.ID.IsKind(KindNotification) {
			return fmt.Errorf("%w: notification event carries %s", StatusParam, e.ID)
		}
		if !e.IsResponse {
			return fmt.Errorf("%w: notifications are broadcast through NotificationNotify", StatusParam)
		}
	case e.ID.IsKind(KindEvent):
		mc, err := c.moduleContextOf(e.ID)
		if err != nil {
			return err
		}
		if e.ID.UncheckedItemIndex() >= mc.entry.EventCount {
			return fmt.Errorf("%w: module %q declares %d event types, got %s",
				StatusParam, mc.entry.Module.Name(), mc.entry.EventCount, e.ID)
		}
		if !e.IsResponse && e.ID.UncheckedModuleIndex() != e.Target.UncheckedModuleIndex() {
			return fmt.Errorf("%w: event %s does not belong to target %s", StatusParam, e.ID, e.Target)
		}
	default:
		return fmt.Errorf("%w: %s is not an event identifier", StatusParam, e.ID)
	}

	if e.ResponseRequested && e.IsResponse {
		return fmt.Errorf("%w: a response cannot request a response", StatusParam)
	}
	if e.IsDelayedResponse && (!e.IsResponse || e.Cookie == 0) {
		return fmt.Errorf("%w: delayed response requires is_response and a cookie", StatusParam)
	}
	if !e.IsResponse && e.Cookie != 0 {
		return fmt.Errorf("%w: cookies are assigned by the framework", StatusParam)
	}
	return nil
}

// PutEvent posts an event for asynchronous delivery to its target. The
// event is copied into a pooled slot; the caller keeps ownership of its
// struct. When the event requests a response the allocated cookie is
// written back into the caller's struct before the copy is queued.
//
// PutEvent is legal from the start phase onwards, on the goroutine driving
// the lifecycle engine or the dispatch loop. Interrupt handlers and foreign
// goroutines must use PutEventFromISR.
func (c *Core) PutEvent(event *Event) error {
	if event == nil {
		return fmt.Errorf("%w: nil event", StatusParam)
	}
	switch c.state {
	case coreStateStarting, coreStateStarted, coreStateRunning:
	default:
		return fmt.Errorf("%w: events cannot be posted before the start phase", StatusState)
	}
	if err := c.validateEvent(event); err != nil {
		return err
	}

	if c.delayedCookies != nil && event.IsResponse && event.IsDelayedResponse {
		if c.delayedCookies[event.Cookie] == 0 {
			c.logger.Error("Duplicate or unknown delayed response", "cookie", event.Cookie, "event", event)
		} else if c.delayedCookies[event.Cookie]--; c.delayedCookies[event.Cookie] == 0 {
			delete(c.delayedCookies, event.Cookie)
		}
	}

	slot, ok := c.pool.acquire()
	if !ok {
		c.noteDrop()
		return fmt.Errorf("%w: event pool exhausted", StatusNoMem)
	}
	if event.ResponseRequested {
		event.Cookie = c.allocCookie()
	}
	slot.copyPayload(event)

	t, _, err := c.targetOf(event.Target)
	if err != nil {
		c.pool.release(slot)
		return err
	}
	c.enqueue(slot, t)
	c.stats.posted.Add(1)
	if c.metrics != nil {
		c.metrics.eventsPosted.Inc()
	}
	return nil
}

// PutEventFromISR posts an event from an interrupt handler or any goroutine
// other than the one driving the loop. The event is copied into a fixed
// ingress queue; full validation happens when the loop promotes it. A full
// ingress queue fails with StatusNoMem without blocking.
func (c *Core) PutEventFromISR(event *Event) error {
	if event == nil {
		return fmt.Errorf("%w: nil event", StatusParam)
	}
	if event.ResponseRequested && event.IsResponse {
		return fmt.Errorf("%w: a response cannot request a response", StatusParam)
	}
	select {
	case c.isr <- *event:
		c.stats.isrPosted.Add(1)
		c.stats.isrDepth.Add(1)
		if c.metrics != nil {
			c.metrics.isrPosted.Inc()
			c.metrics.isrDepth.Inc()
		}
		return nil
	default:
		c.noteDrop()
		return fmt.Errorf("%w: isr queue full", StatusNoMem)
	}
}

// promote moves one ISR-posted event into its target's queue, assigning a
// cookie if the poster asked for a response. Invalid events are dropped and
// logged; there is no caller to report to.
func (c *Core) promote(ev Event) {
	if err := c.validateEvent(&ev); err != nil {
		c.logger.Error("Dropping invalid isr event", "event", &ev, "error", err)
		c.noteDrop()
		return
	}
	slot, ok := c.pool.acquire()
	if !ok {
		c.logger.Error("Dropping isr event, pool exhausted", "event", &ev)
		c.noteDrop()
		return
	}
	slot.copyPayload(&ev)
	if slot.ResponseRequested && slot.Cookie == 0 {
		slot.Cookie = c.allocCookie()
	}
	t, _, _ := c.targetOf(slot.Target)
	c.enqueue(slot, t)
	c.stats.posted.Add(1)
}

// drainOneISR promotes at most one pending ISR event per loop iteration.
func (c *Core) drainOneISR() bool {
	select {
	case ev := <-c.isr:
		c.stats.isrDepth.Add(-1)
		if c.metrics != nil {
			c.metrics.isrDepth.Dec()
		}
		c.promote(ev)
		return true
	default:
		return false
	}
}

func (c *Core) enqueue(slot *Event, t *targetContext) {
	t.queue.pushTail(slot)
	c.updatePoolGauge()
	c.enqueueTarget(t)
}

func (c *Core) enqueueTarget(t *targetContext) {
	if !t.ready {
		t.ready = true
		c.ready.pushTail(t)
	}
}

func (c *Core) releaseSlot(e *Event) {
	c.pool.release(e)
	c.updatePoolGauge()
}

func (c *Core) updatePoolGauge() {
	avail := int64(c.pool.available())
	c.stats.poolAvailable.Store(avail)
	if c.metrics != nil {
		c.metrics.poolAvailable.Set(float64(avail))
	}
}

func (c *Core) noteDrop() {
	c.stats.dropped.Add(1)
	if c.metrics != nil {
		c.metrics.eventsDropped.Inc()
	}
}

// processNext performs one dispatcher iteration: promote one ISR event,
// select the next ready target, deliver its head event. With block set the
// call parks on the ISR channel (and the run context) when nothing is
// ready. The first return reports whether any progress was made.
func (c *Core) processNext(block bool) (bool, error) {
	drained := c.drainOneISR()

	t, ok := c.ready.popHead()
	if !ok {
		if drained {
			return true, nil
		}
		if !block || c.runCtx == nil {
			return false, nil
		}
		select {
		case ev := <-c.isr:
			c.stats.isrDepth.Add(-1)
			if c.metrics != nil {
				c.metrics.isrDepth.Dec()
			}
			c.promote(ev)
			return true, nil
		case <-c.runCtx.Done():
			return false, c.runCtx.Err()
		}
	}
	t.ready = false

	ev, ok := t.queue.popHead()
	if !ok {
		return true, nil
	}
	err := c.deliver(t, ev)
	if !t.queue.isEmpty() {
		c.enqueueTarget(t)
	}
	return true, err
}

// deliver routes one dequeued event: into a pending nested wait, into the
// notification broker's acknowledgement path, or into the target's handler,
// then plumbs the response according to the request flags.
func (c *Core) deliver(t *targetContext, ev *Event) error {
	if ev.IsResponse {
		for i := len(c.waits) - 1; i >= 0; i-- {
			w := c.waits[i]
			if !w.done && w.cookie == ev.Cookie {
				w.out.copyPayload(ev)
				w.done = true
				c.releaseSlot(ev)
				c.stats.responses.Add(1)
				return nil
			}
		}
	}

	// A subscriber completing a delayed acknowledgement: consolidate in the
	// broker instead of delivering to the originator directly. Consolidated
	// responses built by the broker carry no cookie and fall through to the
	// handler.
	if ev.IsNotification && ev.IsResponse && ev.Cookie != 0 {
		c.broker.ack(ev.Cookie, ev.Status)
		c.releaseSlot(ev)
		return nil
	}

	mc := c.modules[t.owner.UncheckedModuleIndex()]
	name := mc.entry.Module.Name()

	var resp Event
	resp.Source = ev.Target
	resp.Target = ev.Source
	resp.ID = ev.ID
	resp.Cookie = ev.Cookie
	resp.IsResponse = true
	resp.IsNotification = ev.IsNotification

	prev := c.current
	c.current = t
	var handlerErr error
	if ev.IsNotification {
		if np, ok := mc.entry.Module.(NotificationProcessor); ok {
			handlerErr = np.ProcessNotification(c, ev, &resp)
		} else {
			handlerErr = fmt.Errorf("%w: module %q has no notification processor", StatusSupport, name)
			c.logger.Error("Undeliverable notification", "module", name, "event", ev)
		}
	} else {
		if ep, ok := mc.entry.Module.(EventProcessor); ok {
			handlerErr = ep.ProcessEvent(c, ev, &resp)
		} else {
			handlerErr = fmt.Errorf("%w: module %q has no event processor", StatusSupport, name)
			c.logger.Error("Undeliverable event", "module", name, "event", ev)
		}
	}
	c.current = prev

	status := AsStatus(handlerErr)
	c.stats.dispatched.Add(1)
	if c.metrics != nil {
		c.metrics.eventsDispatched.Inc()
	}
	if c.cfg.TraceDispatch {
		c.emitDispatchTrace(ev, status)
	}

	if status == StatusPanic {
		c.releaseSlot(ev)
		err := fmt.Errorf("module %q handler failed for %s: %w", name, ev, StatusPanic)
		c.fatal(err)
		return err
	}
	if handlerErr != nil && !ev.ResponseRequested {
		c.logger.Debug("Handler error with no response requested",
			"module", name, "event", ev, "error", handlerErr)
	}

	switch {
	case ev.IsNotification && ev.ResponseRequested:
		if resp.IsDelayedResponse && status == StatusSuccess {
			c.storeDelayed(t, &resp, ev.Cookie, StatusSuccess)
		} else {
			c.broker.ack(ev.Cookie, status)
		}
	case resp.IsDelayedResponse && ev.ResponseRequested:
		c.storeDelayed(t, &resp, ev.Cookie, status)
	case ev.ResponseRequested:
		c.sendResponse(&resp, status)
	}

	c.releaseSlot(ev)
	return nil
}

// storeDelayed parks a prepared response on the handling target's
// delayed-response list until the module completes it.
func (c *Core) storeDelayed(t *targetContext, resp *Event, cookie uint32, status Status) {
	slot, ok := c.pool.acquire()
	if !ok {
		c.logger.Error("Cannot park delayed response, pool exhausted", "cookie", cookie)
		c.sendResponse(resp, StatusNoMem)
		return
	}
	slot.copyPayload(resp)
	slot.IsResponse = true
	slot.IsDelayedResponse = true
	slot.ResponseRequested = false
	slot.Cookie = cookie
	slot.Status = status
	t.delayed.pushTail(slot)
	c.updatePoolGauge()
	c.stats.delayedPending.Add(1)
	if c.metrics != nil {
		c.metrics.delayedPending.Inc()
	}
	if c.delayedCookies != nil {
		c.delayedCookies[cookie]++
	}
}

// sendResponse enqueues an immediate response to the requester.
func (c *Core) sendResponse(resp *Event, status Status) {
	slot, ok := c.pool.acquire()
	if !ok {
		c.logger.Error("Dropping response, pool exhausted", "event", resp)
		c.noteDrop()
		return
	}
	slot.copyPayload(resp)
	slot.IsResponse = true
	slot.IsDelayedResponse = false
	slot.ResponseRequested = false
	slot.Status = status

	t, _, err := c.targetOf(slot.Target)
	if err != nil {
		c.logger.Error("Dropping response, invalid requester", "event", slot, "error", err)
		c.releaseSlot(slot)
		c.noteDrop()
		return
	}
	c.enqueue(slot, t)
	c.stats.responses.Add(1)
}

// ProcessEvents drains every queued event, running handlers to completion,
// and returns when the ready queue and the ISR queue are both empty. It is
// the non-blocking alternative to Run for embedders that drive the loop
// from their own scheduler.
func (c *Core) ProcessEvents() error {
	if c.current != nil {
		return ErrReentrantDispatch
	}
	switch c.state {
	case coreStateStarted, coreStateRunning:
	default:
		return ErrNotStarted
	}
	for {
		progressed, err := c.processNext(false)
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

// Run drives the cooperative loop until the context is cancelled or a
// handler returns StatusPanic. When idle the loop parks on the ISR ingress
// queue.
func (c *Core) Run(ctx context.Context) error {
	if c.state == coreStateRunning {
		return ErrAlreadyRunning
	}
	if c.state != coreStateStarted {
		return ErrNotStarted
	}
	c.runCtx = ctx
	c.state = coreStateRunning
	c.logger.Info("Event loop running")
	defer func() {
		c.state = coreStateStarted
		c.runCtx = nil
		c.logger.Info("Event loop stopped")
	}()

	for {
		_, err := c.processNext(true)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// PutEventAndWait posts a request and services other events in a nested
// dispatch until the matching response arrives, then copies it into
// response. The helper may only be called from a handler running on the
// dispatch loop; calling it from an ISR, a foreign goroutine, or against
// the target currently being serviced fails with StatusAccess because the
// wait could never complete.
func (c *Core) PutEventAndWait(request, response *Event) error {
	if request == nil || response == nil {
		return fmt.Errorf("%w: nil event", StatusParam)
	}
	if c.current == nil {
		return fmt.Errorf("%w: PutEventAndWait requires a running handler context", StatusAccess)
	}
	t, _, err := c.targetOf(request.Target)
	if err != nil {
		return err
	}
	if t == c.current {
		return fmt.Errorf("%w: waiting on the target being serviced would deadlock", StatusAccess)
	}

	request.IsResponse = false
	request.IsDelayedResponse = false
	request.ResponseRequested = true
	request.Cookie = 0
	if err := c.PutEvent(request); err != nil {
		return err
	}

	rec := &waitRecord{cookie: request.Cookie, out: response}
	c.waits = append(c.waits, rec)
	defer func() {
		c.waits = c.waits[:len(c.waits)-1]
	}()

	for !rec.done {
		progressed, err := c.processNext(true)
		if err != nil {
			return err
		}
		if !progressed {
			return fmt.Errorf("%w: queues drained before a response to cookie %d arrived",
				StatusState, rec.cookie)
		}
	}
	return nil
}
