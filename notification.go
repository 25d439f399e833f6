package scpfwk

import "fmt"

// subscription is one (notification, source, subscriber) tuple in the
// broker's fixed table.
type subscription struct {
	qn           qnode[*subscription]
	notification ID
	source       ID
	subscriber   ID
}

func (s *subscription) qlink() *qnode[*subscription] {
	return &s.qn
}

// pendingAck tracks a broadcast that demanded acknowledgement: how many
// subscriber replies are still outstanding and the consolidated status so
// far. The originator's transaction stays suspended until remaining hits
// zero.
type pendingAck struct {
	qn           qnode[*pendingAck]
	cookie       uint32
	origin       ID
	notification ID
	remaining    int
	status       Status
}

func (p *pendingAck) qlink() *qnode[*pendingAck] {
	return &p.qn
}

// notificationBroker owns the subscription table and the acknowledgement
// aggregation state. Like the rest of the core it is confined to the
// dispatch goroutine.
type notificationBroker struct {
	core *Core

	subSlots []subscription
	subFree  fifo[*subscription]
	subs     fifo[*subscription]

	ackSlots []pendingAck
	ackFree  fifo[*pendingAck]
	acks     fifo[*pendingAck]
}

func newNotificationBroker(core *Core, subscriptionSlots, pendingSlots int) *notificationBroker {
	b := &notificationBroker{
		core:     core,
		subSlots: make([]subscription, subscriptionSlots),
		ackSlots: make([]pendingAck, pendingSlots),
	}
	for i := range b.subSlots {
		b.subFree.pushTail(&b.subSlots[i])
	}
	for i := range b.ackSlots {
		b.ackFree.pushTail(&b.ackSlots[i])
	}
	return b
}

// checkNotification validates a notification identifier against the module
// table and returns the owning module context.
func (b *notificationBroker) checkNotification(notification ID) (*moduleContext, error) {
	if !notification.IsKind(KindNotification) {
		return nil, fmt.Errorf("%w: %s is not a notification identifier", StatusParam, notification)
	}
	mc, err := b.core.moduleContextOf(notification)
	if err != nil {
		return nil, err
	}
	if notification.UncheckedItemIndex() >= mc.entry.NotificationCount {
		return nil, fmt.Errorf("%w: module %q declares %d notification types, got %s",
			StatusParam, mc.entry.Module.Name(), mc.entry.NotificationCount, notification)
	}
	return mc, nil
}

func (b *notificationBroker) checkPhase() error {
	switch b.core.state {
	case coreStateStarting, coreStateStarted, coreStateRunning:
		return nil
	default:
		return fmt.Errorf("%w: notification operations require the start phase or runtime", StatusState)
	}
}

// subscribe registers subscriber for notifications of the given type
// emitted by source. Duplicate tuples are rejected with StatusState, a full
// table with StatusNoMem.
func (b *notificationBroker) subscribe(notification, source, subscriber ID) error {
	mc, err := b.checkNotification(notification)
	if err != nil {
		return err
	}
	if _, _, err := b.core.targetOf(source); err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}
	if source.UncheckedModuleIndex() != notification.UncheckedModuleIndex() {
		return fmt.Errorf("%w: source %s does not belong to module %q",
			StatusParam, source, mc.entry.Module.Name())
	}
	if _, _, err := b.core.targetOf(subscriber); err != nil {
		return fmt.Errorf("invalid subscriber: %w", err)
	}
	if err := b.checkPhase(); err != nil {
		return err
	}

	duplicate := false
	b.subs.forEach(func(s *subscription) bool {
		if s.notification == notification && s.source == source && s.subscriber == subscriber {
			duplicate = true
			return false
		}
		return true
	})
	if duplicate {
		return fmt.Errorf("%w: %s from %s already subscribed by %s",
			StatusState, notification, source, subscriber)
	}

	slot, ok := b.subFree.popHead()
	if !ok {
		return fmt.Errorf("%w: subscription table exhausted", StatusNoMem)
	}
	slot.notification = notification
	slot.source = source
	slot.subscriber = subscriber
	b.subs.pushTail(slot)
	b.core.stats.subscriptions.Add(1)
	if b.core.metrics != nil {
		b.core.metrics.subscriptions.Inc()
	}
	b.core.logger.Debug("Notification subscribed",
		"notification", notification, "source", source, "subscriber", subscriber)
	return nil
}

// unsubscribe removes a subscription tuple; an unknown tuple fails with
// StatusParam.
func (b *notificationBroker) unsubscribe(notification, source, subscriber ID) error {
	var found *subscription
	b.subs.forEach(func(s *subscription) bool {
		if s.notification == notification && s.source == source && s.subscriber == subscriber {
			found = s
			return false
		}
		return true
	})
	if found == nil {
		return fmt.Errorf("%w: no subscription for %s from %s by %s",
			StatusParam, notification, source, subscriber)
	}
	b.subs.remove(found)
	*found = subscription{}
	b.subFree.pushTail(found)
	b.core.stats.subscriptions.Add(-1)
	if b.core.metrics != nil {
		b.core.metrics.subscriptions.Dec()
	}
	return nil
}

// notify clones the notification to every matching subscriber, in
// subscription order, and reports how many were sent. When the event
// demands acknowledgement the broker suspends the originator's transaction
// until every subscriber has replied, then forwards one consolidated
// response: StatusSuccess only if every subscriber succeeded, otherwise the
// first failure.
func (b *notificationBroker) notify(event *Event, sentCount *int) error {
	if event == nil || sentCount == nil {
		return fmt.Errorf("%w: nil argument", StatusParam)
	}
	*sentCount = 0
	if _, err := b.checkNotification(event.ID); err != nil {
		return err
	}
	if _, _, err := b.core.targetOf(event.Source); err != nil {
		return fmt.Errorf("invalid source: %w", err)
	}
	if event.Source.UncheckedModuleIndex() != event.ID.UncheckedModuleIndex() {
		return fmt.Errorf("%w: source %s cannot raise %s", StatusParam, event.Source, event.ID)
	}
	if err := b.checkPhase(); err != nil {
		return err
	}

	matches := 0
	b.subs.forEach(func(s *subscription) bool {
		if s.notification == event.ID && s.source == event.Source {
			matches++
		}
		return true
	})

	var pending *pendingAck
	if event.ResponseRequested {
		if matches == 0 {
			// Nobody to wait for: the originator still gets exactly one
			// response.
			b.respond(event.Source, event.ID, StatusSuccess)
			return nil
		}
		slot, ok := b.ackFree.popHead()
		if !ok {
			return fmt.Errorf("%w: pending notification table exhausted", StatusNoMem)
		}
		slot.cookie = b.core.allocCookie()
		slot.origin = event.Source
		slot.notification = event.ID
		slot.remaining = matches
		slot.status = StatusSuccess
		b.acks.pushTail(slot)
		pending = slot
	}

	sent := 0
	var sendErr error
	b.subs.forEach(func(s *subscription) bool {
		if s.notification != event.ID || s.source != event.Source {
			return true
		}
		slot, ok := b.core.pool.acquire()
		if !ok {
			sendErr = fmt.Errorf("%w: event pool exhausted after %d of %d notifications",
				StatusNoMem, sent, matches)
			return false
		}
		slot.Source = event.Source
		slot.Target = s.subscriber
		slot.ID = event.ID
		slot.IsNotification = true
		slot.ResponseRequested = event.ResponseRequested
		if pending != nil {
			slot.Cookie = pending.cookie
		}
		slot.Params = event.Params

		t, _, err := b.core.targetOf(s.subscriber)
		if err != nil {
			b.core.releaseSlot(slot)
			b.core.logger.Error("Dropping notification, stale subscriber",
				"subscriber", s.subscriber, "error", err)
			return true
		}
		b.core.enqueue(slot, t)
		sent++
		return true
	})

	*sentCount = sent
	b.core.stats.notificationsSent.Add(uint64(sent))
	if b.core.metrics != nil {
		b.core.metrics.notificationsSent.Add(float64(sent))
	}
	if sent > 0 {
		b.core.emitTrace(EventTypeNotificationSent, map[string]any{
			"id":     event.ID.String(),
			"source": event.Source.String(),
			"sent":   sent,
		})
	}

	if pending != nil {
		if sent == 0 {
			b.release(pending)
			b.respond(event.Source, event.ID, StatusSuccess)
		} else {
			pending.remaining = sent
		}
	}
	return sendErr
}

// ack consumes one subscriber acknowledgement for the given broadcast
// cookie. The last acknowledgement releases the pending record and forwards
// the consolidated response to the originator.
func (b *notificationBroker) ack(cookie uint32, status Status) {
	var rec *pendingAck
	b.acks.forEach(func(p *pendingAck) bool {
		if p.cookie == cookie {
			rec = p
			return false
		}
		return true
	})
	if rec == nil {
		b.core.logger.Error("Stray notification acknowledgement", "cookie", cookie, "status", status)
		return
	}
	if status != StatusSuccess && rec.status == StatusSuccess {
		rec.status = status
	}
	rec.remaining--
	if rec.remaining > 0 {
		return
	}
	origin, notification, final := rec.origin, rec.notification, rec.status
	b.release(rec)
	b.respond(origin, notification, final)
}

func (b *notificationBroker) release(rec *pendingAck) {
	b.acks.remove(rec)
	*rec = pendingAck{}
	b.ackFree.pushTail(rec)
}

// respond delivers the consolidated broadcast response to the originator.
// It carries no cookie; the originator correlates by notification type.
func (b *notificationBroker) respond(origin, notification ID, status Status) {
	slot, ok := b.core.pool.acquire()
	if !ok {
		b.core.logger.Error("Dropping consolidated notification response, pool exhausted",
			"origin", origin, "notification", notification)
		b.core.noteDrop()
		return
	}
	slot.Source = MustModuleID(notification.UncheckedModuleIndex())
	slot.Target = origin
	slot.ID = notification
	slot.IsNotification = true
	slot.IsResponse = true
	slot.Status = status

	t, _, err := b.core.targetOf(origin)
	if err != nil {
		b.core.releaseSlot(slot)
		b.core.noteDrop()
		return
	}
	b.core.enqueue(slot, t)
}

// NotificationSubscribe registers subscriber for notifications of the given
// type raised by source. Permitted from the start phase onwards.
func (c *Core) NotificationSubscribe(notification, source, subscriber ID) error {
	return c.broker.subscribe(notification, source, subscriber)
}

// NotificationUnsubscribe removes a subscription created with
// NotificationSubscribe.
func (c *Core) NotificationUnsubscribe(notification, source, subscriber ID) error {
	return c.broker.unsubscribe(notification, source, subscriber)
}

// NotificationNotify broadcasts event to every subscriber of
// (event.ID, event.Source) and stores the number of clones enqueued in
// sentCount. See the broker for the acknowledgement contract.
func (c *Core) NotificationNotify(event *Event, sentCount *int) error {
	return c.broker.notify(event, sentCount)
}
