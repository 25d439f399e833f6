package scpfwk

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus instruments the dispatcher and broker
// update. Install with WithMetrics; without it the core only maintains the
// lightweight atomic counters served by the diagnostics handler.
type Metrics struct {
	eventsPosted      prometheus.Counter
	eventsDispatched  prometheus.Counter
	eventsDropped     prometheus.Counter
	isrPosted         prometheus.Counter
	notificationsSent prometheus.Counter

	poolAvailable  prometheus.Gauge
	isrDepth       prometheus.Gauge
	delayedPending prometheus.Gauge
	subscriptions  prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scpfwk", Subsystem: "core",
			Name: "events_posted_total", Help: "Events accepted by PutEvent.",
		}),
		eventsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scpfwk", Subsystem: "core",
			Name: "events_dispatched_total", Help: "Events delivered to handlers.",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scpfwk", Subsystem: "core",
			Name: "events_dropped_total", Help: "Events rejected or dropped for lack of resources.",
		}),
		isrPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scpfwk", Subsystem: "core",
			Name: "isr_events_total", Help: "Events accepted by PutEventFromISR.",
		}),
		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scpfwk", Subsystem: "core",
			Name: "notifications_sent_total", Help: "Notification clones enqueued to subscribers.",
		}),
		poolAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scpfwk", Subsystem: "core",
			Name: "event_pool_available", Help: "Free slots in the event pool.",
		}),
		isrDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scpfwk", Subsystem: "core",
			Name: "isr_queue_depth", Help: "Events waiting in the ISR ingress queue.",
		}),
		delayedPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scpfwk", Subsystem: "core",
			Name: "delayed_responses_pending", Help: "Delayed responses parked and not yet completed.",
		}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scpfwk", Subsystem: "core",
			Name: "notification_subscriptions", Help: "Active notification subscriptions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.eventsPosted, m.eventsDispatched, m.eventsDropped,
			m.isrPosted, m.notificationsSent,
			m.poolAvailable, m.isrDepth, m.delayedPending, m.subscriptions,
		)
	}
	return m
}
