package scpfwk

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// diagModule is the per-module view served by the diagnostics handler.
type diagModule struct {
	Name     string   `json:"name"`
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	State    string   `json:"state"`
	Elements []string `json:"elements,omitempty"`
}

// diagCounters is the queue and counter view served by the diagnostics
// handler. All values come from the atomic mirrors, so serving the handler
// from any goroutine is safe while the loop runs.
type diagCounters struct {
	EventsPosted      uint64 `json:"eventsPosted"`
	EventsDispatched  uint64 `json:"eventsDispatched"`
	EventsDropped     uint64 `json:"eventsDropped"`
	ISREventsPosted   uint64 `json:"isrEventsPosted"`
	ResponsesSent     uint64 `json:"responsesSent"`
	NotificationsSent uint64 `json:"notificationsSent"`
	PoolCapacity      int    `json:"poolCapacity"`
	PoolAvailable     int64  `json:"poolAvailable"`
	ISRQueueDepth     int64  `json:"isrQueueDepth"`
	DelayedPending    int64  `json:"delayedPending"`
	Subscriptions     int64  `json:"subscriptions"`
}

// DiagHandler returns a read-only HTTP handler exposing module states and
// dispatcher counters as JSON. The core itself never opens a listener;
// serving the handler (and deciding who may reach it) is the embedder's
// business.
func (c *Core) DiagHandler() http.Handler {
	r := chi.NewRouter()

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{
			"modules":  len(c.modules),
			"counters": c.counters(),
		})
	})

	r.Get("/modules", func(w http.ResponseWriter, req *http.Request) {
		out := make([]diagModule, 0, len(c.modules))
		for _, mc := range c.modules {
			dm := diagModule{
				Name:  mc.entry.Module.Name(),
				ID:    mc.id.String(),
				Kind:  mc.entry.Kind.String(),
				State: mc.state.String(),
			}
			for e := range mc.elements {
				dm.Elements = append(dm.Elements, mc.elements[e].entry.Name)
			}
			out = append(out, dm)
		}
		writeJSON(w, out)
	})

	r.Get("/queues", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, c.counters())
	})

	r.Get("/observers", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, c.GetObservers())
	})

	return r
}

func (c *Core) counters() diagCounters {
	return diagCounters{
		EventsPosted:      c.stats.posted.Load(),
		EventsDispatched:  c.stats.dispatched.Load(),
		EventsDropped:     c.stats.dropped.Load(),
		ISREventsPosted:   c.stats.isrPosted.Load(),
		ResponsesSent:     c.stats.responses.Load(),
		NotificationsSent: c.stats.notificationsSent.Load(),
		PoolCapacity:      c.pool.capacity(),
		PoolAvailable:     c.stats.poolAvailable.Load(),
		ISRQueueDepth:     c.stats.isrDepth.Load(),
		DelayedPending:    c.stats.delayedPending.Load(),
		Subscriptions:     c.stats.subscriptions.Load(),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
