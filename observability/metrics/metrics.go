package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"escrowkit/core/events"
)

// Emitter counts every engine event by type and forwards it to the wrapped
// emitter. Wrapping keeps the engines unaware of metrics entirely.
type Emitter struct {
	next   events.Emitter
	events *prometheus.CounterVec
}

// NewEmitter registers the event counter with the provided registerer and
// wraps next. A nil registerer uses the default registry; a nil next drops
// events after counting.
func NewEmitter(reg prometheus.Registerer, next events.Emitter) *Emitter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if next == nil {
		next = events.NoopEmitter{}
	}
	counter := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: "escrowkit",
		Subsystem: "engine",
		Name:      "events_total",
		Help:      "Engine lifecycle events by event type.",
	}, []string{"type"})
	return &Emitter{next: next, events: counter}
}

func (e *Emitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	e.events.WithLabelValues(evt.EventType()).Inc()
	e.next.Emit(evt)
}

// Handler exposes the default registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
