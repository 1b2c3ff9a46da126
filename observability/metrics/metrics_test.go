package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"escrowkit/core/events"
)

func TestEmitterCountsAndForwards(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := events.NewCollector()
	emitter := NewEmitter(reg, collector)

	emitter.Emit(events.EscrowTransition{Type: events.TypeEscrowFunded})
	emitter.Emit(events.EscrowTransition{Type: events.TypeEscrowFunded})
	emitter.Emit(events.EscrowTransition{Type: events.TypeEscrowReleased})
	emitter.Emit(nil)

	if got := testutil.ToFloat64(emitter.events.WithLabelValues(events.TypeEscrowFunded)); got != 2 {
		t.Fatalf("funded count: %v", got)
	}
	if got := testutil.ToFloat64(emitter.events.WithLabelValues(events.TypeEscrowReleased)); got != 1 {
		t.Fatalf("released count: %v", got)
	}

	drained := collector.Drain()
	if len(drained) != 3 {
		t.Fatalf("forwarded events: %d", len(drained))
	}
}

func TestEmitterToleratesNilWiring(t *testing.T) {
	emitter := NewEmitter(prometheus.NewRegistry(), nil)
	// Counting without a downstream emitter must not panic.
	emitter.Emit(events.EscrowTransition{Type: events.TypeEscrowCreated})
	if got := testutil.ToFloat64(emitter.events.WithLabelValues(events.TypeEscrowCreated)); got != 1 {
		t.Fatalf("count with noop downstream: %v", got)
	}
}
