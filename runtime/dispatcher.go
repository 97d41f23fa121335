package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"text-hub/contract"
	"text-hub/domain/event"
)

// Dispatcher fans broadcast events out to the current subscribers of a
// group.
//
// Delivery is best-effort and at-most-once: each member of the snapshot
// gets one attempt under a bounded timeout, a slow or dead member never
// delays or fails the others, and no failure ever reaches the caller.
// Broadcast returns once every attempt has finished, which is what lets
// a caller serialize same-group broadcasts in persist order.
//
// Dispatcher is safe for concurrent use by multiple goroutines.
type Dispatcher struct {
	log             *slog.Logger
	registry        contract.IRegistry
	deliveryTimeout time.Duration
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry, deliveryTimeout time.Duration) *Dispatcher {
	return &Dispatcher{log: log, registry: registry, deliveryTimeout: deliveryTimeout}
}

// Broadcast delivers e to every sink subscribed to its group at call
// time. A group with zero subscribers is a normal no-op.
//
// Delivery is detached from the caller's cancellation: once a mutation
// is persisted, the originating client going away must not cancel
// delivery to the other members. Only the per-member timeout bounds an
// attempt.
func (d *Dispatcher) Broadcast(ctx context.Context, e event.BroadcastEvent) {
	sinks := d.registry.SinksFor(e.GroupID())
	if len(sinks) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(sink contract.EventSink) {
			defer wg.Done()
			deliveryCtx, cancel := context.WithTimeout(detached, d.deliveryTimeout)
			defer cancel()
			if err := sink.Consume(deliveryCtx, e); err != nil {
				// Observability only: a lost member never fails the broadcast
				d.log.Warn("event delivery failed",
					"connection_id", sink.ID(),
					"group_id", e.GroupID(),
					"event", e.Name(),
					"error", err)
			}
		}(sink)
	}
	wg.Wait()
}
