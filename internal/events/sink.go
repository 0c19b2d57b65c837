package events

import (
	"context"

	"github.com/oshokin/irrigation/internal/logger"
	"github.com/oshokin/irrigation/internal/telemetry"
)

// Sink delivers events to an external system.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string
	// Send delivers one event.
	Send(ctx context.Context, e Event) error
	// Close releases the connection.
	Close() error
}

// Forward sends every event received on sub to sink until ctx is done or sub is closed.
// Delivery failures are logged and counted; they never stop the loop.
func Forward(ctx context.Context, sub Subscriber, sink Sink) {
	ctx = logger.WithKV(ctx, "sink", sink.Name())

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}

			if err := sink.Send(ctx, e); err != nil {
				logger.WarnKV(ctx, "Failed to forward event", "event_id", e.ID, "type", e.Type, "error", err)
				telemetry.EventsForwardedTotal.WithLabelValues(sink.Name(), "error").Inc()

				continue
			}

			telemetry.EventsForwardedTotal.WithLabelValues(sink.Name(), "ok").Inc()
		}
	}
}
