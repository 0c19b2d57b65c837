package events

import (
	"sync"

	"github.com/oshokin/irrigation/internal/telemetry"
)

// DefaultSubscriberBuffer is the channel capacity given to each subscriber.
const DefaultSubscriberBuffer = 64

// Subscriber receives events.
type Subscriber chan Event

// Bus is an in-process publish/subscribe hub.
type Bus struct {
	mu   sync.RWMutex
	subs []Subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return new(Bus)
}

// Subscribe registers a subscriber for every event type.
func (b *Bus) Subscribe() Subscriber {
	ch := make(Subscriber, DefaultSubscriberBuffer)

	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	return ch
}

// Publish delivers e to every subscriber that has room for it.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub <- e:
		default:
			telemetry.EventsDroppedTotal.Inc()
		}
	}
}

// Unsubscribe removes and closes the subscriber.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, candidate := range b.subs {
		if candidate == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub)

			return
		}
	}
}
