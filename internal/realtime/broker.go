package realtime

import (
	"sync"
	"time"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this drops events rather than blocking the
// engine.
const subscriberBuffer = 64

// Broker is an in-memory publish/subscribe hub. It backs the dashboard SSE
// stream: the drain loop publishes into it and each connected client holds a
// subscription.
type Broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

// Publish implements Publisher. Delivery is non-blocking per subscriber.
func (b *Broker) Publish(eventType string, payload any) {
	evt := Event{Type: eventType, Payload: payload, At: time.Now()}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function removes
// the subscription and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
