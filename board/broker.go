package board

import (
	"sync"

	"zainzo-board/domain"
)

// Broker fans board events out to stream subscribers. Slow subscribers drop
// events rather than block the store; the stream layer re-reads the full
// snapshot on every wake so a dropped event only delays, never loses, state.
type Broker struct {
	mu   sync.Mutex
	subs map[chan domain.Event]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan domain.Event]struct{})}
}

// Subscribe registers a new event channel.
func (b *Broker) Subscribe() chan domain.Event {
	ch := make(chan domain.Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a previously registered channel.
func (b *Broker) Unsubscribe(ch chan domain.Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber without blocking.
func (b *Broker) Publish(ev domain.Event) {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()
}
