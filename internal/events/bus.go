package events

import (
	"sync"
	"time"
)

// Sink receives events. Implementations must not assume they are the only
// consumer and must tolerate being dropped when slow.
type Sink interface {
	Publish(event Event)
}

// NopSink discards everything. Producers can always publish, observed or not.
type NopSink struct{}

// Publish discards the event.
func (NopSink) Publish(Event) {}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish calls the function.
func (f SinkFunc) Publish(event Event) { f(event) }

// Bus fans events out to subscribers over buffered channels. Publishing never
// blocks: when a subscriber's buffer is full the event is dropped for that
// subscriber.
type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish stamps and delivers the event to every subscriber that has room.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Slow subscriber, drop rather than stall the producer.
		}
	}
}

// Emit is a convenience for publishing a typed payload.
func Emit(sink Sink, eventType string, data any) {
	if sink == nil {
		return
	}
	sink.Publish(Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}
