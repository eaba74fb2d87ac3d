package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	first := bus.Subscribe(4)
	second := bus.Subscribe(4)

	bus.Publish(Event{Type: CurationStarted})

	select {
	case event := <-first:
		assert.Equal(t, CurationStarted, event.Type)
		assert.False(t, event.Timestamp.IsZero(), "publish must stamp untimed events")
	case <-time.After(time.Second):
		t.Fatal("first subscriber never received the event")
	}

	select {
	case event := <-second:
		assert.Equal(t, CurationStarted, event.Type)
	case <-time.After(time.Second):
		t.Fatal("second subscriber never received the event")
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Publish(Event{Type: CurationProgress})
		bus.Publish(Event{Type: CurationCompleted})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	event := <-ch
	assert.Equal(t, CurationProgress, event.Type)

	select {
	case extra := <-ch:
		t.Fatalf("overflow event %q should have been dropped", extra.Type)
	default:
	}
}

func TestEmitWrapsPayload(t *testing.T) {
	var got Event
	sink := SinkFunc(func(event Event) { got = event })

	Emit(sink, CurationError, ScanErrorEvent{Account: "alice", Reason: "boom"})

	require.Equal(t, CurationError, got.Type)
	payload, ok := got.Data.(ScanErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "alice", payload.Account)
}

func TestEmitNilSinkIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(nil, CurationStarted, nil)
	})
}
