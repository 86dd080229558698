package bus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinkerloft/frontdesk/internal/bus"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	b := bus.New()
	sub1 := b.Subscribe()
	defer sub1.Close()
	sub2 := b.Subscribe()
	defer sub2.Close()

	b.Publish(bus.Event{Type: bus.EventNewHelpRequest, RequestID: "req-1", Question: "q"})

	for _, sub := range []*bus.Subscriber{sub1, sub2} {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, bus.EventNewHelpRequest, ev.Type)
			assert.Equal(t, "req-1", ev.RequestID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBus_LateSubscriberMissesEarlierEvents(t *testing.T) {
	b := bus.New()
	b.Publish(bus.Event{Type: bus.EventRequestResolved, RequestID: "req-1"})

	sub := b.Subscribe()
	defer sub.Close()

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected replayed event: %+v", ev)
	default:
	}
}

func TestBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := bus.New()
	sub := b.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		// Publish far more events than the subscriber buffer holds without
		// draining; Publish must never block.
		for i := 0; i < 1000; i++ {
			b.Publish(bus.Event{Type: bus.EventRequestResolved, RequestID: "req"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBus_CloseUnregisters(t *testing.T) {
	b := bus.New()
	sub := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())

	sub.Close()
	sub.Close() // idempotent
	assert.Equal(t, 0, b.Subscribers())

	_, open := <-sub.Events()
	assert.False(t, open)

	// Publishing after close must not panic.
	b.Publish(bus.Event{Type: bus.EventRequestResolved})
}
