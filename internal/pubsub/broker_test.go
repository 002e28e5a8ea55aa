package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_PublishDeliversToSubscriber(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx)
	b.Publish(AddedEvent, "pl-1")

	select {
	case ev := <-ch:
		require.Equal(t, AddedEvent, ev.Type, "event type should round-trip")
		require.Equal(t, "pl-1", ev.Payload, "payload should round-trip")
		require.False(t, ev.Timestamp.IsZero(), "timestamp should be set")
	case <-time.After(time.Second):
		t.Fatal("expected event, got none")
	}
}

func TestBroker_MultipleSubscribersEachReceive(t *testing.T) {
	b := NewBroker[int]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := b.Subscribe(ctx)
	ch2 := b.Subscribe(ctx)
	require.Equal(t, 2, b.SubscriberCount())

	b.Publish(ReorderedEvent, 42)

	for _, ch := range []<-chan Event[int]{ch1, ch2} {
		select {
		case ev := <-ch:
			require.Equal(t, 42, ev.Payload)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBroker_SubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	b := NewBroker[string]()
	b.Close()

	ch := b.Subscribe(context.Background())
	_, ok := <-ch
	require.False(t, ok, "channel from closed broker should be closed")
}

func TestBroker_CancelledContextRemovesSubscriber(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return b.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond, "cancelled subscriber should be removed")

	_, ok := <-ch
	require.False(t, ok, "subscriber channel should be closed after cancel")
}

func TestBroker_PublishAfterCloseIsNoOp(t *testing.T) {
	b := NewBroker[string]()
	b.Close()

	// Must not panic.
	b.Publish(RemovedEvent, "pl-1")
}

func TestBroker_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	b := NewBrokerWithBuffer[int](1)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = b.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		b.Publish(AddedEvent, 1)
		b.Publish(AddedEvent, 2) // buffer full - must not block
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full subscriber buffer")
	}
}
