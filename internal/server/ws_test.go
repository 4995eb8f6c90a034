package server

import (
	"context"
	"testing"
	"time"

	"github.com/bjarke-xyz/ams-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWsBroker_FanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broker := NewWsBroker()
	go broker.Listen(ctx, testLogger())

	first := broker.Subscribe()
	second := broker.Subscribe()
	require.NotNil(t, first)
	require.NotNil(t, second)

	broker.Publish([]domain.Application{{ApplicationID: "a"}})

	for _, ch := range []chan []domain.Application{first, second} {
		select {
		case batch := <-ch:
			assert.Equal(t, "a", batch[0].ApplicationID)
		case <-time.After(time.Second):
			t.Fatal("batch not delivered")
		}
	}

	broker.Unsubscribe(first)
	broker.Publish([]domain.Application{{ApplicationID: "b"}})
	select {
	case batch := <-second:
		assert.Equal(t, "b", batch[0].ApplicationID)
	case <-time.After(time.Second):
		t.Fatal("batch not delivered")
	}
	assert.Empty(t, first)
	assert.Equal(t, 1, broker.ClientCount())
}

func TestWsBroker_SlowClientDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broker := NewWsBroker()
	go broker.Listen(ctx, testLogger())

	slow := broker.Subscribe()
	for i := 0; i < clientBufferSize*2; i++ {
		broker.Publish([]domain.Application{{ApplicationID: "x"}})
	}
	fast := broker.Subscribe()
	broker.Publish([]domain.Application{{ApplicationID: "y"}})

	deadline := time.After(time.Second)
	for done := false; !done; {
		select {
		case batch := <-fast:
			done = batch[0].ApplicationID == "y"
		case <-deadline:
			t.Fatal("broker stalled on slow client")
		}
	}
	assert.Len(t, slow, clientBufferSize)
}

func TestWsBroker_Stopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	broker := NewWsBroker()
	stopped := make(chan struct{})
	go func() {
		broker.Listen(ctx, testLogger())
		close(stopped)
	}()
	cancel()
	<-stopped

	assert.Nil(t, broker.Subscribe())
	assert.NotPanics(t, func() {
		broker.Publish(nil)
		broker.Unsubscribe(make(chan []domain.Application))
	})
}
