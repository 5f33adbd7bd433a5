package queue

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardDeliversUntilSourceCloses(t *testing.T) {
	in := make(chan amqp.Delivery, 2)
	merged := make(chan amqp.Delivery, 2)
	done := make(chan struct{})

	in <- amqp.Delivery{RoutingKey: CredentialChangedQueue}
	in <- amqp.Delivery{RoutingKey: ContactReceivedQueue}
	close(in)

	finished := make(chan struct{})
	go func() {
		forward(in, merged, done)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forward did not return after source closed")
	}
	assert.Equal(t, CredentialChangedQueue, (<-merged).RoutingKey)
	assert.Equal(t, ContactReceivedQueue, (<-merged).RoutingKey)
}

func TestForwardUnblocksOnDone(t *testing.T) {
	in := make(chan amqp.Delivery, 1)
	merged := make(chan amqp.Delivery) // unbuffered and never drained
	done := make(chan struct{})

	in <- amqp.Delivery{RoutingKey: CredentialRevealedQueue}

	finished := make(chan struct{})
	go func() {
		forward(in, merged, done)
		close(finished)
	}()

	// The forwarder is stuck on the merged send; closing done must free it.
	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forward leaked after done closed")
	}
	require.Len(t, merged, 0)
}
