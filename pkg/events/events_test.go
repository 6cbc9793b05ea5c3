package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub Subscriber) *Event {
	t.Helper()
	select {
	case e := <-sub:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventTypeResource(t *testing.T) {
	assert.Equal(t, "agent", EventAgentDeleted.Resource())
	assert.Equal(t, "settings", EventSettingsUpdated.Resource())
}

func TestPublishFillsIDAndTimestamp(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	b.Publish(&Event{Type: EventAgentCreated, ResourceID: "ag-1"})

	e := receive(t, sub)
	assert.Equal(t, EventAgentCreated, e.Type)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
}

func TestSubscribeFiltersByResource(t *testing.T) {
	b := NewBroker()
	b.Start()
	defer b.Stop()

	roles := b.Subscribe("role")
	all := b.Subscribe()

	b.Publish(&Event{Type: EventAgentUpdated})
	b.Publish(&Event{Type: EventRoleDeleted})

	assert.Equal(t, EventAgentUpdated, receive(t, all).Type)
	assert.Equal(t, EventRoleDeleted, receive(t, all).Type)
	assert.Equal(t, EventRoleDeleted, receive(t, roles).Type)

	select {
	case e := <-roles:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)
}

func TestPublishAfterStopDoesNotBlock(t *testing.T) {
	b := NewBroker()
	b.Stop()
	b.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			b.Publish(&Event{Type: EventUserUpdated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked after stop")
	}
}
