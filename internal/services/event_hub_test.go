package services

import (
	"testing"
	"time"

	"quill/internal/acl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHubFanOut(t *testing.T) {
	hub := NewEventHub()
	a, cancelA := hub.Subscribe(4)
	b, cancelB := hub.Subscribe(4)
	defer cancelB()

	hub.Publish(Event{Type: EventCreated, Resource: acl.ResourceContent, ID: "c1", OwnerID: "u1"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, "c1", ev.ID)
			assert.False(t, ev.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
}

func TestEventHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewEventHub()
	ch, cancel := hub.Subscribe(1)
	defer cancel()

	hub.Publish(Event{Type: EventCreated, ID: "1"})
	hub.Publish(Event{Type: EventCreated, ID: "2"})

	ev := <-ch
	assert.Equal(t, "1", ev.ID)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %s", extra.ID)
	default:
	}
}

func TestEventHubClose(t *testing.T) {
	hub := NewEventHub()
	ch, _ := hub.Subscribe(1)
	hub.Close()

	_, open := <-ch
	assert.False(t, open)

	late, cancel := hub.Subscribe(1)
	cancel()
	_, open = <-late
	require.False(t, open)
}
