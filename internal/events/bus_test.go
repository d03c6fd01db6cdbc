package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribeOrder(t *testing.T) {
	b := NewBus(0)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		b.Publish(Event{Type: TypeAction, Summary: fmt.Sprintf("event %d", i)})
	}

	for i := 0; i < 5; i++ {
		e := <-sub.C
		assert.Equal(t, fmt.Sprintf("event %d", i), e.Summary)
	}
}

func TestHistoryRingCap(t *testing.T) {
	b := NewBus(3)
	for i := 0; i < 5; i++ {
		b.Publish(Event{Type: TypeAction, Summary: fmt.Sprintf("event %d", i)})
	}

	h := b.History(0)
	require.Len(t, h, 3)
	assert.Equal(t, "event 2", h[0].Summary)
	assert.Equal(t, "event 4", h[2].Summary)
}

func TestHistoryLimit(t *testing.T) {
	b := NewBus(10)
	for i := 0; i < 6; i++ {
		b.Publish(Event{Type: TypeTick, Summary: fmt.Sprintf("tick %d", i)})
	}

	h := b.History(2)
	require.Len(t, h, 2)
	assert.Equal(t, "tick 4", h[0].Summary)
	assert.Equal(t, "tick 5", h[1].Summary)

	assert.Len(t, b.History(100), 6)
}

func TestSlowSubscriberDrops(t *testing.T) {
	b := NewBus(0)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// Never read: queue fills at subQueueSize, extras are dropped.
	for i := 0; i < subQueueSize+10; i++ {
		b.Publish(Event{Type: TypeAction})
	}

	assert.Equal(t, uint64(10), b.Dropped())
	// History keeps everything regardless of subscriber backlog.
	assert.Len(t, b.History(0), subQueueSize+10)
}

func TestUnsubscribeClosesQueue(t *testing.T) {
	b := NewBus(0)
	sub := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.Subscribers())

	_, open := <-sub.C
	assert.False(t, open)

	// Double unsubscribe must not panic.
	b.Unsubscribe(sub)
}

func TestPublishWithNoSubscribers(t *testing.T) {
	b := NewBus(0)
	b.Publish(Event{Type: TypeSystem, Summary: "quiet village"})
	assert.Len(t, b.History(0), 1)
}

func TestParseType(t *testing.T) {
	typ, ok := ParseType("dialogue")
	require.True(t, ok)
	assert.Equal(t, TypeDialogue, typ)

	_, ok = ParseType("earthquake")
	assert.False(t, ok)
}
