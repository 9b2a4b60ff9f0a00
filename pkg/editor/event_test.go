package editor_test

import (
	"testing"
	"time"

	"github.com/james2doyle/sublime-simpleai/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegion(t *testing.T) {
	assert.True(t, editor.Region{Begin: 3, End: 3}.Empty())
	assert.True(t, editor.Region{}.Empty())
	assert.False(t, editor.Region{Begin: 0, End: 4}.Empty())
	assert.Equal(t, 4, editor.Region{Begin: 2, End: 6}.Len())
	assert.Equal(t, 0, editor.Region{Begin: 6, End: 2}.Len())
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := editor.NewEventBus()
	sub := bus.Subscribe(4)
	defer bus.Unsubscribe(sub)

	e := editor.Event{
		Kind:      editor.EventViewClosed,
		ViewID:    "view-1",
		Timestamp: time.Now(),
	}
	bus.Publish(e)

	select {
	case got := <-sub.C:
		assert.Equal(t, editor.EventViewClosed, got.Kind)
		assert.Equal(t, "view-1", got.ViewID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := editor.NewEventBus()
	sub := bus.Subscribe(1)
	defer bus.Unsubscribe(sub)

	bus.Publish(editor.Event{Kind: editor.EventSelectionModified, ViewID: "a"})
	bus.Publish(editor.Event{Kind: editor.EventSelectionModified, ViewID: "b"})

	got := <-sub.C
	assert.Equal(t, "a", got.ViewID)

	select {
	case e := <-sub.C:
		t.Fatalf("expected second event to be dropped, got %v", e)
	default:
	}
}

func TestEventBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := editor.NewEventBus()
	sub := bus.Subscribe(1)
	bus.Unsubscribe(sub)

	_, open := <-sub.C
	require.False(t, open)

	// Double unsubscribe must not panic.
	bus.Unsubscribe(sub)
}
