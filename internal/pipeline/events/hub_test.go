//go:build unit

package events_test

import (
	"testing"
	"time"

	"classcribe/internal/pipeline/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishN(hub *events.Hub, topic string, n int) []events.Event {
	out := make([]events.Event, 0, n)
	for i := 0; i < n; i++ {
		evt := events.Event{
			ID:      uuid.New(),
			Topic:   topic,
			Kind:    "status_changed",
			Payload: map[string]any{"seq": i},
			At:      time.Now(),
		}
		hub.Publish(evt)
		out = append(out, evt)
	}
	return out
}

func drain(t *testing.T, sub *events.Subscription, n int) []events.Event {
	t.Helper()
	got := make([]events.Event, 0, n)
	for len(got) < n {
		select {
		case evt, ok := <-sub.C:
			require.True(t, ok, "subscription closed early")
			got = append(got, evt)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d events", len(got))
		}
	}
	return got
}

func TestHubFanout(t *testing.T) {
	t.Run("全購読者が同一順序で受信する", func(t *testing.T) {
		hub := events.NewHub()
		topic := events.LessonTopic(uuid.New())

		sub1 := hub.Subscribe(topic)
		defer sub1.Close()
		sub2 := hub.Subscribe(topic)
		defer sub2.Close()

		published := publishN(hub, topic, 10)

		got1 := drain(t, sub1, 10)
		got2 := drain(t, sub2, 10)
		for i := range published {
			assert.Equal(t, published[i].ID, got1[i].ID)
			assert.Equal(t, published[i].ID, got2[i].ID)
		}
	})

	t.Run("トピックを跨いだ配信はない", func(t *testing.T) {
		hub := events.NewHub()
		lessonSub := hub.Subscribe(events.LessonTopic(uuid.New()))
		defer lessonSub.Close()

		publishN(hub, events.UserTopic(uuid.New()), 3)

		select {
		case evt := <-lessonSub.C:
			t.Fatalf("unexpected event %s", evt.ID)
		case <-time.After(20 * time.Millisecond):
		}
	})

	t.Run("購読解除後は受信しない", func(t *testing.T) {
		hub := events.NewHub()
		topic := events.UserTopic(uuid.New())

		sub := hub.Subscribe(topic)
		assert.Equal(t, 1, hub.SubscriberCount(topic))
		sub.Close()
		assert.Equal(t, 0, hub.SubscriberCount(topic))

		// Closeは冪等
		sub.Close()

		publishN(hub, topic, 1)
		_, ok := <-sub.C
		assert.False(t, ok)
	})
}

func TestSlowSubscriberEviction(t *testing.T) {
	hub := events.NewHub()
	topic := events.LessonTopic(uuid.New())

	slow := hub.Subscribe(topic)
	fast := hub.Subscribe(topic)
	defer fast.Close()

	// fast は消費を続け、slow は一切読まない
	fastGot := make(chan []events.Event, 1)
	go func() {
		var got []events.Event
		for evt := range fast.C {
			got = append(got, evt)
			if len(got) == 40 {
				break
			}
		}
		fastGot <- got
	}()

	// バッファ(32)を超えて滞留させると slow は切断され、fast は影響を受けない
	published := publishN(hub, topic, 40)

	waitDeadline := time.After(2 * time.Second)
	for hub.SubscriberCount(topic) != 1 {
		select {
		case <-waitDeadline:
			t.Fatal("slow subscriber was not evicted")
		case <-time.After(2 * time.Millisecond):
		}
	}

	// 切断された購読者のチャネルは排出後にcloseされている
	received := 0
	for range slow.C {
		received++
	}
	assert.Equal(t, 32, received)

	select {
	case got := <-fastGot:
		require.Len(t, got, len(published))
		for i := range published {
			assert.Equal(t, published[i].ID, got[i].ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fast subscriber did not receive all events")
	}
}
