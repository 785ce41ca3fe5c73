package events

import (
	"log/slog"
	"sync"
)

const defaultSubscriberBuffer = 32

// Subscription is one consumer of a topic. C closes when the subscriber is
// cancelled or evicted for falling behind.
type Subscription struct {
	C     <-chan Event
	ch    chan Event
	topic string
	hub   *Hub
	once  sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.topic, s)
		close(s.ch)
	})
}

// Hub fans events out per topic in publish order. A subscriber that cannot
// keep up is evicted and its channel closed; events are never reordered or
// buffered beyond the per-subscriber channel, and there is no replay.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: defaultSubscriberBuffer,
	}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch, topic: topic, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Publish delivers evt to every current subscriber of its topic. Slow
// subscribers are dropped on the spot; delivery to the rest continues.
func (h *Hub) Publish(evt Event) {
	h.mu.RLock()
	var stale []*Subscription
	for sub := range h.topics[evt.Topic] {
		select {
		case sub.ch <- evt:
		default:
			stale = append(stale, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range stale {
		slog.Warn("dropping slow event subscriber", "topic", evt.Topic)
		sub.Close()
	}
}

func (h *Hub) remove(topic string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// SubscriberCount is used by tests and the health endpoint.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
