package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Broadcaster is the optional cross-instance leg of publishing. Nil means
// in-process only.
type Broadcaster interface {
	Broadcast(ctx context.Context, evt Event) error
}

// Publisher is the single write path into the event system: sanitize, local
// fanout, then best-effort cross-instance broadcast. Publish failures never
// propagate to callers; an event that cannot serialize is logged and dropped.
type Publisher struct {
	hub *Hub
	bus Broadcaster
}

func NewPublisher(hub *Hub, bus Broadcaster) *Publisher {
	return &Publisher{hub: hub, bus: bus}
}

func (p *Publisher) PublishLessonEvent(ctx context.Context, userID, lessonID uuid.UUID, kind string, payload map[string]any) {
	p.publish(ctx, LessonTopic(lessonID), kind, payload)
	p.publish(ctx, UserTopic(userID), kind, mergedLessonRef(payload, lessonID))
}

func (p *Publisher) PublishUserEvent(ctx context.Context, userID uuid.UUID, kind string, payload map[string]any) {
	p.publish(ctx, UserTopic(userID), kind, payload)
}

func (p *Publisher) publish(ctx context.Context, topic, kind string, payload map[string]any) {
	clean, err := SanitizePayload(payload)
	if err != nil {
		slog.Error("dropping unserializable event", "topic", topic, "kind", kind, "error", err.Error())
		return
	}

	evt := Event{
		ID:      uuid.New(),
		Topic:   topic,
		Kind:    kind,
		Payload: clean,
		At:      time.Now(),
	}

	p.hub.Publish(evt)

	if p.bus != nil {
		if err := p.bus.Broadcast(ctx, evt); err != nil {
			slog.Warn("failed to broadcast event", "topic", topic, "kind", kind, "error", err.Error())
		}
	}
}

func mergedLessonRef(payload map[string]any, lessonID uuid.UUID) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["lesson_id"] = lessonID.String()
	return out
}
