package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"classcribe/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// envelope carries the originating instance id so a node never re-delivers
// its own events when they come back off the wire.
type envelope struct {
	Instance string `json:"instance"`
	Event    Event  `json:"event"`
}

// RedisBus mirrors hub events across instances through a single pub/sub
// channel. Without Redis the hub alone serves single-instance deployments.
type RedisBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	hub        *Hub
}

func NewRedisBus(client *redis.Client, channel string, hub *Hub) *RedisBus {
	return &RedisBus{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		hub:        hub,
	}
}

// Broadcast publishes to the shared channel. Local delivery happens through
// the hub separately; remote nodes pick the event up in Run.
func (b *RedisBus) Broadcast(ctx context.Context, evt Event) error {
	raw, err := json.Marshal(envelope{Instance: b.instanceID, Event: evt})
	if err != nil {
		return errs.Wrap(err, "failed to encode event envelope")
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		return errs.Wrap(err, "failed to publish event to redis")
	}
	return nil
}

// Run forwards remote events into the local hub until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			slog.Warn("failed to close redis subscription", "error", err.Error())
		}
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.Warn("dropping undecodable bus event", "error", err.Error())
				continue
			}
			if env.Instance == b.instanceID {
				continue
			}
			b.hub.Publish(env.Event)
		}
	}
}
