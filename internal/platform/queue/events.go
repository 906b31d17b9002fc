package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"quizleague/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// Event is the payload fanned out to realtime subscribers. Delivery is
// at-most-once; per-topic arrival order is the only ordering guarantee.
type Event struct {
	Type    string          `json:"type"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type EventBus struct {
	rdb *redis.Client
}

func NewEventBus(rdb *redis.Client) *EventBus {
	return &EventBus{rdb: rdb}
}

func channelFor(topic string) string {
	return config.AppConfig.EventChannelPrefix + ":" + topic
}

// Publish sends an event to a topic. Fire-and-forget: a publish with no
// subscribers is not an error.
func (b *EventBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("EventBus.Publish marshal: %w", err)
	}
	if err := b.rdb.Publish(ctx, channelFor(topic), data).Err(); err != nil {
		return fmt.Errorf("EventBus.Publish: %w", err)
	}
	return nil
}

// Subscribe registers a handler for a topic and returns an unsubscribe
// function. The handler runs on a dedicated goroutine; events that fail to
// decode are dropped.
func (b *EventBus) Subscribe(ctx context.Context, topic string, handler func(Event)) (func(), error) {
	sub := b.rdb.Subscribe(ctx, channelFor(topic))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("EventBus.Subscribe: %w", err)
	}

	ch := sub.Channel()
	go func() {
		for msg := range ch {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			handler(event)
		}
	}()

	return func() { sub.Close() }, nil
}
