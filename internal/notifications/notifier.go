// Package notifications publishes engagement events into Redis channels.
// Delivery to clients is out of scope here; downstream consumers subscribe to
// the channels and fan out however they like.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types published by the engagement layer.
const (
	EventLikeCreated   = "like.created"
	EventCheerCreated  = "cheer.created"
	EventEntryAchieved = "entry.achieved"
)

// Event is the wire payload for one engagement event.
type Event struct {
	Type       string    `json:"type"`
	ActorID    uint      `json:"actor_id"`
	TargetID   uint      `json:"target_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier provides helpers to publish events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier using the provided Redis client. A nil
// client makes every publish a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishEvent sends an event to the recipient user's channel.
func (n *Notifier) PublishEvent(ctx context.Context, recipientID uint, ev Event) error {
	if n.rdb == nil {
		return nil
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	channel := fmt.Sprintf("notifications:user:%d", recipientID)
	return n.rdb.Publish(ctx, channel, string(payload)).Err()
}

// PublishBroadcast sends a payload to all subscribers.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, "notifications:broadcast", payload).Err()
}

// StartPatternSubscriber subscribes to `notifications:user:*` and the
// broadcast channel, calling onMessage for each incoming message.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*", "notifications:broadcast")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
