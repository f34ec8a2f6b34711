// Package notifications publishes per-user realtime events into Redis channels.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"qipu/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types published to user channels.
const (
	EventContactRequestReceived = "contact_request_received"
	EventContactRequestAnswered = "contact_request_answered"
	EventAttendeeInvited        = "attendee_invited"
	EventAttendeeAnswered       = "attendee_answered"
)

// Event is the envelope written to a user channel.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(
	ctx context.Context, userID uint, payload string,
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishUserEvent wraps payload in an Event and publishes it to userID.
func (n *Notifier) PublishUserEvent(ctx context.Context, userID uint, eventType string, payload any) error {
	raw, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	if err := n.PublishUser(ctx, userID, string(raw)); err != nil {
		return err
	}
	observability.EventsPublished.WithLabelValues(eventType).Inc()
	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
