package redis

import (
	"context"
	"encoding/json"

	"online-auction/internal/domain"

	"github.com/go-redis/redis/v8"
)

const bidEventsChannel = "auction_events"

// EventPublisher pushes committed bid events onto Redis pub/sub for
// downstream consumers (analytics, audit). Delivery here is best-effort
// and decoupled from the room's mutation path.
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, bidEventsChannel, payload).Err()
}
