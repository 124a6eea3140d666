package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sbpremium/gifts-backend/pkg/enums"
)

// TopicPublisher is satisfied by pkg/pubsub.Client.
type TopicPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// PubSubNotifier publishes events as JSON to the gift events topic.
type PubSubNotifier struct {
	topic TopicPublisher
}

func NewPubSubNotifier(topic TopicPublisher) *PubSubNotifier {
	if topic == nil {
		return nil
	}
	return &PubSubNotifier{topic: topic}
}

func (p *PubSubNotifier) Channel() enums.DeliveryChannel {
	return enums.DeliveryChannelPubSub
}

func (p *PubSubNotifier) Notify(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = p.topic.Publish(ctx, data, map[string]string{
		"event_id":   event.ID.String(),
		"event_type": string(event.Type),
	})
	return err
}
