// Package delivery fans domain events out to external channels without
// blocking the request that produced them.
package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sbpremium/gifts-backend/pkg/enums"
)

// Event is the payload every channel receives.
type Event struct {
	ID         uuid.UUID           `json:"id"`
	Type       enums.DeliveryEvent `json:"type"`
	ActorID    string              `json:"actorId,omitempty"`
	TargetID   string              `json:"targetId,omitempty"`
	Code       string              `json:"code,omitempty"`
	Duration   enums.Duration      `json:"duration,omitempty"`
	Title      string              `json:"title,omitempty"`
	Message    string              `json:"message,omitempty"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// Notifier delivers an event over one channel.
type Notifier interface {
	Channel() enums.DeliveryChannel
	Notify(ctx context.Context, event Event) error
}

// Publisher is what domain services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Summary is a one-line human description used by the chat and email channels.
func (e Event) Summary() string {
	switch e.Type {
	case enums.DeliveryEventTrialSent:
		if e.TargetID == "" {
			return "A " + string(e.Duration) + " premium trial is now available to everyone."
		}
		return "A " + string(e.Duration) + " premium trial was sent to " + e.TargetID + "."
	case enums.DeliveryEventGiftClaimed:
		return e.ActorID + " claimed " + e.Title + "."
	case enums.DeliveryEventPremiumTransferred:
		return e.ActorID + " transferred a premium key to " + e.TargetID + "."
	case enums.DeliveryEventGlobalCleared:
		return "The site-wide gift was cleared."
	case enums.DeliveryEventAnnouncement:
		return e.Message
	}
	return string(e.Type)
}
