package enums

// DeliveryEvent is the type of an outbound side-effect message.
type DeliveryEvent string

const (
	DeliveryEventTrialSent          DeliveryEvent = "trial_sent"
	DeliveryEventGiftClaimed        DeliveryEvent = "gift_claimed"
	DeliveryEventPremiumTransferred DeliveryEvent = "premium_transferred"
	DeliveryEventGlobalCleared      DeliveryEvent = "global_cleared"
	DeliveryEventAnnouncement       DeliveryEvent = "announcement"
)

// DeliveryChannel names an outbound transport.
type DeliveryChannel string

const (
	DeliveryChannelWebhook      DeliveryChannel = "webhook"
	DeliveryChannelCompanionBot DeliveryChannel = "companion_bot"
	DeliveryChannelEmail        DeliveryChannel = "email"
	DeliveryChannelPubSub       DeliveryChannel = "pubsub"
	DeliveryChannelAMQP         DeliveryChannel = "amqp"
)
