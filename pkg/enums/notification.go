package enums

import "fmt"

// NotificationType classifies feed entries.
type NotificationType string

const (
	NotificationTypeClaim        NotificationType = "claim"
	NotificationTypeAnnouncement NotificationType = "announcement"
	NotificationTypeTrial        NotificationType = "trial"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeClaim,
	NotificationTypeAnnouncement,
	NotificationTypeTrial,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
