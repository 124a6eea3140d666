package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/sbpremium/gifts-backend/pkg/enums"
)

// DeveloperAction is one entry of the admin audit trail.
type DeveloperAction struct {
	ID          uuid.UUID             `json:"id"`
	Action      enums.DeveloperAction `json:"action"`
	InitiatedBy string                `json:"initiatedBy"`
	TargetID    string                `json:"targetId,omitempty"`
	Message     string                `json:"message,omitempty"`
	Duration    enums.Duration        `json:"duration,omitempty"`
	Timestamp   time.Time             `json:"timestamp"`
}

// Entry is what callers hand to Record; id and timestamp are assigned there.
type Entry struct {
	Action      enums.DeveloperAction
	InitiatedBy string
	TargetID    string
	Message     string
	Duration    enums.Duration
}
