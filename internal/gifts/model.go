package gifts

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sbpremium/gifts-backend/pkg/enums"
)

var userIDPattern = regexp.MustCompile(`^\d{16,20}$`)

// IsUserID reports whether id looks like a chat platform snowflake.
func IsUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// IsEveryone reports whether target addresses every user.
func IsEveryone(target string) bool {
	t := strings.TrimSpace(target)
	return strings.EqualFold(t, "all") || strings.EqualFold(t, "everyone")
}

// AccessCode is a code held by a user, or the synthesized view of the
// site-wide gift.
type AccessCode struct {
	Code       string          `json:"code"`
	Kind       enums.CodeKind  `json:"kind"`
	Scope      enums.GiftScope `json:"scope"`
	Title      string          `json:"title"`
	Duration   *enums.Duration `json:"duration"`
	IssuedAt   time.Time       `json:"issuedAt"`
	ExpiresAt  *time.Time      `json:"expiresAt"`
	Redeemed   bool            `json:"redeemed"`
	RedeemedBy *string         `json:"redeemedBy"`
	RedeemedAt *time.Time      `json:"redeemedAt"`
	SentBy     string          `json:"sentBy,omitempty"`
	GiftID     string          `json:"giftId,omitempty"`
}

// SiteWideGift is the single gift every user may claim once.
type SiteWideGift struct {
	ID           uuid.UUID      `json:"id"`
	Code         *string        `json:"code"`
	Duration     enums.Duration `json:"duration"`
	Title        string         `json:"title"`
	CreatedBy    string         `json:"createdBy"`
	CreatedAt    time.Time      `json:"createdAt"`
	ExpiresAt    *time.Time     `json:"expiresAt"`
	Active       bool           `json:"active"`
	ClaimedUsers []string       `json:"claimedUsers"`
}

// Claimable reports whether the gift can still be claimed at now.
func (g *SiteWideGift) Claimable(now time.Time) bool {
	if g == nil || !g.Active || g.Code == nil {
		return false
	}
	return g.ExpiresAt == nil || now.Before(*g.ExpiresAt)
}

// Matches reports whether ref names this gift by code or id.
func (g *SiteWideGift) Matches(ref string) bool {
	if g == nil || g.Code == nil {
		return false
	}
	return ref == *g.Code || ref == g.ID.String()
}

// HasClaimed reports whether userID already claimed the gift.
func (g *SiteWideGift) HasClaimed(userID string) bool {
	for _, id := range g.ClaimedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// View synthesizes the transient entry shown in a user's gift list.
func (g *SiteWideGift) View() AccessCode {
	d := g.Duration
	return AccessCode{
		Code:      *g.Code,
		Kind:      enums.CodeKindTrial,
		Scope:     enums.GiftScopeGlobal,
		Title:     g.Title,
		Duration:  &d,
		IssuedAt:  g.CreatedAt,
		ExpiresAt: g.ExpiresAt,
		SentBy:    g.CreatedBy,
		GiftID:    g.ID.String(),
	}
}
