// Package gifts tracks personal and site-wide gifts and their redemption.
package gifts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sbpremium/gifts-backend/internal/admin"
	"github.com/sbpremium/gifts-backend/internal/audit"
	"github.com/sbpremium/gifts-backend/internal/delivery"
	"github.com/sbpremium/gifts-backend/internal/keys"
	"github.com/sbpremium/gifts-backend/internal/notifications"
	"github.com/sbpremium/gifts-backend/pkg/enums"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
	"github.com/sbpremium/gifts-backend/pkg/metrics"
)

// Service defines the gift operations.
type Service interface {
	SendTrial(ctx context.Context, caller admin.Principal, targetID string, duration enums.Duration) (*AccessCode, error)
	Transfer(ctx context.Context, giverID, recipientID, code string) error
	ListUnredeemed(ctx context.Context, userID string) ([]AccessCode, error)
	ListVisible(ctx context.Context, userID string) ([]AccessCode, error)
	Redeem(ctx context.Context, userID, code string) (*AccessCode, error)
	ClearGlobal(ctx context.Context, caller admin.Principal) error
}

// Deps groups the collaborators of the service.
type Deps struct {
	Repo      Repository
	Issuer    *keys.Issuer
	Gate      admin.Gate
	Feed      notifications.Appender
	Audit     audit.Recorder
	Publisher delivery.Publisher
	Metrics   *metrics.Domain
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	issuer    *keys.Issuer
	gate      admin.Gate
	feed      notifications.Appender
	audit     audit.Recorder
	publisher delivery.Publisher
	metrics   *metrics.Domain
	logg      *logger.Logger
}

var (
	errGiftNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "gift not found")
	errAlreadyClaim  = pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "already claimed")
	errCodeRedeemed  = pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "code already redeemed")
	errDuplicateCode = pkgerrors.New(pkgerrors.CodeConflict, "recipient already holds this code")
)

// NewService wires gift dependencies.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gifts repository required")
	}
	if deps.Issuer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "key issuer required")
	}
	if deps.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admin gate required")
	}
	if deps.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if deps.Publisher == nil {
		deps.Publisher = delivery.Nop{}
	}
	return &service{
		repo:      deps.Repo,
		issuer:    deps.Issuer,
		gate:      deps.Gate,
		feed:      deps.Feed,
		audit:     deps.Audit,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
	}, nil
}

func (s *service) SendTrial(ctx context.Context, caller admin.Principal, targetID string, duration enums.Duration) (*AccessCode, error) {
	if err := s.gate.Authorize(ctx, caller); err != nil {
		s.metrics.IncAdminDenied(string(enums.DeveloperActionSendTrial))
		return nil, err
	}
	if !duration.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid duration").WithDetails(map[string]any{"allowed": enums.Durations()})
	}

	targetID = strings.TrimSpace(targetID)
	everyone := IsEveryone(targetID)
	if !everyone && !IsUserID(targetID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target must be a user id or \"all\"")
	}

	title := keys.TrialTitle(duration)
	var (
		code    AccessCode
		message string
	)
	if everyone {
		issued := s.issuer.Trial(duration)
		code = accessCodeFrom(issued, title, caller.ID)
		gift := &SiteWideGift{
			ID:           uuid.New(),
			Code:         &issued.Code,
			Duration:     duration,
			Title:        code.Title,
			CreatedBy:    caller.ID,
			CreatedAt:    issued.IssuedAt,
			ExpiresAt:    issued.ExpiresAt,
			Active:       true,
			ClaimedUsers: []string{},
		}
		if err := s.repo.UpdateSiteWide(ctx, func(*SiteWideGift) (*SiteWideGift, error) {
			return gift, nil
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "save site-wide gift")
		}
		code.Scope = enums.GiftScopeGlobal
		code.GiftID = gift.ID.String()
		message = fmt.Sprintf("A free %s premium trial is now available to everyone. Claim it from your gifts!", duration)
	} else {
		siteCode := s.activeSiteWideCode(ctx)
		if err := s.repo.UpdateUserCodes(ctx, targetID, func(codes []AccessCode) ([]AccessCode, error) {
			issued := s.issuer.TrialExcept(duration, func(c string) bool {
				return c == siteCode || holdsCode(codes, c)
			})
			code = accessCodeFrom(issued, title, caller.ID)
			kept := codes[:0]
			for _, c := range codes {
				if isPendingTrial(c, duration) {
					continue
				}
				kept = append(kept, c)
			}
			return append(kept, code), nil
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "save personal gift")
		}
		message = fmt.Sprintf("%s received a free %s premium trial.", targetID, duration)
	}

	s.metrics.IncCodeIssued(string(enums.CodeKindTrial))
	s.notify(ctx, notifications.Entry{
		Type:    enums.NotificationTypeTrial,
		Title:   code.Title,
		Message: message,
		Author:  caller.ID,
	})
	s.record(ctx, audit.Entry{
		Action:      enums.DeveloperActionSendTrial,
		InitiatedBy: caller.ID,
		TargetID:    targetID,
		Duration:    duration,
	})
	event := delivery.Event{
		Type:     enums.DeliveryEventTrialSent,
		ActorID:  caller.ID,
		Code:     code.Code,
		Duration: duration,
		Title:    code.Title,
	}
	if !everyone {
		event.TargetID = targetID
	}
	s.publisher.Publish(ctx, event)
	return &code, nil
}

func (s *service) Transfer(ctx context.Context, giverID, recipientID, code string) error {
	giverID = strings.TrimSpace(giverID)
	recipientID = strings.TrimSpace(recipientID)
	code = strings.TrimSpace(code)

	if giverID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "giver id is required")
	}
	if !IsUserID(recipientID) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid recipient id")
	}
	if giverID == recipientID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot transfer a code to yourself")
	}
	if !keys.IsPremiumCode(code) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid premium code format")
	}

	now := s.issuer.Now()
	err := s.repo.UpdateUserCodes(ctx, recipientID, func(codes []AccessCode) ([]AccessCode, error) {
		for _, c := range codes {
			if c.Code == code {
				return nil, errDuplicateCode
			}
		}
		return append(codes, AccessCode{
			Code:     code,
			Kind:     enums.CodeKindPremium,
			Scope:    enums.GiftScopePersonal,
			Title:    keys.PremiumTitle,
			IssuedAt: now,
			SentBy:   giverID,
		}), nil
	})
	if errors.Is(err, errDuplicateCode) {
		return errDuplicateCode
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "save transferred code")
	}

	s.record(ctx, audit.Entry{
		Action:      enums.DeveloperActionTransferPremium,
		InitiatedBy: giverID,
		TargetID:    recipientID,
	})
	s.publisher.Publish(ctx, delivery.Event{
		Type:     enums.DeliveryEventPremiumTransferred,
		ActorID:  giverID,
		TargetID: recipientID,
		Code:     code,
		Title:    keys.PremiumTitle,
	})
	return nil
}

func (s *service) ListUnredeemed(ctx context.Context, userID string) ([]AccessCode, error) {
	userID = strings.TrimSpace(userID)
	if !IsUserID(userID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id")
	}

	out := s.siteWideView(ctx, userID)

	codes, err := s.repo.UserCodes(ctx, userID)
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID), "gifts.read_failed", err)
		return out, nil
	}
	for _, c := range codes {
		if !c.Redeemed {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListVisible is the anonymous variant: without a user id only the
// site-wide gift is shown.
func (s *service) ListVisible(ctx context.Context, userID string) ([]AccessCode, error) {
	if strings.TrimSpace(userID) == "" {
		return s.siteWideView(ctx, ""), nil
	}
	return s.ListUnredeemed(ctx, userID)
}

func (s *service) siteWideView(ctx context.Context, userID string) []AccessCode {
	out := []AccessCode{}
	gift, err := s.repo.SiteWide(ctx)
	if err != nil {
		s.logg.Error(ctx, "gifts.site_wide_read_failed", err)
		return out
	}
	if !gift.Claimable(s.issuer.Now()) {
		return out
	}
	if userID != "" && gift.HasClaimed(userID) {
		return out
	}
	return append(out, gift.View())
}

func (s *service) Redeem(ctx context.Context, userID, code string) (*AccessCode, error) {
	userID = strings.TrimSpace(userID)
	code = strings.TrimSpace(code)
	if !IsUserID(userID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	redeemed, sawRedeemed, err := s.redeemPersonal(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	scope := enums.GiftScopePersonal
	if redeemed == nil {
		scope = enums.GiftScopeGlobal
		if redeemed, err = s.redeemSiteWide(ctx, userID, code); err != nil {
			return nil, err
		}
	}
	if redeemed == nil {
		if sawRedeemed {
			s.metrics.IncRedemption(string(enums.GiftScopePersonal), "already_redeemed")
			return nil, errCodeRedeemed
		}
		s.metrics.IncRedemption(string(enums.GiftScopePersonal), "not_found")
		return nil, errGiftNotFound
	}

	s.metrics.IncRedemption(string(scope), "ok")
	s.notify(ctx, notifications.Entry{
		Type:    enums.NotificationTypeClaim,
		Title:   "Gift Claimed",
		Message: fmt.Sprintf("%s claimed %s.", userID, redeemed.Title),
		Author:  userID,
	})
	event := delivery.Event{
		Type:    enums.DeliveryEventGiftClaimed,
		ActorID: userID,
		Code:    redeemed.Code,
		Title:   redeemed.Title,
	}
	if redeemed.Duration != nil {
		event.Duration = *redeemed.Duration
	}
	s.publisher.Publish(ctx, event)
	return redeemed, nil
}

// redeemSiteWide returns (nil, nil) when code does not name the active
// site-wide gift.
func (s *service) redeemSiteWide(ctx context.Context, userID, code string) (*AccessCode, error) {
	now := s.issuer.Now()
	var claimed *SiteWideGift
	err := s.repo.UpdateSiteWide(ctx, func(gift *SiteWideGift) (*SiteWideGift, error) {
		if !gift.Claimable(now) || !gift.Matches(code) {
			return nil, nil
		}
		if gift.HasClaimed(userID) {
			return nil, errAlreadyClaim
		}
		gift.ClaimedUsers = append(gift.ClaimedUsers, userID)
		snapshot := *gift
		claimed = &snapshot
		return gift, nil
	})
	if errors.Is(err, errAlreadyClaim) {
		s.metrics.IncRedemption(string(enums.GiftScopeGlobal), "already_claimed")
		return nil, errAlreadyClaim
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "claim site-wide gift")
	}
	if claimed == nil {
		return nil, nil
	}

	issued := s.issuer.Premium(claimed.Duration)
	minted := accessCodeFrom(issued, claimed.Title, claimed.CreatedBy)
	minted.Scope = enums.GiftScopeGlobal
	minted.GiftID = claimed.ID.String()
	markRedeemed(&minted, userID, issued.IssuedAt)
	s.metrics.IncCodeIssued(string(enums.CodeKindPremium))
	return &minted, nil
}

// redeemPersonal flips the first unredeemed entry holding code. It returns
// (nil, sawRedeemed, nil) when there is none; sawRedeemed reports whether the
// user holds the code in redeemed form.
func (s *service) redeemPersonal(ctx context.Context, userID, code string) (*AccessCode, bool, error) {
	now := s.issuer.Now()
	var (
		redeemed    *AccessCode
		sawRedeemed bool
	)
	err := s.repo.UpdateUserCodes(ctx, userID, func(codes []AccessCode) ([]AccessCode, error) {
		redeemed, sawRedeemed = nil, false
		for i := range codes {
			if codes[i].Code != code {
				continue
			}
			if codes[i].Redeemed {
				sawRedeemed = true
				continue
			}
			markRedeemed(&codes[i], userID, now)
			c := codes[i]
			redeemed = &c
			return codes, nil
		}
		return nil, errGiftNotFound
	})
	switch {
	case errors.Is(err, errGiftNotFound):
		return nil, sawRedeemed, nil
	case err != nil:
		return nil, false, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "redeem code")
	}
	return redeemed, false, nil
}

func (s *service) ClearGlobal(ctx context.Context, caller admin.Principal) error {
	if err := s.gate.Authorize(ctx, caller); err != nil {
		s.metrics.IncAdminDenied(string(enums.DeveloperActionClearGlobal))
		return err
	}

	err := s.repo.UpdateSiteWide(ctx, func(gift *SiteWideGift) (*SiteWideGift, error) {
		if gift == nil {
			return nil, nil
		}
		gift.Code = nil
		gift.Active = false
		return gift, nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "clear site-wide gift")
	}

	s.record(ctx, audit.Entry{
		Action:      enums.DeveloperActionClearGlobal,
		InitiatedBy: caller.ID,
		TargetID:    "all",
	})
	s.publisher.Publish(ctx, delivery.Event{
		Type:    enums.DeliveryEventGlobalCleared,
		ActorID: caller.ID,
	})
	return nil
}

// notify posts to the feed; a failure there does not undo the gift change.
func (s *service) notify(ctx context.Context, entry notifications.Entry) {
	if s.feed == nil {
		return
	}
	if _, err := s.feed.Append(ctx, entry); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "notification_type", string(entry.Type)), "gifts.notify_failed", err)
	}
}

func (s *service) record(ctx context.Context, entry audit.Entry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}

func accessCodeFrom(issued keys.Issued, title, sentBy string) AccessCode {
	d := issued.Duration
	return AccessCode{
		Code:      issued.Code,
		Kind:      issued.Kind,
		Scope:     enums.GiftScopePersonal,
		Title:     title,
		Duration:  &d,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
		SentBy:    sentBy,
	}
}

func markRedeemed(c *AccessCode, userID string, at time.Time) {
	by := userID
	c.Redeemed = true
	c.RedeemedBy = &by
	c.RedeemedAt = &at
}

// activeSiteWideCode returns the claimable site-wide code, or "" when none.
func (s *service) activeSiteWideCode(ctx context.Context) string {
	gift, err := s.repo.SiteWide(ctx)
	if err != nil || !gift.Claimable(s.issuer.Now()) {
		return ""
	}
	return *gift.Code
}

func holdsCode(codes []AccessCode, code string) bool {
	for _, c := range codes {
		if c.Code == code {
			return true
		}
	}
	return false
}

func isPendingTrial(c AccessCode, d enums.Duration) bool {
	return !c.Redeemed && c.Kind == enums.CodeKindTrial && c.Duration != nil && *c.Duration == d
}
