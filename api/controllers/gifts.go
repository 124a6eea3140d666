package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/sbpremium/gifts-backend/api/responses"
	"github.com/sbpremium/gifts-backend/api/validators"
	"github.com/sbpremium/gifts-backend/internal/gifts"
	"github.com/sbpremium/gifts-backend/pkg/enums"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
)

type sendGiftRequest struct {
	DeveloperID string `json:"developerId"`
	UserID      string `json:"userId"`
	TargetID    string `json:"targetId" validate:"omitempty,target"`
	Duration    string `json:"duration" validate:"required,duration"`
}

// caller and target resolve the two body shapes the bot sends: the legacy
// {userId, duration} broadcast where userId is the developer, and the
// targeted {developerId?, targetId, duration} form.
func (r sendGiftRequest) resolve() (callerIDs []string, target string) {
	switch {
	case strings.TrimSpace(r.TargetID) != "":
		return []string{r.DeveloperID, r.UserID}, r.TargetID
	case strings.TrimSpace(r.DeveloperID) != "":
		if strings.TrimSpace(r.UserID) != "" {
			return []string{r.DeveloperID}, r.UserID
		}
		return []string{r.DeveloperID}, "all"
	default:
		return []string{r.UserID}, "all"
	}
}

type sendGiftResponse struct {
	Code      string     `json:"code"`
	GiftID    string     `json:"giftId,omitempty"`
	Title     string     `json:"title"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type claimGiftRequest struct {
	UserID string `json:"userId" validate:"required,snowflake"`
	Code   string `json:"code" validate:"required_without=GiftID"`
	GiftID string `json:"giftId"`
}

type claimGiftResponse struct {
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type transferGiftRequest struct {
	GiverID     string `json:"giverId" validate:"required"`
	RecipientID string `json:"recipientId" validate:"required"`
	Code        string `json:"code" validate:"required"`
}

type userGiftsResponse struct {
	Gifts []gifts.AccessCode `json:"gifts"`
}

// ListGifts returns the gifts visible to the optional userId: their pending
// personal codes plus the site-wide gift when they have not claimed it yet.
func ListGifts(svc gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gifts service unavailable"))
			return
		}
		userID := validators.QueryString(r, "userId", 32)
		if userID != "" && !gifts.IsUserID(userID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "userId must be a numeric user id"))
			return
		}
		items, err := svc.ListVisible(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if items == nil {
			items = []gifts.AccessCode{}
		}
		responses.WriteSuccess(w, items)
	}
}

// SendGift issues a trial to one user or to everyone.
func SendGift(svc gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gifts service unavailable"))
			return
		}
		var body sendGiftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		duration, err := enums.ParseDuration(body.Duration)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid duration"))
			return
		}

		callerIDs, target := body.resolve()
		code, err := svc.SendTrial(r.Context(), principalFor(r, callerIDs...), target, duration)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sendGiftResponse{
			Code:      code.Code,
			GiftID:    code.GiftID,
			Title:     code.Title,
			ExpiresAt: code.ExpiresAt,
		})
	}
}

// ClaimGift redeems a site-wide gift or a personal code.
func ClaimGift(svc gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gifts service unavailable"))
			return
		}
		var body claimGiftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref := strings.TrimSpace(body.Code)
		if ref == "" {
			ref = strings.TrimSpace(body.GiftID)
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithUserID(ctx, body.UserID)
		}
		code, err := svc.Redeem(ctx, strings.TrimSpace(body.UserID), ref)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, claimGiftResponse{Code: code.Code, ExpiresAt: code.ExpiresAt})
	}
}

// TransferGift hands a premium code from one user to another.
func TransferGift(svc gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gifts service unavailable"))
			return
		}
		var body transferGiftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Transfer(r.Context(), body.GiverID, body.RecipientID, body.Code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// UserGifts lists the caller's unredeemed personal codes. The caller id comes
// from "Authorization: Bearer <userId>" or the userId query parameter.
func UserGifts(svc gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gifts service unavailable"))
			return
		}
		userID, err := validators.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "malformed authorization header"))
			return
		}
		if userID == "" {
			userID = validators.QueryString(r, "userId", 32)
		}
		if !gifts.IsUserID(userID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed user id"))
			return
		}

		items, err := svc.ListUnredeemed(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if items == nil {
			items = []gifts.AccessCode{}
		}
		responses.WriteSuccess(w, userGiftsResponse{Gifts: items})
	}
}
