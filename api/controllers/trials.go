package controllers

import (
	"net/http"
	"time"

	"github.com/sbpremium/gifts-backend/api/responses"
	"github.com/sbpremium/gifts-backend/api/validators"
	"github.com/sbpremium/gifts-backend/internal/gifts"
	"github.com/sbpremium/gifts-backend/pkg/enums"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
)

type sendTrialRequest struct {
	DeveloperID  string `json:"developerId"`
	UserID       string `json:"userId"`
	TargetUserID string `json:"targetUserId" validate:"required,target"`
	Duration     string `json:"duration" validate:"required,duration"`
}

type sendTrialResponse struct {
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type adminRequest struct {
	DeveloperID string `json:"developerId"`
	UserID      string `json:"userId"`
}

// SendTrial grants a trial code to one user or, with "all", to everyone.
func SendTrial(svc gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gifts service unavailable"))
			return
		}
		var body sendTrialRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		duration, err := enums.ParseDuration(body.Duration)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid duration"))
			return
		}

		code, err := svc.SendTrial(r.Context(), principalFor(r, body.DeveloperID, body.UserID), body.TargetUserID, duration)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sendTrialResponse{Code: code.Code, ExpiresAt: code.ExpiresAt})
	}
}

// ClearGlobal deactivates the site-wide gift.
func ClearGlobal(svc gifts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gifts service unavailable"))
			return
		}
		var body adminRequest
		if err := decodeOptionalBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ClearGlobal(r.Context(), principalFor(r, body.DeveloperID, body.UserID)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
