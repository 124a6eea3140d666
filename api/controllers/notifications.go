package controllers

import (
	"net/http"

	"github.com/sbpremium/gifts-backend/api/responses"
	"github.com/sbpremium/gifts-backend/internal/notifications"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
)

type announceRequest struct {
	DeveloperID  string `json:"developerId"`
	UserID       string `json:"userId"`
	Title        string `json:"title" validate:"max=256"`
	Message      string `json:"message" validate:"max=4000"`
	IsPersistent bool   `json:"isPersistent"`
}

// ListNotifications returns the feed newest first. Reading may insert the
// repeating announcement when its interval has elapsed.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		feed, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if feed == nil {
			feed = []notifications.Notification{}
		}
		responses.WriteSuccess(w, feed)
	}
}

// Announce posts a developer announcement, optionally repeating.
func Announce(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		var body announceRequest
		if err := decodeOptionalBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		_, err := svc.Announce(r.Context(), principalFor(r, body.DeveloperID, body.UserID), notifications.AnnounceRequest{
			Title:      body.Title,
			Message:    body.Message,
			Persistent: body.IsPersistent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// DeleteLastAnnouncement removes the newest announcement from the feed.
func DeleteLastAnnouncement(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		var body adminRequest
		if err := decodeOptionalBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteLastAnnouncement(r.Context(), principalFor(r, body.DeveloperID, body.UserID)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
