package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sbpremium/gifts-backend/api/middleware"
	"github.com/sbpremium/gifts-backend/api/validators"
	"github.com/sbpremium/gifts-backend/internal/admin"
)

// principalFor builds the admin principal from the first non-empty body id,
// falling back to the X-Developer-Id header.
func principalFor(r *http.Request, bodyIDs ...string) admin.Principal {
	p := admin.Principal{Token: middleware.AdminTokenFromContext(r.Context())}
	for _, id := range bodyIDs {
		if id = strings.TrimSpace(id); id != "" {
			p.ID = id
			return p
		}
	}
	p.ID = middleware.DeveloperIDFromContext(r.Context())
	return p
}

// decodeOptionalBody accepts an empty body for admin calls that carry their
// identity in headers.
func decodeOptionalBody(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return validators.ValidateStruct(dest)
	}
	if err := validators.DecodeJSONBody(r, dest); err != nil {
		if errors.Is(err, io.EOF) {
			return validators.ValidateStruct(dest)
		}
		return err
	}
	return nil
}
