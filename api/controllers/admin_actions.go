package controllers

import (
	"net/http"

	"github.com/sbpremium/gifts-backend/api/responses"
	"github.com/sbpremium/gifts-backend/api/validators"
	"github.com/sbpremium/gifts-backend/internal/admin"
	"github.com/sbpremium/gifts-backend/internal/audit"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
	"github.com/sbpremium/gifts-backend/pkg/metrics"
	"github.com/sbpremium/gifts-backend/pkg/pagination"
)

// ListDeveloperActions pages through the admin audit trail, newest first.
func ListDeveloperActions(svc audit.Service, gate admin.Gate, m *metrics.Domain, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || gate == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}
		caller := principalFor(r, validators.QueryString(r, "developerId", 32))
		if err := gate.Authorize(r.Context(), caller); err != nil {
			m.IncAdminDenied("list_actions")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: validators.QueryString(r, "cursor", 512),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
