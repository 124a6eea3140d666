package middleware

import (
	"net/http"
	"strings"

	"github.com/sbpremium/gifts-backend/pkg/logger"
)

const (
	adminTokenHeader  = "X-Admin-Token"
	developerIDHeader = "X-Developer-Id"
)

// AdminPrincipal lifts the admin headers into the request context. It never
// rejects; the admin gate decides once the handler knows the operation.
func AdminPrincipal(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if token := strings.TrimSpace(r.Header.Get(adminTokenHeader)); token != "" {
				ctx = WithAdminToken(ctx, token)
			}
			if id := strings.TrimSpace(r.Header.Get(developerIDHeader)); id != "" {
				ctx = WithDeveloperID(ctx, id)
				if logg != nil {
					ctx = logg.WithDeveloperID(ctx, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
