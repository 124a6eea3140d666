package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sbpremium/gifts-backend/api/controllers"
	"github.com/sbpremium/gifts-backend/api/middleware"
	"github.com/sbpremium/gifts-backend/api/responses"
	"github.com/sbpremium/gifts-backend/internal/admin"
	"github.com/sbpremium/gifts-backend/internal/audit"
	"github.com/sbpremium/gifts-backend/internal/gifts"
	"github.com/sbpremium/gifts-backend/internal/notifications"
	"github.com/sbpremium/gifts-backend/pkg/config"
	pkgerrors "github.com/sbpremium/gifts-backend/pkg/errors"
	"github.com/sbpremium/gifts-backend/pkg/logger"
	"github.com/sbpremium/gifts-backend/pkg/metrics"
	"github.com/sbpremium/gifts-backend/pkg/redis"
)

// Deps carries everything the HTTP surface calls into. Redis is optional.
type Deps struct {
	Gifts         gifts.Service
	Notifications notifications.Service
	Audit         audit.Service
	Gate          admin.Gate
	Store         controllers.Pinger
	Redis         *redis.Client
	Metrics       *metrics.Domain
	HTTPMetrics   *metrics.HTTP
	Gatherer      prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.AdminPrincipal(logg),
	)

	var (
		idempotency redis.IdempotencyStore
		limiter     redis.RateLimiter
	)
	readiness := map[string]controllers.Pinger{"store": deps.Store}
	if deps.Redis != nil {
		idempotency = deps.Redis
		limiter = deps.Redis
		readiness["redis"] = deps.Redis
	}
	claimLimit := middleware.RateLimit(middleware.ClaimPolicy(cfg.ClaimRateLimit), limiter, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	mount := func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotency, logg))

		r.Route("/gifts", func(r chi.Router) {
			r.Get("/", controllers.ListGifts(deps.Gifts, logg))
			r.Post("/send", controllers.SendGift(deps.Gifts, logg))
			r.With(claimLimit).Post("/claim", controllers.ClaimGift(deps.Gifts, logg))
			r.Post("/transfer", controllers.TransferGift(deps.Gifts, logg))
			r.Get("/user", controllers.UserGifts(deps.Gifts, logg))
		})

		r.Route("/trials", func(r chi.Router) {
			r.Post("/send", controllers.SendTrial(deps.Gifts, logg))
			r.Post("/clear-global", controllers.ClearGlobal(deps.Gifts, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/announce", controllers.Announce(deps.Notifications, logg))
			r.Post("/delete-last", controllers.DeleteLastAnnouncement(deps.Notifications, logg))
		})

		r.Get("/admin/actions", controllers.ListDeveloperActions(deps.Audit, deps.Gate, deps.Metrics, logg))
	}

	r.Group(mount)
	r.Route("/api", mount)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), nil, w, pkgerrors.New(pkgerrors.CodeValidation, "method not allowed"))
	})

	return r
}
