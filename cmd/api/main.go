package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sbpremium/gifts-backend/api/routes"
	"github.com/sbpremium/gifts-backend/internal/admin"
	"github.com/sbpremium/gifts-backend/internal/audit"
	"github.com/sbpremium/gifts-backend/internal/gifts"
	"github.com/sbpremium/gifts-backend/internal/keys"
	"github.com/sbpremium/gifts-backend/internal/notifications"
	"github.com/sbpremium/gifts-backend/pkg/config"
	"github.com/sbpremium/gifts-backend/pkg/logger"
	"github.com/sbpremium/gifts-backend/pkg/metrics"
	"github.com/sbpremium/gifts-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	bootCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "store": cfg.Store.Driver})

	store, closeStore, err := openStore(bootCtx, cfg, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to open store", err)
		os.Exit(1)
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(bootCtx, cfg.Redis, logg)
		if err != nil {
			logg.Error(bootCtx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics := metrics.NewDomain(reg)

	gate, err := admin.NewGate(cfg.Admin)
	if err != nil {
		logg.Error(bootCtx, "failed to build admin gate", err)
		os.Exit(1)
	}

	dispatcher, closeDelivery, err := buildDispatcher(bootCtx, cfg, logg, domainMetrics)
	if err != nil {
		logg.Error(bootCtx, "failed to build delivery dispatcher", err)
		os.Exit(1)
	}
	defer closeDelivery()

	auditService, err := audit.NewService(audit.NewRepository(store), logg)
	if err != nil {
		logg.Error(bootCtx, "failed to create audit service", err)
		os.Exit(1)
	}

	feedService, err := notifications.NewService(notifications.Deps{
		Repo:      notifications.NewRepository(store),
		Gate:      gate,
		Audit:     auditService,
		Publisher: dispatcher,
		Metrics:   domainMetrics,
		Logger:    logg,
	}, notifications.Options{
		Retention:      cfg.Feed.Retention,
		RepeatInterval: cfg.Feed.RepeatInterval,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create notifications service", err)
		os.Exit(1)
	}

	giftService, err := gifts.NewService(gifts.Deps{
		Repo:      gifts.NewRepository(store),
		Issuer:    keys.NewIssuer(),
		Gate:      gate,
		Feed:      feedService,
		Audit:     auditService,
		Publisher: dispatcher,
		Metrics:   domainMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create gifts service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(bootCtx, map[string]any{
		"addr":     addr,
		"channels": dispatcher.Channels(),
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Gifts:         giftService,
			Notifications: feedService,
			Audit:         auditService,
			Gate:          gate,
			Store:         store,
			Redis:         redisClient,
			Metrics:       domainMetrics,
			HTTPMetrics:   metrics.NewHTTP(reg),
			Gatherer:      reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "graceful shutdown failed", err)
	}
	dispatcher.Wait()
	logg.Info(serverCtx, "api server stopped")
}
