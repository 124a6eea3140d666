package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sbpremium/gifts-backend/internal/delivery"
	"github.com/sbpremium/gifts-backend/pkg/config"
	"github.com/sbpremium/gifts-backend/pkg/db"
	"github.com/sbpremium/gifts-backend/pkg/docstore"
	"github.com/sbpremium/gifts-backend/pkg/logger"
	"github.com/sbpremium/gifts-backend/pkg/metrics"
	"github.com/sbpremium/gifts-backend/pkg/migrate"
	"github.com/sbpremium/gifts-backend/pkg/pubsub"
)

// openStore selects the document backend. The returned closer releases the
// database connection when one was opened.
func openStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (docstore.Store, func(), error) {
	noop := func() {}
	switch strings.ToLower(cfg.Store.Driver) {
	case config.StoreDriverMemory:
		logg.Warn(ctx, "using in-memory store; data is lost on restart")
		return docstore.NewMemoryStore(), noop, nil
	case config.StoreDriverFile:
		store, err := docstore.NewFileStore(cfg.Store.Dir, logg)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}

	client, err := db.New(ctx, cfg.Store.Driver, cfg.DB, logg)
	if err != nil {
		return nil, noop, fmt.Errorf("bootstrap database: %w", err)
	}
	closer := func() {
		if err := client.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
		closer()
		return nil, noop, fmt.Errorf("dev migrations: %w", err)
	}
	store, err := docstore.NewGormStore(client)
	if err != nil {
		closer()
		return nil, noop, err
	}
	return store, closer, nil
}

// buildDispatcher wires every configured delivery channel. Unconfigured
// channels are skipped.
func buildDispatcher(ctx context.Context, cfg *config.Config, logg *logger.Logger, m *metrics.Domain) (*delivery.Dispatcher, func(), error) {
	var notifiers []delivery.Notifier
	closers := []func(){}

	if n := delivery.NewWebhookNotifier(cfg.Webhook, nil); n != nil {
		notifiers = append(notifiers, n)
	}
	if n := delivery.NewCompanionBotNotifier(cfg.CompanionBot, nil); n != nil {
		notifiers = append(notifiers, n)
	}
	if n := delivery.NewEmailNotifier(cfg.Sendgrid, nil); n != nil {
		notifiers = append(notifiers, n)
	}
	if n := delivery.NewAMQPNotifier(cfg.AMQP); n != nil {
		notifiers = append(notifiers, n)
	}
	if cfg.GCP.ProjectID != "" && cfg.PubSub.GiftEventsTopic != "" {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, func() {}, fmt.Errorf("bootstrap pubsub: %w", err)
		}
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logg.Error(ctx, "error closing pubsub", err)
			}
		})
		notifiers = append(notifiers, delivery.NewPubSubNotifier(client))
	}

	dispatcher := delivery.NewDispatcher(logg, m, cfg.Delivery.Timeout, notifiers...)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return dispatcher, closeAll, nil
}
