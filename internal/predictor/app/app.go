// Package app wires config into a ready-to-run pipeline. Both binaries
// build their dependencies through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/metrics"
	"github.com/Vodeneev/footytips/internal/pkg/notify"
	"github.com/Vodeneev/footytips/internal/pkg/publish"
	"github.com/Vodeneev/footytips/internal/pkg/sources"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
	"github.com/Vodeneev/footytips/internal/predictor/predictor"
)

// App holds the long-lived dependencies of the pipeline.
type App struct {
	Config  *config.Config
	Store   *storage.SQLStore
	Metrics *metrics.Registry
	Engine  *predictor.Engine
	Service *predictor.Service

	cache     *storage.RedisCache
	notifier  *notify.TelegramNotifier
	publisher *publish.KafkaPublisher
}

// New opens storage and builds the pipeline. Optional integrations (Redis,
// Telegram, Kafka) that fail to start are logged and skipped.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New()}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.Store = store
	slog.Info("Storage opened", "driver", store.Driver())

	clientOpts := []sources.ClientOption{sources.WithMetrics(a.Metrics)}
	if cfg.Redis.Enabled {
		cache, err := storage.NewRedisCache(cfg.Redis)
		if err != nil {
			slog.Warn("Redis cache unavailable, fetching without cache", "addr", cfg.Redis.Addr, "error", err)
		} else {
			a.cache = cache
			clientOpts = append(clientOpts, sources.WithCache(cache))
		}
	}

	srcs, err := sources.Build(cfg, sources.NewHTTPClient(cfg.Sources, clientOpts...))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	names := make([]string, 0, len(srcs))
	for _, s := range srcs {
		names = append(names, s.Name())
	}
	slog.Info("Sources configured", "sources", names)

	serviceOpts := []predictor.ServiceOption{predictor.WithMetrics(a.Metrics)}
	if cfg.Telegram.Enabled {
		n, err := notify.NewTelegramNotifier(cfg.Telegram)
		if err != nil {
			slog.Warn("Telegram alerts disabled", "error", err)
		} else {
			a.notifier = n
			serviceOpts = append(serviceOpts, predictor.WithNotifier(n))
			if cfg.Telegram.TestOnStart {
				if err := n.SendTestAlert(ctx, "footytips started, alerts are live"); err != nil {
					slog.Warn("Telegram test alert failed", "error", err)
				}
			}
		}
	}
	if cfg.Kafka.Enabled {
		p, err := publish.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			slog.Warn("Kafka publishing disabled", "error", err)
		} else {
			a.publisher = p
			serviceOpts = append(serviceOpts, predictor.WithPublisher(p))
		}
	}

	a.Engine = predictor.New(predictor.ConfigFrom(cfg.Predictor), store)
	a.Service = predictor.NewService(a.Engine, store, srcs, serviceOpts...)
	return a, nil
}

// Close drains alerts and releases connections.
func (a *App) Close() error {
	var errs []error
	if a.notifier != nil {
		a.notifier.Stop()
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
