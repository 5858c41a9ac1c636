package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/acevedolabs/tienda-storefront/internal/api"
	"github.com/acevedolabs/tienda-storefront/internal/cart"
	"github.com/acevedolabs/tienda-storefront/internal/promotion"
	"github.com/acevedolabs/tienda-storefront/internal/session"
	"github.com/acevedolabs/tienda-storefront/pkg/config"
	"github.com/acevedolabs/tienda-storefront/pkg/logger"
	"github.com/acevedolabs/tienda-storefront/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "storefront stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "storefront shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	sessions, err := session.New(ctx, cfg.Redis, cfg.Session, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, sessions.Close())
	}()

	metricsCollector := metrics.NewClientMetrics(prometheus.DefaultRegisterer)

	client, err := api.NewClient(cfg.Backend, sessions, logg, metricsCollector)
	if err != nil {
		return err
	}

	store, err := cart.NewStore(client, logg, metricsCollector)
	if err != nil {
		return err
	}

	resolver, err := promotion.NewResolver(client, logg, metricsCollector, cfg.Backend.StoreID)
	if err != nil {
		return err
	}

	// Cart ownership may shift between anonymous-session and account scope,
	// so every login/logout drops local state and reloads from the backend.
	sessions.OnAuthChange(func(ctx context.Context, loggedIn bool) {
		store.Reset()
		store.Load(ctx)
		logg.Info(logg.WithField(ctx, "logged_in", loggedIn), "auth changed, cart reloaded")
	})

	current := store.Load(ctx)
	if current == nil {
		logg.Info(ctx, "no cart for this session")
	} else {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"cart_id": current.ID,
			"items":   store.TotalItems(),
			"total":   current.Total.StringFixed(2),
		}), "cart loaded")
	}

	featured, err := resolver.ListActive(ctx)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "could not fetch featured promotions")
		return nil
	}
	logg.Info(logg.WithField(ctx, "count", len(featured)), "active promotions fetched")
	return nil
}
