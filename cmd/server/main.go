package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/practicelab/practicelab/drills"
	"github.com/practicelab/practicelab/modules/billing"
	"github.com/practicelab/practicelab/modules/catalog"
	"github.com/practicelab/practicelab/pkg/auth"
	"github.com/practicelab/practicelab/pkg/config"
	"github.com/practicelab/practicelab/pkg/httpserver"
	"github.com/practicelab/practicelab/pkg/jwt"
	"github.com/practicelab/practicelab/pkg/logger"
	"github.com/practicelab/practicelab/pkg/pg"
	"github.com/practicelab/practicelab/pkg/redis"
	"github.com/practicelab/practicelab/subscription"
)

type appConfig struct {
	Logger logger.Config
	Server httpserver.Config
	PG     pg.Config
	Redis  redis.Config

	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`

	// BillingProvider selects the payment integration: "stripe" or "paddle".
	BillingProvider string `env:"BILLING_PROVIDER" envDefault:"stripe"`

	Catalog       subscription.CatalogConfig
	BillingModule billing.Config
	CatalogModule catalog.Config
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewFromConfig(cfg.Logger, logger.WithService("practicelab"))

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	tokenSvc, err := jwt.NewFromString(cfg.JWTSigningKey)
	if err != nil {
		return fmt.Errorf("failed to init token service: %w", err)
	}

	tierCatalog, err := subscription.NewCatalog(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to build tier catalog: %w", err)
	}

	provider, err := buildProvider(cfg.BillingProvider)
	if err != nil {
		return err
	}

	customers := subscription.NewPGStore(pool)
	subSvc := subscription.NewService(tierCatalog, provider, customers,
		subscription.WithLogger(log.With(logger.Component("subscription"))))

	drillStore := drills.NewCachedStore(
		drills.NewPGStore(pool),
		redisClient,
		drills.WithCacheLogger(log.With(logger.Component("drills-cache"))),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware(tokenSvc))

	r.Get("/health", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/ready", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))

	r.Mount("/billing", billing.Router(cfg.BillingModule, subSvc, log.With(logger.Component("billing"))))
	r.Mount("/", catalog.Router(cfg.CatalogModule, catalog.Deps{
		Drills:    drillStore,
		Customers: customers,
		Tiers:     tierCatalog,
		Log:       log.With(logger.Component("catalog")),
	}))

	server := httpserver.NewFromConfig(cfg.Server, httpserver.WithLogger(log))

	log.InfoContext(ctx, "starting server", slog.String("addr", cfg.Server.Addr))
	return server.Run(ctx, r)
}

// buildProvider constructs the configured billing integration. Provider
// configs are loaded lazily so only the selected provider's variables are
// required.
func buildProvider(name string) (subscription.BillingProvider, error) {
	switch strings.ToLower(name) {
	case "stripe":
		var cfg subscription.StripeConfig
		if err := config.Load(&cfg); err != nil {
			return nil, fmt.Errorf("failed to load stripe configuration: %w", err)
		}
		return subscription.NewStripeProvider(cfg)
	case "paddle":
		var cfg subscription.PaddleConfig
		if err := config.Load(&cfg); err != nil {
			return nil, fmt.Errorf("failed to load paddle configuration: %w", err)
		}
		return subscription.NewPaddleProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown billing provider: %s", name)
	}
}
