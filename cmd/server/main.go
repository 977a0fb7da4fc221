package main

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/tradeflowhq/tradeflow/internal/api"
	v1 "github.com/tradeflowhq/tradeflow/internal/api/v1"
	"github.com/tradeflowhq/tradeflow/internal/cache"
	"github.com/tradeflowhq/tradeflow/internal/config"
	"github.com/tradeflowhq/tradeflow/internal/domain/billing"
	"github.com/tradeflowhq/tradeflow/internal/domain/company"
	"github.com/tradeflowhq/tradeflow/internal/domain/fulfillment"
	"github.com/tradeflowhq/tradeflow/internal/domain/webhookevent"
	stripeintegration "github.com/tradeflowhq/tradeflow/internal/integration/stripe"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/postgres"
	"github.com/tradeflowhq/tradeflow/internal/repository/pg"
	"github.com/tradeflowhq/tradeflow/internal/service"
	"go.uber.org/fx"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			newPostgresClient,
			cache.Initialize,

			pg.NewCompanyRepository,
			pg.NewBillingRepository,
			pg.NewWebhookEventRepository,
			pg.NewTagOrderRepository,

			newStripeClient,
			newWebhookVerifier,
			newBypassResolver,
			newServiceParams,

			service.NewBillingStatusService,
			service.NewWebhookDispatchService,

			v1.NewHealthHandler,
			v1.NewWebhookHandler,
			v1.NewBillingHandler,
			newHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			initSentry,
			runMigrations,
			startServer,
		),
	)

	app.Run()
}

func newPostgresClient(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (postgres.IClient, error) {
	client, err := postgres.NewClient(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})
	return client, nil
}

func newStripeClient(cfg *config.Configuration, log *logger.Logger) (stripeintegration.SubscriptionFetcher, stripeintegration.CustomerFetcher) {
	client := stripeintegration.NewClient(cfg, log)
	return client, client
}

func newWebhookVerifier(cfg *config.Configuration) stripeintegration.SignatureVerifier {
	return stripeintegration.NewWebhookVerifier(cfg.Stripe.WebhookSecret)
}

func newBypassResolver(cfg *config.Configuration) service.BypassResolver {
	return service.NewBypassResolver(cfg)
}

func newServiceParams(
	log *logger.Logger,
	cfg *config.Configuration,
	db postgres.IClient,
	companyRepo company.Repository,
	billingRepo billing.Repository,
	webhookEventRepo webhookevent.Repository,
	tagOrderRepo fulfillment.Repository,
	cacheClient cache.Cache,
	bypass service.BypassResolver,
	subscriptionFetcher stripeintegration.SubscriptionFetcher,
	customerFetcher stripeintegration.CustomerFetcher,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:              log,
		Config:              cfg,
		DB:                  db,
		CompanyRepo:         companyRepo,
		BillingRepo:         billingRepo,
		WebhookEventRepo:    webhookEventRepo,
		TagOrderRepo:        tagOrderRepo,
		Cache:               cacheClient,
		Bypass:              bypass,
		SubscriptionFetcher: subscriptionFetcher,
		CustomerFetcher:     customerFetcher,
	}
}

func newHandlers(
	health *v1.HealthHandler,
	webhook *v1.WebhookHandler,
	billingHandler *v1.BillingHandler,
) api.Handlers {
	return api.Handlers{
		Health:  health,
		Webhook: webhook,
		Billing: billingHandler,
	}
}

func initSentry(cfg *config.Configuration, log *logger.Logger) error {
	if !cfg.Sentry.Enabled || cfg.Sentry.DSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.Sentry.SampleRate,
	})
	if err != nil {
		log.Errorw("failed to initialize sentry", "error", err)
		return nil
	}

	log.Infow("sentry initialized", "environment", cfg.Sentry.Environment)
	return nil
}

func runMigrations(cfg *config.Configuration, log *logger.Logger) error {
	db, err := goose.OpenDBWithDriver("pgx", cfg.Postgres.DSN())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}
	log.Infow("migrations applied")
	return nil
}

func startServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Configuration, log *logger.Logger) {
	if cfg.Deployment.Mode == config.ModeProd {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("shutting down server")
			sentry.Flush(2 * time.Second)
			return srv.Shutdown(ctx)
		},
	})
}
