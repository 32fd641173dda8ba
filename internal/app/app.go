// Package app wires configuration into clients, repositories and services.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"giftaihub/internal/catalog"
	"giftaihub/internal/client"
	"giftaihub/internal/config"
	"giftaihub/internal/metrics"
	"giftaihub/internal/outbox"
	"giftaihub/internal/repository"
	"giftaihub/internal/server"
	"giftaihub/internal/service"

	"gorm.io/gorm"
)

type App struct {
	DB     *gorm.DB
	Config *config.Config
	Logger *slog.Logger

	Checkout     service.CheckoutService
	Webhook      service.WebhookService
	Redemption   service.RedemptionService
	Notification service.NotificationService
	Catalog      service.CatalogService
	Admin        service.AdminService
}

// Build connects to the database and the optional AWS collaborators and
// constructs every service.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		return nil, err
	}

	var aws *client.AWSClients
	if cfg.AWSEnabled() {
		aws, err = client.NewAWSClients(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
	} else {
		aws = &client.AWSClients{}
		logger.InfoContext(ctx, "aws disabled, email retries and metrics are local only")
	}

	return New(db, cfg, logger,
		client.NewStripeClient(&cfg.Stripe),
		client.NewBrevoClient(&cfg.Brevo),
		outbox.NewPublisher(aws.SQS, cfg.AWS.EmailRetryQueueURL),
		metrics.NewRecorder(aws.CloudWatch, cfg.AWS.MetricsNamespace, logger),
	), nil
}

// New constructs the services over already initialised collaborators.
func New(
	db *gorm.DB,
	cfg *config.Config,
	logger *slog.Logger,
	stripeClient client.StripeClient,
	emailClient client.EmailClient,
	publisher outbox.Publisher,
	recorder metrics.Recorder,
) *App {
	orderRepo := repository.NewOrderRepository(db)
	giftCodeRepo := repository.NewGiftCodeRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	userRoleRepo := repository.NewUserRoleRepository(db)

	notificationService := service.NewNotificationService(
		emailClient,
		catalogRepo,
		giftCodeRepo,
		publisher,
		recorder,
		logger,
		cfg.BaseURL,
	)

	return &App{
		DB:     db,
		Config: cfg,
		Logger: logger,
		Checkout: service.NewCheckoutService(
			stripeClient,
			catalogRepo,
			orderRepo,
			recorder,
			logger,
			service.CheckoutConfig{
				BaseURL:    cfg.BaseURL,
				Currency:   cfg.Stripe.Currency,
				ServiceFee: cfg.Stripe.ServiceFee,
			},
		),
		Webhook: service.NewWebhookService(
			stripeClient,
			orderRepo,
			giftCodeRepo,
			webhookEventRepo,
			notificationService,
			recorder,
			logger,
		),
		Redemption:   service.NewRedemptionService(giftCodeRepo, catalogRepo, notificationService, recorder, logger),
		Notification: notificationService,
		Catalog:      service.NewCatalogService(catalogRepo, logger),
		Admin:        service.NewAdminService(userRoleRepo, orderRepo, giftCodeRepo),
	}
}

// SeedDefaultCatalog loads the embedded catalog into the database.
func (a *App) SeedDefaultCatalog(ctx context.Context) error {
	platforms, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	return a.Catalog.Seed(ctx, platforms)
}

func (a *App) Server() *server.Server {
	return server.NewServer(server.Services{
		Checkout:   a.Checkout,
		Webhook:    a.Webhook,
		Redemption: a.Redemption,
		Catalog:    a.Catalog,
		Admin:      a.Admin,
	}, a.Config, a.Logger)
}

func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
