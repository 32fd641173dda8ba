package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"giftaihub/internal/config"
	"giftaihub/internal/handler"
	appmiddleware "giftaihub/internal/middleware"
	"giftaihub/internal/service"
	"giftaihub/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type Services struct {
	Checkout   service.CheckoutService
	Webhook    service.WebhookService
	Redemption service.RedemptionService
	Catalog    service.CatalogService
	Admin      service.AdminService
}

type Server struct {
	echo            *echo.Echo
	cfg             *config.Config
	adminService    service.AdminService
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	giftHandler     *handler.GiftHandler
	catalogHandler  *handler.CatalogHandler
	adminHandler    *handler.AdminHandler
}

func NewServer(services Services, cfg *config.Config, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.NewEchoValidator(validation.New())

	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig(logger)))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{
		echo:            e,
		cfg:             cfg,
		adminService:    services.Admin,
		checkoutHandler: handler.NewCheckoutHandler(services.Checkout),
		webhookHandler:  handler.NewWebhookHandler(services.Webhook),
		giftHandler:     handler.NewGiftHandler(services.Redemption),
		catalogHandler:  handler.NewCatalogHandler(services.Catalog),
		adminHandler:    handler.NewAdminHandler(services.Admin),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	health := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
	s.echo.GET("/health", health)

	api := s.echo.Group("/api")
	api.GET("/health", health)

	api.GET("/platforms", s.catalogHandler.ListPlatforms)

	// -------- checkout --------
	checkout := api.Group("/checkout")
	checkout.POST("", s.checkoutHandler.CreateCheckout)
	checkout.POST("/cart", s.checkoutHandler.CreateCartCheckout)
	checkout.GET("/session", s.checkoutHandler.GetSession)

	// -------- provider webhooks --------
	api.POST("/webhooks/stripe", s.webhookHandler.StripeWebhook)

	// -------- gift codes --------
	gift := api.Group("/gift", s.rateLimiter())
	gift.POST("/verify", s.giftHandler.Verify)
	gift.POST("/redeem", s.giftHandler.Redeem)

	// -------- admin --------
	admin := api.Group("/admin",
		appmiddleware.AuthRequired(&s.cfg.Admin),
		appmiddleware.RequireAdmin(s.adminService),
	)
	admin.GET("/orders", s.adminHandler.ListOrders)
	admin.GET("/gift-codes/:code", s.adminHandler.GetGiftCode)
}

// rateLimiter throttles per client IP.
func (s *Server) rateLimiter() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.cfg.RateLimit.RPS),
		Burst:     s.cfg.RateLimit.Burst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		},
	})
}

func requestLoggerConfig(logger *slog.Logger) middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURIPath:   true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			ctx := c.Request().Context()
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "request", attrs...)
				return nil
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "request", attrs...)
			return nil
		},
	}
}

// Echo exposes the router for the Lambda proxy adapter.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
