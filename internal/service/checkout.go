package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"giftaihub/internal/catalog"
	"giftaihub/internal/client"
	"giftaihub/internal/dto"
	"giftaihub/internal/envelope"
	"giftaihub/internal/metrics"
	"giftaihub/internal/model"
	"giftaihub/internal/money"
	"giftaihub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, items []*dto.LineItem) (*dto.CheckoutResponse, error)
	RetrieveSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	GetSessionSummary(ctx context.Context, sessionID string) (*dto.SessionSummary, error)
}

type CheckoutConfig struct {
	BaseURL    string
	Currency   string
	ServiceFee decimal.Decimal
}

type checkoutServiceImpl struct {
	stripeClient client.StripeClient
	catalogRepo  repository.CatalogRepository
	orderRepo    repository.OrderRepository
	metrics      metrics.Recorder
	logger       *slog.Logger
	cfg          CheckoutConfig
}

func NewCheckoutService(
	stripeClient client.StripeClient,
	catalogRepo repository.CatalogRepository,
	orderRepo repository.OrderRepository,
	recorder metrics.Recorder,
	logger *slog.Logger,
	cfg CheckoutConfig,
) CheckoutService {
	return &checkoutServiceImpl{
		stripeClient: stripeClient,
		catalogRepo:  catalogRepo,
		orderRepo:    orderRepo,
		metrics:      recorder,
		logger:       logger,
		cfg:          cfg,
	}
}

type pricedItem struct {
	item         envelope.Item
	platform     *model.Platform
	subscription *model.Subscription
	unitAmount   int64
}

func (s *checkoutServiceImpl) CreateSession(ctx context.Context, items []*dto.LineItem) (*dto.CheckoutResponse, error) {
	if len(items) == 0 || items[0] == nil {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}

	first := trimItem(items[0])
	if first.RecipientName == "" || first.RecipientEmail == "" || first.SenderName == "" {
		return nil, ErrMissingRecipientInfo
	}
	recipient := envelope.Recipient{
		Name:    first.RecipientName,
		Email:   first.RecipientEmail,
		Sender:  first.SenderName,
		Message: first.Message,
	}

	feeAmount, err := money.MinorUnits(s.cfg.ServiceFee)
	if err != nil {
		return nil, fmt.Errorf("%w: service fee", ErrInvalidAmount)
	}

	priced := make([]pricedItem, 0, len(items))
	total := s.cfg.ServiceFee
	for i, raw := range items {
		if raw == nil {
			return nil, fmt.Errorf("%w: item %d is empty", ErrInvalidInput, i)
		}
		it := trimItem(raw)
		if it.PlatformID == "" || it.SubscriptionID == "" {
			return nil, fmt.Errorf("%w: item %d needs platformId and subscriptionId", ErrInvalidInput, i)
		}

		platform, sub, err := s.catalogRepo.FindSubscription(ctx, it.PlatformID, it.SubscriptionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s/%s", ErrInvalidLineItem, it.PlatformID, it.SubscriptionID)
			}
			return nil, upstream("find subscription", err)
		}

		unitAmount, err := money.MinorUnits(sub.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: subscription %s", ErrInvalidAmount, sub.ID)
		}
		total = total.Add(sub.Price)

		priced = append(priced, pricedItem{
			item: envelope.Item{
				PlatformID:     it.PlatformID,
				SubscriptionID: it.SubscriptionID,
				RecipientName:  it.RecipientName,
				RecipientEmail: it.RecipientEmail,
				SenderName:     it.SenderName,
			},
			platform:     platform,
			subscription: sub,
			unitAmount:   unitAmount,
		})
	}

	envItems := make([]envelope.Item, len(priced))
	for i, p := range priced {
		envItems[i] = p.item
	}
	env := envelope.New(envItems, recipient)
	metadata, err := env.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	lineItems := make([]client.CheckoutLineItem, 0, len(priced)+1)
	for i, p := range priced {
		resolved := env.Resolve(i)
		lineItems = append(lineItems, client.CheckoutLineItem{
			Name:        lineItemName(p.platform, p.subscription),
			Description: fmt.Sprintf("Gift subscription for %s", resolved.RecipientName),
			UnitAmount:  p.unitAmount,
			Quantity:    1,
		})
	}
	lineItems = append(lineItems, client.CheckoutLineItem{
		Name:        "Service Fee",
		Description: "Processing and delivery fee",
		UnitAmount:  feeAmount,
		Quantity:    1,
	})

	baseURL := strings.TrimRight(s.cfg.BaseURL, "/")
	session, err := s.stripeClient.CreateCheckoutSession(ctx, &client.CheckoutSessionParams{
		Currency:   s.cfg.Currency,
		SuccessURL: baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  fmt.Sprintf("%s/gift/%s", baseURL, first.PlatformID),
		LineItems:  lineItems,
		Metadata:   metadata,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "create checkout session failed", "error", err, "items", len(items))
		return nil, upstream("create checkout session", err)
	}

	order := &model.Order{
		ID:             uuid.NewString(),
		SessionID:      session.ID,
		PlatformID:     first.PlatformID,
		SubscriptionID: first.SubscriptionID,
		RecipientEmail: first.RecipientEmail,
		RecipientName:  first.RecipientName,
		SenderName:     first.SenderName,
		Message:        first.Message,
		ItemCount:      len(priced),
		Amount:         total,
		Currency:       s.cfg.Currency,
		Status:         model.OrderStatusPending,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "store order failed", "error", err, "session_id", session.ID)
		return nil, upstream("store order", err)
	}

	s.metrics.Count(ctx, metrics.CheckoutSessionsCreated, 1)
	s.logger.InfoContext(ctx, "checkout session created",
		"session_id", session.ID,
		"order_id", order.ID,
		"items", len(priced),
		"amount", total.StringFixed(2),
	)

	return &dto.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (s *checkoutServiceImpl) RetrieveSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	session, err := s.stripeClient.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, client.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, upstream("retrieve checkout session", err)
	}
	return session, nil
}

func (s *checkoutServiceImpl) GetSessionSummary(ctx context.Context, sessionID string) (*dto.SessionSummary, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalidInput)
	}

	session, err := s.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	env, err := envelope.Decode(session.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	order, err := s.orderRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order for session %s", ErrNotFound, sessionID)
		}
		return nil, upstream("find order", err)
	}

	items := make([]dto.OrderItem, len(env.Items))
	for i := range env.Items {
		it := env.Resolve(i)
		out := dto.OrderItem{
			PlatformID:     it.PlatformID,
			PlatformName:   catalog.FallbackPlatformName,
			SubscriptionID: it.SubscriptionID,
			RecipientName:  it.RecipientName,
			RecipientEmail: it.RecipientEmail,
			SenderName:     it.SenderName,
		}
		if platform, sub, err := s.catalogRepo.FindSubscription(ctx, it.PlatformID, it.SubscriptionID); err == nil {
			out.PlatformName = catalog.DisplayName(platform)
			out.Period = sub.Period
		}
		items[i] = out
	}

	return &dto.SessionSummary{
		SessionID:     session.ID,
		OrderID:       order.ID,
		Status:        string(order.Status),
		PaymentStatus: session.PaymentStatus,
		Amount:        order.Amount.StringFixed(2),
		Currency:      order.Currency,
		Items:         items,
		RecipientInfo: dto.RecipientInfo{
			Name:    env.Recipient.Name,
			Email:   env.Recipient.Email,
			Sender:  env.Recipient.Sender,
			Message: env.Recipient.Message,
		},
	}, nil
}

func trimItem(it *dto.LineItem) dto.LineItem {
	return dto.LineItem{
		PlatformID:     strings.TrimSpace(it.PlatformID),
		SubscriptionID: strings.TrimSpace(it.SubscriptionID),
		RecipientEmail: strings.TrimSpace(it.RecipientEmail),
		RecipientName:  strings.TrimSpace(it.RecipientName),
		SenderName:     strings.TrimSpace(it.SenderName),
		Message:        strings.TrimSpace(it.Message),
	}
}

func lineItemName(platform *model.Platform, sub *model.Subscription) string {
	name := catalog.DisplayName(platform)
	if sub.Tier != "" {
		return fmt.Sprintf("%s %s - %s", name, sub.Tier, sub.Period)
	}
	return fmt.Sprintf("%s - %s", name, sub.Period)
}
