package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"giftaihub/internal/client"
	"giftaihub/internal/envelope"
	"giftaihub/internal/giftcode"
	"giftaihub/internal/metrics"
	"giftaihub/internal/model"
	"giftaihub/internal/repository"

	"gorm.io/gorm"
)

type WebhookService interface {
	// HandleWebhook verifies and processes one provider delivery. A nil
	// return means the delivery should be acknowledged, including when
	// business steps failed and were logged. ErrInvalidSignature,
	// ErrEventInProgress and ErrUpstream are the only errors returned; the
	// last two ask the provider to redeliver.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type webhookServiceImpl struct {
	stripeClient client.StripeClient
	orderRepo    repository.OrderRepository
	giftCodeRepo repository.GiftCodeRepository
	eventRepo    repository.WebhookEventRepository
	notifier     NotificationService
	metrics      metrics.Recorder
	logger       *slog.Logger
}

func NewWebhookService(
	stripeClient client.StripeClient,
	orderRepo repository.OrderRepository,
	giftCodeRepo repository.GiftCodeRepository,
	eventRepo repository.WebhookEventRepository,
	notifier NotificationService,
	recorder metrics.Recorder,
	logger *slog.Logger,
) WebhookService {
	return &webhookServiceImpl{
		stripeClient: stripeClient,
		orderRepo:    orderRepo,
		giftCodeRepo: giftCodeRepo,
		eventRepo:    eventRepo,
		notifier:     notifier,
		metrics:      recorder,
		logger:       logger,
	}
}

// webhookEvent is the set of provider events the processor understands.
type webhookEvent interface {
	eventID() string
}

type checkoutCompleted struct {
	id        string
	sessionID string
}

type checkoutExpired struct {
	id        string
	sessionID string
}

type unhandledEvent struct {
	id   string
	kind string
}

func (e checkoutCompleted) eventID() string { return e.id }
func (e checkoutExpired) eventID() string   { return e.id }
func (e unhandledEvent) eventID() string    { return e.id }

func parseEvent(event *model.StripeEvent) (webhookEvent, error) {
	switch event.Type {
	case model.EventCheckoutSessionCompleted, model.EventCheckoutSessionAsyncPaymentPassed,
		model.EventCheckoutSessionExpired:
	default:
		return unhandledEvent{id: event.ID, kind: event.Type}, nil
	}

	var object struct {
		ID     string `json:"id"`
		Object string `json:"object"`
	}
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return nil, fmt.Errorf("%w: event %s object: %v", ErrInvalidInput, event.ID, err)
	}
	if object.ID == "" {
		return nil, fmt.Errorf("%w: event %s has no session id", ErrInvalidInput, event.ID)
	}
	if object.Object != "" && object.Object != "checkout.session" {
		return nil, fmt.Errorf("%w: event %s carries a %s", ErrInvalidInput, event.ID, object.Object)
	}

	if event.Type == model.EventCheckoutSessionExpired {
		return checkoutExpired{id: event.ID, sessionID: object.ID}, nil
	}
	return checkoutCompleted{id: event.ID, sessionID: object.ID}, nil
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	raw, err := s.stripeClient.ConstructEvent(payload, signature)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook signature verification failed", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	logger := s.logger.With("event_id", raw.ID, "event_type", raw.Type)

	state, err := s.eventRepo.Claim(ctx, raw.ID, raw.Type)
	if err != nil {
		logger.ErrorContext(ctx, "claim webhook event failed", "error", err)
		return upstream("claim webhook event", err)
	}
	switch state {
	case repository.ClaimProcessed:
		logger.InfoContext(ctx, "duplicate webhook event skipped")
		return nil
	case repository.ClaimInFlight:
		// the holder may still die; only a finished event is acknowledged
		logger.WarnContext(ctx, "webhook event claimed by another delivery")
		return ErrEventInProgress
	}

	event, err := parseEvent(raw)
	if err != nil {
		logger.ErrorContext(ctx, "unparseable webhook event", "error", err)
		s.markProcessed(ctx, logger, raw.ID)
		return nil
	}

	switch ev := event.(type) {
	case checkoutCompleted:
		err = s.fulfil(ctx, logger.With("session_id", ev.sessionID), ev.sessionID)
	case checkoutExpired:
		err = s.expire(ctx, logger.With("session_id", ev.sessionID), ev.sessionID)
	case unhandledEvent:
		logger.DebugContext(ctx, "ignoring webhook event")
	}

	if err != nil {
		if releaseErr := s.eventRepo.Release(ctx, raw.ID); releaseErr != nil {
			logger.ErrorContext(ctx, "release webhook event failed", "error", releaseErr)
		}
		return err
	}

	s.markProcessed(ctx, logger, raw.ID)
	s.metrics.Count(ctx, metrics.WebhookEventsProcessed, 1)
	return nil
}

func (s *webhookServiceImpl) markProcessed(ctx context.Context, logger *slog.Logger, eventID string) {
	if err := s.eventRepo.MarkProcessed(ctx, eventID); err != nil {
		logger.ErrorContext(ctx, "mark webhook event processed failed", "error", err)
	}
}

// fulfil completes the order and issues one code per line item. Only
// failures a redelivery could fix are returned.
func (s *webhookServiceImpl) fulfil(ctx context.Context, logger *slog.Logger, sessionID string) error {
	session, err := s.stripeClient.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, client.ErrSessionNotFound) {
			logger.ErrorContext(ctx, "checkout session not found")
			return nil
		}
		logger.ErrorContext(ctx, "retrieve checkout session failed", "error", err)
		return upstream("retrieve checkout session", err)
	}

	if !session.IsPaid() {
		logger.InfoContext(ctx, "checkout session not paid yet", "payment_status", session.PaymentStatus)
		return nil
	}

	env, err := envelope.Decode(session.Metadata)
	if err != nil {
		logger.ErrorContext(ctx, "invalid session metadata", "error", err)
		return nil
	}

	paymentID := ""
	if session.PaymentIntent != nil {
		paymentID = session.PaymentIntent.ID
	}

	var orderID *string
	order, err := s.orderRepo.MarkCompleted(ctx, sessionID, paymentID)
	switch {
	case err == nil:
		orderID = &order.ID
		logger = logger.With("order_id", order.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.WarnContext(ctx, "no order for paid session, issuing unlinked codes")
	case errors.Is(err, repository.ErrOrderNotPending):
		logger.ErrorContext(ctx, "paid session for a closed order, codes not issued", "order_id", order.ID, "status", order.Status)
		return nil
	default:
		logger.ErrorContext(ctx, "complete order failed", "error", err)
		return upstream("complete order", err)
	}

	issued, failed := 0, 0
	for i := range env.Items {
		created, err := s.issue(ctx, logger, env, i, sessionID, orderID)
		if err != nil {
			failed++
			continue
		}
		if created {
			issued++
		}
	}

	s.metrics.Count(ctx, metrics.GiftCodesIssued, float64(issued))
	if failed > 0 {
		// issued items are deduplicated when the provider redelivers
		logger.ErrorContext(ctx, "order partly fulfilled", "items", len(env.Items), "issued", issued, "failed", failed)
		return fmt.Errorf("%w: issue gift codes: %d of %d items failed", ErrUpstream, failed, len(env.Items))
	}
	logger.InfoContext(ctx, "order fulfilled", "items", len(env.Items), "issued", issued)
	return nil
}

// issue creates and emails the code for line item i. It reports whether a
// new code was created; an error means the code could not be stored.
func (s *webhookServiceImpl) issue(ctx context.Context, logger *slog.Logger, env envelope.Envelope, i int, sessionID string, orderID *string) (bool, error) {
	item := env.Resolve(i)
	gift, err := s.giftCodeRepo.Create(ctx, &repository.NewGiftCode{
		OrderID:        orderID,
		SessionID:      &sessionID,
		ItemIndex:      i,
		PlatformID:     item.PlatformID,
		SubscriptionID: item.SubscriptionID,
		RecipientEmail: item.RecipientEmail,
		RecipientName:  item.RecipientName,
		SenderName:     item.SenderName,
		Message:        env.Recipient.Message,
	})

	created := true
	switch {
	case errors.Is(err, repository.ErrAlreadyIssued):
		created = false
		if gift.EmailSentAt != nil {
			logger.InfoContext(ctx, "line item already fulfilled", "item", i)
			return false, nil
		}
	case err != nil:
		logger.ErrorContext(ctx, "create gift code failed", "item", i, "error", err)
		return false, err
	}

	code := giftcode.Format(gift.Code)
	claimed, err := s.giftCodeRepo.ClaimEmail(ctx, gift.Code)
	if err != nil {
		logger.ErrorContext(ctx, "claim gift email failed", "item", i, "code", code, "error", err)
		return created, nil
	}
	if !claimed {
		logger.InfoContext(ctx, "gift email sent or being sent elsewhere", "item", i, "code", code)
		return created, nil
	}

	if err := s.notifier.SendGiftEmail(ctx, gift); err != nil {
		logger.ErrorContext(ctx, "gift email not sent", "item", i, "code", code, "error", err)
	}
	return created, nil
}

func (s *webhookServiceImpl) expire(ctx context.Context, logger *slog.Logger, sessionID string) error {
	order, err := s.orderRepo.MarkExpired(ctx, sessionID)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "order expired", "order_id", order.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.WarnContext(ctx, "no order for expired session")
	case errors.Is(err, repository.ErrOrderNotPending):
		logger.WarnContext(ctx, "expired session for a closed order", "order_id", order.ID, "status", order.Status)
	default:
		logger.ErrorContext(ctx, "expire order failed", "error", err)
		return upstream("expire order", err)
	}
	return nil
}
