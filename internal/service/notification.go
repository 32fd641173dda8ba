package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"giftaihub/internal/catalog"
	"giftaihub/internal/client"
	"giftaihub/internal/giftcode"
	"giftaihub/internal/metrics"
	"giftaihub/internal/model"
	"giftaihub/internal/outbox"
	"giftaihub/internal/repository"

	"gorm.io/gorm"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

const dateLayout = "January 2, 2006"

type NotificationService interface {
	// SendGiftEmail and SendRedemptionEmail are best effort: a failure is
	// logged, counted and queued for redelivery, then returned wrapped in
	// ErrEmailDelivery for the caller to log.
	SendGiftEmail(ctx context.Context, gift *model.GiftCode) error
	SendRedemptionEmail(ctx context.Context, gift *model.GiftCode) error
	// Redeliver re-renders and sends a queued email. Errors are returned
	// as-is so the queue can retry.
	Redeliver(ctx context.Context, job outbox.Job) error
}

type notificationServiceImpl struct {
	emailClient  client.EmailClient
	catalogRepo  repository.CatalogRepository
	giftCodeRepo repository.GiftCodeRepository
	publisher    outbox.Publisher
	metrics      metrics.Recorder
	logger       *slog.Logger
	baseURL      string
}

func NewNotificationService(
	emailClient client.EmailClient,
	catalogRepo repository.CatalogRepository,
	giftCodeRepo repository.GiftCodeRepository,
	publisher outbox.Publisher,
	recorder metrics.Recorder,
	logger *slog.Logger,
	baseURL string,
) NotificationService {
	return &notificationServiceImpl{
		emailClient:  emailClient,
		catalogRepo:  catalogRepo,
		giftCodeRepo: giftCodeRepo,
		publisher:    publisher,
		metrics:      recorder,
		logger:       logger,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

type giftEmailData struct {
	RecipientName       string
	SenderName          string
	PlatformName        string
	PlatformDescription string
	Period              string
	Code                string
	Message             string
	ExpiresAt           string
	RedeemURL           string
}

type redemptionEmailData struct {
	RecipientName string
	PlatformName  string
	Period        string
	Code          string
	ActivationURL string
	RedeemedAt    string
}

func (s *notificationServiceImpl) SendGiftEmail(ctx context.Context, gift *model.GiftCode) error {
	msg, err := s.giftMessage(ctx, gift)
	if err == nil {
		err = s.emailClient.Send(ctx, msg)
	}
	if err != nil {
		return s.deliveryFailed(ctx, outbox.JobGiftReceived, gift, err)
	}

	if err := s.giftCodeRepo.MarkEmailSent(ctx, gift.Code); err != nil {
		s.logger.WarnContext(ctx, "mark gift email sent failed", "code", giftcode.Format(gift.Code), "error", err)
	}
	return nil
}

func (s *notificationServiceImpl) SendRedemptionEmail(ctx context.Context, gift *model.GiftCode) error {
	msg, err := s.redemptionMessage(ctx, gift)
	if err == nil {
		err = s.emailClient.Send(ctx, msg)
	}
	if err != nil {
		return s.deliveryFailed(ctx, outbox.JobGiftRedeemed, gift, err)
	}
	return nil
}

func (s *notificationServiceImpl) Redeliver(ctx context.Context, job outbox.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	gift, err := s.giftCodeRepo.FindByCode(ctx, job.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrCodeNotFound, giftcode.Format(job.Code))
		}
		return fmt.Errorf("find gift code: %w", err)
	}

	var msg *client.EmailMessage
	switch job.Kind {
	case outbox.JobGiftReceived:
		if gift.EmailSentAt != nil {
			s.logger.InfoContext(ctx, "gift email already delivered", "code", giftcode.Format(gift.Code))
			return nil
		}
		msg, err = s.giftMessage(ctx, gift)
	case outbox.JobGiftRedeemed:
		msg, err = s.redemptionMessage(ctx, gift)
	}
	if err != nil {
		return err
	}

	if err := s.emailClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	if job.Kind == outbox.JobGiftReceived {
		if err := s.giftCodeRepo.MarkEmailSent(ctx, gift.Code); err != nil {
			s.logger.WarnContext(ctx, "mark gift email sent failed", "code", giftcode.Format(gift.Code), "error", err)
		}
	}

	s.logger.InfoContext(ctx, "email redelivered", "kind", job.Kind, "code", giftcode.Format(gift.Code))
	return nil
}

func (s *notificationServiceImpl) deliveryFailed(ctx context.Context, kind outbox.JobKind, gift *model.GiftCode, cause error) error {
	code := giftcode.Format(gift.Code)
	s.logger.ErrorContext(ctx, "email delivery failed", "kind", kind, "code", code, "error", cause)
	s.metrics.Count(ctx, metrics.EmailDeliveryFailures, 1)

	job := outbox.Job{Kind: kind, Code: gift.Code, Reason: cause.Error()}
	if err := s.publisher.Publish(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "queue email redelivery failed", "kind", kind, "code", code, "error", err)
	}

	return fmt.Errorf("%w: %s: %v", ErrEmailDelivery, kind, cause)
}

func (s *notificationServiceImpl) lookup(ctx context.Context, gift *model.GiftCode) (*model.Platform, *model.Subscription) {
	platform, sub, err := s.catalogRepo.FindSubscription(ctx, gift.PlatformID, gift.SubscriptionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.WarnContext(ctx, "catalog lookup failed", "platform_id", gift.PlatformID, "error", err)
		}
		return nil, nil
	}
	return platform, sub
}

func (s *notificationServiceImpl) giftMessage(ctx context.Context, gift *model.GiftCode) (*client.EmailMessage, error) {
	platform, sub := s.lookup(ctx, gift)
	data := giftEmailData{
		RecipientName:       fallback(gift.RecipientName, "there"),
		SenderName:          fallback(gift.SenderName, "Someone"),
		PlatformName:        catalog.DisplayName(platform),
		PlatformDescription: catalog.DisplayDescription(platform),
		Code:                giftcode.Format(gift.Code),
		Message:             gift.Message,
		ExpiresAt:           gift.ExpiresAt.Format(dateLayout),
		RedeemURL:           s.baseURL + "/redeem?code=" + url.QueryEscape(gift.Code),
	}
	if sub != nil {
		data.Period = sub.Period
	}

	subject := fmt.Sprintf("%s has gifted you %s!", data.SenderName, data.PlatformName)
	return render(gift, subject, "gift_received", data)
}

func (s *notificationServiceImpl) redemptionMessage(ctx context.Context, gift *model.GiftCode) (*client.EmailMessage, error) {
	platform, sub := s.lookup(ctx, gift)
	redeemedAt := time.Now().UTC()
	if gift.RedeemedAt != nil {
		redeemedAt = *gift.RedeemedAt
	}

	data := redemptionEmailData{
		RecipientName: fallback(gift.RecipientName, "there"),
		PlatformName:  catalog.DisplayName(platform),
		Code:          giftcode.Format(gift.Code),
		ActivationURL: s.baseURL + "/redeem",
		RedeemedAt:    redeemedAt.Format(dateLayout),
	}
	if platform != nil && platform.ActivationURL != "" {
		data.ActivationURL = platform.ActivationURL
	}
	if sub != nil {
		data.Period = sub.Period
	}

	subject := fmt.Sprintf("Your %s Gift Has Been Activated!", data.PlatformName)
	return render(gift, subject, "gift_redeemed", data)
}

func render(gift *model.GiftCode, subject, name string, data interface{}) (*client.EmailMessage, error) {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", name, err)
	}

	return &client.EmailMessage{
		To:          client.EmailAddress{Email: gift.RecipientEmail, Name: gift.RecipientName},
		Subject:     subject,
		HTMLContent: html.String(),
		TextContent: text.String(),
	}, nil
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
