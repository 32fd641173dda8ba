package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"giftaihub/internal/catalog"
	"giftaihub/internal/dto"
	"giftaihub/internal/giftcode"
	"giftaihub/internal/metrics"
	"giftaihub/internal/model"
	"giftaihub/internal/repository"

	"gorm.io/gorm"
)

type RedemptionService interface {
	Verify(ctx context.Context, rawCode, email string) (*dto.GiftDetails, error)
	Redeem(ctx context.Context, rawCode, email string) (*dto.RedemptionResult, error)
}

type redemptionServiceImpl struct {
	giftCodeRepo repository.GiftCodeRepository
	catalogRepo  repository.CatalogRepository
	notifier     NotificationService
	metrics      metrics.Recorder
	logger       *slog.Logger
}

func NewRedemptionService(
	giftCodeRepo repository.GiftCodeRepository,
	catalogRepo repository.CatalogRepository,
	notifier NotificationService,
	recorder metrics.Recorder,
	logger *slog.Logger,
) RedemptionService {
	return &redemptionServiceImpl{
		giftCodeRepo: giftCodeRepo,
		catalogRepo:  catalogRepo,
		notifier:     notifier,
		metrics:      recorder,
		logger:       logger,
	}
}

// lookup returns the active code for rawCode after checking the optional
// recipient email.
func (s *redemptionServiceImpl) lookup(ctx context.Context, rawCode, email string) (*model.GiftCode, error) {
	code := giftcode.Normalize(rawCode)
	if !giftcode.Valid(code) {
		return nil, ErrCodeNotFound
	}

	gift, err := s.giftCodeRepo.FindActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		s.logger.ErrorContext(ctx, "find gift code failed", "code", giftcode.Format(code), "error", err)
		return nil, upstream("find gift code", err)
	}

	email = strings.TrimSpace(email)
	if email != "" && !strings.EqualFold(email, gift.RecipientEmail) {
		s.logger.WarnContext(ctx, "gift code email mismatch", "code", giftcode.Format(code))
		return nil, ErrEmailMismatch
	}

	return gift, nil
}

func (s *redemptionServiceImpl) Verify(ctx context.Context, rawCode, email string) (*dto.GiftDetails, error) {
	gift, err := s.lookup(ctx, rawCode, email)
	if err != nil {
		return nil, err
	}

	details := &dto.GiftDetails{
		Code:                giftcode.Format(gift.Code),
		PlatformID:          gift.PlatformID,
		PlatformName:        catalog.FallbackPlatformName,
		PlatformDescription: catalog.FallbackPlatformDescription,
		SubscriptionID:      gift.SubscriptionID,
		SenderName:          gift.SenderName,
		RecipientName:       gift.RecipientName,
		Message:             gift.Message,
		ExpiresAt:           gift.ExpiresAt,
	}

	platform, sub, err := s.catalogRepo.FindSubscription(ctx, gift.PlatformID, gift.SubscriptionID)
	switch {
	case err == nil:
		details.PlatformName = catalog.DisplayName(platform)
		details.PlatformDescription = catalog.DisplayDescription(platform)
		details.Period = sub.Period
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.WarnContext(ctx, "catalog lookup failed", "platform_id", gift.PlatformID, "error", err)
	}

	return details, nil
}

func (s *redemptionServiceImpl) Redeem(ctx context.Context, rawCode, email string) (*dto.RedemptionResult, error) {
	gift, err := s.lookup(ctx, rawCode, email)
	if err != nil {
		return nil, err
	}

	redeemed, err := s.giftCodeRepo.Redeem(ctx, gift.Code)
	if err != nil {
		if errors.Is(err, repository.ErrNotRedeemable) {
			return nil, fmt.Errorf("%w: %s", ErrNotRedeemable, giftcode.Format(gift.Code))
		}
		s.logger.ErrorContext(ctx, "redeem gift code failed", "code", giftcode.Format(gift.Code), "error", err)
		return nil, upstream("redeem gift code", err)
	}

	s.metrics.Count(ctx, metrics.GiftCodesRedeemed, 1)
	s.logger.InfoContext(ctx, "gift code redeemed",
		"code", giftcode.Format(redeemed.Code),
		"platform_id", redeemed.PlatformID,
		"subscription_id", redeemed.SubscriptionID,
	)

	if err := s.notifier.SendRedemptionEmail(ctx, redeemed); err != nil {
		s.logger.ErrorContext(ctx, "redemption email not sent", "code", giftcode.Format(redeemed.Code), "error", err)
	}

	return &dto.RedemptionResult{
		PlatformID:     redeemed.PlatformID,
		SubscriptionID: redeemed.SubscriptionID,
		RedeemedAt:     *redeemed.RedeemedAt,
	}, nil
}
