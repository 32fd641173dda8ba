package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"giftaihub/internal/dto"
	"giftaihub/internal/giftcode"
	"giftaihub/internal/model"
	"giftaihub/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type AdminService interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	GrantAdmin(ctx context.Context, userID string) error
	ListOrders(ctx context.Context, limit, offset int) ([]dto.OrderResponse, error)
	GetGiftCodeStatus(ctx context.Context, rawCode string) (*dto.GiftCodeStatus, error)
}

type adminServiceImpl struct {
	userRoleRepo repository.UserRoleRepository
	orderRepo    repository.OrderRepository
	giftCodeRepo repository.GiftCodeRepository
	now          func() time.Time
}

func NewAdminService(
	userRoleRepo repository.UserRoleRepository,
	orderRepo repository.OrderRepository,
	giftCodeRepo repository.GiftCodeRepository,
) AdminService {
	return &adminServiceImpl{
		userRoleRepo: userRoleRepo,
		orderRepo:    orderRepo,
		giftCodeRepo: giftCodeRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *adminServiceImpl) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}
	ok, err := s.userRoleRepo.HasRole(ctx, userID, model.RoleAdmin)
	if err != nil {
		return false, upstream("check role", err)
	}
	return ok, nil
}

func (s *adminServiceImpl) GrantAdmin(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := s.userRoleRepo.Grant(ctx, userID, model.RoleAdmin); err != nil {
		return upstream("grant role", err)
	}
	return nil
}

func (s *adminServiceImpl) ListOrders(ctx context.Context, limit, offset int) ([]dto.OrderResponse, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, upstream("list orders", err)
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.OrderResponse{
			ID:             o.ID,
			SessionID:      o.SessionID,
			Status:         string(o.Status),
			PlatformID:     o.PlatformID,
			SubscriptionID: o.SubscriptionID,
			RecipientEmail: o.RecipientEmail,
			ItemCount:      o.ItemCount,
			Amount:         o.Amount.StringFixed(2),
			Currency:       o.Currency,
			PaymentID:      o.PaymentID,
			CreatedAt:      o.CreatedAt,
		})
	}
	return out, nil
}

// GetGiftCodeStatus reports any code regardless of status, with lazy expiry applied.
func (s *adminServiceImpl) GetGiftCodeStatus(ctx context.Context, rawCode string) (*dto.GiftCodeStatus, error) {
	code := giftcode.Normalize(rawCode)
	if !giftcode.Valid(code) {
		return nil, ErrCodeNotFound
	}

	gift, err := s.giftCodeRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, upstream("find gift code", err)
	}

	status := &dto.GiftCodeStatus{
		Code:           giftcode.Format(gift.Code),
		Status:         string(gift.EffectiveStatus(s.now())),
		ItemIndex:      gift.ItemIndex,
		PlatformID:     gift.PlatformID,
		SubscriptionID: gift.SubscriptionID,
		RecipientEmail: gift.RecipientEmail,
		ExpiresAt:      gift.ExpiresAt,
		RedeemedAt:     gift.RedeemedAt,
		EmailSentAt:    gift.EmailSentAt,
		CreatedAt:      gift.CreatedAt,
	}
	if gift.OrderID != nil {
		status.OrderID = *gift.OrderID
	}
	if gift.SessionID != nil {
		status.SessionID = *gift.SessionID
	}
	return status, nil
}
