package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giftaihub/internal/giftcode"
	"giftaihub/internal/model"

	"gorm.io/gorm"
)

const (
	giftCodeTTL         = 365 * 24 * time.Hour
	maxGenerateAttempts = 3
	// a send claim older than this belongs to a sender that died
	emailClaimTTL = 2 * time.Minute
)

var (
	ErrNotRedeemable = errors.New("gift code is not redeemable")
	ErrAlreadyIssued = errors.New("gift code already issued for this line item")
	ErrCodeCollision = errors.New("could not allocate a unique gift code")
)

type NewGiftCode struct {
	OrderID        *string
	SessionID      *string
	ItemIndex      int
	PlatformID     string
	SubscriptionID string
	RecipientEmail string
	RecipientName  string
	SenderName     string
	Message        string
}

type GiftCodeRepository interface {
	// Create issues a new active code. It is only wired into webhook
	// fulfilment, which runs without an end-user session.
	Create(ctx context.Context, fields *NewGiftCode) (*model.GiftCode, error)
	FindActiveByCode(ctx context.Context, code string) (*model.GiftCode, error)
	FindByCode(ctx context.Context, code string) (*model.GiftCode, error)
	FindBySessionItem(ctx context.Context, sessionID string, itemIndex int) (*model.GiftCode, error)
	ListByOrder(ctx context.Context, orderID string) ([]*model.GiftCode, error)
	Redeem(ctx context.Context, code string) (*model.GiftCode, error)
	// ClaimEmail reserves the gift email send for one caller. It fails
	// once the email went out or while another caller holds the claim.
	ClaimEmail(ctx context.Context, code string) (bool, error)
	MarkEmailSent(ctx context.Context, code string) error
}

type giftCodeRepoImpl struct {
	db       *gorm.DB
	generate func() (string, error)
	now      func() time.Time
}

func NewGiftCodeRepository(db *gorm.DB) GiftCodeRepository {
	return &giftCodeRepoImpl{
		db:       db,
		generate: giftcode.New,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *giftCodeRepoImpl) Create(ctx context.Context, fields *NewGiftCode) (*model.GiftCode, error) {
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		code, err := r.generate()
		if err != nil {
			return nil, fmt.Errorf("generate gift code: %w", err)
		}

		now := r.now()
		gift := &model.GiftCode{
			Code:           code,
			OrderID:        fields.OrderID,
			SessionID:      fields.SessionID,
			ItemIndex:      fields.ItemIndex,
			PlatformID:     fields.PlatformID,
			SubscriptionID: fields.SubscriptionID,
			RecipientEmail: fields.RecipientEmail,
			RecipientName:  fields.RecipientName,
			SenderName:     fields.SenderName,
			Message:        fields.Message,
			Status:         model.GiftCodeStatusActive,
			ExpiresAt:      now.Add(giftCodeTTL),
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		err = r.db.WithContext(ctx).Create(gift).Error
		if err == nil {
			return gift, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("insert gift code: %w", err)
		}

		// either the line item was already fulfilled or the random code collided
		if fields.SessionID != nil {
			existing, findErr := r.FindBySessionItem(ctx, *fields.SessionID, fields.ItemIndex)
			if findErr == nil {
				return existing, ErrAlreadyIssued
			}
			if !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("check existing gift code: %w", findErr)
			}
		}
	}

	return nil, ErrCodeCollision
}

// FindActiveByCode hides redeemed, expired and missing codes behind the same
// gorm.ErrRecordNotFound. It never writes.
func (r *giftCodeRepoImpl) FindActiveByCode(ctx context.Context, code string) (*model.GiftCode, error) {
	var gift model.GiftCode
	err := r.db.WithContext(ctx).
		Where("code = ? AND status = ? AND expires_at > ?", code, model.GiftCodeStatusActive, r.now()).
		First(&gift).Error
	if err != nil {
		return nil, err
	}

	return &gift, nil
}

func (r *giftCodeRepoImpl) FindByCode(ctx context.Context, code string) (*model.GiftCode, error) {
	var gift model.GiftCode
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&gift).Error
	if err != nil {
		return nil, err
	}

	return &gift, nil
}

func (r *giftCodeRepoImpl) FindBySessionItem(ctx context.Context, sessionID string, itemIndex int) (*model.GiftCode, error) {
	var gift model.GiftCode
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND item_index = ?", sessionID, itemIndex).
		First(&gift).Error
	if err != nil {
		return nil, err
	}

	return &gift, nil
}

func (r *giftCodeRepoImpl) ListByOrder(ctx context.Context, orderID string) ([]*model.GiftCode, error) {
	var gifts []*model.GiftCode
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("item_index ASC").
		Find(&gifts).Error
	if err != nil {
		return nil, err
	}

	return gifts, nil
}

// Redeem flips one active, unexpired row to redeemed in a single conditional
// update. Concurrent callers race on that statement and only one sees a row.
// An active row found past its expiry is stored as expired.
func (r *giftCodeRepoImpl) Redeem(ctx context.Context, code string) (*model.GiftCode, error) {
	var gift model.GiftCode
	now := r.now()
	redeemable := true

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.GiftCode{}).
			Where("code = ? AND status = ? AND expires_at > ?", code, model.GiftCodeStatusActive, now).
			Updates(map[string]interface{}{
				"status":      model.GiftCodeStatusRedeemed,
				"redeemed_at": now,
				"updated_at":  now,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			redeemable = false
			return tx.Model(&model.GiftCode{}).
				Where("code = ? AND status = ? AND expires_at <= ?", code, model.GiftCodeStatusActive, now).
				Updates(map[string]interface{}{
					"status":     model.GiftCodeStatusExpired,
					"updated_at": now,
				}).Error
		}

		return tx.Where("code = ?", code).First(&gift).Error
	})
	if err != nil {
		return nil, err
	}
	if !redeemable {
		return nil, ErrNotRedeemable
	}

	return &gift, nil
}

func (r *giftCodeRepoImpl) ClaimEmail(ctx context.Context, code string) (bool, error) {
	now := r.now()
	result := r.db.WithContext(ctx).Model(&model.GiftCode{}).
		Where("code = ? AND email_sent_at IS NULL AND (email_claimed_at IS NULL OR email_claimed_at < ?)",
			code, now.Add(-emailClaimTTL)).
		Updates(map[string]interface{}{
			"email_claimed_at": now,
			"updated_at":       now,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *giftCodeRepoImpl) MarkEmailSent(ctx context.Context, code string) error {
	now := r.now()
	return r.db.WithContext(ctx).Model(&model.GiftCode{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"email_sent_at": now,
			"updated_at":    now,
		}).Error
}
