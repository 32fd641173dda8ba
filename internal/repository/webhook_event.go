package repository

import (
	"context"
	"errors"
	"time"

	"giftaihub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// claims older than this without processed_at belong to a crashed delivery.
// Kept below the provider's first retry interval.
const staleClaimAfter = 2 * time.Minute

type ClaimState int

const (
	ClaimAcquired ClaimState = iota
	// ClaimProcessed means an earlier delivery finished the event.
	ClaimProcessed
	// ClaimInFlight means another delivery holds a live claim.
	ClaimInFlight
)

type WebhookEventRepository interface {
	Claim(ctx context.Context, eventID, eventType string) (ClaimState, error)
	Release(ctx context.Context, eventID string) error
	MarkProcessed(ctx context.Context, eventID string) error
}

type webhookEventRepoImpl struct {
	db  *gorm.DB
	now func() time.Time
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepoImpl{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *webhookEventRepoImpl) Claim(ctx context.Context, eventID, eventType string) (ClaimState, error) {
	now := r.now()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.WebhookEvent{
			EventID:   eventID,
			EventType: eventType,
			CreatedAt: now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 1 {
		return ClaimAcquired, nil
	}

	// take over an abandoned claim
	result = r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("event_id = ? AND processed_at IS NULL AND created_at < ?", eventID, now.Add(-staleClaimAfter)).
		Update("created_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 1 {
		return ClaimAcquired, nil
	}

	var event model.WebhookEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// released by its holder since the insert; the provider will retry
		return ClaimInFlight, nil
	}
	if err != nil {
		return 0, err
	}
	if event.ProcessedAt != nil {
		return ClaimProcessed, nil
	}
	return ClaimInFlight, nil
}

func (r *webhookEventRepoImpl) Release(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).
		Where("event_id = ? AND processed_at IS NULL", eventID).
		Delete(&model.WebhookEvent{}).Error
}

func (r *webhookEventRepoImpl) MarkProcessed(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Update("processed_at", r.now()).Error
}
