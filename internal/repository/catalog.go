package repository

import (
	"context"
	"fmt"

	"giftaihub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository interface {
	Seed(ctx context.Context, platforms []model.Platform) error
	FindPlatform(ctx context.Context, platformID string) (*model.Platform, error)
	FindSubscription(ctx context.Context, platformID, subscriptionID string) (*model.Platform, *model.Subscription, error)
	ListPlatforms(ctx context.Context) ([]*model.Platform, error)
}

type catalogRepoImpl struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepoImpl{
		db: db,
	}
}

// Seed upserts platforms and their subscriptions so the seed file stays the
// source of truth on every run.
func (r *catalogRepoImpl) Seed(ctx context.Context, platforms []model.Platform) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range platforms {
			subs := p.Subscriptions
			p.Subscriptions = nil

			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&p).Error; err != nil {
				return fmt.Errorf("upsert platform %s: %w", p.ID, err)
			}
			if len(subs) == 0 {
				continue
			}
			for i := range subs {
				subs[i].PlatformID = p.ID
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&subs).Error; err != nil {
				return fmt.Errorf("upsert subscriptions of %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (r *catalogRepoImpl) FindPlatform(ctx context.Context, platformID string) (*model.Platform, error) {
	var platform model.Platform
	err := r.db.WithContext(ctx).
		Where("id = ?", platformID).
		First(&platform).Error

	if err != nil {
		return nil, err
	}

	return &platform, nil
}

func (r *catalogRepoImpl) FindSubscription(ctx context.Context, platformID, subscriptionID string) (*model.Platform, *model.Subscription, error) {
	platform, err := r.FindPlatform(ctx, platformID)
	if err != nil {
		return nil, nil, err
	}

	var sub model.Subscription
	err = r.db.WithContext(ctx).
		Where("id = ? AND platform_id = ?", subscriptionID, platformID).
		First(&sub).Error

	if err != nil {
		return nil, nil, err
	}

	return platform, &sub, nil
}

func (r *catalogRepoImpl) ListPlatforms(ctx context.Context) ([]*model.Platform, error) {
	var platforms []*model.Platform
	err := r.db.WithContext(ctx).
		Preload("Subscriptions", func(db *gorm.DB) *gorm.DB {
			return db.Order("price ASC")
		}).
		Order("name ASC").
		Find(&platforms).Error

	if err != nil {
		return nil, err
	}

	return platforms, nil
}
