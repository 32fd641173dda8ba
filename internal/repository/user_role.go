package repository

import (
	"context"

	"giftaihub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRoleRepository interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
	Grant(ctx context.Context, userID, role string) error
}

type userRoleRepoImpl struct {
	db *gorm.DB
}

func NewUserRoleRepository(db *gorm.DB) UserRoleRepository {
	return &userRoleRepoImpl{db: db}
}

func (r *userRoleRepoImpl) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error

	return count > 0, err
}

func (r *userRoleRepoImpl) Grant(ctx context.Context, userID, role string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserRole{UserID: userID, Role: role}).Error
}
