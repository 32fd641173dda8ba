package repository

import (
	"context"
	"errors"
	"time"

	"giftaihub/internal/model"

	"gorm.io/gorm"
)

var ErrOrderNotPending = errors.New("order is no longer pending")

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	MarkCompleted(ctx context.Context, sessionID, paymentID string) (*model.Order, error)
	MarkExpired(ctx context.Context, sessionID string) (*model.Order, error)
	List(ctx context.Context, limit, offset int) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order) error {
	if order.Status == "" {
		order.Status = model.OrderStatusPending
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

// MarkCompleted moves a pending order to completed. Completing an already
// completed order is a no-op; an expired order is left untouched and
// ErrOrderNotPending is returned with the current row.
func (r *orderRepoImpl) MarkCompleted(ctx context.Context, sessionID, paymentID string) (*model.Order, error) {
	return r.transition(ctx, sessionID, model.OrderStatusCompleted, map[string]interface{}{
		"status":     model.OrderStatusCompleted,
		"payment_id": paymentID,
	})
}

func (r *orderRepoImpl) MarkExpired(ctx context.Context, sessionID string) (*model.Order, error) {
	return r.transition(ctx, sessionID, model.OrderStatusExpired, map[string]interface{}{
		"status": model.OrderStatusExpired,
	})
}

func (r *orderRepoImpl) transition(ctx context.Context, sessionID string, to model.OrderStatus, updates map[string]interface{}) (*model.Order, error) {
	var order model.Order
	updates["updated_at"] = r.now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("session_id = ? AND status = ?", sessionID, model.OrderStatusPending).
			Updates(updates)

		if result.Error != nil {
			return result.Error
		}

		if err := tx.Where("session_id = ?", sessionID).First(&order).Error; err != nil {
			return err
		}

		if result.RowsAffected == 0 && order.Status != to {
			return ErrOrderNotPending
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrOrderNotPending) {
			return &order, err
		}
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, limit, offset int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}
