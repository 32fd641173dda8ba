package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusExpired   OrderStatus = "expired"
)

type Order struct {
	ID             string          `gorm:"primaryKey;size:36;not null"`   // uuid
	SessionID      string          `gorm:"size:255;uniqueIndex;not null"` // checkout session id
	PlatformID     string          `gorm:"size:64;index;not null"`        // first line item
	SubscriptionID string          `gorm:"size:64;not null"`
	RecipientEmail string          `gorm:"size:255;not null"`
	RecipientName  string          `gorm:"size:255;not null"`
	SenderName     string          `gorm:"size:255;not null"`
	Message        string          `gorm:"type:text"`
	ItemCount      int             `gorm:"not null;default:1"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null"` // items + service fee
	Currency       string          `gorm:"size:8;not null"`
	Status         OrderStatus     `gorm:"size:16;index;not null"`
	PaymentID      string          `gorm:"size:255"` // payment intent, set on completion
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
