package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Platform struct {
	ID            string         `gorm:"primaryKey;size:64;not null"` // chatgpt, claude, ...
	Name          string         `gorm:"size:128;not null"`
	Company       string         `gorm:"size:128"`
	Category      string         `gorm:"size:64;index"`
	Description   string         `gorm:"type:text"`
	ActivationURL string         `gorm:"size:255"`
	Subscriptions []Subscription `gorm:"foreignKey:PlatformID;references:ID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Subscription struct {
	ID         string          `gorm:"primaryKey;size:64;not null"` // chatgpt-1-month
	PlatformID string          `gorm:"size:64;index;not null"`
	Period     string          `gorm:"size:32;not null"` // 1 month, 3 months, 1 year
	Tier       string          `gorm:"size:32"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Popular    bool            `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type UserRole struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:64;uniqueIndex:idx_user_roles_user_role;not null"`
	Role      string `gorm:"size:32;uniqueIndex:idx_user_roles_user_role;not null"` // admin
	CreatedAt time.Time
}

const RoleAdmin = "admin"

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"` // provider event id
	EventType   string `gorm:"size:64;index"`
	ProcessedAt *time.Time
	CreatedAt   time.Time
}
