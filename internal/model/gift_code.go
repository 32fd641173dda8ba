package model

import "time"

type GiftCodeStatus string

const (
	GiftCodeStatusActive   GiftCodeStatus = "active"
	GiftCodeStatusRedeemed GiftCodeStatus = "redeemed"
	GiftCodeStatusExpired  GiftCodeStatus = "expired"
)

type GiftCode struct {
	Code           string         `gorm:"primaryKey;size:12;not null"`
	OrderID        *string        `gorm:"size:36;index"`
	SessionID      *string        `gorm:"size:255;uniqueIndex:idx_gift_codes_session_item"`
	ItemIndex      int            `gorm:"not null;default:0;uniqueIndex:idx_gift_codes_session_item"`
	PlatformID     string         `gorm:"size:64;not null"`
	SubscriptionID string         `gorm:"size:64;not null"`
	RecipientEmail string         `gorm:"size:255;index;not null"`
	RecipientName  string         `gorm:"size:255"`
	SenderName     string         `gorm:"size:255"`
	Message        string         `gorm:"type:text"`
	Status         GiftCodeStatus `gorm:"size:16;index;not null"`
	ExpiresAt      time.Time      `gorm:"index;not null"`
	RedeemedAt     *time.Time
	EmailSentAt    *time.Time
	EmailClaimedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsExpired reports whether the code is past its expiry at now.
func (g *GiftCode) IsExpired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}

// EffectiveStatus folds lazy expiry into the stored status.
func (g *GiftCode) EffectiveStatus(now time.Time) GiftCodeStatus {
	if g.Status == GiftCodeStatusActive && g.IsExpired(now) {
		return GiftCodeStatusExpired
	}
	return g.Status
}
