// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"giftaihub/internal/client"
	"giftaihub/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := client.InitSqliteClient(dsn)
	if err != nil {
		t.Fatalf("init sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// SeedPlatforms inserts a small catalog used across tests.
func SeedPlatforms(t testing.TB, db *gorm.DB) []model.Platform {
	t.Helper()

	platforms := []model.Platform{
		{
			ID:            "chatgpt",
			Name:          "ChatGPT Plus",
			Company:       "OpenAI",
			Description:   "Access to GPT-4o, faster response times, and priority features",
			ActivationURL: "https://chat.openai.com/redeem",
			Subscriptions: []model.Subscription{
				{ID: "chatgpt-1-month", PlatformID: "chatgpt", Period: "1 month", Price: decimal.RequireFromString("20.00")},
				{ID: "chatgpt-1-year", PlatformID: "chatgpt", Period: "1 year", Price: decimal.RequireFromString("192.00")},
			},
		},
		{
			ID:            "claude",
			Name:          "Claude Pro",
			Company:       "Anthropic",
			Description:   "Advanced AI assistant with improved reasoning and longer context",
			ActivationURL: "https://claude.ai/redeem",
			Subscriptions: []model.Subscription{
				{ID: "claude-3-months", PlatformID: "claude", Period: "3 months", Price: decimal.RequireFromString("57.00")},
			},
		},
	}

	if err := db.WithContext(context.Background()).Create(&platforms).Error; err != nil {
		t.Fatalf("seed platforms: %v", err)
	}
	return platforms
}
