package repository

import (
	"context"
	"testing"

	"giftaihub/internal/model"
	"giftaihub/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCatalogSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testutil.NewDB(t))

	platforms := []model.Platform{{
		ID:   "perplexity",
		Name: "Perplexity Pro",
		Subscriptions: []model.Subscription{
			{ID: "perplexity-1-month", Period: "1 month", Price: decimal.RequireFromString("20")},
			{ID: "perplexity-1-year", Period: "1 year", Price: decimal.RequireFromString("192")},
		},
	}}
	require.NoError(t, repo.Seed(ctx, platforms))

	platforms[0].Subscriptions[0].Price = decimal.RequireFromString("18")
	require.NoError(t, repo.Seed(ctx, platforms))

	platform, sub, err := repo.FindSubscription(ctx, "perplexity", "perplexity-1-month")
	require.NoError(t, err)
	assert.Equal(t, "Perplexity Pro", platform.Name)
	assert.Equal(t, "18.00", sub.Price.StringFixed(2))

	all, err := repo.ListPlatforms(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Subscriptions, 2)
}

func TestFindSubscriptionRequiresMatchingPlatform(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	testutil.SeedPlatforms(t, db)
	repo := NewCatalogRepository(db)

	_, _, err := repo.FindSubscription(ctx, "claude", "chatgpt-1-month")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, _, err = repo.FindSubscription(ctx, "gemini", "gemini-1-month")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRoles(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRoleRepository(testutil.NewDB(t))

	ok, err := repo.HasRole(ctx, "user-1", model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Grant(ctx, "user-1", model.RoleAdmin))
	require.NoError(t, repo.Grant(ctx, "user-1", model.RoleAdmin))

	ok, err = repo.HasRole(ctx, "user-1", model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
}
