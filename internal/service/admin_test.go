package service

import (
	"context"
	"testing"
	"time"

	"giftaihub/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ok, err := h.admin.IsAdmin(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.admin.GrantAdmin(ctx, "user-1"))
	require.NoError(t, h.admin.GrantAdmin(ctx, "user-1"))

	ok, err = h.admin.IsAdmin(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.admin.IsAdmin(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, h.admin.GrantAdmin(ctx, " "), ErrInvalidInput)
}

func TestAdminListOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := h.checkout.CreateSession(ctx, []*dto.LineItem{
			lineItem("chatgpt", "chatgpt-1-month", "ana@example.com", "Ana"),
		})
		require.NoError(t, err)
	}

	orders, err := h.admin.ListOrders(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "24.99", orders[0].Amount)
	assert.Equal(t, "pending", orders[0].Status)

	page, err := h.admin.ListOrders(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestAdminGiftCodeStatusAppliesLazyExpiry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.insertGift(t, testCode, time.Now().UTC().Add(-time.Hour))

	status, err := h.admin.GetGiftCodeStatus(ctx, "abcd 1234 efgh")
	require.NoError(t, err)
	assert.Equal(t, "ABCD-1234-EFGH", status.Code)
	assert.Equal(t, "expired", status.Status)

	_, err = h.admin.GetGiftCodeStatus(ctx, "ZZZZ9999ZZZZ")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}
