package repository

import (
	"context"
	"testing"
	"time"

	"giftaihub/internal/model"
	"giftaihub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimStates(t *testing.T) {
	ctx := context.Background()
	repo := NewWebhookEventRepository(testutil.NewDB(t))

	state, err := repo.Claim(ctx, "evt_1", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)

	state, err = repo.Claim(ctx, "evt_1", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, ClaimInFlight, state)

	require.NoError(t, repo.MarkProcessed(ctx, "evt_1"))

	state, err = repo.Claim(ctx, "evt_1", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, ClaimProcessed, state)
}

func TestReleaseAllowsRetry(t *testing.T) {
	ctx := context.Background()
	repo := NewWebhookEventRepository(testutil.NewDB(t))

	state, err := repo.Claim(ctx, "evt_2", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, state)

	require.NoError(t, repo.Release(ctx, "evt_2"))

	state, err = repo.Claim(ctx, "evt_2", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)
}

func TestReleaseKeepsProcessedEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewWebhookEventRepository(testutil.NewDB(t))

	_, err := repo.Claim(ctx, "evt_3", model.EventCheckoutSessionExpired)
	require.NoError(t, err)
	require.NoError(t, repo.MarkProcessed(ctx, "evt_3"))
	require.NoError(t, repo.Release(ctx, "evt_3"))

	state, err := repo.Claim(ctx, "evt_3", model.EventCheckoutSessionExpired)
	require.NoError(t, err)
	assert.Equal(t, ClaimProcessed, state)
}

func TestStaleClaimIsTakenOver(t *testing.T) {
	ctx := context.Background()
	impl := NewWebhookEventRepository(testutil.NewDB(t)).(*webhookEventRepoImpl)

	start := time.Now().UTC()
	impl.now = func() time.Time { return start }
	state, err := impl.Claim(ctx, "evt_4", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, state)

	impl.now = func() time.Time { return start.Add(time.Minute) }
	state, err = impl.Claim(ctx, "evt_4", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, ClaimInFlight, state)

	impl.now = func() time.Time { return start.Add(staleClaimAfter + time.Minute) }
	state, err = impl.Claim(ctx, "evt_4", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)
}

func TestProcessedClaimIsNeverTakenOver(t *testing.T) {
	ctx := context.Background()
	impl := NewWebhookEventRepository(testutil.NewDB(t)).(*webhookEventRepoImpl)

	start := time.Now().UTC()
	impl.now = func() time.Time { return start }
	_, err := impl.Claim(ctx, "evt_5", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	require.NoError(t, impl.MarkProcessed(ctx, "evt_5"))

	impl.now = func() time.Time { return start.Add(time.Hour) }
	state, err := impl.Claim(ctx, "evt_5", model.EventCheckoutSessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, ClaimProcessed, state)
}
