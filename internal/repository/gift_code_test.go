package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"giftaihub/internal/model"
	"giftaihub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func newGiftFields(sessionID string, index int) *NewGiftCode {
	return &NewGiftCode{
		OrderID:        strPtr("3f0c8a52-2a52-4c38-9b8b-6c1f0f9e8a11"),
		SessionID:      strPtr(sessionID),
		ItemIndex:      index,
		PlatformID:     "chatgpt",
		SubscriptionID: "chatgpt-1-month",
		RecipientEmail: "ana@example.com",
		RecipientName:  "Ana",
		SenderName:     "Sam",
		Message:        "enjoy",
	}
}

func TestGiftCodeCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewGiftCodeRepository(testutil.NewDB(t))

	before := time.Now().UTC()
	gift, err := repo.Create(ctx, newGiftFields("cs_test_create", 0))
	require.NoError(t, err)

	assert.Len(t, gift.Code, 12)
	assert.Equal(t, model.GiftCodeStatusActive, gift.Status)
	assert.Nil(t, gift.RedeemedAt)
	assert.WithinDuration(t, before.Add(365*24*time.Hour), gift.ExpiresAt, 24*time.Hour)

	stored, err := repo.FindActiveByCode(ctx, gift.Code)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", stored.RecipientEmail)
	assert.Equal(t, "enjoy", stored.Message)
}

func TestGiftCodeCreateRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	impl := NewGiftCodeRepository(testutil.NewDB(t)).(*giftCodeRepoImpl)

	codes := []string{"AAAA1111BBBB", "AAAA1111BBBB", "CCCC2222DDDD"}
	impl.generate = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	first, err := impl.Create(ctx, newGiftFields("cs_collide", 0))
	require.NoError(t, err)
	assert.Equal(t, "AAAA1111BBBB", first.Code)

	second, err := impl.Create(ctx, newGiftFields("cs_collide", 1))
	require.NoError(t, err)
	assert.Equal(t, "CCCC2222DDDD", second.Code)
}

func TestGiftCodeCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	ctx := context.Background()
	impl := NewGiftCodeRepository(testutil.NewDB(t)).(*giftCodeRepoImpl)
	impl.generate = func() (string, error) { return "SAMESAMESAME", nil }

	_, err := impl.Create(ctx, newGiftFields("cs_same", 0))
	require.NoError(t, err)

	_, err = impl.Create(ctx, newGiftFields("cs_same", 1))
	assert.ErrorIs(t, err, ErrCodeCollision)
}

func TestGiftCodeCreateDedupesLineItem(t *testing.T) {
	ctx := context.Background()
	repo := NewGiftCodeRepository(testutil.NewDB(t))

	first, err := repo.Create(ctx, newGiftFields("cs_dupe", 0))
	require.NoError(t, err)

	again, err := repo.Create(ctx, newGiftFields("cs_dupe", 0))
	assert.ErrorIs(t, err, ErrAlreadyIssued)
	require.NotNil(t, again)
	assert.Equal(t, first.Code, again.Code)
}

func TestFindActiveByCodeHidesInactive(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGiftCodeRepository(db)

	redeemed, err := repo.Create(ctx, newGiftFields("cs_hidden", 0))
	require.NoError(t, err)
	_, err = repo.Redeem(ctx, redeemed.Code)
	require.NoError(t, err)

	expired, err := repo.Create(ctx, newGiftFields("cs_hidden", 1))
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.GiftCode{}).
		Where("code = ?", expired.Code).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)

	for _, code := range []string{redeemed.Code, expired.Code, "NOPENOPENOPE"} {
		_, err := repo.FindActiveByCode(ctx, code)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound, code)
	}

	// the lookup is read-only
	stored, err := repo.FindByCode(ctx, expired.Code)
	require.NoError(t, err)
	assert.Equal(t, model.GiftCodeStatusActive, stored.Status)
}

func TestRedeemTwice(t *testing.T) {
	ctx := context.Background()
	repo := NewGiftCodeRepository(testutil.NewDB(t))

	gift, err := repo.Create(ctx, newGiftFields("cs_twice", 0))
	require.NoError(t, err)

	redeemed, err := repo.Redeem(ctx, gift.Code)
	require.NoError(t, err)
	assert.Equal(t, model.GiftCodeStatusRedeemed, redeemed.Status)
	require.NotNil(t, redeemed.RedeemedAt)

	_, err = repo.Redeem(ctx, gift.Code)
	assert.ErrorIs(t, err, ErrNotRedeemable)
}

func TestRedeemExpiredOrMissing(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewGiftCodeRepository(db)

	gift, err := repo.Create(ctx, newGiftFields("cs_old", 0))
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.GiftCode{}).
		Where("code = ?", gift.Code).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, err = repo.Redeem(ctx, gift.Code)
	assert.ErrorIs(t, err, ErrNotRedeemable)

	// a failed redeem past expiry stores the expiry
	stored, err := repo.FindByCode(ctx, gift.Code)
	require.NoError(t, err)
	assert.Equal(t, model.GiftCodeStatusExpired, stored.Status)
	assert.Nil(t, stored.RedeemedAt)

	_, err = repo.Redeem(ctx, "NOPENOPENOPE")
	assert.ErrorIs(t, err, ErrNotRedeemable)
}

func TestRedeemConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewGiftCodeRepository(testutil.NewDB(t))

	gift, err := repo.Create(ctx, newGiftFields("cs_race", 0))
	require.NoError(t, err)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
		other     []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Redeem(ctx, gift.Code)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrNotRedeemable):
				rejected++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)
}

func TestListByOrderAndMarkEmailSent(t *testing.T) {
	ctx := context.Background()
	repo := NewGiftCodeRepository(testutil.NewDB(t))

	a, err := repo.Create(ctx, newGiftFields("cs_list", 0))
	require.NoError(t, err)
	b, err := repo.Create(ctx, newGiftFields("cs_list", 1))
	require.NoError(t, err)

	gifts, err := repo.ListByOrder(ctx, *a.OrderID)
	require.NoError(t, err)
	require.Len(t, gifts, 2)
	assert.Equal(t, a.Code, gifts[0].Code)
	assert.Equal(t, b.Code, gifts[1].Code)

	require.NoError(t, repo.MarkEmailSent(ctx, b.Code))
	stored, err := repo.FindByCode(ctx, b.Code)
	require.NoError(t, err)
	assert.NotNil(t, stored.EmailSentAt)
}

func TestClaimEmail(t *testing.T) {
	ctx := context.Background()
	impl := NewGiftCodeRepository(testutil.NewDB(t)).(*giftCodeRepoImpl)

	gift, err := impl.Create(ctx, newGiftFields("cs_claim", 0))
	require.NoError(t, err)

	ok, err := impl.ClaimEmail(ctx, gift.Code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = impl.ClaimEmail(ctx, gift.Code)
	require.NoError(t, err)
	assert.False(t, ok, "a live claim blocks other senders")

	// a sender that died releases its claim by timing out
	start := time.Now().UTC()
	impl.now = func() time.Time { return start.Add(emailClaimTTL + time.Minute) }
	ok, err = impl.ClaimEmail(ctx, gift.Code)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, impl.MarkEmailSent(ctx, gift.Code))
	impl.now = func() time.Time { return start.Add(time.Hour) }
	ok, err = impl.ClaimEmail(ctx, gift.Code)
	require.NoError(t, err)
	assert.False(t, ok, "a sent email is never claimed again")

	ok, err = impl.ClaimEmail(ctx, "NOPENOPENOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}
