package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"giftaihub/internal/client"
	"giftaihub/internal/config"
	"giftaihub/internal/logging"
	"giftaihub/internal/model"
	"giftaihub/internal/outbox"
	"giftaihub/internal/repository"
	"giftaihub/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

// fakeStripe keeps created sessions in memory and delegates signature
// checks to the real client.
type fakeStripe struct {
	client.StripeClient

	mu          sync.Mutex
	seq         int
	sessions    map[string]*model.CheckoutSession
	created     []*client.CheckoutSessionParams
	retrieveErr error
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{
		StripeClient: client.NewStripeClient(&config.Stripe{
			WebhookSecret:    testWebhookSecret,
			WebhookTolerance: 5 * time.Minute,
		}),
		sessions: make(map[string]*model.CheckoutSession),
	}
}

func (f *fakeStripe) CreateCheckoutSession(_ context.Context, params *client.CheckoutSessionParams) (*model.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	id := fmt.Sprintf("cs_test_%d", f.seq)
	var total int64
	for _, li := range params.LineItems {
		total += li.UnitAmount * li.Quantity
	}
	f.sessions[id] = &model.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.example/" + id,
		Status:        "open",
		PaymentStatus: "unpaid",
		AmountTotal:   total,
		Currency:      params.Currency,
		Metadata:      params.Metadata,
	}
	f.created = append(f.created, params)
	return f.sessions[id], nil
}

func (f *fakeStripe) RetrieveCheckoutSession(_ context.Context, id string) (*model.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, client.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStripe) pay(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[id]
	s.Status = "complete"
	s.PaymentStatus = model.PaymentStatusPaid
	s.PaymentIntent = &model.PaymentIntentRef{ID: "pi_" + id}
}

type fakeEmail struct {
	mu      sync.Mutex
	sent    []*client.EmailMessage
	failFor map[string]bool
}

func (f *fakeEmail) Send(_ context.Context, msg *client.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To.Email] {
		return errors.New("brevo error 503: unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeEmail) messages() []*client.EmailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*client.EmailMessage(nil), f.sent...)
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []outbox.Job
}

func (f *fakePublisher) Publish(_ context.Context, job outbox.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	counts map[string]float64
}

func (f *fakeRecorder) Count(_ context.Context, name string, value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]float64)
	}
	f.counts[name] += value
}

func (f *fakeRecorder) get(name string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[name]
}

// harness wires every service against one sqlite database.
type harness struct {
	db        *gorm.DB
	stripe    *fakeStripe
	email     *fakeEmail
	publisher *fakePublisher
	recorder  *fakeRecorder

	orders    repository.OrderRepository
	giftCodes repository.GiftCodeRepository
	events    repository.WebhookEventRepository

	checkout     CheckoutService
	notification NotificationService
	webhook      WebhookService
	redemption   RedemptionService
	admin        AdminService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.SeedPlatforms(t, db)

	h := &harness{
		db:        db,
		stripe:    newFakeStripe(),
		email:     &fakeEmail{failFor: map[string]bool{}},
		publisher: &fakePublisher{},
		recorder:  &fakeRecorder{},
		orders:    repository.NewOrderRepository(db),
		giftCodes: repository.NewGiftCodeRepository(db),
		events:    repository.NewWebhookEventRepository(db),
	}

	logger := logging.Discard()
	catalogRepo := repository.NewCatalogRepository(db)

	h.checkout = NewCheckoutService(h.stripe, catalogRepo, h.orders, h.recorder, logger, CheckoutConfig{
		BaseURL:    "https://shop.example",
		Currency:   "usd",
		ServiceFee: decimal.RequireFromString("4.99"),
	})
	h.notification = NewNotificationService(h.email, catalogRepo, h.giftCodes, h.publisher, h.recorder, logger, "https://shop.example")
	h.webhook = NewWebhookService(h.stripe, h.orders, h.giftCodes, h.events, h.notification, h.recorder, logger)
	h.redemption = NewRedemptionService(h.giftCodes, catalogRepo, h.notification, h.recorder, logger)
	h.admin = NewAdminService(repository.NewUserRoleRepository(db), h.orders, h.giftCodes)

	return h
}

// insertGift stores a code with a fixed value.
func (h *harness) insertGift(t *testing.T, code string, expiresAt time.Time) *model.GiftCode {
	t.Helper()
	now := time.Now().UTC()
	gift := &model.GiftCode{
		Code:           code,
		PlatformID:     "chatgpt",
		SubscriptionID: "chatgpt-1-month",
		RecipientEmail: "ana@example.com",
		RecipientName:  "Ana",
		SenderName:     "Sam",
		Message:        "happy birthday",
		Status:         model.GiftCodeStatusActive,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, h.db.Create(gift).Error)
	return gift
}

// eventRecorded reports whether a webhook event row exists.
func (h *harness) eventRecorded(t *testing.T, eventID string) bool {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&model.WebhookEvent{}).Where("event_id = ?", eventID).Count(&count).Error)
	return count > 0
}
