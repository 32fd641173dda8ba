package model

import (
	"bytes"
	"encoding/json"
)

const (
	EventCheckoutSessionCompleted          = "checkout.session.completed"
	EventCheckoutSessionAsyncPaymentPassed = "checkout.session.async_payment_succeeded"
	EventCheckoutSessionExpired            = "checkout.session.expired"

	PaymentStatusPaid              = "paid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`         // open, complete, expired
	PaymentStatus string            `json:"payment_status"` // paid, unpaid, no_payment_required
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
	PaymentIntent *PaymentIntentRef `json:"payment_intent"`
	LineItems     *LineItemList     `json:"line_items,omitempty"`
}

// IsPaid reports whether the buyer's payment has been confirmed.
func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid || s.PaymentStatus == PaymentStatusNoPaymentRequired
}

// PaymentIntentRef is either a bare id or an expanded object.
type PaymentIntentRef struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

func (p *PaymentIntentRef) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		return json.Unmarshal(data, &p.ID)
	}
	type alias PaymentIntentRef
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = PaymentIntentRef(a)
	return nil
}

type LineItemList struct {
	Data []LineItem `json:"data"`
}

type LineItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	AmountTotal int64  `json:"amount_total"`
	Quantity    int64  `json:"quantity"`
}

type StripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}
