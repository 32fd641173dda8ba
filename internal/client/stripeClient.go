package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"giftaihub/internal/config"
	"giftaihub/internal/model"
)

var (
	ErrSessionNotFound  = errors.New("checkout session not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*model.CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	ConstructEvent(payload []byte, signatureHeader string) (*model.StripeEvent, error)
}

type CheckoutSessionParams struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	LineItems  []CheckoutLineItem
	Metadata   map[string]string
}

type CheckoutLineItem struct {
	Name        string
	Description string
	UnitAmount  int64 // minor units
	Quantity    int64
}

type stripeClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	secretKey     string
	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
}

type stripeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	return &stripeClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    strings.TrimRight(stripeCfg.BaseApiURL, "/"),
		secretKey:     stripeCfg.SecretKey,
		webhookSecret: stripeCfg.WebhookSecret,
		tolerance:     stripeCfg.WebhookTolerance,
		now:           time.Now,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*model.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)

	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", params.Currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.FormatInt(item.Quantity, 10))
	}
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/checkout/sessions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var session model.CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &session, nil
}

func (c *stripeClientImpl) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	query := url.Values{}
	query.Add("expand[]", "line_items")
	query.Add("expand[]", "payment_intent")

	endpoint := fmt.Sprintf("%s/v1/checkout/sessions/%s?%s",
		c.baseApiURL,
		url.PathEscape(sessionID),
		query.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	var session model.CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", sessionID, err)
	}

	return &session, nil
}

func (c *stripeClientImpl) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var apiErr stripeErrorResponse
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("stripe error %d (%s): %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
		}
		return fmt.Errorf("stripe error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}
	return nil
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
// The header carries a timestamp and one or more v1 HMAC-SHA256 signatures of
// "<timestamp>.<payload>".
func (c *stripeClientImpl) ConstructEvent(payload []byte, signatureHeader string) (*model.StripeEvent, error) {
	if c.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}

	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}

	expected := computeSignature(c.webhookSecret, timestamp, payload)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: no matching signature", ErrInvalidSignature)
	}

	if c.tolerance > 0 && c.now().Sub(time.Unix(timestamp, 0)) > c.tolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	var event model.StripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("decode webhook event: missing id or type")
	}

	return &event, nil
}

func parseSignatureHeader(header string) (int64, [][]byte, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing header", ErrInvalidSignature)
	}

	var (
		timestamp  int64
		signatures [][]byte
	)
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp == 0 {
		return 0, nil, fmt.Errorf("%w: missing timestamp", ErrInvalidSignature)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: no v1 signature", ErrInvalidSignature)
	}
	return timestamp, signatures, nil
}

func computeSignature(secret string, timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignWebhookPayload builds a Stripe-Signature header value for payload.
// Used by tests and local tooling that replay events.
func SignWebhookPayload(secret string, payload []byte, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(computeSignature(secret, ts, payload)))
}
