package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"giftaihub/internal/config"
)

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type EmailMessage struct {
	To          EmailAddress
	Subject     string
	HTMLContent string
	TextContent string
}

type EmailClient interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

type brevoClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
	sender     EmailAddress
}

type brevoSendRequest struct {
	Sender      EmailAddress   `json:"sender"`
	To          []EmailAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

func NewBrevoClient(brevoCfg *config.Brevo) EmailClient {
	return &brevoClientImpl{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseApiURL: strings.TrimRight(brevoCfg.BaseApiURL, "/"),
		apiKey:     brevoCfg.APIKey,
		sender: EmailAddress{
			Email: brevoCfg.FromEmail,
			Name:  brevoCfg.FromName,
		},
	}
}

func (c *brevoClientImpl) Send(ctx context.Context, msg *EmailMessage) error {
	if c.apiKey == "" {
		return fmt.Errorf("brevo api key not configured")
	}

	body, err := json.Marshal(&brevoSendRequest{
		Sender:      c.sender,
		To:          []EmailAddress{msg.To},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLContent,
		TextContent: msg.TextContent,
	})
	if err != nil {
		return fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v3/smtp/email",
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo error %d: %s", resp.StatusCode, string(b))
	}

	return nil
}
