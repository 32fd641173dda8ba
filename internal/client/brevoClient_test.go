package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"giftaihub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoSend(t *testing.T) {
	var got brevoSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/smtp/email", r.URL.Path)
		assert.Equal(t, "xkeysib-test", r.Header.Get("api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<abc@smtp-relay>"}`))
	}))
	defer srv.Close()

	c := NewBrevoClient(&config.Brevo{
		BaseApiURL: srv.URL,
		APIKey:     "xkeysib-test",
		FromEmail:  "gifts@giftaihub.com",
		FromName:   "GiftAI Hub",
	})

	err := c.Send(context.Background(), &EmailMessage{
		To:          EmailAddress{Email: "ana@example.com", Name: "Ana"},
		Subject:     "Sam has gifted you ChatGPT Plus!",
		HTMLContent: "<p>hi</p>",
		TextContent: "hi",
	})
	require.NoError(t, err)

	assert.Equal(t, "gifts@giftaihub.com", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "ana@example.com", got.To[0].Email)
	assert.Equal(t, "Sam has gifted you ChatGPT Plus!", got.Subject)
	assert.Equal(t, "hi", got.TextContent)
}

func TestBrevoSendNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized","message":"Key not found"}`))
	}))
	defer srv.Close()

	c := NewBrevoClient(&config.Brevo{BaseApiURL: srv.URL, APIKey: "bad"})
	err := c.Send(context.Background(), &EmailMessage{To: EmailAddress{Email: "ana@example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestBrevoSendWithoutKey(t *testing.T) {
	c := NewBrevoClient(&config.Brevo{BaseApiURL: "http://unused"})
	assert.Error(t, c.Send(context.Background(), &EmailMessage{}))
}
