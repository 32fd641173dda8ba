package handler

import (
	"errors"
	"io"
	"net/http"

	"giftaihub/internal/service"

	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 256 << 10

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// StripeWebhook needs the raw body: the signature covers the exact bytes.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	err = h.webhookService.HandleWebhook(ctx, body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
		}
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]bool{
		"received": true,
	})
}
