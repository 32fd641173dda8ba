package handler

import (
	"net/http"

	"giftaihub/internal/dto"
	"giftaihub/internal/service"
	"giftaihub/internal/validation"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// CreateCheckout starts a session for a single gift.
func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LineItem
	if err := validation.BindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.checkoutService.CreateSession(ctx, []*dto.LineItem{&req})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) CreateCartCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CartCheckoutRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.checkoutService.CreateSession(ctx, req.Items)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := c.QueryParam("sessionId")
	if sessionID == "" {
		sessionID = c.QueryParam("session_id")
	}
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing sessionId")
	}

	summary, err := h.checkoutService.GetSessionSummary(ctx, sessionID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, summary)
}
