package handler

import (
	"net/http"

	"giftaihub/internal/dto"
	"giftaihub/internal/service"
	"giftaihub/internal/validation"

	"github.com/labstack/echo/v4"
)

type GiftHandler struct {
	redemptionService service.RedemptionService
}

func NewGiftHandler(redemptionService service.RedemptionService) *GiftHandler {
	return &GiftHandler{
		redemptionService: redemptionService,
	}
}

func (h *GiftHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.GiftCodeRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return err
	}

	details, err := h.redemptionService.Verify(ctx, req.Code, req.Email)
	if err != nil {
		return toGiftHTTPError(err)
	}

	return c.JSON(http.StatusOK, details)
}

func (h *GiftHandler) Redeem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.GiftCodeRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.redemptionService.Redeem(ctx, req.Code, req.Email)
	if err != nil {
		return toGiftHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}
