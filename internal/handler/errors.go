package handler

import (
	"errors"
	"net/http"

	"giftaihub/internal/service"

	"github.com/labstack/echo/v4"
)

const invalidGiftCodeMessage = "invalid or expired gift code"

// toHTTPError maps service error kinds onto HTTP statuses. Upstream and
// unknown errors never expose their text.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidSignature):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotRedeemable), errors.Is(err, service.ErrInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUpstream):
		return echo.NewHTTPError(http.StatusInternalServerError, "upstream service unavailable, please retry").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
}

// toGiftHTTPError hides why a code was rejected.
func toGiftHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, invalidGiftCodeMessage)
	case errors.Is(err, service.ErrNotRedeemable):
		return echo.NewHTTPError(http.StatusConflict, invalidGiftCodeMessage)
	default:
		return toHTTPError(err)
	}
}
