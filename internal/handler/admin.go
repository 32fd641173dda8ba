package handler

import (
	"net/http"
	"strconv"

	"giftaihub/internal/service"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		return err
	}

	orders, err := h.adminService.ListOrders(ctx, limit, offset)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) GetGiftCode(c echo.Context) error {
	ctx := c.Request().Context()

	status, err := h.adminService.GetGiftCodeStatus(ctx, c.Param("code"))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, status)
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}
