package handler

import (
	"net/http"

	"giftaihub/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) ListPlatforms(c echo.Context) error {
	ctx := c.Request().Context()

	platforms, err := h.catalogService.ListPlatforms(ctx)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, platforms)
}
