package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"scriptstore/internal/dto"
	"scriptstore/internal/middleware"
	"scriptstore/internal/service"
)

type EntitlementHandler struct {
	entitlementService service.EntitlementService
}

func NewEntitlementHandler(entitlementService service.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{
		entitlementService: entitlementService,
	}
}

func (h *EntitlementHandler) ListPurchases(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "not authenticated"})
	}

	purchases, err := h.entitlementService.ListPurchases(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, purchases)
}

func (h *EntitlementHandler) CheckAccess(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "not authenticated"})
	}

	productID := c.QueryParam("productId")
	if productID == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "missing productId"})
	}

	active, err := h.entitlementService.HasAccess(ctx, userID, productID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, dto.AccessResponse{Active: active})
}
