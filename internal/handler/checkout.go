package handler

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"scriptstore/internal/apperr"
	"scriptstore/internal/dto"
	"scriptstore/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// Checkout starts a one-time payment session and returns the Stripe
// redirect URL. No domain state changes here; the entitlement is
// granted by the webhook once payment completes.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	req, ok := bindCheckoutRequest(c)
	if !ok {
		return nil
	}

	resp, err := h.checkoutService.CreateOneTimeSession(ctx, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()

	req, ok := bindCheckoutRequest(c)
	if !ok {
		return nil
	}

	resp, err := h.checkoutService.CreateSubscriptionSession(ctx, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// bindCheckoutRequest reports false after writing the 400 itself.
func bindCheckoutRequest(c echo.Context) (*dto.CheckoutRequest, bool) {
	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return nil, false
	}
	if err := c.Validate(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "missing or malformed fields"})
		return nil, false
	}
	return &req, true
}

// respondError maps a service failure to its structured JSON shape;
// nothing escapes to the transport layer as an unhandled error.
func respondError(c echo.Context, err error) error {
	ae := apperr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(ae.Status, dto.ErrorResponse{Error: ae.Message})
}
