package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"scriptstore/internal/dto"
	"scriptstore/internal/service"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// StripeWebhook receives asynchronous provider events. A missing
// signature header is rejected before any parsing; a handler failure
// answers 5xx so Stripe's own retry policy redelivers the event.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	sigHeader := c.Request().Header.Get("Stripe-Signature")
	if sigHeader == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "missing stripe-signature header"})
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "failed to read request body"})
	}

	if err := h.webhookService.HandleEvent(ctx, payload, sigHeader); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
