package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"

	"scriptstore/internal/apperr"
	"scriptstore/internal/client"
	"scriptstore/internal/model"
	"scriptstore/internal/repository"
)

// WebhookService verifies and reconciles asynchronous Stripe events.
//
// Failed entitlement writes propagate out of HandleEvent so the
// transport layer answers 5xx and Stripe's retry policy redelivers;
// swallowing them would silently lose purchases.
type WebhookService interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type webhookServiceImpl struct {
	db               *gorm.DB
	stripeClient     client.StripeClient
	purchaseRepo     repository.PurchaseRepository
	webhookEventRepo repository.WebhookEventRepository
}

func NewWebhookService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	purchaseRepo repository.PurchaseRepository,
	webhookEventRepo repository.WebhookEventRepository,
) WebhookService {
	return &webhookServiceImpl{
		db:               db,
		stripeClient:     stripeClient,
		purchaseRepo:     purchaseRepo,
		webhookEventRepo: webhookEventRepo,
	}
}

func (s *webhookServiceImpl) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.stripeClient.ConstructEvent(payload, sigHeader)
	if err != nil {
		// Terminal for this request; nothing past this point runs on
		// an unverified payload.
		return &apperr.Error{Status: http.StatusBadRequest, Message: "webhook signature verification failed", Err: err}
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
	if err != nil {
		return apperr.Upstream("failed to check event history", err)
	}
	if processed {
		log.Printf("skipping already processed event %s (%s)", event.ID, event.Type)
		return nil
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, &event)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, &event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, &event)
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed(ctx, &event)
	default:
		log.Printf("unhandled event type: %s", event.Type)
	}

	return nil
}

func (s *webhookServiceImpl) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	productID := session.Metadata["productId"]
	userID := session.Metadata["userId"]
	purchaseType := session.Metadata["type"]
	if productID == "" || userID == "" {
		// Without the session metadata there is nothing to reconcile
		// against; acknowledge and move on.
		log.Printf("no metadata on session %s, skipping", session.ID)
		return nil
	}

	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}

	purchase := &model.Purchase{
		ID:                   uuid.NewString(),
		UserID:               userID,
		ProductID:            productID,
		StripeSessionID:      session.ID,
		StripeSubscriptionID: subscriptionID,
		Type:                 model.PurchaseType(purchaseType),
		Status:               model.PurchaseStatusActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.purchaseRepo.Create(ctx, tx, purchase); err != nil {
			return err
		}
		return s.webhookEventRepo.MarkProcessed(ctx, tx, event.ID, string(event.Type))
	})
	if err != nil {
		// A duplicate key means either a redelivered event (session id
		// already recorded) or a lost race for the single active slot;
		// both are acknowledged, not re-granted.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("purchase for session %s already recorded", session.ID)
			return nil
		}
		return apperr.Upstream("failed to record purchase", err)
	}

	log.Printf("purchase created: user=%s product=%s type=%s", userID, productID, purchaseType)
	return nil
}

func (s *webhookServiceImpl) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	// Only a provider-reported "active" keeps access; every other
	// status (past_due, unpaid, paused, ...) gates the buyer out.
	status := model.PurchaseStatusExpired
	if subscription.Status == stripe.SubscriptionStatusActive {
		status = model.PurchaseStatusActive
	}

	if err := s.setStatusBySubscription(ctx, event, subscription.ID, status); err != nil {
		return err
	}

	log.Printf("subscription %s updated to %s", subscription.ID, status)
	return nil
}

func (s *webhookServiceImpl) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	if err := s.setStatusBySubscription(ctx, event, subscription.ID, model.PurchaseStatusCancelled); err != nil {
		return err
	}

	log.Printf("subscription %s cancelled", subscription.ID)
	return nil
}

func (s *webhookServiceImpl) handleInvoicePaymentFailed(ctx context.Context, event *stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}

	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		// One-off invoice, no entitlement to touch.
		return nil
	}

	if err := s.setStatusBySubscription(ctx, event, invoice.Subscription.ID, model.PurchaseStatusExpired); err != nil {
		return err
	}

	log.Printf("subscription %s expired after failed payment", invoice.Subscription.ID)
	return nil
}

// setStatusBySubscription overwrites the status of every purchase row
// matching the subscription id. Zero matching rows is a silent no-op,
// so out-of-order or unknown-subscription events converge harmlessly.
func (s *webhookServiceImpl) setStatusBySubscription(ctx context.Context, event *stripe.Event, subscriptionID string, status model.PurchaseStatus) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.purchaseRepo.UpdateStatusBySubscriptionID(ctx, tx, subscriptionID, status); err != nil {
			return err
		}
		return s.webhookEventRepo.MarkProcessed(ctx, tx, event.ID, string(event.Type))
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent delivery of the same event; the other handler won.
			return nil
		}
		return apperr.Upstream("failed to update purchase status", err)
	}

	return nil
}
