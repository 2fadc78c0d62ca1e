package client

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	stripeclient "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"

	"scriptstore/internal/config"
	"scriptstore/internal/model"
)

// Currency is fixed, multi-currency is out of scope.
const currency = string(stripe.CurrencyEUR)

type CheckoutSessionParams struct {
	Mode      model.PurchaseType
	ProductID string
	UserID    string

	// CustomerEmail is used in one-time mode; CustomerID in
	// subscription mode, where the buyer must exist as a Stripe
	// customer before the session is created.
	CustomerEmail string
	CustomerID    string

	Name        string
	Description string
	// UnitAmount is in minor currency units (cents).
	UnitAmount int64

	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*CheckoutSession, error)
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type stripeClientImpl struct {
	api           *stripeclient.API
	webhookSecret string
}

func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	api := &stripeclient.API{}
	api.Init(stripeCfg.SecretKey, nil)

	return &stripeClientImpl{
		api:           api,
		webhookSecret: stripeCfg.WebhookSecret,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*CheckoutSession, error) {
	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency: stripe.String(currency),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String(params.Name),
			Description: stripe.String(params.Description),
		},
		UnitAmount: stripe.Int64(params.UnitAmount),
	}

	sessionParams := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: priceData,
				Quantity:  stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx

	switch params.Mode {
	case model.PurchaseTypeSubscription:
		sessionParams.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		sessionParams.Customer = stripe.String(params.CustomerID)
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	default:
		sessionParams.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		sessionParams.CustomerEmail = stripe.String(params.CustomerEmail)
	}

	// This metadata is the only linkage the webhook path has back to
	// domain state; it comes back unmodified on the completed event.
	sessionParams.AddMetadata("productId", params.ProductID)
	sessionParams.AddMetadata("userId", params.UserID)
	sessionParams.AddMetadata("type", string(params.Mode))

	session, err := c.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return &CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

func (c *stripeClientImpl) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	customerParams := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	customerParams.Context = ctx
	customerParams.AddMetadata("userId", userID)

	customer, err := c.api.Customers.New(customerParams)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}

	return customer.ID, nil
}

func (c *stripeClientImpl) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
}
