package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"scriptstore/internal/apperr"
	"scriptstore/internal/client"
	"scriptstore/internal/dto"
	"scriptstore/internal/model"
	"scriptstore/internal/repository"
)

var minorUnits = decimal.NewFromInt(100)

// CheckoutService initiates Stripe Checkout Sessions. It never writes
// a Purchase row itself; entitlements are only granted later, by the
// webhook path, once the provider confirms payment.
type CheckoutService interface {
	CreateOneTimeSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	CreateSubscriptionSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	stripeClient client.StripeClient
	baseURL      string
	productRepo  repository.ProductRepository
	purchaseRepo repository.PurchaseRepository
	userRepo     repository.UserRepository
}

func NewCheckoutService(
	stripeClient client.StripeClient,
	baseURL string,
	productRepo repository.ProductRepository,
	purchaseRepo repository.PurchaseRepository,
	userRepo repository.UserRepository,
) CheckoutService {
	return &checkoutServiceImpl{
		stripeClient: stripeClient,
		baseURL:      baseURL,
		productRepo:  productRepo,
		purchaseRepo: purchaseRepo,
		userRepo:     userRepo,
	}
}

func (s *checkoutServiceImpl) CreateOneTimeSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	product, err := s.loadProductCheckingOwnership(ctx, req)
	if err != nil {
		return nil, err
	}

	session, err := s.stripeClient.CreateCheckoutSession(ctx, &client.CheckoutSessionParams{
		Mode:          model.PurchaseTypeOneTime,
		ProductID:     product.ID,
		UserID:        req.UserID,
		CustomerEmail: req.Email,
		Name:          product.Name,
		Description:   product.ShortDescription,
		UnitAmount:    toMinorUnits(product.Price),
		SuccessURL:    s.successURL(),
		CancelURL:     s.cancelURL(product.ID),
	})
	if err != nil {
		return nil, apperr.Upstream("failed to create checkout session", err)
	}

	return &dto.CheckoutResponse{URL: session.URL}, nil
}

func (s *checkoutServiceImpl) CreateSubscriptionSession(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	product, err := s.loadProductCheckingOwnership(ctx, req)
	if err != nil {
		return nil, err
	}
	if !product.MonthlyPrice.Valid {
		return nil, apperr.NotFound("subscription not available for this product")
	}

	customerID, err := s.resolveStripeCustomer(ctx, req.UserID, req.Email)
	if err != nil {
		return nil, err
	}

	session, err := s.stripeClient.CreateCheckoutSession(ctx, &client.CheckoutSessionParams{
		Mode:        model.PurchaseTypeSubscription,
		ProductID:   product.ID,
		UserID:      req.UserID,
		CustomerID:  customerID,
		Name:        fmt.Sprintf("%s - Subscription", product.Name),
		Description: "Monthly access and updates",
		UnitAmount:  toMinorUnits(product.MonthlyPrice.Decimal),
		SuccessURL:  s.successURL(),
		CancelURL:   s.cancelURL(product.ID),
	})
	if err != nil {
		return nil, apperr.Upstream("failed to create subscription session", err)
	}

	return &dto.CheckoutResponse{URL: session.URL}, nil
}

// loadProductCheckingOwnership covers the preconditions shared by both
// modes: the product must exist and the buyer must not already hold an
// active entitlement on it. The ownership check is best-effort; the
// partial unique index on purchases is the authoritative guard.
func (s *checkoutServiceImpl) loadProductCheckingOwnership(ctx context.Context, req *dto.CheckoutRequest) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Upstream("failed to load product", err)
	}

	owned, err := s.purchaseRepo.HasActive(ctx, req.UserID, req.ProductID)
	if err != nil {
		return nil, apperr.Upstream("failed to check existing purchases", err)
	}
	if owned {
		return nil, apperr.Conflict("you already own this product")
	}

	return product, nil
}

// resolveStripeCustomer reuses the user's Stripe customer id, creating
// and persisting one on first subscription purchase (upsert semantics).
func (s *checkoutServiceImpl) resolveStripeCustomer(ctx context.Context, userID, email string) (string, error) {
	customerID, err := s.userRepo.GetStripeCustomerID(ctx, userID)
	if err != nil {
		return "", apperr.Upstream("failed to load user", err)
	}
	if customerID != "" {
		return customerID, nil
	}

	customerID, err = s.stripeClient.CreateCustomer(ctx, email, userID)
	if err != nil {
		return "", apperr.Upstream("failed to create stripe customer", err)
	}

	err = s.userRepo.Upsert(ctx, &model.User{
		ID:               userID,
		Email:            email,
		StripeCustomerID: customerID,
	})
	if err != nil {
		return "", apperr.Upstream("failed to link stripe customer", err)
	}

	return customerID, nil
}

func (s *checkoutServiceImpl) successURL() string {
	return fmt.Sprintf("%s/checkout/success?session_id={CHECKOUT_SESSION_ID}", s.baseURL)
}

func (s *checkoutServiceImpl) cancelURL(productID string) string {
	return fmt.Sprintf("%s/product/%s", s.baseURL, productID)
}

func toMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(minorUnits).Round(0).IntPart()
}
