package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"scriptstore/internal/apperr"
	"scriptstore/internal/client"
	"scriptstore/internal/dto"
	"scriptstore/internal/model"
	"scriptstore/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Product{},
		&model.User{},
		&model.Purchase{},
		&model.WebhookEvent{},
	))

	return db
}

type fakeStripeClient struct {
	sessionParams  []*client.CheckoutSessionParams
	sessionErr     error
	customerCalls  int
	customerID     string
	constructEvent func(payload []byte, sigHeader string) (stripe.Event, error)
}

func (f *fakeStripeClient) CreateCheckoutSession(_ context.Context, params *client.CheckoutSessionParams) (*client.CheckoutSession, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.sessionParams = append(f.sessionParams, params)
	return &client.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/pay/cs_test_1"}, nil
}

func (f *fakeStripeClient) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	f.customerCalls++
	if f.customerID == "" {
		f.customerID = "cus_test_1"
	}
	return f.customerID, nil
}

func (f *fakeStripeClient) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if f.constructEvent != nil {
		return f.constructEvent(payload, sigHeader)
	}
	return stripe.Event{}, nil
}

func seedProduct(t *testing.T, db *gorm.DB, monthly bool) *model.Product {
	t.Helper()

	product := &model.Product{
		ID:               "scraper-pro",
		Name:             "Scraper Pro",
		ShortDescription: "Headless scraping toolkit",
		Price:            decimal.NewFromFloat(49.99),
		Category:         "automation",
	}
	if monthly {
		product.MonthlyPrice = decimal.NullDecimal{Decimal: decimal.NewFromInt(9), Valid: true}
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func newCheckoutService(db *gorm.DB, stripeClient client.StripeClient) CheckoutService {
	return NewCheckoutService(
		stripeClient,
		"https://store.example.com",
		repository.NewProductRepository(db),
		repository.NewPurchaseRepository(db),
		repository.NewUserRepository(db),
	)
}

func checkoutRequest() *dto.CheckoutRequest {
	return &dto.CheckoutRequest{
		ProductID: "scraper-pro",
		UserID:    "user-1",
		Email:     "buyer@example.com",
	}
}

func TestCreateOneTimeSession(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, false)
	fake := &fakeStripeClient{}
	svc := newCheckoutService(db, fake)

	resp, err := svc.CreateOneTimeSession(context.Background(), checkoutRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", resp.URL)

	require.Len(t, fake.sessionParams, 1)
	params := fake.sessionParams[0]
	assert.Equal(t, model.PurchaseTypeOneTime, params.Mode)
	assert.Equal(t, "scraper-pro", params.ProductID)
	assert.Equal(t, "user-1", params.UserID)
	assert.Equal(t, "buyer@example.com", params.CustomerEmail)
	assert.Equal(t, int64(4999), params.UnitAmount)
	assert.Equal(t, "https://store.example.com/checkout/success?session_id={CHECKOUT_SESSION_ID}", params.SuccessURL)
	assert.Equal(t, "https://store.example.com/product/scraper-pro", params.CancelURL)

	// Session creation leaves no entitlement behind.
	var count int64
	require.NoError(t, db.Model(&model.Purchase{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOneTimeSession_ProductNotFound(t *testing.T) {
	db := newTestDB(t)
	fake := &fakeStripeClient{}
	svc := newCheckoutService(db, fake)

	_, err := svc.CreateOneTimeSession(context.Background(), checkoutRequest())
	require.Error(t, err)
	assert.Equal(t, 404, apperr.From(err).Status)
	assert.Empty(t, fake.sessionParams)
}

func TestCreateOneTimeSession_AlreadyOwned(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, false)
	require.NoError(t, db.Create(&model.Purchase{
		ID:              "p-1",
		UserID:          "user-1",
		ProductID:       "scraper-pro",
		StripeSessionID: "cs_old",
		Type:            model.PurchaseTypeOneTime,
		Status:          model.PurchaseStatusActive,
	}).Error)

	fake := &fakeStripeClient{}
	svc := newCheckoutService(db, fake)

	_, err := svc.CreateOneTimeSession(context.Background(), checkoutRequest())
	require.Error(t, err)
	assert.Equal(t, 409, apperr.From(err).Status)
	assert.Empty(t, fake.sessionParams)
}

func TestCreateOneTimeSession_InactivePurchaseDoesNotBlock(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, false)
	require.NoError(t, db.Create(&model.Purchase{
		ID:              "p-1",
		UserID:          "user-1",
		ProductID:       "scraper-pro",
		StripeSessionID: "cs_old",
		Type:            model.PurchaseTypeOneTime,
		Status:          model.PurchaseStatusExpired,
	}).Error)

	fake := &fakeStripeClient{}
	svc := newCheckoutService(db, fake)

	_, err := svc.CreateOneTimeSession(context.Background(), checkoutRequest())
	require.NoError(t, err)
}

func TestCreateOneTimeSession_UpstreamFailure(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, false)
	fake := &fakeStripeClient{sessionErr: errors.New("stripe is down")}
	svc := newCheckoutService(db, fake)

	_, err := svc.CreateOneTimeSession(context.Background(), checkoutRequest())
	require.Error(t, err)
	assert.Equal(t, 500, apperr.From(err).Status)
}

func TestCreateSubscriptionSession_NoMonthlyPrice(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, false)
	fake := &fakeStripeClient{}
	svc := newCheckoutService(db, fake)

	_, err := svc.CreateSubscriptionSession(context.Background(), checkoutRequest())
	require.Error(t, err)
	assert.Equal(t, 404, apperr.From(err).Status)
	assert.Empty(t, fake.sessionParams)
	assert.Zero(t, fake.customerCalls)
}

func TestCreateSubscriptionSession_CreatesAndLinksCustomer(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, true)
	fake := &fakeStripeClient{}
	svc := newCheckoutService(db, fake)

	resp, err := svc.CreateSubscriptionSession(context.Background(), checkoutRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.URL)
	assert.Equal(t, 1, fake.customerCalls)

	require.Len(t, fake.sessionParams, 1)
	params := fake.sessionParams[0]
	assert.Equal(t, model.PurchaseTypeSubscription, params.Mode)
	assert.Equal(t, "cus_test_1", params.CustomerID)
	assert.Equal(t, int64(900), params.UnitAmount)

	var user model.User
	require.NoError(t, db.First(&user, "id = ?", "user-1").Error)
	assert.Equal(t, "cus_test_1", user.StripeCustomerID)
	assert.Equal(t, "buyer@example.com", user.Email)
}

func TestCreateSubscriptionSession_ReusesExistingCustomer(t *testing.T) {
	db := newTestDB(t)
	seedProduct(t, db, true)
	require.NoError(t, db.Create(&model.User{
		ID:               "user-1",
		Email:            "buyer@example.com",
		StripeCustomerID: "cus_existing",
	}).Error)

	fake := &fakeStripeClient{}
	svc := newCheckoutService(db, fake)

	_, err := svc.CreateSubscriptionSession(context.Background(), checkoutRequest())
	require.NoError(t, err)
	assert.Zero(t, fake.customerCalls)
	require.Len(t, fake.sessionParams, 1)
	assert.Equal(t, "cus_existing", fake.sessionParams[0].CustomerID)
}
