package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseType string

const (
	PurchaseTypeOneTime      PurchaseType = "one_time"
	PurchaseTypeSubscription PurchaseType = "subscription"
)

type PurchaseStatus string

const (
	PurchaseStatusActive    PurchaseStatus = "active"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
	PurchaseStatusExpired   PurchaseStatus = "expired"
)

// Product is read-only from the pipeline's point of view; the catalog
// is managed elsewhere.
type Product struct {
	ID               string          `gorm:"primaryKey;size:64;not null" json:"id"`
	Name             string          `gorm:"size:128;not null" json:"name"`
	Description      string          `gorm:"type:text" json:"description"`
	ShortDescription string          `gorm:"size:255" json:"short_description"`
	Price            decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	// MonthlyPrice unset means the product cannot be subscribed to.
	MonthlyPrice decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"monthly_price"`
	ImageURL     string              `gorm:"size:512" json:"image_url"`
	Category     string              `gorm:"size:64;index" json:"category"`
	Features     []string            `gorm:"serializer:json" json:"features"`
	FileURL      string              `gorm:"size:512" json:"file_url"`
	DocURL       string              `gorm:"size:512" json:"doc_url,omitempty"`

	StripePriceID             string `gorm:"size:128" json:"stripe_price_id"`
	StripeSubscriptionPriceID string `gorm:"size:128" json:"stripe_subscription_price_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User rows are created by the identity provider on first sign-in; the
// pipeline only links a Stripe customer id on first subscription purchase.
type User struct {
	ID               string `gorm:"primaryKey;size:64;not null" json:"id"`
	Email            string `gorm:"size:255;not null" json:"email"`
	StripeCustomerID string `gorm:"size:128;index" json:"stripe_customer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Purchase is the entitlement record, the sole source of truth for
// "does this user own this product".
//
// The partial unique index keeps at most one active row per
// (user, product); the unique stripe_session_id makes a redelivered
// checkout.session.completed event a no-op insert.
type Purchase struct {
	ID        string `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID    string `gorm:"size:64;not null;uniqueIndex:uniq_active_purchase" json:"user_id"`
	ProductID string `gorm:"size:64;not null;uniqueIndex:uniq_active_purchase,where:status = 'active'" json:"product_id"`

	StripeSessionID string `gorm:"size:128;uniqueIndex;not null" json:"stripe_session_id"`
	// Set iff Type is subscription.
	StripeSubscriptionID string `gorm:"size:128;index" json:"stripe_subscription_id,omitempty"`

	Type   PurchaseType   `gorm:"size:16;not null" json:"type"`
	Status PurchaseStatus `gorm:"size:16;index;not null" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// WebhookEvent records a processed Stripe event id so redelivered
// events are acknowledged without re-applying their effects.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
