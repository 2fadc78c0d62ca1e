package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"scriptstore/internal/model"
)

type PurchaseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, purchase *model.Purchase) error
	HasActive(ctx context.Context, userID, productID string) (bool, error)
	// UpdateStatusBySubscriptionID is a silent no-op when no row
	// matches; events for subscriptions this system never recorded
	// are accepted behavior.
	UpdateStatusBySubscriptionID(ctx context.Context, tx *gorm.DB, subscriptionID string, status model.PurchaseStatus) error
	ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error)
}

type purchaseRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepoImpl{
		db: db,
	}
}

func (r *purchaseRepoImpl) Create(ctx context.Context, tx *gorm.DB, purchase *model.Purchase) error {
	return tx.WithContext(ctx).Create(purchase).Error
}

func (r *purchaseRepoImpl) HasActive(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("user_id = ?", userID).
		Where("product_id = ?", productID).
		Where("status = ?", model.PurchaseStatusActive).
		Count(&count).Error

	return count > 0, err
}

func (r *purchaseRepoImpl) UpdateStatusBySubscriptionID(ctx context.Context, tx *gorm.DB, subscriptionID string, status model.PurchaseStatus) error {
	return tx.WithContext(ctx).Model(&model.Purchase{}).
		Where("stripe_subscription_id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *purchaseRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error

	if err != nil {
		return nil, err
	}

	return purchases, nil
}
