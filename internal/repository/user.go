package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scriptstore/internal/model"
)

type UserRepository interface {
	GetStripeCustomerID(ctx context.Context, userID string) (string, error)
	Upsert(ctx context.Context, user *model.User) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

// GetStripeCustomerID returns "" when the user row does not exist yet;
// identity rows are created lazily on first subscription purchase.
func (r *userRepoImpl) GetStripeCustomerID(ctx context.Context, userID string) (string, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Select("stripe_customer_id").
		Where("id = ?", userID).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return user.StripeCustomerID, nil
}

func (r *userRepoImpl) Upsert(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"email":              user.Email,
			"stripe_customer_id": user.StripeCustomerID,
			"updated_at":         time.Now(),
		}),
	}).Create(user).Error
}
