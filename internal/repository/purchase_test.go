package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"scriptstore/internal/model"
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

func purchase(id, sessionID string, status model.PurchaseStatus) *model.Purchase {
	return &model.Purchase{
		ID:                   id,
		UserID:               "user-1",
		ProductID:            "scraper-pro",
		StripeSessionID:      sessionID,
		StripeSubscriptionID: "sub_1",
		Type:                 model.PurchaseTypeSubscription,
		Status:               status,
	}
}

func TestPurchaseCreate_DuplicateSessionID(t *testing.T) {
	db := newTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, db, purchase("p-1", "cs_1", model.PurchaseStatusActive)))

	err := repo.Create(ctx, db, purchase("p-2", "cs_1", model.PurchaseStatusActive))
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestPurchaseCreate_SecondActiveRowForPairRejected(t *testing.T) {
	db := newTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, db, purchase("p-1", "cs_1", model.PurchaseStatusActive)))

	// Two checkout attempts racing past the precondition check both
	// produce completed sessions; the partial index lets only one land.
	err := repo.Create(ctx, db, purchase("p-2", "cs_2", model.PurchaseStatusActive))
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestPurchaseCreate_NewRowAfterExpiry(t *testing.T) {
	db := newTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, db, purchase("p-1", "cs_1", model.PurchaseStatusExpired)))

	// An expired record is never resurrected; a fresh purchase makes a
	// fresh row, which the partial index must allow.
	require.NoError(t, repo.Create(ctx, db, purchase("p-2", "cs_2", model.PurchaseStatusActive)))
}

func TestHasActive(t *testing.T) {
	db := newTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	owned, err := repo.HasActive(ctx, "user-1", "scraper-pro")
	require.NoError(t, err)
	assert.False(t, owned)

	require.NoError(t, repo.Create(ctx, db, purchase("p-1", "cs_1", model.PurchaseStatusCancelled)))
	owned, err = repo.HasActive(ctx, "user-1", "scraper-pro")
	require.NoError(t, err)
	assert.False(t, owned)

	require.NoError(t, repo.Create(ctx, db, purchase("p-2", "cs_2", model.PurchaseStatusActive)))
	owned, err = repo.HasActive(ctx, "user-1", "scraper-pro")
	require.NoError(t, err)
	assert.True(t, owned)
}

func TestUpdateStatusBySubscriptionID_NoMatchIsSilent(t *testing.T) {
	db := newTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	err := repo.UpdateStatusBySubscriptionID(ctx, db, "sub_unknown", model.PurchaseStatusCancelled)
	require.NoError(t, err)
}

func TestListByUser_PreloadsProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Product{ID: "scraper-pro", Name: "Scraper Pro"}).Error)
	require.NoError(t, repo.Create(ctx, db, purchase("p-1", "cs_1", model.PurchaseStatusActive)))

	purchases, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	require.NotNil(t, purchases[0].Product)
	assert.Equal(t, "Scraper Pro", purchases[0].Product.Name)
}
