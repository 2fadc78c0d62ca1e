package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scriptstore/internal/model"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	List(ctx context.Context, category string) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{
			ID:               "scraper-pro",
			Name:             "Scraper Pro",
			ShortDescription: "Headless scraping toolkit with rotating proxies",
			Price:            decimal.NewFromInt(49),
			MonthlyPrice:     decimal.NullDecimal{Decimal: decimal.NewFromInt(9), Valid: true},
			Category:         "automation",
			Features:         []string{"Proxy rotation", "CAPTCHA bypass", "Monthly updates"},
			FileURL:          "downloads/scraper-pro.zip",
		},
		{
			ID:               "discord-notifier",
			Name:             "Discord Notifier",
			ShortDescription: "Webhook relay for restock alerts",
			Price:            decimal.NewFromInt(29),
			Category:         "alerts",
			Features:         []string{"Instant alerts", "Custom embeds"},
			FileURL:          "downloads/discord-notifier.zip",
		},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) List(ctx context.Context, category string) ([]*model.Product, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var products []*model.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}
