package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"scriptstore/internal/apperr"
	"scriptstore/internal/model"
	"scriptstore/internal/repository"
)

type CatalogService interface {
	ListProducts(ctx context.Context, category string) ([]*model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
}

type catalogServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogServiceImpl{
		productRepo: productRepo,
	}
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context, category string) ([]*model.Product, error) {
	products, err := s.productRepo.List(ctx, category)
	if err != nil {
		return nil, apperr.Upstream("failed to list products", err)
	}

	return products, nil
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Upstream("failed to load product", err)
	}

	return product, nil
}
