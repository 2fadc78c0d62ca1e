package service

import (
	"context"

	"scriptstore/internal/apperr"
	"scriptstore/internal/model"
	"scriptstore/internal/repository"
)

type EntitlementService interface {
	ListPurchases(ctx context.Context, userID string) ([]*model.Purchase, error)
	// HasAccess collapses cancelled and expired identically: anything
	// but an active row means no access. Storage keeps the two states
	// distinct for the record.
	HasAccess(ctx context.Context, userID, productID string) (bool, error)
}

type entitlementServiceImpl struct {
	purchaseRepo repository.PurchaseRepository
}

func NewEntitlementService(purchaseRepo repository.PurchaseRepository) EntitlementService {
	return &entitlementServiceImpl{
		purchaseRepo: purchaseRepo,
	}
}

func (s *entitlementServiceImpl) ListPurchases(ctx context.Context, userID string) ([]*model.Purchase, error) {
	purchases, err := s.purchaseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream("failed to list purchases", err)
	}

	return purchases, nil
}

func (s *entitlementServiceImpl) HasAccess(ctx context.Context, userID, productID string) (bool, error) {
	active, err := s.purchaseRepo.HasActive(ctx, userID, productID)
	if err != nil {
		return false, apperr.Upstream("failed to check access", err)
	}

	return active, nil
}
