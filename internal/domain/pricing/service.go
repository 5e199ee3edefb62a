package pricing

import (
	"context"

	"github.com/google/uuid"
)

// Service exposes fuel price lookups and admin updates.
type Service interface {
	CurrentPrice(ctx context.Context, fuelType string) (*FuelPrice, error)
	List(ctx context.Context) ([]FuelPrice, error)
	Update(ctx context.Context, fuelType string, price float64, updatedBy uuid.UUID) (*FuelPrice, error)
}

type service struct {
	repo Repository
}

// NewService creates a new pricing service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CurrentPrice returns the live price for one fuel type
func (s *service) CurrentPrice(ctx context.Context, fuelType string) (*FuelPrice, error) {
	if !IsValidFuelType(fuelType) {
		return nil, ErrUnknownFuelType
	}

	price, err := s.repo.Get(ctx, FuelType(fuelType))
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, ErrPriceNotSet
	}

	return price, nil
}

// List returns all current prices
func (s *service) List(ctx context.Context) ([]FuelPrice, error) {
	return s.repo.List(ctx)
}

// Update sets a new price for a fuel type
func (s *service) Update(ctx context.Context, fuelType string, price float64, updatedBy uuid.UUID) (*FuelPrice, error) {
	if !IsValidFuelType(fuelType) {
		return nil, ErrUnknownFuelType
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}

	return s.repo.Upsert(ctx, FuelType(fuelType), price, updatedBy)
}
