package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines fuel price data access
type Repository interface {
	Get(ctx context.Context, fuelType FuelType) (*FuelPrice, error)
	List(ctx context.Context) ([]FuelPrice, error)
	Upsert(ctx context.Context, fuelType FuelType, price float64, updatedBy uuid.UUID) (*FuelPrice, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates fuel price repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, fuelType FuelType) (*FuelPrice, error) {
	query := `SELECT fuel_type, price_per_liter, updated_by, updated_at FROM fuel_prices WHERE fuel_type = $1`

	var price FuelPrice
	err := r.db.GetContext(ctx, &price, query, fuelType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pricing repository get: %w", err)
	}

	return &price, nil
}

func (r *repository) List(ctx context.Context) ([]FuelPrice, error) {
	query := `SELECT fuel_type, price_per_liter, updated_by, updated_at FROM fuel_prices ORDER BY fuel_type`

	prices := make([]FuelPrice, 0)
	if err := r.db.SelectContext(ctx, &prices, query); err != nil {
		return nil, fmt.Errorf("pricing repository list: %w", err)
	}

	return prices, nil
}

func (r *repository) Upsert(ctx context.Context, fuelType FuelType, price float64, updatedBy uuid.UUID) (*FuelPrice, error) {
	query := `
		INSERT INTO fuel_prices (fuel_type, price_per_liter, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (fuel_type)
		DO UPDATE SET price_per_liter = $2, updated_by = $3, updated_at = NOW()
		RETURNING fuel_type, price_per_liter, updated_by, updated_at
	`

	var out FuelPrice
	if err := r.db.GetContext(ctx, &out, query, fuelType, price, updatedBy); err != nil {
		return nil, fmt.Errorf("pricing repository upsert: %w", err)
	}

	return &out, nil
}
