package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
)

// HoldingRepository provides data access methods for the holding and
// target_allocation tables.
type HoldingRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// WithTx returns a copy of the repository that routes statements through the
// given transaction. Used when a rebalance applies holdings and trades atomically.
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *HoldingRepository) getQuerier() interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetHoldings retrieves all holdings, including liquidated lines retained at
// quantity 0, ordered by symbol for deterministic output.
func (r *HoldingRepository) GetHoldings(ctx context.Context) ([]model.Holding, error) {
	query := `
        SELECT symbol, quantity, original_quantity
        FROM holding
        ORDER BY symbol
    `

	rows, err := r.getQuerier().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		var h model.Holding
		if err := rows.Scan(&h.Symbol, &h.Quantity, &h.OriginalQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan holding table results: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}

	return holdings, nil
}

// UpsertHolding creates or updates the holding row for one symbol. New rows
// get an original_quantity of 0 so a reset drops positions acquired by
// rebalancing.
func (r *HoldingRepository) UpsertHolding(ctx context.Context, symbol string, quantity int64) error {
	query := `
        INSERT INTO holding (symbol, quantity, original_quantity, updated_at)
        VALUES (?, ?, 0, CURRENT_TIMESTAMP)
        ON CONFLICT(symbol) DO UPDATE SET quantity = excluded.quantity, updated_at = CURRENT_TIMESTAMP
    `

	if _, err := r.getQuerier().ExecContext(ctx, query, symbol, quantity); err != nil {
		return fmt.Errorf("failed to upsert holding %s: %w", symbol, err)
	}

	return nil
}

// ResetHoldings restores every holding to its seeded original quantity and
// removes lines that were not part of the seed.
func (r *HoldingRepository) ResetHoldings(ctx context.Context) error {
	if _, err := r.getQuerier().ExecContext(ctx,
		`DELETE FROM holding WHERE original_quantity = 0`); err != nil {
		return fmt.Errorf("failed to remove acquired holdings: %w", err)
	}

	if _, err := r.getQuerier().ExecContext(ctx,
		`UPDATE holding SET quantity = original_quantity, updated_at = CURRENT_TIMESTAMP`); err != nil {
		return fmt.Errorf("failed to restore original holdings: %w", err)
	}

	return nil
}

// GetTargetAllocations retrieves the desired weight per symbol, ordered by
// symbol for deterministic output.
func (r *HoldingRepository) GetTargetAllocations(ctx context.Context) ([]model.TargetAllocation, error) {
	query := `
        SELECT symbol, percentage
        FROM target_allocation
        ORDER BY symbol
    `

	rows, err := r.getQuerier().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query target_allocation table: %w", err)
	}
	defer rows.Close()

	targets := []model.TargetAllocation{}
	for rows.Next() {
		var t model.TargetAllocation
		if err := rows.Scan(&t.Symbol, &t.PercentageOfPortfolio); err != nil {
			return nil, fmt.Errorf("failed to scan target_allocation table results: %w", err)
		}
		targets = append(targets, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating target_allocation table: %w", err)
	}

	return targets, nil
}

// ClearTargetAllocations removes every target allocation row.
func (r *HoldingRepository) ClearTargetAllocations(ctx context.Context) error {
	if _, err := r.getQuerier().ExecContext(ctx, `DELETE FROM target_allocation`); err != nil {
		return fmt.Errorf("failed to clear target allocations: %w", err)
	}

	return nil
}

// SetTargetAllocation creates or replaces the desired weight for one symbol.
func (r *HoldingRepository) SetTargetAllocation(ctx context.Context, symbol string, percentage float64) error {
	query := `
        INSERT INTO target_allocation (symbol, percentage)
        VALUES (?, ?)
        ON CONFLICT(symbol) DO UPDATE SET percentage = excluded.percentage
    `

	if _, err := r.getQuerier().ExecContext(ctx, query, symbol, percentage); err != nil {
		return fmt.Errorf("failed to upsert target allocation %s: %w", symbol, err)
	}

	return nil
}
