package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
)

// TradeRepository provides data access methods for the trade table.
type TradeRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTradeRepository creates a new TradeRepository with the provided database connection.
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// WithTx returns a copy of the repository that routes statements through the
// given transaction.
func (r *TradeRepository) WithTx(tx *sql.Tx) *TradeRepository {
	return &TradeRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *TradeRepository) getQuerier() interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertTrades records the share deltas applied by one rebalance run.
func (r *TradeRepository) InsertTrades(ctx context.Context, trades []model.Trade) error {
	query := `
        INSERT INTO trade (id, run_id, symbol, delta_quantity, close_value, executed_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `

	for _, t := range trades {
		_, err := r.getQuerier().ExecContext(ctx, query,
			t.ID, t.RunID, t.Symbol, t.DeltaQuantity, t.CloseValue, formatTime(t.ExecutedAt))
		if err != nil {
			return fmt.Errorf("failed to insert trade for %s: %w", t.Symbol, err)
		}
	}

	return nil
}

// GetTrades retrieves trade history, most recent run first.
func (r *TradeRepository) GetTrades(ctx context.Context) ([]model.Trade, error) {
	query := `
        SELECT id, run_id, symbol, delta_quantity, close_value, executed_at
        FROM trade
        ORDER BY executed_at DESC, symbol
    `

	rows, err := r.getQuerier().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade table: %w", err)
	}
	defer rows.Close()

	trades := []model.Trade{}
	for rows.Next() {
		var executedAtStr string
		var t model.Trade
		err := rows.Scan(
			&t.ID,
			&t.RunID,
			&t.Symbol,
			&t.DeltaQuantity,
			&t.CloseValue,
			&executedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade table results: %w", err)
		}
		t.ExecutedAt, err = parseTime(executedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse executed_at: %w", err)
		}
		trades = append(trades, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade table: %w", err)
	}

	return trades, nil
}
