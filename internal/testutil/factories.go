package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/repository"
)

// HoldingBuilder provides a fluent interface for creating test holdings.
//
// Example usage:
//
//	// Simple creation with defaults
//	holding := testutil.NewHolding("AAPL").Build(t, db)
//
//	// Customized holding
//	holding := testutil.NewHolding("GOOG").
//	    WithQuantity(200).
//	    Seeded().
//	    Build(t, db)
type HoldingBuilder struct {
	Symbol           string
	Quantity         int64
	OriginalQuantity int64
}

// NewHolding creates a HoldingBuilder with sensible defaults.
func NewHolding(symbol string) *HoldingBuilder {
	return &HoldingBuilder{
		Symbol:           symbol,
		Quantity:         100,
		OriginalQuantity: 0,
	}
}

// WithQuantity sets a custom quantity.
func (b *HoldingBuilder) WithQuantity(quantity int64) *HoldingBuilder {
	b.Quantity = quantity
	return b
}

// Seeded marks the holding as part of the original portfolio, so a reset
// restores rather than removes it.
func (b *HoldingBuilder) Seeded() *HoldingBuilder {
	b.OriginalQuantity = b.Quantity
	return b
}

// Build inserts the holding into the database and returns the model.
func (b *HoldingBuilder) Build(t *testing.T, db *sql.DB) model.Holding {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO holding (symbol, quantity, original_quantity) VALUES (?, ?, ?)`,
		b.Symbol, b.Quantity, b.OriginalQuantity,
	)
	if err != nil {
		t.Fatalf("Failed to insert test holding %s: %v", b.Symbol, err)
	}

	return model.Holding{
		Symbol:           b.Symbol,
		Quantity:         b.Quantity,
		OriginalQuantity: b.OriginalQuantity,
	}
}

// TargetBuilder provides a fluent interface for creating test target
// allocations.
type TargetBuilder struct {
	Symbol     string
	Percentage float64
}

// NewTarget creates a TargetBuilder for the given symbol and weight.
func NewTarget(symbol string, percentage float64) *TargetBuilder {
	return &TargetBuilder{
		Symbol:     symbol,
		Percentage: percentage,
	}
}

// Build inserts the target allocation into the database and returns the model.
func (b *TargetBuilder) Build(t *testing.T, db *sql.DB) model.TargetAllocation {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO target_allocation (symbol, percentage) VALUES (?, ?)`,
		b.Symbol, b.Percentage,
	)
	if err != nil {
		t.Fatalf("Failed to insert test target allocation %s: %v", b.Symbol, err)
	}

	return model.TargetAllocation{
		Symbol:                b.Symbol,
		PercentageOfPortfolio: b.Percentage,
	}
}

// CacheQuote persists a raw quote payload for a symbol, the way a previous
// live fetch would have.
func CacheQuote(t *testing.T, db *sql.DB, symbol string, payload []byte) {
	t.Helper()

	repo := repository.NewQuoteRepository(db)
	if err := repo.Set(context.Background(), symbol, payload); err != nil {
		t.Fatalf("Failed to cache test quote for %s: %v", symbol, err)
	}
}

// Quotes builds a symbol-to-quote map from symbol/close pairs, dated
// yesterday. Convenience for exercising the planner directly.
func Quotes(pairs map[string]float64) map[string]model.Quote {
	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)

	quotes := make(map[string]model.Quote, len(pairs))
	for symbol, closeValue := range pairs {
		quotes[symbol] = model.Quote{
			Symbol:     symbol,
			CloseValue: closeValue,
			Date:       yesterday,
		}
	}
	return quotes
}
