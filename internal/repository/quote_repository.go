package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
)

// CacheKeyPrefix namespaces persisted quote payloads. Keys take the form
// AA_RESPONSE_<symbol>.
const CacheKeyPrefix = "AA_RESPONSE_"

// CacheKey returns the persisted-store key for a symbol.
func CacheKey(symbol string) string {
	return CacheKeyPrefix + symbol
}

// QuoteRepository provides data access methods for the quote_cache table.
// It stores raw quote-source payloads so the extraction logic can re-parse
// them on read instead of persisting derived values.
type QuoteRepository struct {
	db *sql.DB
}

// NewQuoteRepository creates a new QuoteRepository with the provided database connection.
func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// Get retrieves the persisted payload for a symbol.
// Returns apperrors.ErrQuoteNotCached when no entry exists.
func (r *QuoteRepository) Get(ctx context.Context, symbol string) (model.CachedQuote, error) {
	query := `
        SELECT cache_key, symbol, payload, fetched_at
        FROM quote_cache
        WHERE cache_key = ?
    `

	var q model.CachedQuote
	var payload, fetchedAtStr string
	err := r.db.QueryRowContext(ctx, query, CacheKey(symbol)).Scan(
		&q.CacheKey,
		&q.Symbol,
		&payload,
		&fetchedAtStr,
	)
	if err == sql.ErrNoRows {
		return model.CachedQuote{}, apperrors.ErrQuoteNotCached
	}
	if err != nil {
		return model.CachedQuote{}, fmt.Errorf("failed to query quote_cache table: %w", err)
	}

	q.FetchedAt, err = parseTime(fetchedAtStr)
	if err != nil {
		return model.CachedQuote{}, fmt.Errorf("failed to parse fetched_at: %w", err)
	}

	q.Payload = []byte(payload)
	return q, nil
}

// Set stores (or replaces) the persisted payload for a symbol.
func (r *QuoteRepository) Set(ctx context.Context, symbol string, payload []byte) error {
	query := `
        INSERT INTO quote_cache (cache_key, symbol, payload, fetched_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
    `

	_, err := r.db.ExecContext(ctx, query, CacheKey(symbol), symbol, string(payload), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to upsert quote_cache entry: %w", err)
	}

	return nil
}

// Delete removes the persisted payload for a symbol. Deleting a symbol that
// has no entry is not an error.
func (r *QuoteRepository) Delete(ctx context.Context, symbol string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM quote_cache WHERE cache_key = ?`, CacheKey(symbol))
	if err != nil {
		return fmt.Errorf("failed to delete quote_cache entry: %w", err)
	}

	return nil
}

// ListSymbols returns every symbol with a persisted payload. Delete-all is
// implemented by the caller as delete-by-key over this list.
func (r *QuoteRepository) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol FROM quote_cache ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote_cache symbols: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan quote_cache symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quote_cache table: %w", err)
	}

	return symbols, nil
}
