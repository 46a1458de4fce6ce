package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/testutil"
)

// TestQuoteService_ResolveQuote tests the cache-then-fetch resolution chain.
//
// WHY: Quote resolution is the only I/O in a valuation pass and the resolution
// order (memory, persisted payload, live fetch) decides both correctness and
// how many API calls a pass costs against a rate-limited source.
func TestQuoteService_ResolveQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves from the persisted store without a live fetch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockAlphaVantageClient()
		svc := testutil.NewTestQuoteService(t, db, mock)

		date := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
		testutil.CacheQuote(t, db, "AAPL", testutil.CreateDailySeriesPayload("AAPL", 150, date))

		quote, err := svc.ResolveQuote(ctx, "AAPL")

		if err != nil {
			t.Fatalf("ResolveQuote() returned unexpected error: %v", err)
		}
		if quote.CloseValue != 150 {
			t.Errorf("Expected close 150, got %v", quote.CloseValue)
		}
		if mock.QueryCount != 0 {
			t.Errorf("Expected no live fetch, got %d", mock.QueryCount)
		}
	})

	t.Run("fetches live on a cache miss and persists the payload", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockAlphaVantageClient().WithClose("AAPL", 150)
		svc := testutil.NewTestQuoteService(t, db, mock)

		quote, err := svc.ResolveQuote(ctx, "AAPL")

		if err != nil {
			t.Fatalf("ResolveQuote() returned unexpected error: %v", err)
		}
		if quote.CloseValue != 150 {
			t.Errorf("Expected close 150, got %v", quote.CloseValue)
		}
		if mock.QueryCount != 1 {
			t.Errorf("Expected 1 live fetch, got %d", mock.QueryCount)
		}

		// Payload must be persisted for future sessions.
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM quote_cache WHERE symbol = 'AAPL'`).Scan(&count); err != nil {
			t.Fatalf("Failed to count cached quotes: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 persisted payload, got %d", count)
		}
	})

	t.Run("memoizes within a session", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockAlphaVantageClient().WithClose("AAPL", 150)
		svc := testutil.NewTestQuoteService(t, db, mock)

		if _, err := svc.ResolveQuote(ctx, "AAPL"); err != nil {
			t.Fatalf("ResolveQuote() returned unexpected error: %v", err)
		}
		if _, err := svc.ResolveQuote(ctx, "AAPL"); err != nil {
			t.Fatalf("ResolveQuote() returned unexpected error: %v", err)
		}

		if mock.QueryCount != 1 {
			t.Errorf("Expected 1 live fetch across repeated resolutions, got %d", mock.QueryCount)
		}
	})

	t.Run("refetches when the persisted payload is unparseable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockAlphaVantageClient().WithClose("AAPL", 150)
		svc := testutil.NewTestQuoteService(t, db, mock)

		// A stored rate-limit message is valid JSON but carries no series.
		testutil.CacheQuote(t, db, "AAPL", testutil.CreateRateLimitPayload())

		quote, err := svc.ResolveQuote(ctx, "AAPL")

		if err != nil {
			t.Fatalf("ResolveQuote() returned unexpected error: %v", err)
		}
		if quote.CloseValue != 150 {
			t.Errorf("Expected close 150 from live fetch, got %v", quote.CloseValue)
		}
		if mock.QueryCount != 1 {
			t.Errorf("Expected 1 live fetch, got %d", mock.QueryCount)
		}
	})

	t.Run("wraps failures as quote unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockAlphaVantageClient().WithError(errors.New("connection refused"))
		svc := testutil.NewTestQuoteService(t, db, mock)

		_, err := svc.ResolveQuote(ctx, "AAPL")

		if !errors.Is(err, apperrors.ErrQuoteUnavailable) {
			t.Fatalf("Expected ErrQuoteUnavailable, got %v", err)
		}
	})

	t.Run("wraps unparseable live payloads as quote unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockAlphaVantageClient().WithPayload("AAPL", testutil.CreateErrorPayload())
		svc := testutil.NewTestQuoteService(t, db, mock)

		_, err := svc.ResolveQuote(ctx, "AAPL")

		if !errors.Is(err, apperrors.ErrQuoteUnavailable) {
			t.Fatalf("Expected ErrQuoteUnavailable, got %v", err)
		}
	})

	t.Run("concurrent resolutions share a single fetch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockAlphaVantageClient().WithClose("AAPL", 150)
		svc := testutil.NewTestQuoteService(t, db, mock)

		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.ResolveQuote(ctx, "AAPL")
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("ResolveQuote() goroutine %d returned unexpected error: %v", i, err)
			}
		}
		if mock.QueryCount != 1 {
			t.Errorf("Expected concurrent resolutions to share 1 fetch, got %d", mock.QueryCount)
		}
	})
}

// TestQuoteService_Invalidate tests cache invalidation.
//
// WHY: Invalidation is how stale closes are flushed, both on the API surface
// and on the refresh schedule; it must clear the persisted store and the
// in-memory session cache together or a stale price survives.
func TestQuoteService_Invalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidating a symbol forces a refetch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockAlphaVantageClient().WithClose("AAPL", 150)
		svc := testutil.NewTestQuoteService(t, db, mock)

		if _, err := svc.ResolveQuote(ctx, "AAPL"); err != nil {
			t.Fatalf("ResolveQuote() returned unexpected error: %v", err)
		}

		if err := svc.Invalidate(ctx, "AAPL"); err != nil {
			t.Fatalf("Invalidate() returned unexpected error: %v", err)
		}

		// Price moved; only a refetch can see it.
		mock.WithClose("AAPL", 155)

		quote, err := svc.ResolveQuote(ctx, "AAPL")
		if err != nil {
			t.Fatalf("ResolveQuote() returned unexpected error: %v", err)
		}
		if quote.CloseValue != 155 {
			t.Errorf("Expected refetched close 155, got %v", quote.CloseValue)
		}
		if mock.QueryCount != 2 {
			t.Errorf("Expected 2 fetches after invalidation, got %d", mock.QueryCount)
		}
	})

	t.Run("invalidating everything clears persisted and in-memory entries", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockAlphaVantageClient().WithClose("AAPL", 150).WithClose("GOOG", 100)
		svc := testutil.NewTestQuoteService(t, db, mock)

		if _, err := svc.ResolveQuote(ctx, "AAPL"); err != nil {
			t.Fatalf("ResolveQuote() returned unexpected error: %v", err)
		}
		if _, err := svc.ResolveQuote(ctx, "GOOG"); err != nil {
			t.Fatalf("ResolveQuote() returned unexpected error: %v", err)
		}

		if err := svc.Invalidate(ctx); err != nil {
			t.Fatalf("Invalidate() returned unexpected error: %v", err)
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM quote_cache`).Scan(&count); err != nil {
			t.Fatalf("Failed to count cached quotes: %v", err)
		}
		if count != 0 {
			t.Errorf("Expected empty quote_cache, got %d rows", count)
		}
		if len(svc.ResolvedQuotes()) != 0 {
			t.Errorf("Expected empty session cache, got %d entries", len(svc.ResolvedQuotes()))
		}
	})
}
