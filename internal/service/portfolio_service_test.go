package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/testutil"
)

// TestPortfolioService_Calculate tests the read-only valuation cycle.
//
// WHY: Calculate is the endpoint users hit most; it must touch no state so
// repeated invocations with an unchanged cache are identical, and it must
// fail whole when any quote is unavailable.
func TestPortfolioService_Calculate(t *testing.T) {
	ctx := context.Background()

	t.Run("values the seeded portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewHolding("AAPL").WithQuantity(50).Seeded().Build(t, db)
		testutil.NewHolding("GOOG").WithQuantity(200).Seeded().Build(t, db)
		testutil.NewTarget("AAPL", 22).Build(t, db)
		testutil.NewTarget("GOOG", 38).Build(t, db)

		mock := testutil.NewMockAlphaVantageClient().
			WithClose("AAPL", 150).
			WithClose("GOOG", 100)
		svc := testutil.NewTestPortfolioService(t, db, mock)

		result, err := svc.Calculate(ctx)

		if err != nil {
			t.Fatalf("Calculate() returned unexpected error: %v", err)
		}
		if result.OverallMarketValue != 27500 {
			t.Errorf("Expected overall market value 27500, got %v", result.OverallMarketValue)
		}
		if len(result.Positions) != 2 {
			t.Fatalf("Expected 2 positions, got %d", len(result.Positions))
		}
	})

	t.Run("is idempotent with an unchanged cache and holdings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewHolding("AAPL").WithQuantity(50).Seeded().Build(t, db)
		testutil.NewTarget("AAPL", 22).Build(t, db)

		mock := testutil.NewMockAlphaVantageClient().WithClose("AAPL", 150)
		svc := testutil.NewTestPortfolioService(t, db, mock)

		first, err := svc.Calculate(ctx)
		if err != nil {
			t.Fatalf("Calculate() returned unexpected error: %v", err)
		}
		second, err := svc.Calculate(ctx)
		if err != nil {
			t.Fatalf("Calculate() returned unexpected error: %v", err)
		}

		if first.OverallMarketValue != second.OverallMarketValue {
			t.Errorf("Expected identical aggregates, got %v then %v", first.OverallMarketValue, second.OverallMarketValue)
		}
		for i := range first.Positions {
			if first.Positions[i] != second.Positions[i] {
				t.Errorf("Expected identical positions, got %+v then %+v", first.Positions[i], second.Positions[i])
			}
		}
		if mock.QueryCount != 1 {
			t.Errorf("Expected the second pass to reuse cached quotes, got %d fetches", mock.QueryCount)
		}
	})

	t.Run("fails whole when a quote is unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewHolding("AAPL").WithQuantity(50).Seeded().Build(t, db)
		testutil.NewHolding("GOOG").WithQuantity(200).Seeded().Build(t, db)

		mock := testutil.NewMockAlphaVantageClient().WithClose("AAPL", 150)
		svc := testutil.NewTestPortfolioService(t, db, mock)

		_, err := svc.Calculate(ctx)

		if !errors.Is(err, apperrors.ErrQuoteUnavailable) {
			t.Fatalf("Expected ErrQuoteUnavailable, got %v", err)
		}
	})

	t.Run("clears the in-progress flag after a failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewHolding("AAPL").WithQuantity(50).Seeded().Build(t, db)

		mock := testutil.NewMockAlphaVantageClient()
		svc := testutil.NewTestPortfolioService(t, db, mock)

		if _, err := svc.Calculate(ctx); err == nil {
			t.Fatal("Expected first calculate to fail")
		}

		// A failed pass must not leave the engine locked.
		mock.WithClose("AAPL", 150)
		if _, err := svc.Calculate(ctx); err != nil {
			t.Fatalf("Expected retry to succeed after failure, got %v", err)
		}
	})
}

// TestPortfolioService_Rebalance tests the full rebalance cycle end to end:
// valuation, planning, cash deployment, and atomic persistence.
//
// WHY: This is the scenario the engine exists for; the hand-checked share
// counts pin down floor semantics, liquidation, acquisition, and the
// round-robin deployment of the 160 surplus in one pass.
func TestPortfolioService_Rebalance(t *testing.T) {
	ctx := context.Background()

	t.Run("rebalances the scenario portfolio and persists the outcome", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewHolding("AAPL").WithQuantity(50).Seeded().Build(t, db)
		testutil.NewHolding("GOOG").WithQuantity(200).Seeded().Build(t, db)
		testutil.NewHolding("CYBR").WithQuantity(150).Seeded().Build(t, db)
		testutil.NewHolding("ABB").WithQuantity(900).Seeded().Build(t, db)
		testutil.NewTarget("AAPL", 22).Build(t, db)
		testutil.NewTarget("GOOG", 38).Build(t, db)
		testutil.NewTarget("GFN", 25).Build(t, db)
		testutil.NewTarget("ACAD", 15).Build(t, db)

		mock := testutil.NewMockAlphaVantageClient().
			WithClose("AAPL", 150).
			WithClose("GOOG", 100).
			WithClose("CYBR", 80).
			WithClose("ABB", 20).
			WithClose("GFN", 40).
			WithClose("ACAD", 60)
		svc := testutil.NewTestPortfolioService(t, db, mock)

		result, err := svc.Rebalance(ctx)

		if err != nil {
			t.Fatalf("Rebalance() returned unexpected error: %v", err)
		}
		if result.OverallMarketValue != 57500 {
			t.Fatalf("Expected snapshot 57500, got %v", result.OverallMarketValue)
		}

		// Plan leaves a 160 surplus; deployment buys one more AAPL at 150.
		expected := map[string]int64{
			"AAPL": 85,
			"GOOG": 218,
			"CYBR": 0,
			"ABB":  0,
			"GFN":  359,
			"ACAD": 143,
		}
		for _, p := range result.Positions {
			if want, ok := expected[p.Symbol]; !ok || p.Quantity != want {
				t.Errorf("Expected %s quantity %d, got %d", p.Symbol, want, p.Quantity)
			}
		}
		if !almostEqual(result.CashOnHand, 10) {
			t.Errorf("Expected 10 cash left after deployment, got %v", result.CashOnHand)
		}
		if result.RunID == "" {
			t.Error("Expected a run ID")
		}

		// Persisted holdings mirror the final positions.
		holdings, err := svc.GetHoldings(ctx)
		if err != nil {
			t.Fatalf("GetHoldings() returned unexpected error: %v", err)
		}
		if len(holdings) != 6 {
			t.Fatalf("Expected 6 persisted holdings, got %d", len(holdings))
		}
		for _, h := range holdings {
			if h.Quantity != expected[h.Symbol] {
				t.Errorf("Expected persisted %s quantity %d, got %d", h.Symbol, expected[h.Symbol], h.Quantity)
			}
		}

		// One trade per non-zero delta, all sharing the run ID.
		trades, err := svc.GetTrades(ctx)
		if err != nil {
			t.Fatalf("GetTrades() returned unexpected error: %v", err)
		}
		if len(trades) != 6 {
			t.Fatalf("Expected 6 trades, got %d", len(trades))
		}
		for _, trade := range trades {
			if trade.RunID != result.RunID {
				t.Errorf("Expected trade run ID %s, got %s", result.RunID, trade.RunID)
			}
			if trade.DeltaQuantity == 0 {
				t.Errorf("Expected only non-zero deltas recorded, got 0 for %s", trade.Symbol)
			}
		}
	})

	t.Run("persists nothing when a quote is unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewHolding("AAPL").WithQuantity(50).Seeded().Build(t, db)
		testutil.NewTarget("GFN", 25).Build(t, db)

		// AAPL resolves, the unheld target GFN does not.
		mock := testutil.NewMockAlphaVantageClient().WithClose("AAPL", 150)
		svc := testutil.NewTestPortfolioService(t, db, mock)

		_, err := svc.Rebalance(ctx)

		if !errors.Is(err, apperrors.ErrQuoteUnavailable) {
			t.Fatalf("Expected ErrQuoteUnavailable, got %v", err)
		}

		holdings, err := svc.GetHoldings(ctx)
		if err != nil {
			t.Fatalf("GetHoldings() returned unexpected error: %v", err)
		}
		if len(holdings) != 1 || holdings[0].Quantity != 50 {
			t.Errorf("Expected holdings untouched after abort, got %+v", holdings)
		}

		trades, err := svc.GetTrades(ctx)
		if err != nil {
			t.Fatalf("GetTrades() returned unexpected error: %v", err)
		}
		if len(trades) != 0 {
			t.Errorf("Expected no trades after abort, got %d", len(trades))
		}
	})
}

// TestPortfolioService_ResetHoldings tests restoring the seeded portfolio
// through the service.
func TestPortfolioService_ResetHoldings(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the portfolio a rebalance reshaped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewHolding("AAPL").WithQuantity(50).Seeded().Build(t, db)
		testutil.NewHolding("CYBR").WithQuantity(150).Seeded().Build(t, db)
		testutil.NewTarget("AAPL", 22).Build(t, db)
		testutil.NewTarget("GFN", 25).Build(t, db)

		mock := testutil.NewMockAlphaVantageClient().
			WithClose("AAPL", 150).
			WithClose("CYBR", 80).
			WithClose("GFN", 40)
		svc := testutil.NewTestPortfolioService(t, db, mock)

		if _, err := svc.Rebalance(ctx); err != nil {
			t.Fatalf("Rebalance() returned unexpected error: %v", err)
		}

		holdings, err := svc.ResetHoldings(ctx)
		if err != nil {
			t.Fatalf("ResetHoldings() returned unexpected error: %v", err)
		}

		if len(holdings) != 2 {
			t.Fatalf("Expected the 2 seeded holdings, got %d", len(holdings))
		}
		if holdings[0].Symbol != "AAPL" || holdings[0].Quantity != 50 {
			t.Errorf("Expected AAPL restored to 50, got %s:%d", holdings[0].Symbol, holdings[0].Quantity)
		}
		if holdings[1].Symbol != "CYBR" || holdings[1].Quantity != 150 {
			t.Errorf("Expected CYBR restored to 150, got %s:%d", holdings[1].Symbol, holdings[1].Quantity)
		}
	})
}

// TestPortfolioService_SetTargetAllocations tests replacing the target set.
func TestPortfolioService_SetTargetAllocations(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the existing targets completely", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewTarget("AAPL", 22).Build(t, db)
		testutil.NewTarget("GOOG", 38).Build(t, db)

		svc := testutil.NewTestPortfolioService(t, db, testutil.NewMockAlphaVantageClient())

		updated, err := svc.SetTargetAllocations(ctx, []model.TargetAllocation{
			{Symbol: "GFN", PercentageOfPortfolio: 60},
			{Symbol: "ACAD", PercentageOfPortfolio: 40},
		})

		if err != nil {
			t.Fatalf("SetTargetAllocations() returned unexpected error: %v", err)
		}
		if len(updated) != 2 {
			t.Fatalf("Expected 2 targets after replace, got %d", len(updated))
		}
		if updated[0].Symbol != "ACAD" || updated[1].Symbol != "GFN" {
			t.Errorf("Expected old targets replaced, got %+v", updated)
		}
	})
}
