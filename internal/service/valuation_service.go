package service

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
)

// ValuationService turns holdings plus quotes into per-position market values
// and portfolio-relative percentages.
type ValuationService struct {
	quoteService *QuoteService
}

// NewValuationService creates a new ValuationService backed by the provided
// quote service.
func NewValuationService(quoteService *QuoteService) *ValuationService {
	return &ValuationService{quoteService: quoteService}
}

// Value computes market values and percentages for the given positions and
// returns the aggregate market value along with every quote resolved for the
// pass.
//
// Quotes are resolved for all held symbols and prefetched for every
// target-allocation symbol not already held, so the rebalance planner never
// blocks on I/O. Resolution fans out concurrently and joins on an
// all-or-abort barrier: if any quote fails the whole pass fails and no
// partial valuation is returned.
//
// The returned aggregate is the snapshot denominator for the enclosing
// calculate/rebalance cycle. Each percentage is computed against it, never
// against a running total; a zero aggregate (empty or all-zero portfolio)
// reports 0% for every position rather than dividing by zero.
func (s *ValuationService) Value(
	ctx context.Context,
	positions []model.Position,
	targets []model.TargetAllocation,
) ([]model.Position, float64, map[string]model.Quote, error) {

	symbols := make(map[string]bool, len(positions)+len(targets))
	for _, p := range positions {
		symbols[p.Symbol] = true
	}
	for _, t := range targets {
		symbols[t.Symbol] = true
	}

	quotes := make(map[string]model.Quote, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			quote, err := s.quoteService.ResolveQuote(gctx, symbol)
			if err != nil {
				return err
			}
			mu.Lock()
			quotes[symbol] = quote
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, nil, err
	}

	valued := make([]model.Position, len(positions))
	var overallMarketValue float64
	for i, p := range positions {
		p.DeltaQuantity = 0
		p.MarketValue = round2(float64(p.Quantity) * quotes[p.Symbol].CloseValue)
		overallMarketValue += p.MarketValue
		valued[i] = p
	}

	for i := range valued {
		valued[i].PercentageOfPortfolio = percentageOf(valued[i].MarketValue, overallMarketValue)
	}

	return valued, overallMarketValue, quotes, nil
}

// round2 rounds a monetary value to two decimal places.
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// percentageOf returns value as a percentage of total, or 0 when the total is
// zero.
func percentageOf(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return value / total * 100
}
