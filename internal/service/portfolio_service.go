package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/repository"
)

// PortfolioService orchestrates the calculate and rebalance cycles over the
// persisted holdings and target allocation.
//
// One cycle at a time: position lists are owned exclusively by the pass that
// mutates them, so a second calculate or rebalance while one is in flight is
// rejected with ErrCalculationInProgress. A failed pass clears the in-progress
// flag before surfacing the error so the caller can retry.
type PortfolioService struct {
	db               *sql.DB
	holdingRepo      *repository.HoldingRepository
	tradeRepo        *repository.TradeRepository
	valuationService *ValuationService
	rebalanceService *RebalanceService

	mu          sync.Mutex
	calculating bool
}

// NewPortfolioService creates a new PortfolioService with the provided
// repositories and engine services.
func NewPortfolioService(
	db *sql.DB,
	holdingRepo *repository.HoldingRepository,
	tradeRepo *repository.TradeRepository,
	valuationService *ValuationService,
	rebalanceService *RebalanceService,
) *PortfolioService {
	return &PortfolioService{
		db:               db,
		holdingRepo:      holdingRepo,
		tradeRepo:        tradeRepo,
		valuationService: valuationService,
		rebalanceService: rebalanceService,
	}
}

// CalculationResult is the outcome of a calculate pass: the valued positions
// and the aggregate market value they were valued against.
type CalculationResult struct {
	Positions          []model.Position `json:"positions"`
	OverallMarketValue float64          `json:"overallMarketValue"`
}

// RebalanceResult is the outcome of a rebalance pass. CashOnHand is the cash
// left after deploying the plan's surplus; negative means the plan as computed
// needs that much top-up funding.
type RebalanceResult struct {
	Positions          []model.Position `json:"positions"`
	OverallMarketValue float64          `json:"overallMarketValue"`
	CashOnHand         float64          `json:"cashOnHand"`
	RunID              string           `json:"runId"`
}

// Calculate values the current holdings against latest closes and prefetches
// quotes for every target symbol. No state is mutated; calling it twice with
// an unchanged quote cache and unchanged holdings yields identical results.
func (s *PortfolioService) Calculate(ctx context.Context) (CalculationResult, error) {
	if err := s.beginCalculation(); err != nil {
		return CalculationResult{}, err
	}
	defer s.endCalculation()

	positions, targets, err := s.loadPortfolio(ctx)
	if err != nil {
		return CalculationResult{}, err
	}

	valued, overallMarketValue, _, err := s.valuationService.Value(ctx, positions, targets)
	if err != nil {
		return CalculationResult{}, err
	}

	return CalculationResult{
		Positions:          valued,
		OverallMarketValue: overallMarketValue,
	}, nil
}

// Rebalance runs the full cycle: valuation, planning against the frozen
// snapshot, greedy deployment of any cash surplus, and atomic persistence of
// the resulting holdings plus a trade record per non-zero delta.
func (s *PortfolioService) Rebalance(ctx context.Context) (RebalanceResult, error) {
	if err := s.beginCalculation(); err != nil {
		return RebalanceResult{}, err
	}
	defer s.endCalculation()

	positions, targets, err := s.loadPortfolio(ctx)
	if err != nil {
		return RebalanceResult{}, err
	}

	valued, snapshot, quotes, err := s.valuationService.Value(ctx, positions, targets)
	if err != nil {
		return RebalanceResult{}, err
	}

	planned, cashDelta := s.rebalanceService.Plan(valued, snapshot, targets, quotes)

	final := planned
	cashOnHand := cashDelta
	if cashDelta > 0 {
		final = s.rebalanceService.Deploy(cashDelta, planned, targets, quotes, snapshot)
		// Deploy preserves position order; the cash it consumed is the sum of
		// the extra shares it bought at their close prices.
		for i := range final {
			bought := final[i].DeltaQuantity - planned[i].DeltaQuantity
			cashOnHand -= float64(bought) * quotes[final[i].Symbol].CloseValue
		}
	}

	runID := uuid.New().String()
	if err := s.applyRebalance(ctx, runID, final, quotes); err != nil {
		return RebalanceResult{}, err
	}

	return RebalanceResult{
		Positions:          final,
		OverallMarketValue: snapshot,
		CashOnHand:         cashOnHand,
		RunID:              runID,
	}, nil
}

// applyRebalance persists the post-rebalance quantities and the run's trades
// in one transaction.
func (s *PortfolioService) applyRebalance(ctx context.Context, runID string, positions []model.Position, quotes map[string]model.Quote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToPersistHoldings, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	holdingRepo := s.holdingRepo.WithTx(tx)
	tradeRepo := s.tradeRepo.WithTx(tx)

	executedAt := time.Now().UTC()
	trades := []model.Trade{}

	for _, p := range positions {
		if err := holdingRepo.UpsertHolding(ctx, p.Symbol, p.Quantity); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrFailedToPersistHoldings, err)
		}

		if p.DeltaQuantity == 0 {
			continue
		}
		trades = append(trades, model.Trade{
			ID:            uuid.New().String(),
			RunID:         runID,
			Symbol:        p.Symbol,
			DeltaQuantity: p.DeltaQuantity,
			CloseValue:    quotes[p.Symbol].CloseValue,
			ExecutedAt:    executedAt,
		})
	}

	if err := tradeRepo.InsertTrades(ctx, trades); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToPersistTrades, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToPersistHoldings, err)
	}

	return nil
}

// ResetHoldings restores the seeded original portfolio and returns it.
func (s *PortfolioService) ResetHoldings(ctx context.Context) ([]model.Holding, error) {
	if err := s.beginCalculation(); err != nil {
		return nil, err
	}
	defer s.endCalculation()

	if err := s.holdingRepo.ResetHoldings(ctx); err != nil {
		return nil, err
	}

	return s.holdingRepo.GetHoldings(ctx)
}

// GetHoldings retrieves the current holdings.
func (s *PortfolioService) GetHoldings(ctx context.Context) ([]model.Holding, error) {
	return s.holdingRepo.GetHoldings(ctx)
}

// GetTargetAllocations retrieves the target allocation.
func (s *PortfolioService) GetTargetAllocations(ctx context.Context) ([]model.TargetAllocation, error) {
	return s.holdingRepo.GetTargetAllocations(ctx)
}

// SetTargetAllocations replaces the full target allocation with the given set
// in one transaction. Replacing while a calculate or rebalance is in flight is
// rejected so the pass keeps working against a stable target set.
func (s *PortfolioService) SetTargetAllocations(ctx context.Context, targets []model.TargetAllocation) ([]model.TargetAllocation, error) {
	if err := s.beginCalculation(); err != nil {
		return nil, err
	}
	defer s.endCalculation()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToPersistTargets, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	holdingRepo := s.holdingRepo.WithTx(tx)
	if err := holdingRepo.ClearTargetAllocations(ctx); err != nil {
		return nil, err
	}
	for _, t := range targets {
		if err := holdingRepo.SetTargetAllocation(ctx, t.Symbol, t.PercentageOfPortfolio); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToPersistTargets, err)
	}

	return s.holdingRepo.GetTargetAllocations(ctx)
}

// GetTrades retrieves the trade history, most recent run first.
func (s *PortfolioService) GetTrades(ctx context.Context) ([]model.Trade, error) {
	return s.tradeRepo.GetTrades(ctx)
}

// loadPortfolio reads holdings and targets and shapes the holdings into
// fresh positions with delta, market value, and percentage zeroed.
func (s *PortfolioService) loadPortfolio(ctx context.Context) ([]model.Position, []model.TargetAllocation, error) {
	holdings, err := s.holdingRepo.GetHoldings(ctx)
	if err != nil {
		return nil, nil, err
	}

	targets, err := s.holdingRepo.GetTargetAllocations(ctx)
	if err != nil {
		return nil, nil, err
	}

	positions := make([]model.Position, len(holdings))
	for i, h := range holdings {
		positions[i] = model.Position{
			Symbol:   h.Symbol,
			Quantity: h.Quantity,
		}
	}

	return positions, targets, nil
}

func (s *PortfolioService) beginCalculation() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calculating {
		return apperrors.ErrCalculationInProgress
	}
	s.calculating = true
	return nil
}

func (s *PortfolioService) endCalculation() {
	s.mu.Lock()
	s.calculating = false
	s.mu.Unlock()
}
