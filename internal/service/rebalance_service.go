package service

import (
	"math"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/model"
)

// RebalanceService computes the whole-share trades that move a valued
// portfolio toward a target allocation, and greedily deploys any resulting
// cash surplus into additional shares.
//
// Every percentage and share-delta computation in one planning pass uses the
// same frozen snapshot denominator (the aggregate market value produced by
// the valuation), which makes the per-symbol results order-independent even
// though individual market values change as the plan is applied.
type RebalanceService struct{}

// NewRebalanceService creates a new RebalanceService.
func NewRebalanceService() *RebalanceService {
	return &RebalanceService{}
}

// Plan computes the integer share delta for every symbol that should be held,
// added, or liquidated, and the resulting cash surplus or deficit.
//
// Two passes, both against overallMarketValue (the frozen snapshot):
//
//  1. Held positions. A symbol absent from the target allocation is fully
//     liquidated: its pre-plan market value is freed as cash and the position
//     is retained at quantity 0. Otherwise the share delta is
//     floor(deltaPct/100 * snapshot / close) - floor, not truncation, so a
//     negative delta on a tie sells one more share than exact proportional
//     math would. The new quantity is clamped at 0; a plan never drives a
//     holding negative.
//  2. Target symbols not currently held enter as fresh acquisitions sized
//     floor(targetPct/100 * snapshot / close), their full market value drawn
//     from cash.
//
// A positive cashDelta is cash freed up; a negative one means the plan needs
// top-up funding. That is not an error: target percentages are not required
// to sum to 100.
//
// The input slice is not mutated; callers own the returned positions.
func (s *RebalanceService) Plan(
	positions []model.Position,
	overallMarketValue float64,
	targets []model.TargetAllocation,
	quotes map[string]model.Quote,
) ([]model.Position, float64) {

	targetBySymbol := make(map[string]model.TargetAllocation, len(targets))
	for _, t := range targets {
		targetBySymbol[t.Symbol] = t
	}
	held := make(map[string]bool, len(positions))
	for _, p := range positions {
		held[p.Symbol] = true
	}

	planned := make([]model.Position, 0, len(positions)+len(targets))
	var cashDelta float64

	for _, p := range positions {
		target, wanted := targetBySymbol[p.Symbol]
		if !wanted {
			// Dump everything not in the target allocation.
			cashDelta += p.MarketValue
			planned = append(planned, model.Position{
				Symbol:                p.Symbol,
				Quantity:              0,
				DeltaQuantity:         -p.Quantity,
				MarketValue:           0,
				PercentageOfPortfolio: 0,
			})
			continue
		}

		closeValue := quotes[p.Symbol].CloseValue
		deltaPct := target.PercentageOfPortfolio - p.PercentageOfPortfolio
		delta := shareDelta(deltaPct, overallMarketValue, closeValue)

		newQuantity := p.Quantity + delta
		if newQuantity < 0 {
			newQuantity = 0
			delta = -p.Quantity
		}

		newMarketValue := float64(newQuantity) * closeValue
		cashDelta += p.MarketValue - newMarketValue

		planned = append(planned, model.Position{
			Symbol:                p.Symbol,
			Quantity:              newQuantity,
			DeltaQuantity:         delta,
			MarketValue:           newMarketValue,
			PercentageOfPortfolio: percentageOf(newMarketValue, overallMarketValue),
		})
	}

	for _, t := range targets {
		if held[t.Symbol] {
			continue
		}

		closeValue := quotes[t.Symbol].CloseValue
		quantity := shareDelta(t.PercentageOfPortfolio, overallMarketValue, closeValue)
		marketValue := float64(quantity) * closeValue
		cashDelta -= marketValue

		planned = append(planned, model.Position{
			Symbol:                t.Symbol,
			Quantity:              quantity,
			DeltaQuantity:         quantity,
			MarketValue:           marketValue,
			PercentageOfPortfolio: percentageOf(marketValue, overallMarketValue),
		})
	}

	return planned, cashDelta
}

// shareDelta converts a percentage-point change of the snapshot value into a
// whole-share count at the given close price. Floor semantics: a deltaPct of
// exactly 0 yields 0, negative deltas round away from zero.
func shareDelta(deltaPct, overallMarketValue, closeValue float64) int64 {
	if closeValue <= 0 {
		return 0
	}
	return int64(math.Floor(deltaPct / 100 * overallMarketValue / closeValue))
}

// Deploy spends a non-negative cash surplus on additional whole shares of
// symbols in the target allocation, one share at a time, round-robin over the
// positions.
//
// An iterative state machine over a circular index: a position whose symbol is
// targeted and whose close price fits in the remaining cash is bought (one
// share, failure counter reset); anything else counts a failure. The loop
// terminates when a full round produces no buy or the cash is exhausted -
// every successful buy strictly decreases cashOnHand, so termination is
// bounded by cash/minPrice + len(positions) steps.
//
// Percentages are recomputed against the same snapshot denominator the
// planner used. The input slice is not mutated.
func (s *RebalanceService) Deploy(
	cashOnHand float64,
	positions []model.Position,
	targets []model.TargetAllocation,
	quotes map[string]model.Quote,
	overallMarketValue float64,
) []model.Position {

	deployed := make([]model.Position, len(positions))
	copy(deployed, positions)

	if len(deployed) == 0 || cashOnHand <= 0 {
		return deployed
	}

	targeted := make(map[string]bool, len(targets))
	for _, t := range targets {
		targeted[t.Symbol] = true
	}

	index := 0
	consecutiveFailures := 0

	for cashOnHand > 0 {
		p := &deployed[index]
		closeValue := quotes[p.Symbol].CloseValue

		if targeted[p.Symbol] && closeValue > 0 && closeValue <= cashOnHand {
			p.Quantity++
			p.DeltaQuantity++
			p.MarketValue = float64(p.Quantity) * closeValue
			p.PercentageOfPortfolio = percentageOf(p.MarketValue, overallMarketValue)
			cashOnHand -= closeValue
			consecutiveFailures = 0
		} else {
			consecutiveFailures++
		}

		index++
		if index >= len(deployed) {
			index = 0
		}
		if consecutiveFailures == len(deployed) {
			break
		}
	}

	return deployed
}
