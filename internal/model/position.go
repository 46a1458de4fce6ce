package model

// Position represents one held or newly-acquired stock line in the portfolio.
//
// Quantity is the authoritative current holding size and is always a whole
// number of shares, never negative. DeltaQuantity is the net change applied
// during the current planning/deployment pass (positive = bought, negative =
// sold); it resets to 0 at the start of each valuation pass. A liquidated
// symbol is retained with Quantity 0 rather than removed, so callers can see
// the full sell-down in DeltaQuantity.
type Position struct {
	Symbol                string  `json:"symbol"`
	Quantity              int64   `json:"quantity"`
	DeltaQuantity         int64   `json:"deltaQuantity"`
	MarketValue           float64 `json:"marketValue"`
	PercentageOfPortfolio float64 `json:"percentageOfPortfolio"`
}

// TargetAllocation describes the desired weight of one symbol, expressed as
// percent of total portfolio value. Target percentages are not required to
// sum to 100: any shortfall becomes unallocated cash surplus, any excess a
// cash deficit the caller must fund externally.
type TargetAllocation struct {
	Symbol                string  `json:"symbol"`
	PercentageOfPortfolio float64 `json:"percentageOfPortfolio"`
}

// Holding represents a persisted portfolio line as stored in the holding
// table. OriginalQuantity preserves the seeded portfolio so a reset can
// restore it after rebalances have been applied.
type Holding struct {
	Symbol           string `json:"symbol"`
	Quantity         int64  `json:"quantity"`
	OriginalQuantity int64  `json:"originalQuantity"`
}
