package request

// TargetAllocation is the body for PUT /api/portfolio/target.
type TargetAllocation struct {
	Symbol                string  `json:"symbol"`
	PercentageOfPortfolio float64 `json:"percentageOfPortfolio"`
}
