package model

import "time"

// Trade records one non-zero share delta applied by a rebalance run. All
// trades of a single run share a RunID so the history endpoint can group them.
type Trade struct {
	ID            string    `json:"id"`
	RunID         string    `json:"runId"`
	Symbol        string    `json:"symbol"`
	DeltaQuantity int64     `json:"deltaQuantity"`
	CloseValue    float64   `json:"closeValue"`
	ExecutedAt    time.Time `json:"executedAt"`
}
