package model

import "time"

// Quote is the resolved latest closing price for one symbol. Date is the most
// recent trading date present in the provider payload the close was taken from.
type Quote struct {
	Symbol     string    `json:"symbol"`
	CloseValue float64   `json:"closeValue"`
	Date       time.Time `json:"date"`
}

// CachedQuote represents a persisted raw quote-source payload as stored in the
// quote_cache table. Payload is the unmodified provider response; it is parsed
// again on read so the extraction logic has a single implementation.
type CachedQuote struct {
	CacheKey  string    `json:"cacheKey"`
	Symbol    string    `json:"symbol"`
	Payload   []byte    `json:"-"`
	FetchedAt time.Time `json:"fetchedAt"`
}
